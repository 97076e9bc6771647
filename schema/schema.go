package schema

type Kind int

const (
	KindPrimitive Kind = 1
	KindLiteral   Kind = 2
	KindArray     Kind = 3
	KindObject    Kind = 4
	KindUnion     Kind = 5
	KindOptional  Kind = 6
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindLiteral:
		return "literal"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindUnion:
		return "union"
	case KindOptional:
		return "optional"
	}
	return "invalid"
}

// Type is the base type of a Primitive or Literal.
type Type string

const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeNull    Type = "null"
	TypeSymbol  Type = "symbol"
	TypeAny     Type = "any"
	TypeUnknown Type = "unknown"
)

// Schema is a tree describing the shape of sampled data. Values are treated as immutable
// once built; every operation in this module returns new nodes instead of editing inputs.
type Schema interface {
	Kind() Kind
	AsPrimitive() *PrimitiveSchema
	AsLiteral() *LiteralSchema
	AsArray() *ArraySchema
	AsObject() *ObjectSchema
	AsUnion() *UnionSchema
	AsOptional() *OptionalSchema
}

type PrimitiveSchema struct {
	Type Type
}

func (p *PrimitiveSchema) Kind() Kind {
	return KindPrimitive
}

func (p *PrimitiveSchema) AsPrimitive() *PrimitiveSchema {
	return p
}

func (p *PrimitiveSchema) AsLiteral() *LiteralSchema {
	panic("primitive is not a literal")
}

func (p *PrimitiveSchema) AsArray() *ArraySchema {
	panic("primitive is not an array")
}

func (p *PrimitiveSchema) AsObject() *ObjectSchema {
	panic("primitive is not an object")
}

func (p *PrimitiveSchema) AsUnion() *UnionSchema {
	panic("primitive is not a union")
}

func (p *PrimitiveSchema) AsOptional() *OptionalSchema {
	panic("primitive is not optional")
}

// LiteralSchema is an exact constant. Value is a string, float64 or bool.
type LiteralSchema struct {
	Type  Type
	Value any
}

func (l *LiteralSchema) Kind() Kind {
	return KindLiteral
}

func (l *LiteralSchema) AsPrimitive() *PrimitiveSchema {
	panic("literal is not a primitive")
}

func (l *LiteralSchema) AsLiteral() *LiteralSchema {
	return l
}

func (l *LiteralSchema) AsArray() *ArraySchema {
	panic("literal is not an array")
}

func (l *LiteralSchema) AsObject() *ObjectSchema {
	panic("literal is not an object")
}

func (l *LiteralSchema) AsUnion() *UnionSchema {
	panic("literal is not a union")
}

func (l *LiteralSchema) AsOptional() *OptionalSchema {
	panic("literal is not optional")
}

type ArraySchema struct {
	Element Schema
}

func (a *ArraySchema) Kind() Kind {
	return KindArray
}

func (a *ArraySchema) AsPrimitive() *PrimitiveSchema {
	panic("array is not a primitive")
}

func (a *ArraySchema) AsLiteral() *LiteralSchema {
	panic("array is not a literal")
}

func (a *ArraySchema) AsArray() *ArraySchema {
	return a
}

func (a *ArraySchema) AsObject() *ObjectSchema {
	panic("array is not an object")
}

func (a *ArraySchema) AsUnion() *UnionSchema {
	panic("array is not a union")
}

func (a *ArraySchema) AsOptional() *OptionalSchema {
	panic("array is not optional")
}

// ObjectSchema keeps fields in order of first appearance. Order is not significant for
// Equal.
type ObjectSchema struct {
	Fields []ObjectSchemaField
}

type ObjectSchemaField struct {
	Key   string
	Value Schema
}

func (o *ObjectSchema) Kind() Kind {
	return KindObject
}

func (o *ObjectSchema) AsPrimitive() *PrimitiveSchema {
	panic("object is not a primitive")
}

func (o *ObjectSchema) AsLiteral() *LiteralSchema {
	panic("object is not a literal")
}

func (o *ObjectSchema) AsArray() *ArraySchema {
	panic("object is not an array")
}

func (o *ObjectSchema) AsObject() *ObjectSchema {
	return o
}

func (o *ObjectSchema) AsUnion() *UnionSchema {
	panic("object is not a union")
}

func (o *ObjectSchema) AsOptional() *OptionalSchema {
	panic("object is not optional")
}

// Get returns the schema stored under key.
func (o *ObjectSchema) Get(key string) (Schema, bool) {
	i := o.index(key)
	if i < 0 {
		return nil, false
	}
	return o.Fields[i].Value, true
}

// Has reports whether key is a field of o.
func (o *ObjectSchema) Has(key string) bool {
	return o.index(key) >= 0
}

// Set replaces the schema under key, appending a new field if key is absent.
func (o *ObjectSchema) Set(key string, value Schema) {
	if i := o.index(key); i >= 0 {
		o.Fields[i].Value = value
		return
	}
	o.Fields = append(o.Fields, ObjectSchemaField{Key: key, Value: value})
}

// Keys returns field names in field order.
func (o *ObjectSchema) Keys() []string {
	ks := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		ks[i] = f.Key
	}
	return ks
}

func (o *ObjectSchema) index(key string) int {
	for i, f := range o.Fields {
		if f.Key == key {
			return i
		}
	}
	return -1
}

// UnionSchema never holds another union directly and never holds two equal members.
type UnionSchema struct {
	Members []Schema
}

func (u *UnionSchema) Kind() Kind {
	return KindUnion
}

func (u *UnionSchema) AsPrimitive() *PrimitiveSchema {
	panic("union is not a primitive")
}

func (u *UnionSchema) AsLiteral() *LiteralSchema {
	panic("union is not a literal")
}

func (u *UnionSchema) AsArray() *ArraySchema {
	panic("union is not an array")
}

func (u *UnionSchema) AsObject() *ObjectSchema {
	panic("union is not an object")
}

func (u *UnionSchema) AsUnion() *UnionSchema {
	return u
}

func (u *UnionSchema) AsOptional() *OptionalSchema {
	panic("union is not optional")
}

// OptionalSchema marks a property that is not present in every sample. Inner is never
// itself optional.
type OptionalSchema struct {
	Inner Schema
}

func (o *OptionalSchema) Kind() Kind {
	return KindOptional
}

func (o *OptionalSchema) AsPrimitive() *PrimitiveSchema {
	panic("optional is not a primitive")
}

func (o *OptionalSchema) AsLiteral() *LiteralSchema {
	panic("optional is not a literal")
}

func (o *OptionalSchema) AsArray() *ArraySchema {
	panic("optional is not an array")
}

func (o *OptionalSchema) AsObject() *ObjectSchema {
	panic("optional is not an object")
}

func (o *OptionalSchema) AsUnion() *UnionSchema {
	panic("optional is not a union")
}

func (o *OptionalSchema) AsOptional() *OptionalSchema {
	return o
}

func String() *PrimitiveSchema {
	return &PrimitiveSchema{Type: TypeString}
}

func Integer() *PrimitiveSchema {
	return &PrimitiveSchema{Type: TypeInteger}
}

func Number() *PrimitiveSchema {
	return &PrimitiveSchema{Type: TypeNumber}
}

func Boolean() *PrimitiveSchema {
	return &PrimitiveSchema{Type: TypeBoolean}
}

func Null() *PrimitiveSchema {
	return &PrimitiveSchema{Type: TypeNull}
}

func Symbol() *PrimitiveSchema {
	return &PrimitiveSchema{Type: TypeSymbol}
}

func Any() *PrimitiveSchema {
	return &PrimitiveSchema{Type: TypeAny}
}

func Unknown() *PrimitiveSchema {
	return &PrimitiveSchema{Type: TypeUnknown}
}

// NewLiteral builds a Literal from a string, bool or numeric value. The second result is
// false when v has no literal representation.
func NewLiteral(v any) (*LiteralSchema, bool) {
	switch x := v.(type) {
	case string:
		return &LiteralSchema{Type: TypeString, Value: x}, true
	case bool:
		return &LiteralSchema{Type: TypeBoolean, Value: x}, true
	}
	f, ok := NumberValue(v)
	if !ok {
		return nil, false
	}
	if f == 0 {
		f = 0 // drop the sign of -0
	}
	if IsIntegral(f) {
		return &LiteralSchema{Type: TypeInteger, Value: f}, true
	}
	return &LiteralSchema{Type: TypeNumber, Value: f}, true
}

// MustLiteral is NewLiteral for values known to be literal-able.
func MustLiteral(v any) *LiteralSchema {
	l, ok := NewLiteral(v)
	if !ok {
		panic("value has no literal representation")
	}
	return l
}

func NewArray(element Schema) *ArraySchema {
	return &ArraySchema{Element: element}
}

func NewObject(fields ...ObjectSchemaField) *ObjectSchema {
	fs := make([]ObjectSchemaField, 0, len(fields))
	return &ObjectSchema{Fields: append(fs, fields...)}
}

// Field is shorthand for an ObjectSchemaField.
func Field(key string, value Schema) ObjectSchemaField {
	return ObjectSchemaField{Key: key, Value: value}
}

// NewUnion flattens nested unions and drops members equal to an earlier one. It does not
// absorb literals; that is the merge package's job.
func NewUnion(members ...Schema) *UnionSchema {
	res := make([]Schema, 0, len(members))
	var add func(s Schema)
	add = func(s Schema) {
		if s.Kind() == KindUnion {
			for _, m := range s.AsUnion().Members {
				add(m)
			}
			return
		}
		for _, m := range res {
			if Equal(m, s) {
				return
			}
		}
		res = append(res, s)
	}
	for _, m := range members {
		add(m)
	}
	return &UnionSchema{Members: res}
}

// NewOptional wraps s, leaving an already optional schema as is.
func NewOptional(s Schema) *OptionalSchema {
	if s.Kind() == KindOptional {
		return s.AsOptional()
	}
	return &OptionalSchema{Inner: s}
}

// Unwrap strips an Optional marker, reporting whether there was one.
func Unwrap(s Schema) (Schema, bool) {
	if s.Kind() == KindOptional {
		return s.AsOptional().Inner, true
	}
	return s, false
}

// Covers reports whether the primitive p already describes every value of literal l.
func Covers(p *PrimitiveSchema, l *LiteralSchema) bool {
	if p.Type == l.Type {
		return true
	}
	return p.Type == TypeNumber && l.Type == TypeInteger
}
