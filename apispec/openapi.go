package apispec

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/siegeai/siegeschema/schema"
)

// ExtensionSymbol marks a schema for symbolic values, which have no JSON form.
const ExtensionSymbol = "x-symbol"

// ToOpenAPI converts s to an OpenAPI 3.0 schema. Optional markers become the enclosing
// object's required list; an Optional outside an object is dropped.
func ToOpenAPI(s schema.Schema) *openapi3.Schema {
	if s == nil {
		return openapi3.NewSchema()
	}

	switch s.Kind() {
	case schema.KindPrimitive:
		return primitive(s.AsPrimitive().Type)
	case schema.KindLiteral:
		l := s.AsLiteral()
		res := primitive(l.Type)
		res.Enum = []interface{}{l.Value}
		return res
	case schema.KindArray:
		return &openapi3.Schema{
			Type:  openapi3.TypeArray,
			Items: ToOpenAPI(s.AsArray().Element).NewRef(),
		}
	case schema.KindObject:
		return object(s.AsObject())
	case schema.KindUnion:
		return union(s.AsUnion())
	case schema.KindOptional:
		return ToOpenAPI(s.AsOptional().Inner)
	}

	panic("should be unreachable")
}

func primitive(t schema.Type) *openapi3.Schema {
	switch t {
	case schema.TypeString:
		return openapi3.NewStringSchema()
	case schema.TypeInteger:
		return openapi3.NewIntegerSchema()
	case schema.TypeNumber:
		return &openapi3.Schema{Type: openapi3.TypeNumber}
	case schema.TypeBoolean:
		return openapi3.NewBoolSchema()
	case schema.TypeNull, schema.TypeAny, schema.TypeUnknown:
		// 3.0 has no null type
		return &openapi3.Schema{Nullable: true}
	case schema.TypeSymbol:
		return &openapi3.Schema{Extensions: map[string]interface{}{ExtensionSymbol: true}}
	}

	panic("should be unreachable")
}

func object(o *schema.ObjectSchema) *openapi3.Schema {
	res := &openapi3.Schema{
		Type:       openapi3.TypeObject,
		Properties: make(openapi3.Schemas, len(o.Fields)),
	}
	for _, f := range o.Fields {
		inner, optional := schema.Unwrap(f.Value)
		res.Properties[f.Key] = ToOpenAPI(inner).NewRef()
		if !optional {
			res.Required = append(res.Required, f.Key)
		}
	}
	return res
}

// union lifts a null member into nullable, and collapses to the remaining member when
// there is only one.
func union(u *schema.UnionSchema) *openapi3.Schema {
	nullable := false
	rest := make([]schema.Schema, 0, len(u.Members))
	for _, m := range u.Members {
		if m.Kind() == schema.KindPrimitive && m.AsPrimitive().Type == schema.TypeNull {
			nullable = true
			continue
		}
		rest = append(rest, m)
	}

	if len(rest) == 1 {
		res := ToOpenAPI(rest[0])
		res.Nullable = res.Nullable || nullable
		return res
	}

	refs := make(openapi3.SchemaRefs, len(rest))
	for i, m := range rest {
		refs[i] = ToOpenAPI(m).NewRef()
	}
	return &openapi3.Schema{
		AnyOf:    refs,
		Nullable: nullable,
	}
}
