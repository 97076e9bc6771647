package merge

import "github.com/siegeai/siegeschema/schema"

// Schema merges a and b into one schema that describes values of either. The first
// matching rule wins:
//
//  1. an Optional on either side is unwrapped, the rest merged, and the result re-wrapped
//  2. an object against a non-object becomes a union
//  3. two objects merge key by key; a key on one side only becomes Optional
//  4. equal schemas merge to themselves
//  5. a union on either side is flattened and normalized with the other side
//  6. two arrays merge their element schemas
//  7. a literal against a literal or primitive of the same base type widens to the primitive
//  8. anything else becomes a union
//
// Neither input is modified.
func Schema(a, b schema.Schema) schema.Schema {
	if a == nil && b == nil {
		return nil
	}
	if a != nil && b == nil {
		return a
	}
	if a == nil && b != nil {
		return b
	}

	if a.Kind() == schema.KindOptional || b.Kind() == schema.KindOptional {
		ua, _ := schema.Unwrap(a)
		ub, _ := schema.Unwrap(b)
		return schema.NewOptional(Schema(ua, ub))
	}

	aIsObject := a.Kind() == schema.KindObject
	bIsObject := b.Kind() == schema.KindObject
	if aIsObject != bIsObject {
		return union(a, b)
	}
	if aIsObject && bIsObject {
		return mergeObjects(a.AsObject(), b.AsObject())
	}

	if schema.Equal(a, b) {
		return a
	}

	if a.Kind() == schema.KindUnion || b.Kind() == schema.KindUnion {
		return union(a, b)
	}

	if a.Kind() == schema.KindArray && b.Kind() == schema.KindArray {
		return mergeArrays(a.AsArray(), b.AsArray())
	}

	if w, ok := widen(a, b); ok {
		return w
	}

	return union(a, b)
}

// All folds Schema over ss from the left. It returns nil for no schemas.
func All(ss ...schema.Schema) schema.Schema {
	var res schema.Schema
	for _, s := range ss {
		res = Schema(res, s)
	}
	return res
}

func mergeObjects(a, b *schema.ObjectSchema) schema.Schema {
	fields := make([]schema.ObjectSchemaField, 0, max(len(a.Fields), len(b.Fields)))

	for _, f := range a.Fields {
		if w, in := b.Get(f.Key); in {
			fields = append(fields, schema.Field(f.Key, Schema(f.Value, w)))
		} else {
			fields = append(fields, schema.Field(f.Key, schema.NewOptional(f.Value)))
		}
	}

	for _, f := range b.Fields {
		if a.Has(f.Key) {
			continue
		}
		fields = append(fields, schema.Field(f.Key, schema.NewOptional(f.Value)))
	}

	return &schema.ObjectSchema{Fields: fields}
}

func mergeArrays(a, b *schema.ArraySchema) schema.Schema {
	return schema.NewArray(Schema(a.Element, b.Element))
}

// widen handles a literal merged with a literal or primitive of the same base type: "x"
// merged with "y" or with string is string.
func widen(a, b schema.Schema) (schema.Schema, bool) {
	if a.Kind() == schema.KindPrimitive {
		a, b = b, a
	}
	if a.Kind() != schema.KindLiteral {
		return nil, false
	}
	l := a.AsLiteral()

	switch b.Kind() {
	case schema.KindLiteral:
		// two integer literals widen to integer, not number
		if b.AsLiteral().Type == l.Type {
			return &schema.PrimitiveSchema{Type: l.Type}, true
		}
	case schema.KindPrimitive:
		p := b.AsPrimitive()
		if schema.Covers(p, l) {
			return &schema.PrimitiveSchema{Type: p.Type}, true
		}
	}

	return nil, false
}
