package schema

// Clone returns a deep copy of s that shares no nodes with it.
func Clone(s Schema) Schema {
	if s == nil {
		return nil
	}

	switch s.Kind() {
	case KindPrimitive:
		p := *s.AsPrimitive()
		return &p
	case KindLiteral:
		l := *s.AsLiteral()
		return &l
	case KindArray:
		return &ArraySchema{Element: Clone(s.AsArray().Element)}
	case KindObject:
		return CloneObject(s.AsObject())
	case KindUnion:
		ms := s.AsUnion().Members
		res := make([]Schema, len(ms))
		for i, m := range ms {
			res[i] = Clone(m)
		}
		return &UnionSchema{Members: res}
	case KindOptional:
		return &OptionalSchema{Inner: Clone(s.AsOptional().Inner)}
	}

	panic("should be unreachable")
}

func CloneObject(o *ObjectSchema) *ObjectSchema {
	fs := make([]ObjectSchemaField, len(o.Fields))
	for i, f := range o.Fields {
		fs[i] = ObjectSchemaField{Key: f.Key, Value: Clone(f.Value)}
	}
	return &ObjectSchema{Fields: fs}
}
