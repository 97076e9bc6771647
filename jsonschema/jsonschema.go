package jsonschema

import (
	js "github.com/invopop/jsonschema"

	"github.com/siegeai/siegeschema/schema"
)

// ExtensionSymbol marks a schema for symbolic values, which have no JSON form.
const ExtensionSymbol = "x-symbol"

// FromSchema converts s to a Draft 2020-12 JSON Schema document.
func FromSchema(s schema.Schema) *js.Schema {
	res := convert(s)
	res.Version = js.Version
	return res
}

func convert(s schema.Schema) *js.Schema {
	if s == nil {
		return &js.Schema{}
	}

	switch s.Kind() {
	case schema.KindPrimitive:
		return primitive(s.AsPrimitive().Type)
	case schema.KindLiteral:
		l := s.AsLiteral()
		res := primitive(l.Type)
		res.Const = l.Value
		return res
	case schema.KindArray:
		return &js.Schema{
			Type:  "array",
			Items: convert(s.AsArray().Element),
		}
	case schema.KindObject:
		o := s.AsObject()
		res := &js.Schema{
			Type:       "object",
			Properties: js.NewProperties(),
		}
		for _, f := range o.Fields {
			inner, optional := schema.Unwrap(f.Value)
			res.Properties.Set(f.Key, convert(inner))
			if !optional {
				res.Required = append(res.Required, f.Key)
			}
		}
		return res
	case schema.KindUnion:
		ms := s.AsUnion().Members
		anyOf := make([]*js.Schema, len(ms))
		for i, m := range ms {
			anyOf[i] = convert(m)
		}
		return &js.Schema{AnyOf: anyOf}
	case schema.KindOptional:
		return convert(s.AsOptional().Inner)
	}

	panic("should be unreachable")
}

func primitive(t schema.Type) *js.Schema {
	switch t {
	case schema.TypeString, schema.TypeInteger, schema.TypeNumber, schema.TypeBoolean, schema.TypeNull:
		return &js.Schema{Type: string(t)}
	case schema.TypeAny, schema.TypeUnknown:
		return &js.Schema{}
	case schema.TypeSymbol:
		return &js.Schema{Extras: map[string]any{ExtensionSymbol: true}}
	}

	panic("should be unreachable")
}
