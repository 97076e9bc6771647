package infer

import (
	"encoding/json"
	"math/big"
	"reflect"
	"sort"

	"github.com/valyala/fastjson"

	"github.com/siegeai/siegeschema/merge"
	"github.com/siegeai/siegeschema/schema"
)

// Symbol is an opaque symbolic value with no JSON form. It converts to the symbol
// primitive.
type Symbol string

// Convert maps one raw value to a schema. Nested arrays and objects are converted
// recursively; array elements are folded together with merge.Schema. Values outside the
// supported domain become any.
func Convert(v any) schema.Schema {
	switch x := v.(type) {
	case nil:
		return schema.Null()
	case string:
		return schema.String()
	case bool:
		return schema.Boolean()
	case Symbol:
		return schema.Symbol()
	case *fastjson.Value:
		return convertFastJsonValue(x)
	case *fastjson.Object:
		if x == nil {
			return schema.Null()
		}
		return convertEntries(fastJsonObjectEntries(x))
	case json.RawMessage:
		p, err := fastjson.ParseBytes(x)
		if err != nil {
			return schema.Any()
		}
		return convertFastJsonValue(p)
	case []any:
		return convertArray(len(x), func(i int) any { return x[i] })
	case map[string]any:
		return convertEntries(mapEntries(x))
	case *big.Int:
		if x == nil {
			return schema.Null()
		}
		return schema.Integer()
	}

	if f, ok := schema.NumberValue(v); ok {
		return convertNumber(f)
	}

	return convertReflect(reflect.ValueOf(v))
}

func convertNumber(f float64) schema.Schema {
	if schema.IsIntegral(f) {
		return schema.Integer()
	}
	return schema.Number()
}

func convertArray(n int, at func(i int) any) schema.Schema {
	if n == 0 {
		return schema.NewArray(schema.Unknown())
	}
	var element schema.Schema
	for i := 0; i < n; i++ {
		element = merge.Schema(element, Convert(at(i)))
	}
	return schema.NewArray(element)
}

func convertEntries(es []entry) schema.Schema {
	fields := make([]schema.ObjectSchemaField, len(es))
	for i, e := range es {
		fields[i] = schema.Field(e.key, Convert(e.value))
	}
	return &schema.ObjectSchema{Fields: fields}
}

func convertFastJsonValue(v *fastjson.Value) schema.Schema {
	if v == nil {
		return schema.Null()
	}

	switch v.Type() {
	case fastjson.TypeObject:
		o, _ := v.Object()
		return convertEntries(fastJsonObjectEntries(o))
	case fastjson.TypeArray:
		a, _ := v.Array()
		return convertArray(len(a), func(i int) any { return a[i] })
	case fastjson.TypeString:
		return schema.String()
	case fastjson.TypeNumber:
		n, err := v.Float64()
		if err != nil {
			return schema.Number()
		}
		return convertNumber(n)
	case fastjson.TypeTrue, fastjson.TypeFalse:
		return schema.Boolean()
	case fastjson.TypeNull:
		return schema.Null()
	}

	panic("should be unreachable")
}

// convertReflect handles named scalar types, typed slices, string-keyed maps and pointers.
func convertReflect(rv reflect.Value) schema.Schema {
	switch rv.Kind() {
	case reflect.Invalid:
		return schema.Null()
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return schema.Null()
		}
		return Convert(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return schema.Null()
		}
		return convertArray(rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	case reflect.Array:
		return convertArray(rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return schema.Any()
		}
		if rv.IsNil() {
			return schema.Null()
		}
		return convertEntries(reflectMapEntries(rv))
	case reflect.String:
		return schema.String()
	case reflect.Bool:
		return schema.Boolean()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return schema.Integer()
	case reflect.Float32, reflect.Float64:
		return convertNumber(rv.Float())
	}
	return schema.Any()
}

type entry struct {
	key   string
	value any
}

// entries reports the properties of a plain object in one of the accepted representations.
func entries(v any) ([]entry, bool) {
	switch x := v.(type) {
	case map[string]any:
		if x == nil {
			return nil, false
		}
		return mapEntries(x), true
	case *fastjson.Object:
		if x == nil {
			return nil, false
		}
		return fastJsonObjectEntries(x), true
	case *fastjson.Value:
		if x == nil || x.Type() != fastjson.TypeObject {
			return nil, false
		}
		o, _ := x.Object()
		return fastJsonObjectEntries(o), true
	}
	return nil, false
}

func mapEntries(m map[string]any) []entry {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	es := make([]entry, len(keys))
	for i, k := range keys {
		es[i] = entry{key: k, value: m[k]}
	}
	return es
}

func reflectMapEntries(rv reflect.Value) []entry {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	es := make([]entry, len(keys))
	for i, k := range keys {
		es[i] = entry{key: k.String(), value: rv.MapIndex(k).Interface()}
	}
	return es
}

// fastJsonObjectEntries keeps document order. A repeated key keeps its first position and
// its last value.
func fastJsonObjectEntries(o *fastjson.Object) []entry {
	es := make([]entry, 0, o.Len())
	seen := make(map[string]int, o.Len())
	o.Visit(func(key []byte, v *fastjson.Value) {
		k := string(key)
		if i, ok := seen[k]; ok {
			es[i].value = v
			return
		}
		seen[k] = len(es)
		es = append(es, entry{key: k, value: v})
	})
	return es
}

// literal encodes v as an exact constant when it is a string, number or boolean.
func literal(v any) (*schema.LiteralSchema, bool) {
	fv, ok := v.(*fastjson.Value)
	if !ok {
		return schema.NewLiteral(v)
	}
	if fv == nil {
		return nil, false
	}

	switch fv.Type() {
	case fastjson.TypeString:
		return schema.NewLiteral(string(fv.GetStringBytes()))
	case fastjson.TypeNumber:
		n, err := fv.Float64()
		if err != nil {
			return nil, false
		}
		return schema.NewLiteral(n)
	case fastjson.TypeTrue:
		return schema.NewLiteral(true)
	case fastjson.TypeFalse:
		return schema.NewLiteral(false)
	}
	return nil, false
}
