package schema

import (
	"math"
	"sort"

	"github.com/valyala/fastjson"
)

// Equal is a structural comparison. Object field order and union member order are
// ignored.
func Equal(a, b Schema) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch a.Kind() {
	case KindPrimitive:
		return a.AsPrimitive().Type == b.AsPrimitive().Type
	case KindLiteral:
		return equalLiterals(a.AsLiteral(), b.AsLiteral())
	case KindArray:
		return Equal(a.AsArray().Element, b.AsArray().Element)
	case KindObject:
		return equalObjects(a.AsObject(), b.AsObject())
	case KindUnion:
		return equalMembers(a.AsUnion().Members, b.AsUnion().Members)
	case KindOptional:
		return Equal(a.AsOptional().Inner, b.AsOptional().Inner)
	}

	panic("should be unreachable")
}

func equalLiterals(a, b *LiteralSchema) bool {
	if a.Type != b.Type {
		return false
	}
	af, aok := a.Value.(float64)
	bf, bok := b.Value.(float64)
	if aok && bok {
		return af == bf || (math.IsNaN(af) && math.IsNaN(bf))
	}
	return a.Value == b.Value
}

func equalObjects(a, b *ObjectSchema) bool {
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for _, f := range a.Fields {
		w, in := b.Get(f.Key)
		if !in {
			return false
		}
		if !Equal(f.Value, w) {
			return false
		}
	}
	return true
}

// equalMembers sorts both sides by Key and then compares pairwise, which avoids a
// permutation search on wide unions.
func equalMembers(a, b []Schema) bool {
	if len(a) != len(b) {
		return false
	}
	as := sortedByKey(a)
	bs := sortedByKey(b)
	for i := range as {
		if !Equal(as[i], bs[i]) {
			return false
		}
	}
	return true
}

func sortedByKey(ms []Schema) []Schema {
	type keyed struct {
		key string
		s   Schema
	}
	ks := make([]keyed, len(ms))
	for i, m := range ms {
		ks[i] = keyed{key: Key(m), s: m}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].key < ks[j].key })

	res := make([]Schema, len(ks))
	for i, k := range ks {
		res[i] = k.s
	}
	return res
}

// Key is a deterministic JSON serialization of s with object properties and union members
// sorted. Schemas that are Equal have the same Key.
func Key(s Schema) string {
	a := &fastjson.Arena{}
	return string(keyValue(a, s).MarshalTo(nil))
}

func keyValue(a *fastjson.Arena, s Schema) *fastjson.Value {
	obj := a.NewObject()

	switch s.Kind() {
	case KindPrimitive:
		obj.Set("type", a.NewString(string(s.AsPrimitive().Type)))
	case KindLiteral:
		l := s.AsLiteral()
		obj.Set("type", a.NewString(string(l.Type)))
		obj.Set("const", literalValue(a, l))
	case KindArray:
		obj.Set("type", a.NewString("array"))
		obj.Set("items", keyValue(a, s.AsArray().Element))
	case KindObject:
		o := s.AsObject()
		keys := o.Keys()
		sort.Strings(keys)
		props := a.NewObject()
		for _, k := range keys {
			v, _ := o.Get(k)
			props.Set(k, keyValue(a, v))
		}
		obj.Set("type", a.NewString("object"))
		obj.Set("properties", props)
	case KindUnion:
		type keyed struct {
			key string
			v   *fastjson.Value
		}
		members := s.AsUnion().Members
		ks := make([]keyed, len(members))
		for i, m := range members {
			v := keyValue(a, m)
			ks[i] = keyed{key: string(v.MarshalTo(nil)), v: v}
		}
		sort.SliceStable(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
		arr := a.NewArray()
		for i, k := range ks {
			arr.SetArrayItem(i, k.v)
		}
		obj.Set("anyOf", arr)
	case KindOptional:
		obj.Set("optional", keyValue(a, s.AsOptional().Inner))
	default:
		panic("should be unreachable")
	}

	return obj
}

func literalValue(a *fastjson.Arena, l *LiteralSchema) *fastjson.Value {
	switch v := l.Value.(type) {
	case string:
		return a.NewString(v)
	case bool:
		if v {
			return a.NewTrue()
		}
		return a.NewFalse()
	case float64:
		return a.NewNumberFloat64(v)
	}
	return a.NewNull()
}
