package infer

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siegeai/siegeschema/fake"
	"github.com/siegeai/siegeschema/schema"
)

func allPrimitives() map[string]any {
	return map[string]any{
		"keyNumber":  2,
		"keyInteger": 2.9,
		"keyString":  "str",
		"keySymbol":  Symbol("key"),
		"keyBoolean": false,
		"keyObject":  map[string]any{},
		"keyNull":    nil,
		"keyArray":   []any{},
	}
}

var allPrimitivesSchema = schema.NewObject(
	schema.Field("keyNumber", schema.Integer()),
	schema.Field("keyInteger", schema.Number()),
	schema.Field("keyString", schema.String()),
	schema.Field("keySymbol", schema.Symbol()),
	schema.Field("keyBoolean", schema.Boolean()),
	schema.Field("keyObject", schema.NewObject()),
	schema.Field("keyNull", schema.Null()),
	schema.Field("keyArray", schema.NewArray(schema.Unknown())),
)

func TestBuilderEmpty(t *testing.T) {
	b := NewBuilder(Config{})
	assertSchema(t, schema.NewObject(), b.Produce())
	assert.Equal(t, 0, b.Samples())
}

func TestBuilderSameTypesUnchanged(t *testing.T) {
	b := NewBuilder(Config{})
	addAll(t, b, allPrimitives())
	assertSchema(t, allPrimitivesSchema, b.Produce())

	addAll(t, b, allPrimitives())
	assertSchema(t, allPrimitivesSchema, b.Produce())
	assert.Equal(t, 2, b.Samples())
}

func TestBuilderDifferentTypesUnion(t *testing.T) {
	b := NewBuilder(Config{})
	addAll(t, b, allPrimitives(), map[string]any{
		"keyNumber":  "str",
		"keyInteger": "str",
		"keyString":  3,
		"keySymbol":  "str",
		"keyBoolean": "str",
		"keyObject":  "str",
		"keyNull":    "str",
		"keyArray":   "str",
	})

	expected := schema.NewObject(
		schema.Field("keyNumber", schema.NewUnion(schema.Integer(), schema.String())),
		schema.Field("keyInteger", schema.NewUnion(schema.Number(), schema.String())),
		schema.Field("keyString", schema.NewUnion(schema.String(), schema.Integer())),
		schema.Field("keySymbol", schema.NewUnion(schema.Symbol(), schema.String())),
		schema.Field("keyBoolean", schema.NewUnion(schema.Boolean(), schema.String())),
		schema.Field("keyObject", schema.NewUnion(schema.NewObject(), schema.String())),
		schema.Field("keyNull", schema.NewUnion(schema.Null(), schema.String())),
		schema.Field("keyArray", schema.NewUnion(schema.NewArray(schema.Unknown()), schema.String())),
	)
	assertSchema(t, expected, b.Produce())
}

func TestBuilderMissingKeyBecomesOptional(t *testing.T) {
	b := NewBuilder(Config{})
	addAll(t, b, map[string]any{"key": "str", "optionalKey": "str"})
	assertSchema(t, schema.NewObject(
		schema.Field("key", schema.String()),
		schema.Field("optionalKey", schema.String()),
	), b.Produce())

	addAll(t, b, map[string]any{"key": 2})
	assertSchema(t, schema.NewObject(
		schema.Field("key", schema.NewUnion(schema.String(), schema.Integer())),
		schema.Field("optionalKey", schema.NewOptional(schema.String())),
	), b.Produce())
}

func TestBuilderMissingKeyStaysSingleOptional(t *testing.T) {
	b := NewBuilder(Config{})
	addAll(t, b, map[string]any{"key": "str", "optionalKey": "str"},
		map[string]any{"key": "a"},
		map[string]any{"key": "b"})

	v, _ := b.Produce().Get("optionalKey")
	assert.Equal(t, schema.KindOptional, v.Kind())
	assert.Equal(t, schema.KindPrimitive, v.AsOptional().Inner.Kind())
}

func TestBuilderNewKeyBecomesOptional(t *testing.T) {
	b := NewBuilder(Config{})
	addAll(t, b, map[string]any{"key2": "str"})
	assertSchema(t, schema.NewObject(schema.Field("key2", schema.String())), b.Produce())

	addAll(t, b, map[string]any{"key": "str"})
	assertSchema(t, schema.NewObject(
		schema.Field("key", schema.NewOptional(schema.String())),
		schema.Field("key2", schema.NewOptional(schema.String())),
	), b.Produce())
}

func TestBuilderSameTypeDoesNotUnion(t *testing.T) {
	b := NewBuilder(Config{})
	addAll(t, b, map[string]any{"key": "str"}, map[string]any{"key": "str"})
	assertSchema(t, schema.NewObject(schema.Field("key", schema.String())), b.Produce())
}

func TestBuilderArrays(t *testing.T) {
	b := NewBuilder(Config{})
	addAll(t, b, map[string]any{"key": []any{1, "str"}})
	assertSchema(t, schema.NewObject(
		schema.Field("key", schema.NewArray(schema.NewUnion(schema.Integer(), schema.String()))),
	), b.Produce())

	b = NewBuilder(Config{})
	addAll(t, b, map[string]any{"key": []any{}})
	assertSchema(t, schema.NewObject(schema.Field("key", schema.NewArray(schema.Unknown()))), b.Produce())
}

func TestBuilderArraysAcrossSamples(t *testing.T) {
	b := NewBuilder(Config{})
	addAll(t, b, map[string]any{"key": []any{}}, map[string]any{"key": []any{"str"}})
	assertSchema(t, schema.NewObject(
		schema.Field("key", schema.NewArray(schema.NewUnion(schema.Unknown(), schema.String()))),
	), b.Produce())
}

func TestBuilderNestedObject(t *testing.T) {
	b := NewBuilder(Config{})
	addAll(t, b, map[string]any{"key": map[string]any{"nestedKey": "str"}})
	assertSchema(t, schema.NewObject(
		schema.Field("key", schema.NewObject(schema.Field("nestedKey", schema.String()))),
	), b.Produce())
}

func TestBuilderNestedKeyAddedLater(t *testing.T) {
	b := NewBuilder(Config{})
	addAll(t, b,
		map[string]any{"key": "str"},
		map[string]any{"key": "str", "nestedKey": map[string]any{"key": "nested str"}})

	assertSchema(t, schema.NewObject(
		schema.Field("key", schema.String()),
		schema.Field("nestedKey", schema.NewOptional(schema.NewObject(schema.Field("key", schema.String())))),
	), b.Produce())
}

func TestBuilderObjectAgainstString(t *testing.T) {
	b := NewBuilder(Config{})
	addAll(t, b,
		map[string]any{"key": "str"},
		map[string]any{"key": map[string]any{"key": "nested str"}, "optionalKey": false})

	assertSchema(t, schema.NewObject(
		schema.Field("key", schema.NewUnion(schema.String(), schema.NewObject(schema.Field("key", schema.String())))),
		schema.Field("optionalKey", schema.NewOptional(schema.Boolean())),
	), b.Produce())
}

func TestBuilderSymbolAddedLater(t *testing.T) {
	b := NewBuilder(Config{})
	addAll(t, b,
		map[string]any{"key": "str"},
		map[string]any{"key": true, "optionalKey": Symbol("optional")})

	assertSchema(t, schema.NewObject(
		schema.Field("key", schema.NewUnion(schema.String(), schema.Boolean())),
		schema.Field("optionalKey", schema.NewOptional(schema.Symbol())),
	), b.Produce())
}

func TestBuilderNestedObjectsMergeKeys(t *testing.T) {
	b := NewBuilder(Config{})
	addAllBytes(t, b,
		`{"user": {"id": 1, "name": "a"}}`,
		`{"user": {"id": 2, "email": "b@example.com"}}`)

	assertSchema(t, schema.NewObject(
		schema.Field("user", schema.NewObject(
			schema.Field("id", schema.Integer()),
			schema.Field("name", schema.NewOptional(schema.String())),
			schema.Field("email", schema.NewOptional(schema.String())),
		)),
	), b.Produce())
}

func TestBuilderLiteralKeys(t *testing.T) {
	cases := []struct {
		name     string
		value    any
		expected schema.Schema
	}{
		{"string", "str", schema.MustLiteral("str")},
		{"number", 5.6, schema.MustLiteral(5.6)},
		{"integer", 5, schema.MustLiteral(5)},
		{"boolean", true, schema.MustLiteral(true)},
		{"null", nil, schema.Null()},
		{"array", []any{"str"}, schema.NewArray(schema.String())},
		{"object", map[string]any{}, schema.NewObject()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := NewBuilder(Config{LiteralKeys: []string{"key"}})
			addAll(t, b, map[string]any{"key": c.value, "other": "str"})
			assertSchema(t, schema.NewObject(
				schema.Field("key", c.expected),
				schema.Field("other", schema.String()),
			), b.Produce())
		})
	}
}

func TestBuilderLiteralKeyRepeated(t *testing.T) {
	b := NewBuilder(Config{LiteralKeys: []string{"key"}})
	addAll(t, b, map[string]any{"key": "a"}, map[string]any{"key": "a"})
	assertSchema(t, schema.NewObject(schema.Field("key", schema.MustLiteral("a"))), b.Produce())
}

func TestBuilderLiteralKeyWidens(t *testing.T) {
	b := NewBuilder(Config{LiteralKeys: []string{"key"}})
	addAll(t, b, map[string]any{"key": "a"}, map[string]any{"key": "b"})
	assertSchema(t, schema.NewObject(schema.Field("key", schema.String())), b.Produce())

	b = NewBuilder(Config{LiteralKeys: []string{"key"}})
	addAll(t, b, map[string]any{"key": "a"}, map[string]any{"key": 1})
	assertSchema(t, schema.NewObject(
		schema.Field("key", schema.NewUnion(schema.MustLiteral("a"), schema.MustLiteral(1))),
	), b.Produce())
}

func TestBuilderLiteralKeyNewKey(t *testing.T) {
	b := NewBuilder(Config{LiteralKeys: []string{"key"}})
	addAll(t, b, map[string]any{"other": 1}, map[string]any{"other": 2, "key": "k"})
	assertSchema(t, schema.NewObject(
		schema.Field("other", schema.Integer()),
		schema.Field("key", schema.NewOptional(schema.MustLiteral("k"))),
	), b.Produce())
}

func TestBuilderNestedLiteralPropagation(t *testing.T) {
	expected := schema.NewObject(
		schema.Field("key", schema.NewUnion(
			schema.MustLiteral("str"),
			schema.NewObject(schema.Field("key", schema.MustLiteral("nested str"))),
		)),
		schema.Field("optionalKey", schema.NewOptional(schema.Boolean())),
	)
	first := map[string]any{"key": "str"}
	second := map[string]any{"key": map[string]any{"key": "nested str"}, "optionalKey": false}

	b := NewBuilder(Config{LiteralKeys: []string{"key"}})
	addAll(t, b, first, second)
	assertSchema(t, expected, b.Produce())

	b = NewBuilder(Config{LiteralKeys: []string{"key"}})
	addAll(t, b, second, first)
	assertSchema(t, expected, b.Produce())
}

func TestBuilderNestedLiteralPropagationFromBytes(t *testing.T) {
	b := NewBuilder(Config{LiteralKeys: []string{"kind"}})
	addAllBytes(t, b,
		`{"kind": "user", "child": {"kind": "profile"}}`,
		`{"kind": "user", "child": {"kind": "profile", "age": 3}}`)

	// child is converted in the first sample, so its kind starts out as string
	assertSchema(t, schema.NewObject(
		schema.Field("kind", schema.MustLiteral("user")),
		schema.Field("child", schema.NewObject(
			schema.Field("kind", schema.String()),
			schema.Field("age", schema.NewOptional(schema.Integer())),
		)),
	), b.Produce())
}

func TestBuilderNestedLiteralUnderLiteralKey(t *testing.T) {
	b := NewBuilder(Config{LiteralKeys: []string{"kind"}})
	addAllBytes(t, b,
		`{"kind": {"kind": "profile"}}`,
		`{"kind": {"kind": "profile", "age": 3}}`)

	assertSchema(t, schema.NewObject(
		schema.Field("kind", schema.NewObject(
			schema.Field("kind", schema.MustLiteral("profile")),
			schema.Field("age", schema.NewOptional(schema.Integer())),
		)),
	), b.Produce())
}

func TestBuilderIdempotent(t *testing.T) {
	sample := map[string]any{
		"key":    "str",
		"nested": map[string]any{"a": []any{1, 2.5}},
		"flag":   true,
	}

	once := NewBuilder(Config{})
	addAll(t, once, sample)

	twice := NewBuilder(Config{})
	addAll(t, twice, sample, sample)

	assertSchema(t, once.Produce(), twice.Produce())
}

func TestBuilderProduceIsSnapshot(t *testing.T) {
	b := NewBuilder(Config{})
	addAll(t, b, map[string]any{"key": "str", "nested": map[string]any{"a": 1}})
	first := b.Produce()
	key := schema.Key(first)

	addAll(t, b, map[string]any{"key": 5, "nested": map[string]any{"b": 1}})
	assert.Equal(t, key, schema.Key(first))
	assert.False(t, schema.Equal(first, b.Produce()))

	first.Set("key", schema.Null())
	v, _ := b.Produce().Get("key")
	assertSchema(t, schema.NewUnion(schema.String(), schema.Integer()), v)
}

func TestBuilderPreservesKeyOrder(t *testing.T) {
	b := NewBuilder(Config{})
	addAllBytes(t, b, `{"z": 1, "a": 2}`, `{"m": 3, "a": 4}`)
	assert.Equal(t, []string{"z", "a", "m"}, b.Produce().Keys())
}

func TestBuilderRejectsNonObjects(t *testing.T) {
	b := NewBuilder(Config{})
	for _, v := range []any{"str", 1, nil, []any{}, Symbol("x"), map[string]any(nil)} {
		err := b.AddSample(v)
		assert.ErrorIs(t, err, ErrNotObject)
	}
	assert.ErrorIs(t, b.AddSampleBytes([]byte(`[1, 2]`)), ErrNotObject)
	assert.ErrorIs(t, b.AddSampleBytes([]byte(`"str"`)), ErrNotObject)
	assert.Equal(t, 0, b.Samples())
	assertSchema(t, schema.NewObject(), b.Produce())
}

func TestBuilderRejectsBadJson(t *testing.T) {
	b := NewBuilder(Config{})
	addAllBytes(t, b, `{"key": "str"}`)

	err := b.AddSampleBytes([]byte(`{"key": `))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotObject)
	assert.Equal(t, 1, b.Samples())
	assertSchema(t, schema.NewObject(schema.Field("key", schema.String())), b.Produce())
}

func TestBuilderRejectionDoesNotInitialize(t *testing.T) {
	b := NewBuilder(Config{})
	require.Error(t, b.AddSample("str"))
	addAll(t, b, map[string]any{"key": "str"})
	assertSchema(t, schema.NewObject(schema.Field("key", schema.String())), b.Produce())
}

func TestBuilderLiteralKeyUnderPlainKey(t *testing.T) {
	first := map[string]any{"child": map[string]any{"kind": "a"}}
	second := map[string]any{"child": map[string]any{"kind": "a", "n": 1}}
	expected := schema.NewObject(schema.Field("child", schema.NewObject(
		schema.Field("kind", schema.String()),
		schema.Field("n", schema.NewOptional(schema.Integer())),
	)))

	b := NewBuilder(Config{LiteralKeys: []string{"kind"}})
	addAll(t, b, first, second)
	assertSchema(t, expected, b.Produce())

	b = NewBuilder(Config{LiteralKeys: []string{"kind"}})
	addAll(t, b, second, first)
	assertSchema(t, expected, b.Produce())
}

func TestBuilderFirstSampleConvertsPlainKeyObjects(t *testing.T) {
	sample := map[string]any{"meta": map[string]any{"id": "a"}}
	expected := schema.NewObject(schema.Field("meta", schema.NewObject(schema.Field("id", schema.String()))))

	b := NewBuilder(Config{LiteralKeys: []string{"id"}})
	addAll(t, b, sample)
	assertSchema(t, expected, b.Produce())

	addAll(t, b, sample)
	assertSchema(t, expected, b.Produce())
}

func TestBuilderNewKeyConvertsPlainKeyObjects(t *testing.T) {
	b := NewBuilder(Config{LiteralKeys: []string{"id"}})
	addAll(t, b,
		map[string]any{"n": 1},
		map[string]any{"n": 2, "meta": map[string]any{"id": "a"}})

	assertSchema(t, schema.NewObject(
		schema.Field("n", schema.Integer()),
		schema.Field("meta", schema.NewOptional(schema.NewObject(schema.Field("id", schema.String())))),
	), b.Produce())
}

func TestBuilderMapsAndBytesAgree(t *testing.T) {
	samples := fake.New(9).Samples(100)

	fromMaps := NewBuilder(Config{})
	fromBytes := NewBuilder(Config{})
	for _, s := range samples {
		require.NoError(t, fromMaps.AddSample(s))
		bs, err := json.Marshal(s)
		require.NoError(t, err)
		require.NoError(t, fromBytes.AddSampleBytes(bs))
	}
	assertSchema(t, fromMaps.Produce(), fromBytes.Produce())
	assert.Equal(t, 100, fromBytes.Samples())
}
