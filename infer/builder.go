package infer

import (
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/siegeai/siegeschema/merge"
	"github.com/siegeai/siegeschema/schema"
)

type Config struct {
	// LiteralKeys names properties whose values are kept as exact constants instead of
	// being widened. It applies at every nesting level.
	LiteralKeys []string
}

// Builder accumulates an object schema that describes every sample added so far. A Builder
// is not safe for concurrent use; shard samples across builders and combine their products
// with merge.Schema instead (see InferSharded).
type Builder struct {
	cfg         Config
	literalKeys map[string]struct{}
	result      *schema.ObjectSchema
	initialized bool
	samples     int
	parser      fastjson.Parser
}

func NewBuilder(cfg Config) *Builder {
	lks := make(map[string]struct{}, len(cfg.LiteralKeys))
	for _, k := range cfg.LiteralKeys {
		lks[k] = struct{}{}
	}
	return &Builder{
		cfg:         cfg,
		literalKeys: lks,
		result:      schema.NewObject(),
	}
}

// AddSample folds one object into the running schema. obj must be a map[string]any, a
// *fastjson.Object or an object-typed *fastjson.Value; anything else fails with
// ErrNotObject and leaves the builder unchanged.
func (b *Builder) AddSample(obj any) error {
	es, ok := entries(obj)
	if !ok {
		return fmt.Errorf("add sample of type %T: %w", obj, ErrNotObject)
	}
	b.add(es)
	return nil
}

// AddSampleBytes parses a single JSON document and adds it as a sample.
func (b *Builder) AddSampleBytes(bs []byte) error {
	v, err := b.parser.ParseBytes(bs)
	if err != nil {
		return fmt.Errorf("parse sample: %w", err)
	}
	return b.AddSample(v)
}

// Produce returns a copy of the current schema. Later samples do not affect it.
func (b *Builder) Produce() *schema.ObjectSchema {
	return schema.CloneObject(b.result)
}

// Samples reports how many samples have been added.
func (b *Builder) Samples() int {
	return b.samples
}

func (b *Builder) add(es []entry) {
	if b.initialized {
		b.addAdditional(es)
	} else {
		b.addFirst(es)
	}
	b.samples += 1
}

func (b *Builder) addFirst(es []entry) {
	for _, e := range es {
		b.result.Set(e.key, b.encodeNew(e.key, e.value))
	}
	b.initialized = true
}

func (b *Builder) addAdditional(es []entry) {
	present := make(map[string]struct{}, len(es))
	for _, e := range es {
		present[e.key] = struct{}{}
	}

	for i, f := range b.result.Fields {
		if _, ok := present[f.Key]; !ok {
			b.result.Fields[i].Value = schema.NewOptional(f.Value)
		}
	}

	for _, e := range es {
		prev, in := b.result.Get(e.key)
		if !in {
			b.result.Set(e.key, schema.NewOptional(b.encodeNew(e.key, e.value)))
			continue
		}

		b.result.Set(e.key, merge.Schema(prev, b.encode(e.key, e.value)))
	}
}

// encodeNew is the schema of a key the result does not hold yet. Only an object under a
// literal key goes through a nested builder; other objects are converted without literal
// keys.
func (b *Builder) encodeNew(key string, v any) schema.Schema {
	if b.isLiteralKey(key) {
		if nested, ok := entries(v); ok {
			return b.nested(nested)
		}
	}
	if l, ok := b.literal(key, v); ok {
		return l
	}
	return Convert(v)
}

// encode is the schema of a value merged into an existing key. Objects always go through a
// nested builder.
func (b *Builder) encode(key string, v any) schema.Schema {
	if nested, ok := entries(v); ok {
		return b.nested(nested)
	}
	if l, ok := b.literal(key, v); ok {
		return l
	}
	return Convert(v)
}

func (b *Builder) literal(key string, v any) (*schema.LiteralSchema, bool) {
	if !b.isLiteralKey(key) {
		return nil, false
	}
	return literal(v)
}

// nested runs a nested object through a fresh builder with the same configuration.
func (b *Builder) nested(es []entry) *schema.ObjectSchema {
	child := &Builder{
		cfg:         b.cfg,
		literalKeys: b.literalKeys,
		result:      schema.NewObject(),
	}
	child.add(es)
	return child.result
}

func (b *Builder) isLiteralKey(key string) bool {
	_, ok := b.literalKeys[key]
	return ok
}
