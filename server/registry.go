package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/siegeai/siegeschema/infer"
	"github.com/siegeai/siegeschema/schema"
)

var (
	ErrNotFound = errors.New("builder not found")
)

// entry guards one builder, which is not safe for concurrent use on its own.
type entry struct {
	mu          sync.Mutex
	builder     *infer.Builder
	literalKeys []string
	created     time.Time
}

func (e *entry) add(samples []any) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range samples {
		if err := e.builder.AddSample(s); err != nil {
			return e.builder.Samples(), err
		}
	}
	return e.builder.Samples(), nil
}

func (e *entry) samples() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.builder.Samples()
}

func (e *entry) produce() (*schema.ObjectSchema, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.builder.Produce(), e.builder.Samples()
}

type registry struct {
	cache *lru.Cache[string, *entry]
}

func newRegistry(size int) (*registry, error) {
	c, err := lru.New[string, *entry](size)
	if err != nil {
		return nil, err
	}
	return &registry{cache: c}, nil
}

// create reports whether adding the builder pushed out the least recently used one.
func (r *registry) create(literalKeys []string) (string, *entry, bool) {
	id := uuid.NewString()
	e := &entry{
		builder:     infer.NewBuilder(infer.Config{LiteralKeys: literalKeys}),
		literalKeys: literalKeys,
		created:     time.Now(),
	}
	evicted := r.cache.Add(id, e)
	return id, e, evicted
}

func (r *registry) get(id string) (*entry, error) {
	e, ok := r.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (r *registry) remove(id string) error {
	if _, ok := r.cache.Peek(id); !ok {
		return ErrNotFound
	}
	r.cache.Remove(id)
	return nil
}

func (r *registry) ids() []string {
	return r.cache.Keys()
}

func (r *registry) len() int {
	return r.cache.Len()
}
