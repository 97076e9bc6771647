package fake

import "math/rand"

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generator produces random JSON-like documents. Keys are drawn from a small pool so that
// documents from one generator overlap the way real samples do.
type Generator struct {
	rng      *rand.Rand
	keys     []string
	maxDepth int
}

func New(seed int64) *Generator {
	rng := rand.New(rand.NewSource(seed))
	keys := make([]string, 24)
	for i := range keys {
		keys[i] = randString(rng, 1+rng.Intn(12))
	}
	return &Generator{rng: rng, keys: keys, maxDepth: 4}
}

// JSON returns a random object holding strings, numbers, booleans, nulls, arrays and
// nested objects.
func (g *Generator) JSON() map[string]any {
	return g.object(0)
}

// Samples returns n random objects.
func (g *Generator) Samples(n int) []map[string]any {
	res := make([]map[string]any, n)
	for i := range res {
		res[i] = g.JSON()
	}
	return res
}

func (g *Generator) object(depth int) map[string]any {
	nkeys := 1 + g.rng.Intn(8)
	obj := make(map[string]any, nkeys)
	for i := 0; i < nkeys; i++ {
		obj[g.keys[g.rng.Intn(len(g.keys))]] = g.value(depth + 1)
	}
	return obj
}

func (g *Generator) value(depth int) any {
	n := g.rng.Intn(100)
	if depth >= g.maxDepth {
		n = n % 70
	}

	switch {
	case n < 25:
		return g.String(1 + g.rng.Intn(16))
	case n < 40:
		return float64(g.rng.Intn(1000) - 500)
	case n < 50:
		return g.rng.NormFloat64() * 100
	case n < 60:
		return g.rng.Intn(2) == 0
	case n < 70:
		return nil
	case n < 85:
		arr := make([]any, g.rng.Intn(4))
		for i := range arr {
			arr[i] = g.value(depth + 1)
		}
		return arr
	default:
		return g.object(depth)
	}
}

func (g *Generator) String(n int) string {
	return randString(g.rng, n)
}

func randString(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rng.Intn(len(letters))]
	}
	return string(b)
}
