package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siegeai/siegeschema/schema"
)

func assertSchema(t *testing.T, expected, actual schema.Schema) {
	t.Helper()
	assert.True(t, schema.Equal(expected, actual), "expected %s\n     got %s", schema.Key(expected), schema.Key(actual))
}

func addAll(t *testing.T, b *Builder, samples ...any) {
	t.Helper()
	for _, s := range samples {
		require.NoError(t, b.AddSample(s))
	}
}

func addAllBytes(t *testing.T, b *Builder, samples ...string) {
	t.Helper()
	for _, s := range samples {
		require.NoError(t, b.AddSampleBytes([]byte(s)))
	}
}
