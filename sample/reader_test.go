package sample

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
)

func TestReaderLines(t *testing.T) {
	r, err := NewReader(strings.NewReader("{\"a\": 1}\n\n  \n{\"b\": \"x\"}\n[1]\n"))
	require.NoError(t, err)

	v, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, fastjson.TypeObject, v.(*fastjson.Value).Type())
	assert.Equal(t, 1, v.(*fastjson.Value).GetInt("a"))

	v, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "x", string(v.(*fastjson.Value).GetStringBytes("b")))
	assert.Equal(t, 4, r.Line())

	v, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, fastjson.TypeArray, v.(*fastjson.Value).Type())

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderValuesSurviveNextCall(t *testing.T) {
	r, err := NewReader(strings.NewReader("{\"a\": \"first\"}\n{\"a\": \"second\"}\n"))
	require.NoError(t, err)

	vs, err := ReadAll(r)
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, "first", string(vs[0].(*fastjson.Value).GetStringBytes("a")))
	assert.Equal(t, "second", string(vs[1].(*fastjson.Value).GetStringBytes("a")))
}

func TestReaderBadJson(t *testing.T) {
	r, err := NewReader(strings.NewReader("{\"a\": 1}\n{\"a\": \n"))
	require.NoError(t, err)

	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReaderQuery(t *testing.T) {
	input := `{"items": [{"id": 1}, {"id": 2}, 3]}
{"items": []}
{"items": [{"id": "x"}]}
`
	r, err := NewReader(strings.NewReader(input), WithQuery(".items[]"))
	require.NoError(t, err)

	vs, err := ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"id": float64(1)},
		map[string]any{"id": float64(2)},
		map[string]any{"id": "x"},
	}, vs)
}

func TestReaderQueryError(t *testing.T) {
	r, err := NewReader(strings.NewReader(`{"items": 1}`), WithQuery(".items[]"))
	require.NoError(t, err)

	_, err = r.Next()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "query")
}

func TestReaderInvalidQuery(t *testing.T) {
	_, err := NewReader(strings.NewReader(""), WithQuery(".items["))
	assert.Error(t, err)
}

func TestReaderMaxLineBytes(t *testing.T) {
	_, err := NewReader(strings.NewReader(""), WithMaxLineBytes(0))
	assert.Error(t, err)

	r, err := NewReader(strings.NewReader(`{"a": "`+strings.Repeat("x", 100)+`"}`), WithMaxLineBytes(32))
	require.NoError(t, err)
	_, err = r.Next()
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestReaderEmpty(t *testing.T) {
	r, err := NewReader(strings.NewReader(""))
	require.NoError(t, err)
	vs, err := ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, vs)
}
