package sample

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/itchyny/gojq"
	"github.com/valyala/fastjson"
)

const defaultMaxLineBytes = 16 << 20

type Option func(r *Reader) error

// WithQuery selects samples from each document with a jq expression. Non-object outputs
// are skipped.
func WithQuery(expr string) Option {
	return func(r *Reader) error {
		q, err := gojq.Parse(expr)
		if err != nil {
			return fmt.Errorf("invalid jq expression: %w", err)
		}
		code, err := gojq.Compile(q)
		if err != nil {
			return fmt.Errorf("failed to compile jq expression: %w", err)
		}
		r.code = code
		return nil
	}
}

// WithMaxLineBytes bounds the size of a single document.
func WithMaxLineBytes(n int) Option {
	return func(r *Reader) error {
		if n <= 0 {
			return fmt.Errorf("max line bytes must be positive, got %d", n)
		}
		r.maxLineBytes = n
		return nil
	}
}

// Reader reads newline delimited JSON documents. Blank lines are skipped.
type Reader struct {
	scanner      *bufio.Scanner
	code         *gojq.Code
	maxLineBytes int
	line         int
	pending      []map[string]any
}

func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	res := &Reader{maxLineBytes: defaultMaxLineBytes}
	for _, opt := range opts {
		if err := opt(res); err != nil {
			return nil, err
		}
	}

	res.scanner = bufio.NewScanner(r)
	res.scanner.Buffer(make([]byte, 0, min(64<<10, res.maxLineBytes)), res.maxLineBytes)
	return res, nil
}

// Next returns the next sample, or io.EOF when the input is exhausted. Without a query the
// sample is the *fastjson.Value of the whole document, which may not be an object. With a
// query every sample is a map[string]any.
func (r *Reader) Next() (any, error) {
	for {
		if len(r.pending) > 0 {
			v := r.pending[0]
			r.pending = r.pending[1:]
			return v, nil
		}

		bs, err := r.nextLine()
		if err != nil {
			return nil, err
		}

		if r.code == nil {
			v, err := fastjson.ParseBytes(bs)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.line, err)
			}
			return v, nil
		}

		if err := r.query(bs); err != nil {
			return nil, err
		}
	}
}

// Line reports the line number of the last document read.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) nextLine() ([]byte, error) {
	for r.scanner.Scan() {
		r.line += 1
		bs := bytes.TrimSpace(r.scanner.Bytes())
		if len(bs) == 0 {
			continue
		}
		return bs, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return nil, io.EOF
}

func (r *Reader) query(bs []byte) error {
	var input any
	if err := json.Unmarshal(bs, &input); err != nil {
		return fmt.Errorf("line %d: %w", r.line, err)
	}

	iter := r.code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("line %d: query: %w", r.line, err)
		}
		obj, isObj := v.(map[string]any)
		if !isObj {
			slog.Debug("skipping non-object query output", "line", r.line, "type", fmt.Sprintf("%T", v))
			continue
		}
		r.pending = append(r.pending, obj)
	}
}

// ReadAll drains r.
func ReadAll(r *Reader) ([]any, error) {
	var res []any
	for {
		v, err := r.Next()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return res, err
		}
		res = append(res, v)
	}
}
