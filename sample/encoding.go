package sample

import (
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"path/filepath"
)

var (
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
)

// NewEncodedReader decompresses r according to an HTTP Content-Encoding value. The
// returned reader must be closed; closing it does not close r.
func NewEncodedReader(enc string, r io.Reader) (io.ReadCloser, error) {
	switch enc {
	case "", "identity":
		return io.NopCloser(r), nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		return zr, nil
	case "deflate":
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open deflate: %w", err)
		}
		return zr, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedEncoding, enc)
	}
}

// EncodingForPath guesses a Content-Encoding from a file extension.
func EncodingForPath(path string) string {
	switch filepath.Ext(path) {
	case ".gz":
		return "gzip"
	case ".zz", ".zlib":
		return "deflate"
	}
	return ""
}

// ReadAllEncoded reads and decompresses all of r.
func ReadAllEncoded(enc string, r io.Reader) ([]byte, error) {
	d, err := NewEncodedReader(enc, r)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	bs, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", enc, err)
	}
	return bs, nil
}
