package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"sigs.k8s.io/yaml"

	"github.com/siegeai/siegeschema/apispec"
	"github.com/siegeai/siegeschema/jsonschema"
	"github.com/siegeai/siegeschema/schema"
)

type Format string

const (
	FormatJSONSchema Format = "jsonschema"
	FormatOpenAPI    Format = "openapi"
	FormatCanonical  Format = "canonical"
)

type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingYAML Encoding = "yaml"
)

var (
	ErrUnknownFormat = errors.New("unknown format")
)

type Options struct {
	Format   Format
	Encoding Encoding
}

// DefaultOptions renders JSON Schema as indented JSON.
func DefaultOptions() Options {
	return Options{Format: FormatJSONSchema, Encoding: EncodingJSON}
}

// ParseOptions reads a format and encoding by name. Empty names select the defaults.
func ParseOptions(format, encoding string) (Options, error) {
	opts := DefaultOptions()
	if format != "" {
		opts.Format = Format(format)
	}
	if encoding != "" {
		opts.Encoding = Encoding(encoding)
	}
	return opts, opts.validate()
}

func (o Options) validate() error {
	switch o.Format {
	case FormatJSONSchema, FormatOpenAPI, FormatCanonical:
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, o.Format)
	}
	switch o.Encoding {
	case EncodingJSON, EncodingYAML:
	default:
		return fmt.Errorf("%w: encoding %q", ErrUnknownFormat, o.Encoding)
	}
	return nil
}

func (o Options) ContentType() string {
	if o.Encoding == EncodingYAML {
		return "application/yaml"
	}
	if o.Format == FormatJSONSchema {
		return "application/schema+json"
	}
	return "application/json"
}

// Encode writes s to w in the requested format and encoding.
func Encode(w io.Writer, s schema.Schema, opts Options) error {
	bs, err := Marshal(s, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(bs)
	return err
}

func Marshal(s schema.Schema, opts Options) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	var bs []byte
	var err error
	switch opts.Format {
	case FormatJSONSchema:
		bs, err = json.Marshal(jsonschema.FromSchema(s))
	case FormatOpenAPI:
		bs, err = json.Marshal(apispec.ToOpenAPI(s))
	case FormatCanonical:
		bs = []byte(schema.Key(s))
	}
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", opts.Format, err)
	}

	if opts.Encoding == EncodingYAML {
		ys, err := yaml.JSONToYAML(bs)
		if err != nil {
			return nil, fmt.Errorf("convert to yaml: %w", err)
		}
		return ys, nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, bs, "", "  "); err != nil {
		return nil, fmt.Errorf("indent %s: %w", opts.Format, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
