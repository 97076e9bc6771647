package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/valyala/fastjson"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/siegeai/siegeschema/fake"
	"github.com/siegeai/siegeschema/infer"
	"github.com/siegeai/siegeschema/integrations/siegeserver"
	"github.com/siegeai/siegeschema/listener"
	"github.com/siegeai/siegeschema/render"
	"github.com/siegeai/siegeschema/sample"
	"github.com/siegeai/siegeschema/server"
)

type options struct {
	input       string
	query       string
	serve       bool
	addr        string
	push        string
	id          string
	shards      int
	fake        int
	seed        int64
	literalKeys []string
	maxBuilders int
	render      render.Options
}

func main() {
	_ = godotenv.Load()
	level := getEnv("SIEGE_LOG", "info")
	logFile := getEnv("SIEGE_LOG_FILE", "")

	if err := setupLogging(level, logFile); err != nil {
		slog.Error("could not init logging", "err", err)
		os.Exit(1)
	}

	opts, err := parseOptions(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		slog.Error("invalid options", "err", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("failed", "err", err)
		os.Exit(1)
	}
}

func parseOptions(args []string) (*options, error) {
	fs := flag.NewFlagSet("siegeschema", flag.ContinueOnError)
	input := fs.String("r", "-", "file of newline delimited samples, - for stdin")
	query := fs.String("q", "", "jq expression selecting samples from each document")
	serve := fs.Bool("serve", false, "run the schema server")
	addr := fs.String("addr", getEnv("SIEGE_ADDR", ":8080"), "address for -serve")
	push := fs.String("push", "", "stream samples to the schema server at this url")
	id := fs.String("id", "", "builder id for -push, a new builder is created when empty")
	shards := fs.Int("shards", 1, "infer on this many goroutines")
	fakeN := fs.Int("fake", 0, "use this many generated samples instead of -r")
	seed := fs.Int64("seed", 1, "seed for -fake")
	literal := fs.String("literal", getEnv("SIEGE_LITERAL_KEYS", ""), "comma separated keys whose values are kept as literals")
	format := fs.String("format", getEnv("SIEGE_FORMAT", ""), "output format: jsonschema, openapi or canonical")
	encoding := fs.String("encoding", getEnv("SIEGE_ENCODING", ""), "output encoding: json or yaml")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	ro, err := render.ParseOptions(*format, *encoding)
	if err != nil {
		return nil, err
	}

	maxBuilders := 0
	if v := getEnv("SIEGE_MAX_BUILDERS", ""); v != "" {
		maxBuilders, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("SIEGE_MAX_BUILDERS: %w", err)
		}
	}

	if *serve && *push != "" {
		return nil, errors.New("-serve and -push are exclusive")
	}

	return &options{
		input:       *input,
		query:       *query,
		serve:       *serve,
		addr:        *addr,
		push:        *push,
		id:          *id,
		shards:      *shards,
		fake:        *fakeN,
		seed:        *seed,
		literalKeys: splitKeys(*literal),
		maxBuilders: maxBuilders,
		render:      ro,
	}, nil
}

func run(ctx context.Context, opts *options, out io.Writer) error {
	if opts.serve {
		s, err := server.New(server.Config{
			MaxBuilders: opts.maxBuilders,
			LiteralKeys: opts.literalKeys,
		})
		if err != nil {
			return err
		}
		return s.ListenAndServe(ctx, opts.addr)
	}

	src, closer, err := openSource(opts)
	if err != nil {
		return err
	}
	defer closer()

	if opts.push != "" {
		return push(ctx, opts, src)
	}

	samples, err := readSamples(src)
	if err != nil {
		return err
	}
	s, err := infer.InferSharded(ctx, samples, opts.shards, infer.Config{LiteralKeys: opts.literalKeys})
	if err != nil {
		return err
	}
	slog.Info("inferred schema", "samples", len(samples), "shards", opts.shards)
	return render.Encode(out, s, opts.render)
}

func push(ctx context.Context, opts *options, src listener.Source) error {
	client := siegeserver.NewClient(strings.TrimSuffix(opts.push, "/"))

	id := opts.id
	if id == "" {
		var err error
		id, err = client.Create(ctx, opts.literalKeys)
		if err != nil {
			return fmt.Errorf("create builder: %w", err)
		}
		slog.Info("created builder", "id", id)
	}

	l, err := listener.NewListener(src, client, id, listener.Config{})
	if err != nil {
		return err
	}
	if err := l.Run(ctx); err != nil {
		return err
	}
	slog.Info("pushed samples", "id", id, "published", l.Published(), "skipped", l.Skipped())
	return nil
}

// openSource picks generated samples or the -r input, decompressing by file extension.
func openSource(opts *options) (listener.Source, func(), error) {
	if opts.fake > 0 {
		return &fakeSource{samples: fake.New(opts.seed).Samples(opts.fake)}, func() {}, nil
	}

	var f io.ReadCloser = os.Stdin
	if opts.input != "-" {
		var err error
		f, err = os.Open(opts.input)
		if err != nil {
			return nil, nil, err
		}
	}
	d, err := sample.NewEncodedReader(sample.EncodingForPath(opts.input), f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	closer := func() {
		d.Close()
		f.Close()
	}

	var ro []sample.Option
	if opts.query != "" {
		ro = append(ro, sample.WithQuery(opts.query))
	}
	r, err := sample.NewReader(d, ro...)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return r, closer, nil
}

type fakeSource struct {
	samples []map[string]any
}

func (f *fakeSource) Next() (any, error) {
	if len(f.samples) == 0 {
		return nil, io.EOF
	}
	v := f.samples[0]
	f.samples = f.samples[1:]
	return v, nil
}

// readSamples drains src into raw documents, skipping anything that is not an object.
func readSamples(src listener.Source) ([][]byte, error) {
	var res [][]byte
	for {
		v, err := src.Next()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return nil, err
		}

		switch x := v.(type) {
		case *fastjson.Value:
			if x.Type() != fastjson.TypeObject {
				slog.Warn("skipping sample that is not an object", "type", x.Type().String())
				continue
			}
			res = append(res, x.MarshalTo(nil))
		case map[string]any:
			bs, err := json.Marshal(x)
			if err != nil {
				return nil, err
			}
			res = append(res, bs)
		}
	}
}

func splitKeys(s string) []string {
	var res []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			res = append(res, k)
		}
	}
	return res
}

func setupLogging(level, file string) error {
	var logLevel slog.Level
	err := logLevel.UnmarshalText([]byte(level))

	var w io.Writer = os.Stderr
	if file != "" {
		w = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		}
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
	return err
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
