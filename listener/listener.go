package listener

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fastjson"
	"golang.org/x/sync/errgroup"

	"github.com/siegeai/siegeschema/integrations/siegeserver"
)

const (
	defaultBatchSize     = 500
	defaultFlushInterval = 5 * time.Second
	queueSize            = 1024
)

// Source yields samples until io.EOF. *sample.Reader is a Source.
type Source interface {
	Next() (any, error)
}

// Publisher sends newline delimited samples to a remote builder.
type Publisher interface {
	AddSamples(ctx context.Context, id string, ndjson []byte) (*siegeserver.SamplesResponse, error)
}

var _ Publisher = (*siegeserver.Client)(nil)

type Config struct {
	// BatchSize is the most samples sent in one request.
	BatchSize int
	// FlushInterval bounds how long a partial batch waits before it is sent.
	FlushInterval time.Duration
}

// Listener streams samples from a Source to a builder on a siege server in batches.
type Listener struct {
	source    Source
	client    Publisher
	id        string
	cfg       Config
	published atomic.Int64
	skipped   atomic.Int64
}

func NewListener(source Source, client Publisher, id string, cfg Config) (*Listener, error) {
	if source == nil || client == nil {
		return nil, errors.New("listener needs a source and a publisher")
	}
	if id == "" {
		return nil, errors.New("listener needs a builder id")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}

	return &Listener{
		source: source,
		client: client,
		id:     id,
		cfg:    cfg,
	}, nil
}

// Run publishes every sample of the source and returns when the source is exhausted or
// ctx is done. A source blocked in Next holds up the return until Next does. Run may be
// called again to drain whatever the source yields next.
func (l *Listener) Run(ctx context.Context) error {
	queue := make(chan []byte, queueSize)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.listenJob(ctx, queue) })
	g.Go(func() error { return l.publishJob(ctx, queue) })
	return g.Wait()
}

// Published reports how many samples the server has accepted.
func (l *Listener) Published() int {
	return int(l.published.Load())
}

// Skipped reports how many non-object samples were dropped before sending.
func (l *Listener) Skipped() int {
	return int(l.skipped.Load())
}

func (l *Listener) listenJob(ctx context.Context, queue chan<- []byte) error {
	defer close(queue)
	for {
		v, err := l.source.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read sample: %w", err)
		}

		bs, ok, err := encode(v)
		if err != nil {
			return err
		}
		if !ok {
			l.skipped.Add(1)
			slog.Warn("skipping sample that is not an object", "type", fmt.Sprintf("%T", v))
			continue
		}

		select {
		case queue <- bs:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Listener) publishJob(ctx context.Context, queue <-chan []byte) error {
	ticker := time.NewTicker(l.cfg.FlushInterval)
	defer ticker.Stop()

	var batch bytes.Buffer
	n := 0
	flush := func() error {
		if n == 0 {
			return nil
		}
		res, err := l.client.AddSamples(ctx, l.id, batch.Bytes())
		if err != nil {
			return fmt.Errorf("publish %d samples: %w", n, err)
		}
		l.published.Add(int64(res.Accepted))
		slog.Debug("published samples", "id", l.id, "count", res.Accepted, "total", res.Samples)
		batch.Reset()
		n = 0
		return nil
	}

	for {
		select {
		case bs, ok := <-queue:
			if !ok {
				return flush()
			}
			batch.Write(bs)
			batch.WriteByte('\n')
			n += 1
			if n >= l.cfg.BatchSize {
				if err := flush(); err != nil {
					return err
				}
			}

		case <-ticker.C:
			if err := flush(); err != nil {
				return err
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// encode renders an object sample as one line of JSON. The second result is false for
// samples that are not objects.
func encode(v any) ([]byte, bool, error) {
	switch x := v.(type) {
	case *fastjson.Value:
		if x.Type() != fastjson.TypeObject {
			return nil, false, nil
		}
		return x.MarshalTo(nil), true, nil
	case map[string]any:
		bs, err := json.Marshal(x)
		if err != nil {
			return nil, false, fmt.Errorf("encode sample: %w", err)
		}
		return bs, true, nil
	}
	return nil, false, nil
}
