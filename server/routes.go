package server

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/urfave/negroni"
	"github.com/valyala/fastjson"

	"github.com/siegeai/siegeschema/jsonschema"
	"github.com/siegeai/siegeschema/render"
	"github.com/siegeai/siegeschema/sample"
)

var renderMediaTypes = []contenttype.MediaType{
	contenttype.NewMediaType("application/json"),
	contenttype.NewMediaType("application/schema+json"),
	contenttype.NewMediaType("application/yaml"),
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleRoot())
	s.router.HandleFunc("/schemas", s.handleCreateSchema()).Methods("POST")
	s.router.HandleFunc("/schemas", s.handleListSchemas()).Methods("GET")
	s.router.HandleFunc("/schemas/{id}", s.handleGetSchema()).Methods("GET")
	s.router.HandleFunc("/schemas/{id}", s.handleDeleteSchema()).Methods("DELETE")
	s.router.HandleFunc("/schemas/{id}/samples", s.handleAddSamples()).Methods("POST")
	s.router.HandleFunc("/schemas/{id}/validate", s.handleValidate()).Methods("POST")
	s.router.Handle("/metrics", s.metrics.handler()).Methods("GET")
	s.router.Use(s.logMiddleware)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := negroni.NewResponseWriter(w)
		next.ServeHTTP(ww, r)
		s.metrics.requests.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
		slog.Info("handled request",
			"method", r.Method,
			"uri", r.RequestURI,
			"proto", r.Proto,
			"status", ww.Status(),
			"bytes", ww.Size(),
			"elapsed", time.Since(start))
	})
}

type createRequest struct {
	LiteralKeys []string `json:"literalKeys"`
}

type createResponse struct {
	ID string `json:"id"`
}

type builderInfo struct {
	ID          string    `json:"id"`
	Samples     int       `json:"samples"`
	LiteralKeys []string  `json:"literalKeys"`
	Created     time.Time `json:"created"`
}

type samplesResponse struct {
	Accepted int `json:"accepted"`
	Samples  int `json:"samples"`
}

type validateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (*Server) handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "siegeschema")
	}
}

func (s *Server) handleCreateSchema() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := s.readBody(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		req := createRequest{}
		if len(bytes.TrimSpace(body)) != 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
				return
			}
		}
		if req.LiteralKeys == nil {
			req.LiteralKeys = s.cfg.LiteralKeys
		}

		id, _, evicted := s.builders.create(req.LiteralKeys)
		if evicted {
			s.metrics.evictions.Inc()
		}
		s.metrics.builders.Set(float64(s.builders.len()))
		slog.Debug("created builder", "id", id, "literalKeys", req.LiteralKeys, "evicted", evicted)

		writeJSON(w, http.StatusCreated, createResponse{ID: id})
	}
}

func (s *Server) handleListSchemas() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := s.builders.ids()
		res := make([]builderInfo, 0, len(ids))
		for _, id := range ids {
			e, err := s.builders.get(id)
			if err != nil {
				continue
			}
			res = append(res, builderInfo{
				ID:          id,
				Samples:     e.samples(),
				LiteralKeys: e.literalKeys,
				Created:     e.created,
			})
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleGetSchema() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := s.lookup(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		encoding := q.Get("encoding")
		if encoding == "" && r.Header.Get("Accept") != "" {
			mt, _, err := contenttype.GetAcceptableMediaType(r, renderMediaTypes)
			if err != nil {
				writeError(w, http.StatusNotAcceptable, err)
				return
			}
			if mt.Subtype == "yaml" {
				encoding = string(render.EncodingYAML)
			}
		}

		opts, err := render.ParseOptions(q.Get("format"), encoding)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		produced, n := e.produce()
		bs, err := render.Marshal(produced, opts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		w.Header().Set("Content-Type", opts.ContentType())
		w.Header().Set("X-Sample-Count", strconv.Itoa(n))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(bs)
	}
}

func (s *Server) handleDeleteSchema() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.builders.remove(mux.Vars(r)["id"]); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		s.metrics.builders.Set(float64(s.builders.len()))
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleAddSamples() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := s.lookup(w, r)
		if !ok {
			return
		}

		body, err := s.readBody(w, r)
		if err != nil {
			s.metrics.samplesRejected.Inc()
			writeError(w, http.StatusBadRequest, err)
			return
		}

		samples, err := s.readSamples(body, r.URL.Query().Get("q"))
		if err != nil {
			s.metrics.samplesRejected.Inc()
			writeError(w, http.StatusBadRequest, err)
			return
		}

		n, err := e.add(samples)
		if err != nil {
			// readSamples only returns objects
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		s.metrics.samplesAccepted.Add(float64(len(samples)))

		writeJSON(w, http.StatusOK, samplesResponse{Accepted: len(samples), Samples: n})
	}
}

func (s *Server) handleValidate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := s.lookup(w, r)
		if !ok {
			return
		}

		body, err := s.readBody(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := fastjson.ValidateBytes(body); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}

		produced, _ := e.produce()
		v, err := jsonschema.Compile(produced)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		if err := v.ValidateBytes(body); err != nil {
			writeJSON(w, http.StatusOK, validateResponse{Valid: false, Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, validateResponse{Valid: true})
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	e, err := s.builders.get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return e, true
}

// readBody honors Content-Encoding. The size limit applies to the body as sent.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	enc := r.Header.Get("Content-Encoding")
	body, err := sample.ReadAllEncoded(enc, http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// readSamples accepts one JSON document, which may span lines, or newline delimited
// documents. Every sample must be an object; nothing is returned otherwise.
func (s *Server) readSamples(body []byte, query string) ([]any, error) {
	if v, err := fastjson.ParseBytes(body); err == nil {
		body = v.MarshalTo(nil)
	}

	opts := []sample.Option{sample.WithMaxLineBytes(int(s.cfg.MaxBodyBytes))}
	if query != "" {
		opts = append(opts, sample.WithQuery(query))
	}
	sr, err := sample.NewReader(bytes.NewReader(body), opts...)
	if err != nil {
		return nil, err
	}

	samples, err := sample.ReadAll(sr)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, errors.New("no samples in body")
	}
	for i, v := range samples {
		if !isObject(v) {
			return nil, fmt.Errorf("sample %d: not a plain object", i)
		}
	}
	return samples, nil
}

func isObject(v any) bool {
	switch x := v.(type) {
	case map[string]any:
		return true
	case *fastjson.Value:
		return x.Type() == fastjson.TypeObject
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("could not write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
