// Package vmtest runs an in-process VictoriaMetrics stub for tests. It
// serves the import, delete_series, series and query_range endpoints on top
// of the in-memory series store and records which endpoints were hit.
package vmtest

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/and161185/victoria-client/model"
	"github.com/and161185/victoria-client/storage"
	"github.com/and161185/victoria-client/storage/inmemory"
)

// Server is the stub. Zero value is not usable; construct with NewServer.
type Server struct {
	store  *inmemory.MemStorage
	logger *zap.SugaredLogger

	user string
	pass string

	mu    sync.Mutex
	calls []string
}

// Option configures the stub server.
type Option func(*Server)

// WithBasicAuth makes the stub reject requests without the given credentials.
func WithBasicAuth(user, pass string) Option {
	return func(s *Server) { s.user, s.pass = user, pass }
}

// WithLogger enables request logging.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Server) { s.logger = logger }
}

func NewServer(ctx context.Context, opts ...Option) *Server {
	s := &Server{
		store:  inmemory.NewMemStorage(ctx),
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the backing store for test assertions.
func (s *Server) Store() *inmemory.MemStorage { return s.store }

// Calls returns the endpoint paths hit so far, in order.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// Handler builds the router. Mount it on an httptest.Server.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(logMiddleware(s.logger))
	router.Use(s.authMiddleware)
	router.Post("/api/v1/import", s.importHandler)
	router.Post("/api/v1/admin/tsdb/delete_series", s.deleteHandler)
	router.Get("/api/v1/series", s.seriesHandler)
	router.Get("/api/v1/query_range", s.queryRangeHandler)
	return router
}

func (s *Server) record(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, path)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.user != "" {
			user, pass, ok := r.BasicAuth()
			if !ok || user != s.user || pass != s.pass {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) importHandler(w http.ResponseWriter, r *http.Request) {
	s.record(r.URL.Path)

	body := io.Reader(r.Body)
	if r.Header.Get("Content-Encoding") == "gzip" {
		gr, err := gzip.NewReader(r.Body)
		if err != nil {
			http.Error(w, "bad gzip body", http.StatusBadRequest)
			return
		}
		defer gr.Close()
		body = gr
	}

	dec := json.NewDecoder(body)
	for {
		var sample model.MetricSample
		if err := dec.Decode(&sample); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			http.Error(w, fmt.Sprintf("bad import line: %v", err), http.StatusBadRequest)
			return
		}
		if err := s.store.Save(r.Context(), &sample); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	s.record(r.URL.Path)

	selectors, err := parseMatches(r.URL.Query()["match[]"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := s.store.Delete(r.Context(), selectors); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) seriesHandler(w http.ResponseWriter, r *http.Request) {
	s.record(r.URL.Path)

	selectors, err := parseMatches(r.URL.Query()["match[]"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	labels, err := s.store.Match(r.Context(), selectors)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"status": "success", "data": labels})
}

func (s *Server) queryRangeHandler(w http.ResponseWriter, r *http.Request) {
	s.record(r.URL.Path)

	q := r.URL.Query()
	sel, err := storage.ParseSelector(q.Get("query"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	start, err1 := parseSeconds(q.Get("start"))
	end, err2 := parseSeconds(q.Get("end"))
	if err1 != nil || err2 != nil {
		http.Error(w, "bad start/end", http.StatusBadRequest)
		return
	}

	samples, err := s.store.Range(r.Context(), sel, start, end)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result := make([]map[string]any, 0, len(samples))
	for _, sample := range samples {
		values := make([][2]any, 0, len(sample.Timestamps))
		for i, ts := range sample.Timestamps {
			values = append(values, [2]any{
				float64(ts) / 1000,
				strconv.FormatFloat(sample.Values[i], 'f', -1, 64),
			})
		}
		result = append(result, map[string]any{
			"metric": sample.Metric,
			"values": values,
		})
	}

	writeJSON(w, map[string]any{
		"status": "success",
		"data": map[string]any{
			"resultType": "matrix",
			"result":     result,
		},
	})
}

func parseMatches(matches []string) ([]storage.Selector, error) {
	if len(matches) == 0 {
		return nil, errors.New("missing match[] parameter")
	}
	selectors := make([]storage.Selector, 0, len(matches))
	for _, m := range matches {
		sel, err := storage.ParseSelector(m)
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, sel)
	}
	return selectors, nil
}

// parseSeconds converts a float-seconds query parameter to milliseconds.
func parseSeconds(s string) (int64, error) {
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(sec * 1000)), nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
