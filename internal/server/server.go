/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package server exposes the metric store and the live process tree over a
// read-only JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/phuonguno98/hostscope/pkg/metrics"
	"github.com/phuonguno98/hostscope/pkg/proctree"
	"github.com/phuonguno98/hostscope/pkg/version"
)

const (
	// DefaultMaxLimit caps the limit query parameter.
	DefaultMaxLimit = 10000
	// DefaultTreeTTL is how long a built process tree is served from cache.
	DefaultTreeTTL = 2 * time.Second

	requestIDHeader = "X-Request-ID"
	treeCacheKey    = "tree"
)

// Reader is the read side of the metric store. *store.Store implements it.
type Reader interface {
	Query(ctx context.Context, family metrics.Family, limit int) (any, error)
	Count(ctx context.Context, family metrics.Family) (int64, error)
	Supports(family metrics.Family) bool
}

// TreeSource returns the current process tree.
type TreeSource func(ctx context.Context) (*proctree.Tree, error)

// Options tunes the server.
type Options struct {
	DefaultLimit int           // limit used when the request has none
	MaxLimit     int           // 0 means DefaultMaxLimit
	TreeTTL      time.Duration // 0 means DefaultTreeTTL
	Metrics      http.Handler  // served on /metrics when set
}

// Server serves the read-path API.
type Server struct {
	reader  Reader
	trees   TreeSource
	opts    Options
	cache   *expirable.LRU[string, *proctree.Tree]
	logger  *slog.Logger
	router  *mux.Router
	version map[string]string
}

type ctxKey struct{}

// NewServer creates a new API server. trees may be nil, in which case the tree
// endpoint answers 503.
func NewServer(reader Reader, trees TreeSource, opts Options, logger *slog.Logger) *Server {
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = DefaultMaxLimit
	}
	if opts.TreeTTL <= 0 {
		opts.TreeTTL = DefaultTreeTTL
	}
	if opts.DefaultLimit <= 0 || opts.DefaultLimit > opts.MaxLimit {
		opts.DefaultLimit = min(100, opts.MaxLimit)
	}

	s := &Server{
		reader:  reader,
		trees:   trees,
		opts:    opts,
		cache:   expirable.NewLRU[string, *proctree.Tree](1, nil, opts.TreeTTL),
		logger:  logger,
		router:  mux.NewRouter(),
		version: map[string]string{
			"version": version.Version,
			"commit":  version.Commit,
			"date":    version.Date,
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	// Add CORS middleware
	s.router.Use(corsMiddleware)
	// Add logging middleware
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/api/version", s.handleGetVersion).Methods(http.MethodGet)
	s.router.HandleFunc("/api/families", s.handleGetFamilies).Methods(http.MethodGet)
	s.router.HandleFunc("/api/metrics/{family}", s.handleGetMetrics).Methods(http.MethodGet)
	s.router.HandleFunc("/api/processes/tree", s.handleGetTree).Methods(http.MethodGet)

	if s.opts.Metrics != nil {
		s.router.Handle("/metrics", s.opts.Metrics).Methods(http.MethodGet)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	s.logger.Info("API server stopped")
	return nil
}

// requestIDMiddleware tags every request with an ID, reusing the caller's if given.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			"request_id", requestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// handleGetVersion returns version information from the version package.
func (s *Server) handleGetVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.version)
}

type familyInfo struct {
	Family    metrics.Family `json:"family"`
	Table     string         `json:"table"`
	Supported bool           `json:"supported"`
	Rows      int64          `json:"rows"`
}

// handleGetFamilies lists every family with its row count.
func (s *Server) handleGetFamilies(w http.ResponseWriter, r *http.Request) {
	families := metrics.Families()
	out := make([]familyInfo, 0, len(families))
	for _, f := range families {
		info := familyInfo{Family: f, Table: f.Table(), Supported: s.reader.Supports(f)}
		if info.Supported {
			n, err := s.reader.Count(r.Context(), f)
			if err != nil {
				s.logger.Warn("Failed to count rows", "family", f, "error", err, "request_id", requestID(r.Context()))
			}
			info.Rows = n
		}
		out = append(out, info)
	}
	s.writeJSON(w, http.StatusOK, out)
}

type metricsResponse struct {
	Family  metrics.Family `json:"family"`
	Limit   int            `json:"limit"`
	Samples any            `json:"samples"`
}

// handleGetMetrics returns the newest samples of a family.
func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	family, err := metrics.ParseFamily(mux.Vars(r)["family"])
	if err != nil {
		s.writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	limit := s.opts.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, fmt.Sprintf("invalid limit %q", raw), http.StatusBadRequest)
			return
		}
		limit = min(n, s.opts.MaxLimit)
	}

	samples, err := s.reader.Query(r.Context(), family, limit)
	if err != nil {
		s.writeError(w, "failed to query samples", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, metricsResponse{Family: family, Limit: limit, Samples: samples})
}

type treeResponse struct {
	*proctree.Tree
	Count int `json:"count"`
}

// handleGetTree returns the live process tree, cached for a short TTL.
func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	if s.trees == nil {
		s.writeError(w, "process tree not available", http.StatusServiceUnavailable)
		return
	}

	tree, ok := s.cache.Get(treeCacheKey)
	if !ok {
		var err error
		tree, err = s.trees(r.Context())
		if err != nil {
			s.logger.Warn("Failed to build process tree", "error", err, "request_id", requestID(r.Context()))
			s.writeError(w, "failed to build process tree", http.StatusInternalServerError)
			return
		}
		s.cache.Add(treeCacheKey, tree)
	}

	s.writeJSON(w, http.StatusOK, treeResponse{Tree: tree, Count: tree.Len()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
