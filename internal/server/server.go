package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dna2zodiac/matchbox/internal/common"
	"github.com/dna2zodiac/matchbox/pkg/matchbox"
)

// Server maps HTTP requests onto the shard registry and engine errors
// onto status codes: 400 bad request, 401 unauthenticated, 405 wrong
// method, 500 for anything the engine surfaces.
type Server struct {
	cfg      *Config
	registry *matchbox.Registry
	logger   common.Logger
	metrics  *Metrics
}

// New creates a server over registry. metrics may be nil.
func New(cfg *Config, registry *matchbox.Registry, logger common.Logger, metrics *Metrics) *Server {
	if logger == nil {
		logger = common.NewNullLogger()
	}
	return &Server{cfg: cfg, registry: registry, logger: logger, metrics: metrics}
}

// Handler returns the API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/search", s.instrument("/api/v1/search", s.auth(s.handleSearch)))
	mux.HandleFunc("/api/v1/index", s.instrument("/api/v1/index", s.auth(s.handleIndex)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// statusWriter captures the response status for metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next(w, r)
			return
		}
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		s.metrics.RequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	}
}

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Server.AuthToken == "" {
			next(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.cfg.Server.AuthToken {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	shard := params.Get("s")
	query := params.Get("q")
	if shard == "" || query == "" {
		writeError(w, http.StatusBadRequest, "s and q are required")
		return
	}
	limit := s.cfg.Engine.DefaultLimit
	if v := params.Get("n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		limit = n
	}
	// Case-sensitive matching is the default; only an explicit opt-out
	// disables it.
	caseOn := true
	if v := params.Get("case"); v == "false" || v == "0" {
		caseOn = false
	}

	urls, err := s.registry.Search(r.Context(), shard, query, &matchbox.QueryOptions{
		Limit:         limit,
		CaseSensitive: caseOn,
	})
	if err != nil {
		if err == common.ErrInvalidShard {
			writeError(w, http.StatusBadRequest, "invalid shard name")
			return
		}
		s.logger.Error("search failed", "shard", shard, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if s.metrics != nil {
		s.metrics.SearchResults.Observe(float64(len(urls)))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"urls": urls})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	params := r.URL.Query()
	shard := params.Get("s")
	url := params.Get("url")
	if shard == "" || url == "" {
		writeError(w, http.StatusBadRequest, "s and url are required")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	// Too-short and binary documents are rejected here, before the
	// engine is invoked.
	if len(body) < common.TrigramLen {
		writeError(w, http.StatusBadRequest, "document too short")
		return
	}
	if bytes.IndexByte(body, 0) >= 0 {
		writeError(w, http.StatusBadRequest, common.ErrBinaryText.Error())
		return
	}

	id, err := s.registry.Index(r.Context(), shard, url, string(body))
	if err != nil {
		if err == common.ErrInvalidShard {
			writeError(w, http.StatusBadRequest, "invalid shard name")
			return
		}
		s.logger.Error("index failed", "shard", shard, "url", url, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if s.metrics != nil && id != 0 {
		s.metrics.DocsIndexed.Inc()
	}
	// id 0 means the text held no indexable trigram; mirror that as a
	// null docId.
	var docID interface{}
	if id != 0 {
		docID = id
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"docId": docID})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
