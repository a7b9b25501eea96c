// Package rpc exposes the query engine over HTTP, letting callers run
// structural queries against a completed scan job without re-scanning.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/classgraph/internal/query"
	"github.com/classgraph/internal/repository"
	"github.com/classgraph/pkg/utils"
)

// Server is the HTTP query server. It holds one in-memory query.Engine per
// job UUID, populated by the scheduler as jobs complete (see Cache).
type Server struct {
	addr   string
	cache  *Cache
	repos  *repository.Repositories
	logger utils.Logger
	server *http.Server
}

// NewServer creates a query server bound to addr (e.g. ":9090").
func NewServer(addr string, cache *Cache, repos *repository.Repositories, logger utils.Logger) *Server {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}
	return &Server{addr: addr, cache: cache, repos: repos, logger: logger}
}

// Start starts the HTTP server. Blocks until the server stops or errors.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/jobs/", s.handleJob)
	mux.HandleFunc("/api/query/subtypes", s.handleSubtypes)
	mux.HandleFunc("/api/query/annotated", s.handleAnnotated)
	mux.HandleFunc("/api/query/superclasses", s.handleSuperclasses)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("Starting query server at %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleJob returns the persisted scan result for a job UUID:
// GET /api/jobs/{uuid}
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	uuid := r.URL.Path[len("/api/jobs/"):]
	if uuid == "" {
		http.Error(w, "job uuid required", http.StatusBadRequest)
		return
	}

	result, err := s.repos.Result.GetResultByJobUUID(r.Context(), uuid)
	if err != nil {
		http.Error(w, "result not found", http.StatusNotFound)
		return
	}

	writeJSON(w, result)
}

func (s *Server) handleSubtypes(w http.ResponseWriter, r *http.Request) {
	s.queryHandler(w, r, func(e *query.Engine, name string) interface{} {
		return e.SubtypesImplementing(name)
	})
}

func (s *Server) handleAnnotated(w http.ResponseWriter, r *http.Request) {
	s.queryHandler(w, r, func(e *query.Engine, name string) interface{} {
		return e.ClassesWithAnnotation(name)
	})
}

func (s *Server) handleSuperclasses(w http.ResponseWriter, r *http.Request) {
	s.queryHandler(w, r, func(e *query.Engine, name string) interface{} {
		return e.SuperclassesOf(name)
	})
}

// queryHandler is the shared plumbing for every query endpoint: pick the
// job's cached engine and the "name" query parameter, run fn, write JSON.
func (s *Server) queryHandler(w http.ResponseWriter, r *http.Request, fn func(*query.Engine, string) interface{}) {
	jobUUID := r.URL.Query().Get("job")
	name := r.URL.Query().Get("name")
	if jobUUID == "" || name == "" {
		http.Error(w, "job and name query parameters are required", http.StatusBadRequest)
		return
	}

	engine, ok := s.cache.Get(jobUUID)
	if !ok {
		http.Error(w, fmt.Sprintf("no cached query engine for job %s", jobUUID), http.StatusNotFound)
		return
	}

	writeJSON(w, fn(engine, name))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(v)
}
