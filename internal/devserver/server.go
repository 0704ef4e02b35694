// Package devserver is an in-memory implementation of the task REST API,
// used for local development and as a fixture in client tests.
package devserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"taskmgr/internal/logging"
)

// RequestIDHeader carries the request id, generated when the caller sent none.
const RequestIDHeader = "X-Request-ID"

// Server serves the task API.
type Server struct {
	store   *Store
	metrics *Metrics
	log     *slog.Logger
	router  chi.Router
}

// New builds a server whose task routes live under prefix ("/api" by default).
// Metrics are served at /metrics outside the prefix.
func New(store *Store, metrics *Metrics, log *slog.Logger, prefix string) *Server {
	if store == nil {
		store = NewStore()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	if log == nil {
		log = logging.Discard()
	}

	s := &Server{store: store, metrics: metrics, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Route(normalizePrefix(prefix), func(r chi.Router) {
		r.Get("/tasks", s.listTasks)
		r.Post("/tasks", s.createTask)
		r.Get("/tasks/{id}", s.getTask)
		r.Put("/tasks/{id}", s.updateTask)
		r.Delete("/tasks/{id}", s.deleteTask)
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router = r
	return s
}

func normalizePrefix(prefix string) string {
	return "/" + strings.Trim(prefix, "/")
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Store returns the backing store.
func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		elapsed := time.Since(start)
		s.metrics.observe(r, code, elapsed.Seconds())
		s.log.Info("request",
			"id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", code,
			"duration", elapsed,
		)
	})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	t, err := s.store.Get(id)
	if err != nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTask(w, r)
	if !ok {
		return
	}
	d, errs := req.validate()
	if errs != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	t := s.store.Create(d)
	s.metrics.mutations.WithLabelValues("create").Inc()
	s.log.Debug("task created", "id", t.ID)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	req, ok := decodeTask(w, r)
	if !ok {
		return
	}
	d, errs := req.validate()
	if errs != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	t, err := s.store.Update(id, d)
	if err != nil {
		writeNotFound(w)
		return
	}
	s.metrics.mutations.WithLabelValues("update").Inc()
	s.log.Debug("task updated", "id", t.ID)
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(id); err != nil {
		writeNotFound(w)
		return
	}
	s.metrics.mutations.WithLabelValues("delete").Inc()
	s.log.Debug("task deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// taskID parses the {id} route parameter. Ids that cannot name a task are
// reported as not found.
func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeNotFound(w)
		return 0, false
	}
	return id, true
}

func decodeTask(w http.ResponseWriter, r *http.Request) (taskRequest, bool) {
	defer r.Body.Close()

	var req taskRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"errors": map[string]string{typeErr.Field: "Invalid value"},
			})
			return req, false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Malformed request body"})
		return req, false
	}
	return req, true
}

func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Task not found"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
