// Package httpapi exposes the query engine over HTTP with a go-chi
// router, continuing the teacher's dispatch style
// (middleware.Logger/Recoverer, rs/cors, JSON responses via
// encoding/json). It implements the one behavior spec §5 calls out
// explicitly for this layer: a failed try-shared acquisition on the
// dataset holder (a reload in progress) returns HTTP 503 with body
// {"status":"loading"} instead of blocking the request.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/antigravity/transitcore/internal/dataset"
	"github.com/antigravity/transitcore/internal/query"
)

// Server wires the dataset holder into a chi router.
type Server struct {
	Holder *dataset.Holder
	router chi.Router
}

// NewServer builds the router and registers routes. Call Handler to get
// the final http.Handler.
func NewServer(holder *dataset.Holder) *Server {
	s := &Server{Holder: holder}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Get("/health", s.handleHealth)
	r.Get("/route", s.handleRoute)

	s.router = r
	return s
}

// Handler returns the assembled http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.Holder.Loaded() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRoute serves GET /route?src=<sa>&dst=<sa>&time=<seconds>&day=<index>,
// calling query.Compute then query.MakeItinerary, matching the teacher's
// GetRoute query-param parsing style.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.Holder.TryAcquireShared()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}

	q := r.URL.Query()
	src, err1 := strconv.Atoi(q.Get("src"))
	dst, err2 := strconv.Atoi(q.Get("dst"))
	if err1 != nil || err2 != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "src and dst query parameters are required integers"})
		return
	}
	seconds, err := strconv.Atoi(q.Get("time"))
	if err != nil {
		seconds = 8 * 3600 // default 08:00, matching the teacher's GetRoute default
	}
	day, err := strconv.Atoi(q.Get("day"))
	if err != nil {
		day = 0
	}

	raw := query.Compute(snap.Graph, snap.Data, snap.Reg, src, dst, seconds, day)
	if raw.Empty() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no route found"})
		return
	}
	writeJSON(w, http.StatusOK, query.MakeItinerary(raw))
}
