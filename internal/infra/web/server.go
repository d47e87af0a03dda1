package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"book-processor/internal/config"
	"book-processor/internal/domain/model"
	"book-processor/internal/domain/ports/repository"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server exposes operational read-only endpoints while the daemon runs:
// liveness, the tracked jobs (failed books show up here and wait for an
// operator), and prometheus metrics.
type Server struct {
	cfg    *config.Config
	books  repository.BookRepository
	server *http.Server
	log    *zerolog.Logger
}

func NewServer(cfg *config.Config, books repository.BookRepository, logger *zerolog.Logger) *Server {
	webLog := logger.With().Str("component", "Web").Logger()
	return &Server{cfg: cfg, books: books, log: &webLog}
}

func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/jobs", s.handleJobs)
	r.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Admin.Port),
		Handler: r,
	}
	s.log.Info().Int("port", s.cfg.Admin.Port).Msg("status server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

type jobView struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	ErrorMessage string    `json:"error_message,omitempty"`
	RetryCount   int       `json:"retry_count"`
	LastUpdated  time.Time `json:"last_updated"`
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	books, err := s.books.ListAll(r.Context(), repository.NoTX)
	if err != nil {
		s.log.Error().Err(err).Msg("list jobs failed")
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}

	// Optional ?status= filter.
	filter := model.BookStatus(r.URL.Query().Get("status"))
	views := make([]jobView, 0, len(books))
	for _, b := range books {
		if filter != "" && b.Status != filter {
			continue
		}
		views = append(views, jobView{
			ID:           b.ID,
			Title:        b.Title,
			Status:       string(b.Status),
			CreatedAt:    b.CreatedAt,
			ErrorMessage: b.ErrorMessage,
			RetryCount:   b.RetryCount,
			LastUpdated:  b.LastUpdated,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}
