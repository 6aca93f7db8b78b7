package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"scraper-service/internal/service"
	"scraper-service/internal/telemetry"
)

// ServiceName is reported in the root banner.
const ServiceName = "scraper-service"

// Server wires HTTP handlers around the job service.
type Server struct {
	svc *service.Service
}

// New constructs the API server.
func New(svc *service.Service) *Server {
	return &Server{svc: svc}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.svc.Config().AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Mount("/metrics", telemetry.Handler())

	r.Post("/api/scrape", s.handleSubmit)
	r.Get("/api/jobs/{id}", s.handleGetJob)
	r.Get("/api/system", s.handleSystem)
	return r
}

type submitRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ExcludeNickname string `json:"excludeNickname"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid json body")
		return
	}

	receipt, err := s.svc.Submit(service.SubmitParams{
		Email:           req.Email,
		Password:        req.Password,
		ExcludeNickname: req.ExcludeNickname,
	})
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusUnprocessableEntity, verr.Error())
		case errors.Is(err, service.ErrQueueFull):
			writeError(w, http.StatusTooManyRequests, "scraper queue is currently full, please retry in a moment")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snapshot, err := s.svc.Job(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleSystem(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"queueSize": s.svc.QueueDepth(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	cfg := s.svc.Config()
	writeJSON(w, http.StatusOK, map[string]any{
		"service":        ServiceName,
		"maxConcurrency": cfg.MaxConcurrency,
		"queueSize":      s.svc.QueueDepth(),
		"historyLimit":   cfg.MaxHistory,
		"queueLimit":     cfg.QueueLimit,
	})
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
