// Package daemon serves the classification engine over a local HTTP API for the browser extension
// and other UI collaborators.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.trai.ch/zerr"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	maxBodyBytes      = 1 << 20
)

// Service is the set of UI collaborator operations the API exposes.
type Service interface {
	CacheOnly(ctx context.Context, url string) (domain.Status, error)
	Reconcile(ctx context.Context, url string) (domain.Status, error)
	Rules(ctx context.Context, url string) (domain.RulesReport, error)
	ClearCache(ctx context.Context, url string) (bool, error)
	FullSync(ctx context.Context) domain.SyncResult
	DeltaSync(ctx context.Context) domain.SyncResult
	RescheduleSync(ctx context.Context) error
	Status(ctx context.Context) domain.Status
	Events(ctx context.Context) <-chan domain.Status
	Navigate(ctx context.Context, session, url string) (domain.Status, error)
	ReconcileSession(ctx context.Context, session, url string) (domain.Status, error)
	CloseSession(session string)
}

// Server is the local HTTP API.
type Server struct {
	service   Service
	lifecycle *Lifecycle
	logger    ports.Logger
	metrics   http.Handler
	router    chi.Router
}

type urlRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	IdleRemaining int64  `json:"idleRemainingSeconds"`
	Requests      int64  `json:"requests"`
	Streams       int    `json:"streams"`
}

// NewServer creates a Server. metrics serves /metrics when non-nil.
func NewServer(service Service, lifecycle *Lifecycle, logger ports.Logger, metrics http.Handler) *Server {
	s := &Server{
		service:   service,
		lifecycle: lifecycle,
		logger:    logger,
		metrics:   metrics,
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.track)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Get("/check", s.handleCheck)
		r.Post("/reconcile", s.handleReconcile)
		r.Get("/rules", s.handleRules)
		r.Delete("/cache", s.handleClearCache)
		r.Post("/sync", s.handleSync)
		r.Post("/sync/reschedule", s.handleReschedule)
		r.Route("/sessions/{session}", func(r chi.Router) {
			r.Post("/navigate", s.handleNavigate)
			r.Post("/reconcile", s.handleReconcile)
			r.Delete("/", s.handleCloseSession)
		})
	})

	return r
}

// Serve listens on addr until ctx is done or the lifecycle shuts the service down.
// The bound address is reported through ready when it is non-nil.
func (s *Server) Serve(ctx context.Context, addr string, ready func(net.Addr)) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrServerFailed.Error()), "addr", addr)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()
	s.logger.Info("http api listening", "addr", lis.Addr().String())
	if ready != nil {
		ready(lis.Addr())
	}

	select {
	case <-ctx.Done():
		s.shutdown(srv)
		return ctx.Err()
	case <-s.lifecycle.Done():
		s.logger.Info("http api idle, shutting down")
		s.shutdown(srv)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return zerr.Wrap(err, domain.ErrServerFailed.Error())
	}
}

func (s *Server) shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error(zerr.Wrap(err, "http api shutdown"))
	}
}

// track records activity and logs each request.
func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lifecycle.Touch()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	activity := s.lifecycle.Activity()
	s.respondWithJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(s.lifecycle.Uptime().Seconds()),
		IdleRemaining: int64(activity.IdleRemaining.Seconds()),
		Requests:      activity.Requests,
		Streams:       activity.Streams,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, s.service.Status(r.Context()))
}

// handleEvents streams every published status as server-sent events until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondWithError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events := s.service.Events(r.Context())
	detach := s.lifecycle.Attach()
	defer detach()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case status, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(status)
			if err != nil {
				s.logger.Error(zerr.Wrap(err, "encode event"))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: status\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		s.respondWithError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}
	status, err := s.service.CacheOnly(r.Context(), url)
	s.respondWithStatus(w, status, err)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeURL(w, r)
	if !ok {
		return
	}

	var (
		status domain.Status
		err    error
	)
	if session := chi.URLParam(r, "session"); session != "" {
		status, err = s.service.ReconcileSession(r.Context(), session, req.URL)
	} else {
		status, err = s.service.Reconcile(r.Context(), req.URL)
	}
	s.respondWithStatus(w, status, err)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeURL(w, r)
	if !ok {
		return
	}
	status, err := s.service.Navigate(r.Context(), chi.URLParam(r, "session"), req.URL)
	s.respondWithStatus(w, status, err)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	s.service.CloseSession(chi.URLParam(r, "session"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		s.respondWithError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}
	report, err := s.service.Rules(r.Context(), url)
	if err != nil {
		s.respondWithInternalError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, report)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		s.respondWithError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}
	removed, err := s.service.ClearCache(r.Context(), url)
	if err != nil {
		s.respondWithInternalError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	full, _ := strconv.ParseBool(r.URL.Query().Get("full"))

	var result domain.SyncResult
	if full {
		result = s.service.FullSync(r.Context())
	} else {
		result = s.service.DeltaSync(r.Context())
	}

	code := http.StatusOK
	if !result.Success {
		code = http.StatusBadGateway
	}
	s.respondWithJSON(w, code, result)
}

func (s *Server) handleReschedule(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RescheduleSync(r.Context()); err != nil {
		s.respondWithInternalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeURL(w http.ResponseWriter, r *http.Request) (urlRequest, bool) {
	var req urlRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.URL == "" {
		s.respondWithError(w, http.StatusBadRequest, "url is required")
		return req, false
	}
	return req, true
}

func (s *Server) respondWithStatus(w http.ResponseWriter, status domain.Status, err error) {
	switch {
	case errors.Is(err, domain.ErrAlreadyInFlight):
		s.respondWithError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.respondWithInternalError(w, err)
	default:
		s.respondWithJSON(w, http.StatusOK, status)
	}
}

func (s *Server) respondWithInternalError(w http.ResponseWriter, err error) {
	s.logger.Error(err)
	s.respondWithError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, errorResponse{Error: message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error(zerr.Wrap(err, "encode response"))
	}
}
