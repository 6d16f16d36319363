// Package server provides the HTTP REST API for the recruitment tracker.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-tracker/internal/config"
	"github.com/jonathan/recruit-tracker/internal/server/middleware"
	"github.com/jonathan/recruit-tracker/internal/server/ratelimit"
	"github.com/jonathan/recruit-tracker/internal/tracker"
	"github.com/jonathan/recruit-tracker/internal/types"
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	svc         *tracker.Service
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	ping        func(context.Context) error
}

// Config holds server configuration
type Config struct {
	Port      int
	JWT       *config.JWTConfig
	RateLimit *ratelimit.Config // nil loads RATE_LIMIT_* from the environment
	// Ping reports backend health for GET /health. Optional.
	Ping func(context.Context) error
}

// New creates a new server instance
func New(svc *tracker.Service, cfg Config) (*Server, error) {
	if svc == nil {
		return nil, errors.New("server: tracker service is required")
	}
	if cfg.JWT == nil {
		return nil, errors.New("server: JWT config is required")
	}
	rl := cfg.RateLimit
	if rl == nil {
		rl = ratelimit.LoadConfig()
	}

	s := &Server{
		svc:         svc,
		rateLimiter: ratelimit.NewLimiter(rl),
		jwtService:  NewJWTService(cfg.JWT),
		ping:        cfg.Ping,
	}

	api := http.NewServeMux()

	// Roster
	api.HandleFunc("GET /users", s.handleListUsers)
	api.HandleFunc("POST /users", s.handleCreateUser)
	api.HandleFunc("GET /users/{id}", s.handleGetUser)
	api.HandleFunc("PUT /users/{id}", s.handleUpdateUser)
	api.HandleFunc("DELETE /users/{id}", s.handleDeleteUser)
	api.HandleFunc("GET /users/{id}/reportees", s.handleReportees)
	api.HandleFunc("GET /me", s.handleMe)

	// Jobs
	api.HandleFunc("GET /jobs", s.handleListJobs)
	api.HandleFunc("POST /jobs", s.handleCreateJob)
	api.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	api.HandleFunc("PUT /jobs/{id}", s.handleUpdateJob)
	api.HandleFunc("POST /jobs/{id}/notify", s.handleNotifyClient)

	// Candidates
	api.HandleFunc("GET /candidates", s.handleListCandidates)
	api.HandleFunc("POST /candidates", s.handleCreateCandidate)
	api.HandleFunc("GET /candidates/orphans", s.handleListOrphans)
	api.HandleFunc("POST /candidates/orphans/reassign", s.handleReassign)
	api.HandleFunc("GET /candidates/{id}", s.handleGetCandidate)
	api.HandleFunc("PATCH /candidates/{id}", s.handleUpdateCandidate)
	api.HandleFunc("DELETE /candidates/{id}", s.handleDeleteCandidate)
	api.HandleFunc("POST /candidates/{id}/status", s.handleChangeStatus)
	api.HandleFunc("POST /candidates/{id}/stages", s.handleCompleteStage)

	root := http.NewServeMux()
	root.HandleFunc("GET /health", s.handleHealth)
	root.Handle("/", middleware.AuthMiddleware(s.jwtService.AsTokenValidator(), svc)(api))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(root))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.rateLimiter.Stop()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("[server] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	s.rateLimiter.Stop()
	log.Println("[server] stopped")
	return nil
}

// Close releases background resources without serving.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[%s] %s %s -> %d in %v", r.Method, r.URL.Path, r.RemoteAddr, rec.status, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[server] error encoding JSON response: %v", err)
	}
}

// actor returns the authenticated caller. The auth middleware guarantees one
// on every API route.
func (s *Server) actor(w http.ResponseWriter, r *http.Request) (types.User, bool) {
	actor, err := middleware.GetActor(r)
	if err != nil {
		s.jsonResponse(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return types.User{}, false
	}
	return actor, true
}

// pathID parses a UUID path parameter, writing a 400 on failure.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		s.serviceError(w, types.NewValidationError("parse path", name, "must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// decode reads a JSON body into v. An empty body is allowed when optional.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	s.serviceError(w, types.NewValidationError("decode request", "(body)", "invalid JSON: "+err.Error()))
	return false
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	// Get IP from RemoteAddr (format: "IP:port")
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// If parsing fails, use the whole RemoteAddr
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = secs
		w.Header().Set("Retry-After", fmt.Sprintf("%d", secs))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
