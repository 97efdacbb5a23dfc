package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/zoey/internal/agent"
	"github.com/antoniostano/zoey/internal/config"
	"github.com/antoniostano/zoey/internal/memory"
	"github.com/antoniostano/zoey/internal/mode"
	"github.com/antoniostano/zoey/internal/observability"
	"github.com/antoniostano/zoey/internal/session"
)

// Orchestrator is the turn pipeline the HTTP surface drives.
type Orchestrator interface {
	HandleTurn(ctx context.Context, userID string, requested mode.ID, message string) (*agent.TurnResult, error)
	StartSession(ctx context.Context, userID string, initial mode.ID) (*session.Session, string, error)
	AnalyzeUser(userID string) (*agent.UserAnalysis, error)
}

type Server struct {
	cfg          config.Config
	sessions     *session.Manager
	orchestrator Orchestrator
	memories     *memory.Store
	metrics      *observability.Metrics
	upgrader     websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Manager, orchestrator Orchestrator, memories *memory.Store, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:          cfg,
		sessions:     sessions,
		orchestrator: orchestrator,
		memories:     memories,
		metrics:      metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from
				// the same origin, so another site cannot drive a user's
				// chat session if Zoey is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat/session", s.handleCreateSession)
	r.Post("/v1/chat/session/{id}/end", s.handleEndSession)
	r.Get("/v1/chat/session/ws", s.handleSessionWS)
	r.Post("/v1/chat/turn", s.handleTurn)

	r.Get("/v1/modes", s.handleListModes)

	r.Get("/v1/users/{id}/memory", s.handleGetMemory)
	r.Get("/v1/users/{id}/turns", s.handleRecentTurns)
	r.Get("/v1/users/{id}/analysis", s.handleAnalysis)
	r.Post("/v1/users/{id}/metrics", s.handleUpdateMetrics)
	r.Post("/v1/users/{id}/preferences", s.handleUpdatePreferences)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"storage": s.storageMode(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ready",
		"storage": s.storageMode(),
	})
}

type createSessionRequest struct {
	UserID string  `json:"user_id"`
	Mode   mode.ID `json:"mode"`
}

type createSessionResponse struct {
	Session         *session.Session `json:"session"`
	Intro           string           `json:"intro"`
	InactivityTTLMS int64            `json:"inactivity_ttl_ms"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = "anonymous"
	}
	if req.Mode == "" {
		req.Mode = mode.Doctor
	}

	sess, intro, err := s.orchestrator.StartSession(r.Context(), req.UserID, req.Mode)
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
		s.metrics.SessionEvents.WithLabelValues("created").Inc()
	}

	respondJSON(w, http.StatusCreated, createSessionResponse{
		Session:         sess,
		Intro:           intro,
		InactivityTTLMS: s.cfg.SessionInactivityTimeout.Milliseconds(),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
		s.metrics.SessionEvents.WithLabelValues("ended").Inc()
	}
	respondJSON(w, http.StatusOK, sess)
}

type turnRequest struct {
	UserID  string  `json:"user_id"`
	Mode    mode.ID `json:"mode"`
	Message string  `json:"message"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.orchestrator.HandleTurn(r.Context(), req.UserID, req.Mode, req.Message)
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleListModes(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"modes": mode.All()})
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	mem, err := s.memories.Memory(chi.URLParam(r, "id"))
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mem)
}

func (s *Server) handleRecentTurns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	turns := s.memories.RecentTurns(chi.URLParam(r, "id"), limit)
	respondJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.orchestrator.AnalyzeUser(chi.URLParam(r, "id"))
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleUpdateMetrics(w http.ResponseWriter, r *http.Request) {
	var patch memory.HealthMetricsPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	userID := chi.URLParam(r, "id")
	if err := s.memories.UpdateHealthMetrics(userID, patch); err != nil {
		s.respondMapped(w, err)
		return
	}
	s.memories.Persist(userID)
	mem, err := s.memories.Memory(userID)
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mem.HealthMetrics)
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var patch memory.UserPreferencesPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	userID := chi.URLParam(r, "id")
	if err := s.memories.UpdateUserPreferences(userID, patch); err != nil {
		s.respondMapped(w, err)
		return
	}
	s.memories.Persist(userID)
	mem, err := s.memories.Memory(userID)
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mem.UserPreferences)
}

// respondMapped translates pipeline errors into the HTTP error taxonomy.
func (s *Server) respondMapped(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, agent.ErrValidation):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, mode.ErrUnknown):
		respondError(w, http.StatusNotFound, "unknown_mode", err.Error())
	case errors.Is(err, memory.ErrNotFound):
		respondError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func (s *Server) storageMode() string {
	if strings.TrimSpace(s.cfg.DatabaseURL) != "" {
		return "postgres"
	}
	return "in-memory"
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
