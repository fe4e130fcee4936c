// Package httpapi exposes the assistant over a small JSON API, one session
// per conversation.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"smartassistant/internal/llm"
	"smartassistant/internal/observability"
	"smartassistant/internal/session"
)

var errEmptyBody = errors.New("request body is empty")

type Server struct {
	sessions *session.Manager
	metrics  *observability.Metrics
}

func New(sessions *session.Manager, metrics *observability.Metrics) *Server {
	return &Server{sessions: sessions, metrics: metrics}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", observability.MetricsHandler())
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Post("/{sessionID}/messages", s.handlePostMessage)
		r.Delete("/{sessionID}", s.handleEndSession)
	})
	return r
}

type createSessionRequest struct {
	Agent string `json:"agent"`
}

type createSessionResponse struct {
	SessionID string    `json:"session_id"`
	Agent     string    `json:"agent"`
	StartedAt time.Time `json:"started_at"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	kind := session.AgentKind(strings.ToLower(strings.TrimSpace(req.Agent)))
	sess, err := s.sessions.Create(kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_agent", err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.ActiveSessions.Inc()
	}
	respondJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sess.ID,
		Agent:     string(sess.Kind),
		StartedAt: sess.StartedAt,
	})
}

type postMessageRequest struct {
	Text string `json:"text"`
}

type postMessageResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	var req postMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	_ = s.sessions.Touch(sessionID)

	start := time.Now()
	reply, err := sess.Agent.Reply(r.Context(), text)
	s.metrics.ObserveTurnLatency(time.Since(start))
	if err != nil {
		// Only unrecoverable transport failures surface as errors; every
		// other failure mode already degraded to a textual reply.
		if llm.IsTransport(err) {
			respondError(w, http.StatusBadGateway, "model_unreachable", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "turn_failed", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, postMessageResponse{Reply: reply})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.sessions.End(sessionID); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.ActiveSessions.Dec()
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
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
