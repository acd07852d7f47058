// Package httpapi is the inbound HTTP surface: one chat endpoint plus
// transcript and health reads. All error paths answer JSON; nothing panics
// out of a handler.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cexll/cassdoctor/pkg/catalog"
	"github.com/cexll/cassdoctor/pkg/chat"
	"github.com/cexll/cassdoctor/pkg/observability"
	"github.com/cexll/cassdoctor/pkg/oracle"
	"github.com/cexll/cassdoctor/pkg/session"
)

// TurnRunner is the slice of the chat engine the API needs.
type TurnRunner interface {
	RunTurn(ctx context.Context, sessionID, userText string) (*chat.TurnResult, error)
}

var _ TurnRunner = (*chat.Engine)(nil)

// Server routes HTTP traffic to the chat engine and the session store.
type Server struct {
	engine TurnRunner
	store  *session.Store
}

func NewServer(engine TurnRunner, store *session.Store) *Server {
	return &Server{engine: engine, store: store}
}

// Handler builds the full middleware-wrapped route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /sessions/{id}/messages", s.handleMessages)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return withRequestID(withLogging(withCORS(mux)))
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	SessionID  string   `json:"session_id"`
	Reply      string   `json:"reply"`
	Tools      []string `json:"tools"`
	Rounds     int      `json:"rounds"`
	StopReason string   `json:"stop_reason"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body is not valid JSON", false)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required", false)
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = ulid.Make().String()
	}

	result, err := s.engine.RunTurn(r.Context(), sessionID, req.Message)
	if err != nil {
		writeTurnError(w, r, sessionID, err)
		return
	}

	tools := result.Tools
	if tools == nil {
		tools = []string{}
	}
	writeJSON(w, http.StatusOK, chatResponse{
		SessionID:  sessionID,
		Reply:      result.Reply,
		Tools:      tools,
		Rounds:     result.Rounds,
		StopReason: result.StopReason,
	})
}

func writeTurnError(w http.ResponseWriter, r *http.Request, sessionID string, err error) {
	logger := observability.LoggerFromContext(r.Context())

	var discErr *catalog.DiscoveryError
	var oracleErr *oracle.Error
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "message is required", false)
	case errors.Is(err, session.ErrSessionBusy):
		writeError(w, http.StatusConflict, "a turn is already in flight for this session", true)
	case errors.As(err, &discErr):
		logger.Error("tool discovery failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusBadGateway, "tool discovery failed", true)
	case errors.As(err, &oracleErr):
		logger.Error("oracle failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusBadGateway, "decision backend failed", true)
	default:
		logger.Error("turn failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", false)
	}
}

type messagesResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []session.Message `json:"messages"`
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	messages, err := s.store.History(id, session.Filter{})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session not found", false)
		case errors.Is(err, session.ErrInvalidSessionID):
			writeError(w, http.StatusBadRequest, "session id is required", false)
		default:
			writeError(w, http.StatusInternalServerError, "internal error", false)
		}
		return
	}
	if messages == nil {
		messages = []session.Message{}
	}
	writeJSON(w, http.StatusOK, messagesResponse{SessionID: id, Messages: messages})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, retryable bool) {
	writeJSON(w, status, errorResponse{Error: msg, Retryable: retryable})
}

// ListenAndServe runs the API with sane timeouts until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
