// Package server exposes the Reverie backend over HTTP: one endpoint to
// chat, one to read the live persona, and one to erase a user's memory.
// Transport and auth only; all behavior lives in the chat and mind
// packages.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"reverie/internal/chat"
	"reverie/internal/store"
)

// Server is the HTTP surface.
type Server struct {
	handler  *chat.Handler
	store    *store.Store
	apiToken string
	logger   *zap.Logger
	mux      *http.ServeMux
}

// New creates the HTTP server around an already-wired chat handler.
func New(handler *chat.Handler, st *store.Store, apiToken string, logger *zap.Logger) *Server {
	s := &Server{
		handler:  handler,
		store:    st,
		apiToken: apiToken,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat", s.withAuth(s.handleChat))
	mux.HandleFunc("GET /v1/persona", s.withAuth(s.handlePersona))
	mux.HandleFunc("DELETE /v1/memory", s.withAuth(s.handleDeleteMemory))
	s.mux = mux

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
}

type chatRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type personaResponse struct {
	Text      string `json:"text"`
	UpdatedAt string `json:"updated_at"`
}

// withAuth verifies the bearer token and the presence of a user identity
// before handing off. A missing or wrong token is Unauthenticated, never a
// hint about which part was wrong.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if s.apiToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.apiToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	reply, err := s.handler.HandleChatTurn(r.Context(), req.UserID, req.Text)
	if err != nil {
		s.writeChatError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

func (s *Server) handlePersona(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	persona, err := s.store.GetPersona(userID)
	if err != nil {
		s.logger.Error("persona lookup failed", zap.String("user", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	if persona == nil {
		writeError(w, http.StatusNotFound, "no persona yet")
		return
	}

	writeJSON(w, http.StatusOK, personaResponse{
		Text:      persona.Text,
		UpdatedAt: persona.UpdatedAt.Format(time.RFC3339),
	})
}

// handleDeleteMemory erases everything held for a user: conversation log,
// persona, and the analysis archive.
func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := s.store.DeleteUserData(userID); err != nil {
		s.logger.Error("memory deletion failed", zap.String("user", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	s.logger.Info("deleted all data for user", zap.String("user", userID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// writeChatError maps caller-visible error kinds to HTTP statuses.
func (s *Server) writeChatError(w http.ResponseWriter, err error) {
	switch chat.KindOf(err) {
	case chat.KindInvalidArgument:
		writeError(w, http.StatusBadRequest, err.Error())
	case chat.KindUnauthenticated:
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// Run starts the listener and blocks until ctx is canceled, then shuts the
// listener down gracefully. Background pipeline work is drained separately
// by the caller via the chat runner.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
