// Package server provides the single-page web UI and its JSON API.
//
// Endpoints:
//   - GET  /                - the chat page
//   - POST /api/chat        - submit a message, get the reply and history
//   - POST /api/reset       - clear the session's history
//   - GET  /api/history     - the session's messages
//   - GET  /api/transcript  - transcript download (text or markdown)
//   - GET  /healthz         - liveness
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/averyhart/qa-advisor/internal/chat"
)

//go:embed index.html
var indexPage []byte

const sessionCookie = "qa_session"

// maxMessageBytes bounds the request body size.
const maxMessageBytes = 1 << 20

// Server serves the chat UI backed by per-session conversations.
type Server struct {
	registry  *Registry
	authToken string
	handler   http.Handler
}

func New(newConversation func() *chat.Conversation, idleTimeout time.Duration, authToken string) *Server {
	s := &Server{
		registry:  NewRegistry(newConversation, idleTimeout),
		authToken: authToken,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/transcript", s.handleTranscript)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.handler = withRecovery(withLogging(withSecurityHeaders(withAuth(authToken, mux))))
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.registry.Sweep(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("Listening on %s", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexPage)
}

// sessionFor returns the caller's session, creating one (and setting the
// cookie) when none exists or the old one has been evicted.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if sess := s.registry.Get(cookie.Value); sess != nil {
			sess.touch()
			return sess
		}
	}

	sess := s.registry.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply   chat.Message   `json:"reply"`
	History []chat.Message `json:"history"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := s.sessionFor(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	reply, err := sess.conv.Submit(r.Context(), req.Message)
	if errors.Is(err, chat.ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, "message must not be empty")
		return
	} else if err != nil {
		log.Printf("Completion failed for session %s: %v", sess.id, err)
		writeError(w, http.StatusBadGateway, "the assistant is unavailable right now; your message was kept, please try again")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, History: sess.conv.History()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.conv.Reset()
	writeJSON(w, http.StatusOK, map[string][]chat.Message{"history": sess.conv.History()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string][]chat.Message{"history": sess.conv.History()})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	sess.mu.Lock()
	history := sess.conv.History()
	sess.mu.Unlock()

	var body, contentType, filename string
	if r.URL.Query().Get("format") == "markdown" {
		body = chat.TranscriptMarkdown(history)
		contentType = "text/markdown; charset=utf-8"
		filename = "transcript.md"
	} else {
		body = chat.Transcript(history)
		contentType = "text/plain; charset=utf-8"
		filename = "transcript.txt"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
