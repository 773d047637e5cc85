// Package server exposes the engine over HTTP: synchronous chat, SSE chat
// streaming, engine status, profile management and indexing.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/wolfmanIII/elara/internal/chatbot"
	"github.com/wolfmanIII/elara/internal/indexer"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server serves the engine API.
type Server struct {
	cfg        Config
	svc        Service
	router     chi.Router
	httpServer *http.Server
}

func New(cfg Config, svc Service) *Server {
	s := &Server{cfg: cfg, svc: svc}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/engine/status", s.handleEngineStatus)
	r.Post("/api/chat", s.handleChat)
	r.Post("/api/chat/stream", s.handleChatStream)
	r.Get("/api/profiles", s.handleListProfiles)
	r.Post("/api/profiles/active", s.handleUseProfile)
	r.Post("/api/index", s.handleIndex)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port. Streaming responses rule
// out a write timeout.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("server: listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleEngineStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Status())
}

// questionFromRequest accepts both JSON bodies ({"question": "..."}) and
// classic form posts (question=...).
func questionFromRequest(r *http.Request) string {
	var payload struct {
		Question string `json:"question"`
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			return strings.TrimSpace(payload.Question)
		}
		return ""
	}

	if err := r.ParseForm(); err != nil {
		return ""
	}
	return strings.TrimSpace(r.PostFormValue("question"))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	question := questionFromRequest(r)
	if question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty question"})
		return
	}

	answer, err := s.svc.Ask(r.Context(), question)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	sources := answer.Sources
	if sources == nil {
		sources = []chatbot.Source{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"question": question,
		"answer":   answer.Answer,
		"sources":  sources,
	})
}

// handleChatStream answers over SSE: zero or more {"chunk"} events, then
// exactly one terminal event, {"done","sources"} on success or {"error"} on
// failure.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	question := questionFromRequest(r)
	if question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty question"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	emit := func(payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	sources, err := s.svc.AskStream(r.Context(), question, func(chunk string) {
		emit(map[string]string{"chunk": chunk})
	})
	if err != nil {
		emit(map[string]string{"error": err.Error()})
		return
	}

	if sources == nil {
		sources = []chatbot.Source{}
	}
	emit(map[string]any{"done": true, "sources": sources})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"active":   s.svc.ActiveProfile(),
		"profiles": s.svc.Profiles(),
	})
}

func (s *Server) handleUseProfile(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing profile name"})
		return
	}

	if err := s.svc.UseProfile(payload.Name); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active": payload.Name})
}

type indexRequest struct {
	Force           bool     `json:"force"`
	DryRun          bool     `json:"dry_run"`
	TestMode        *bool    `json:"test_mode"`
	OfflineFallback *bool    `json:"offline_fallback"`
	Paths           []string `json:"paths"`
	ExcludeDirs     []string `json:"exclude_dirs"`
	ExcludeNames    []string `json:"exclude_names"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	summary, err := s.svc.Index(r.Context(), indexer.Options{
		Force:           req.Force,
		DryRun:          req.DryRun,
		TestMode:        req.TestMode,
		OfflineFallback: req.OfflineFallback,
		PathsFilter:     req.Paths,
		ExcludedDirs:    req.ExcludeDirs,
		ExcludedNames:   req.ExcludeNames,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	files := make([]map[string]any, 0, len(summary.Files))
	for _, f := range summary.Files {
		entry := map[string]any{
			"path":   f.Path,
			"status": string(f.Status),
			"chunks": f.ChunkCount,
		}
		if f.ErrorMessage != "" {
			entry["error"] = f.ErrorMessage
		}
		files = append(files, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_found": summary.TotalFound,
		"processed":   summary.TotalProcessed,
		"indexed":     summary.TotalIndexed,
		"skipped":     summary.TotalSkipped,
		"failed":      summary.TotalFailed,
		"dry_run":     summary.DryRun,
		"test_mode":   summary.TestMode,
		"files":       files,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("server: writing response: %v", err)
	}
}
