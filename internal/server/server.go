// Package server provides the HTTP REST API for letter fulfillment.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/lmn-fulfillment/internal/mailer"
	"github.com/jonathan/lmn-fulfillment/internal/payments"
	"github.com/jonathan/lmn-fulfillment/internal/pipeline"
)

// signedDocumentFetcher retrieves signed bytes for a completed document.
type signedDocumentFetcher interface {
	FetchCompletedDocument(ctx context.Context, documentID string) ([]byte, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server

	pipelineDeps pipeline.Deps
	pipelineOpts pipeline.RunOptions

	correlator *correlator
}

// Config holds server configuration
type Config struct {
	Port int

	PipelineDeps pipeline.Deps
	PipelineOpts pipeline.RunOptions

	Contacts payments.ContactRepository
	Fetcher  signedDocumentFetcher
	Mail     mailer.Sender
}

// New creates a new server instance
func New(cfg Config) *Server {
	s := &Server{
		pipelineDeps: cfg.PipelineDeps,
		pipelineOpts: cfg.PipelineOpts,
	}
	s.correlator = newCorrelator(cfg.Contacts, cfg.Fetcher, cfg.Mail)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /letters", s.handleCreateLetter)
	mux.HandleFunc("POST /webhooks/signature", s.handleSignatureWebhook)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for generation runs
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSignatureWebhook delegates to the completion correlator.
func (s *Server) handleSignatureWebhook(w http.ResponseWriter, r *http.Request) {
	s.correlator.handle(w, r)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
