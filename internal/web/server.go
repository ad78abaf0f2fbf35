// Package web provides a read-only HTTP API over the query engine.
//
// EDUCATIONAL NOTES:
// ------------------
// The server is a thin chi router in front of the executor. Key
// concepts:
//
// 1. Middleware: RequestID, RealIP, Logger, Recoverer, and Timeout wrap
//    every handler with the usual cross-cutting concerns.
//
// 2. Graceful shutdown: on SIGINT/SIGTERM the server stops accepting
//    connections and drains in-flight requests before exiting.
//
// 3. Serialized queries: the storage contract is single-threaded and
//    the backing file carries seek state, so a mutex admits one query
//    at a time.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/antdb/antdb/internal/sql/executor"
	"github.com/antdb/antdb/internal/storage"
)

// Server serves the read-only API for one open database.
type Server struct {
	router   *chi.Mux
	port     int
	storage  *storage.StorageEngine
	executor *executor.Executor

	// mu serializes access to the storage engine.
	mu sync.Mutex
}

// NewServer creates an HTTP server over the given storage engine.
func NewServer(port int, store *storage.StorageEngine) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	s := &Server{
		router:   r,
		port:     port,
		storage:  store,
		executor: executor.New(store),
	}
	s.routes()
	return s
}

// routes sets up all HTTP routes for the server.
func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/info", s.handleInfo)
	s.router.Get("/api/tables", s.handleTables)
	s.router.Post("/api/query", s.handleQuery)
}

// Router returns the chi router for testing purposes.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until shutdown.
// It handles graceful shutdown on SIGTERM and SIGINT.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-done:
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
