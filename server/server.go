// Package server exposes the chat, schema and SQL operations over HTTP.
//
// Routes:
//
//	GET  /health  liveness
//	POST /chat    {prompt, messages} -> parsed model reply
//	POST /schema  {DB_URL} -> {table: [{column_name, data_type}]}
//	POST /sql     {sql, DB_URL} -> rows, after the admission gate
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DachengChen/chatdb/ai"
	"github.com/DachengChen/chatdb/applog"
	"github.com/DachengChen/chatdb/cache"
	"github.com/DachengChen/chatdb/chat"
	"github.com/DachengChen/chatdb/config"
	"github.com/DachengChen/chatdb/db"
)

// Asker answers one question.
type Asker interface {
	Ask(ctx context.Context, history []ai.Message, prompt string) (*chat.Result, error)
}

// Database is what the handlers need from a connected database.
type Database interface {
	FetchSchema(ctx context.Context, schema string) (db.Schema, error)
	Query(ctx context.Context, sql string) (*db.QueryResult, error)
}

// Databases resolves a request's database URL ("" for the default).
type Databases interface {
	Get(ctx context.Context, url string) (Database, error)
}

// ConnectorDatabases adapts a *db.Connector to Databases.
type ConnectorDatabases struct {
	*db.Connector
}

func (c ConnectorDatabases) Get(ctx context.Context, url string) (Database, error) {
	d, err := c.Connector.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Server wires the handlers to their collaborators.
type Server struct {
	cfg    config.Config
	asker  Asker
	dbs    Databases
	schema cache.SchemaCache
	log    *zap.Logger
}

func New(cfg config.Config, asker Asker, dbs Databases, schemaCache cache.SchemaCache) *Server {
	if schemaCache == nil {
		schemaCache = cache.Noop{}
	}
	return &Server{
		cfg:    cfg,
		asker:  asker,
		dbs:    dbs,
		schema: schemaCache,
		log:    applog.Named("server"),
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestID)
	r.Use(AccessLog(s.log.Named("http")))
	r.Use(CORS(s.cfg.Server.FrontendURL))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/chat", s.handleChat)
	r.Post("/schema", s.handleSchema)
	r.Post("/sql", s.handleSQL)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.cfg.LLM.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
