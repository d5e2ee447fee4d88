package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flashsale/checkout/internal/cache"
	"github.com/flashsale/checkout/internal/holds"
	"github.com/flashsale/checkout/internal/orders"
	"github.com/flashsale/checkout/internal/webhooks"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type Config struct {
	Port string
}

type Server struct {
	httpServer *http.Server
	deps       AppDeps
}

// AppDeps carries every dependency the router's handlers need. Each
// manager has its own Postgres-backed store wired up by cmd/server/main.go;
// the handlers reach the pool directly only for unlocked pre-transaction
// existence checks.
type AppDeps struct {
	DB           *pgxpool.Pool
	ProductCache *cache.ProductCache
	Holds        *holds.Manager
	Orders       *orders.Manager
	Webhooks     *webhooks.Processor
	Logger       zerolog.Logger
}

func NewServer(cfg Config, deps AppDeps) *Server {
	router := NewRouter(deps)

	s := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return &Server{httpServer: s, deps: deps}
}

func (s *Server) Start() error {
	go func() {
		s.deps.Logger.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.deps.Logger.Fatal().Err(err).Str("addr", s.httpServer.Addr).Msg("could not listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.deps.Logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
