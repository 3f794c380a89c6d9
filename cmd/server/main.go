package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentdeck/agentdeck/internal/agents"
	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/frameworks"
	"github.com/agentdeck/agentdeck/internal/frameworks/chat"
	"github.com/agentdeck/agentdeck/internal/frameworks/pipeline"
	"github.com/agentdeck/agentdeck/internal/infrastructure"
	"github.com/agentdeck/agentdeck/internal/server"
	"github.com/agentdeck/agentdeck/migrations"
	"github.com/agentdeck/agentdeck/pkg/routes"
)

func main() {
	configPath := "config.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		os.Stderr.WriteString("failed to initialize infrastructure: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := infra.Logger
	lc := infra.Lifecycle

	if err := infra.Start(); err != nil {
		logger.Error("failed to start infrastructure", "error", err)
		os.Exit(1)
	}

	if err := infra.Database.Migrate(migrations.Files); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	registry := frameworks.NewRegistry()
	for _, adapter := range []frameworks.Adapter{
		chat.New(logger),
		pipeline.New(logger),
	} {
		if err := registry.Register(adapter); err != nil {
			logger.Error("failed to register framework", "error", err)
			os.Exit(1)
		}
	}

	controller := agents.NewController(cfg.Runtime.QueryTimeoutDuration(), logger)
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		controller.Shutdown(context.Background())
	})

	store := agents.NewStore(infra.Database.DB(), logger, cfg.Pagination)
	system := agents.NewSystem(store, registry, controller, logger, cfg.Runtime.MaxQueryLength)

	router := routes.New()
	router.RegisterGroup(agents.NewHandler(system, logger, cfg.Pagination).Routes())
	router.RegisterGroup(frameworks.NewHandler(registry, logger).Routes())
	router.RegisterRoute(routes.Route{
		Method:  "GET",
		Pattern: "/healthz",
		Handler: func(w http.ResponseWriter, r *http.Request) {
			if !lc.Ready() {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		},
	})

	handler := server.EnableCORS(&cfg.CORS,
		server.LimitBodySize(cfg.Server.MaxBodySizeBytes(), router.Build()))

	srv := server.New(&cfg.Server, handler, logger)
	if err := srv.Start(lc); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	lc.WaitForStartup()
	logger.Info("startup complete", "frameworks", registry.Names())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")
	if err := lc.Shutdown(cfg.Server.ShutdownTimeoutDuration()); err != nil {
		logger.Error("shutdown incomplete", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
