package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/soochol/stepflow/internal/api"
	"github.com/soochol/stepflow/internal/config"
	"github.com/soochol/stepflow/internal/db"
	"github.com/soochol/stepflow/internal/repository"
	"github.com/soochol/stepflow/internal/services"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		serve()
		return
	}
	fmt.Println("stepflow v0.1.0")
	fmt.Println("Usage: stepflow serve")
}

func serve() {
	// Missing .env is fine; config falls back to defaults.
	_ = godotenv.Load()

	cfg, err := config.LoadDefault()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	var repo repository.WorkflowRepository
	if cfg.Database.URL != "" {
		ctx := context.Background()
		database, err := db.New(ctx, cfg.Database.URL)
		if err != nil {
			slog.Error("database error", "err", err)
			os.Exit(1)
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			slog.Error("migration error", "err", err)
			os.Exit(1)
		}
		repo = repository.NewPersistent(database)
		slog.Info("using postgres storage")
	} else {
		repo = repository.NewMemory()
		slog.Info("using in-memory storage")
	}

	srv := api.NewServer(services.NewWorkflowService(repo))
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("starting stepflow server", "addr", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
