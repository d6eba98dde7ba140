package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/analiz-sintez/begriff/internal/config"
	"github.com/analiz-sintez/begriff/internal/importer"
	"github.com/analiz-sintez/begriff/internal/llm"
	"github.com/analiz-sintez/begriff/internal/service"
	"github.com/analiz-sintez/begriff/internal/srs"
	"github.com/analiz-sintez/begriff/internal/storage"
	"github.com/analiz-sintez/begriff/internal/web"
)

func main() {
	flags := pflag.NewFlagSet("begriff", pflag.ExitOnError)
	configPath := flags.String("config", "", "Path to the yaml config file")
	flags.String("listen", "", "HTTP listen address")
	flags.String("db.path", "", "Path to the sqlite database file")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DB.Path)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DB.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DB.Path)

	var generator llm.Generator
	if cfg.LLM.APIKey != "" {
		gemini, err := llm.NewGemini(context.Background(), cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout())
		if err != nil {
			slog.Error("failed to create text generator", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		generator = gemini
	} else {
		slog.Warn("no LLM api key configured, explanations will not be generated")
	}

	svc := service.New(db, srs.DefaultParams(), cfg.SRS, generator)
	imp := importer.New(svc, cfg.Import.ReposDir)
	server := web.NewServer(svc, imp)

	slog.Info("listening", "addr", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, server); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
