// Command docqa answers questions about a local folder of documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vectorstore/chroma"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vectorstore/local"
	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/connectors/filesystem"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/normalisers/docx"
	"github.com/custodia-labs/docqa/internal/normalisers/markdown"
	"github.com/custodia-labs/docqa/internal/normalisers/pdf"
	"github.com/custodia-labs/docqa/internal/normalisers/plaintext"
	"github.com/custodia-labs/docqa/internal/normalisers/pptx"
	"github.com/custodia-labs/docqa/internal/normalisers/xlsx"
	"github.com/custodia-labs/docqa/internal/postprocessors"
	"github.com/custodia-labs/docqa/internal/timeline"
)

// watchDebounce is how long the folder must be quiet before a rebuild.
const watchDebounce = 2 * time.Second

func main() {
	// A missing .env is normal.
	_ = godotenv.Load() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetInitializer(wire)
	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}

// wire builds every service from the effective settings and hands them to
// the CLI.
func wire(ctx context.Context, opts cli.InitOptions) (func(), error) {
	configStore, promptDir, err := openConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	cli.SetSettingsService(settingsService)
	if opts.SettingsOnly {
		return func() {}, nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	logger.Debug("Documents: %s, index: %s (%s)", settings.Documents.Dir, settings.Index.Dir, settings.Index.Backend)

	aiServices, err := ai.Init(ctx, *settings)
	if err != nil {
		return nil, err
	}

	var closers []func() error
	closers = append(closers, aiServices.Close)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("Shutdown: %v", err)
			}
		}
	}

	pipeline, err := buildPipeline(settingsService)
	if err != nil {
		cleanup()
		return nil, err
	}

	vectors, err := openVectorStore(settings.Index)
	if err != nil {
		cleanup()
		return nil, err
	}

	source := filesystem.New("documents", settings.Documents.Dir, settings.Documents.Extensions)
	closers = append(closers, source.Close)

	registry := normalisers.NewRegistry(
		plaintext.New(),
		markdown.New(),
		docx.New(),
		xlsx.New(),
		pptx.New(),
		pdf.New(os.Getenv("UNIDOC_LICENSE_KEY")),
	)

	indexer := services.NewIndexer(
		source,
		registry,
		pipeline,
		timeline.New(settings.Timeline),
		aiServices.EmbeddingService,
		services.WithWorkers(settings.Index.Workers),
		services.WithBatchSize(settings.Index.BatchSize),
	)
	indexService := services.NewIndexService(indexer, vectors, sqlite.NewTimelineFiles(settings.Structured.Path), aiServices.EmbeddingService)
	closers = append(closers, indexService.Close)

	promptStore, err := file.NewPromptStore(promptDir)
	if err != nil {
		cleanup()
		return nil, err
	}

	queryService := services.NewQueryService(
		indexService,
		aiServices.EmbeddingService,
		aiServices.LLMService,
		settings.Retrieval,
		settings.LLM,
		services.WithPlanner(services.NewPlanner(settings.Timeline.DefaultYear, time.Now)),
		services.WithPromptStore(promptStore),
	)

	watcher := services.NewWatcher(source, indexService, watchDebounce)
	watcher.OnRebuild = func(report driving.IndexReport, err error) {
		if err != nil {
			logger.Error("Rebuild failed: %v", err)
			return
		}
		fmt.Printf("Rebuilt index: %d files, %d chunks in %s\n", report.Files, report.Chunks, report.Duration.Round(time.Millisecond))
	}
	closers = append(closers, func() error {
		watcher.Stop()
		return nil
	})

	cli.SetIndexService(indexService)
	cli.SetQueryService(queryService)
	cli.SetTimelineService(services.NewTimelineService(indexService))
	cli.SetWatcher(watcher)

	return cleanup, nil
}

// openConfig opens the config file and picks the prompt directory next to it.
func openConfig(path string) (*file.ConfigStore, string, error) {
	if path == "" {
		store, err := file.NewConfigStore("")
		return store, "", err
	}
	store, err := file.OpenConfigFile(path)
	return store, filepath.Join(filepath.Dir(path), "prompts"), err
}

func buildPipeline(settings *services.SettingsService) (driven.PostProcessorPipeline, error) {
	cfg, err := settings.GetPipelineConfig()
	if err != nil {
		return nil, fmt.Errorf("load pipeline config: %w", err)
	}
	reg := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(reg)
	pipeline, err := postprocessors.FromConfig(reg, cfg)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	return pipeline, nil
}

func openVectorStore(cfg domain.IndexSettings) (driven.VectorStore, error) {
	switch cfg.Backend {
	case domain.IndexBackendChroma:
		store, err := chroma.New(cfg.ChromaURL, cfg.Collection, cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("open chroma: %w", err)
		}
		return store, nil
	case domain.IndexBackendLocal, "":
		return local.New(cfg.Dir), nil
	default:
		return nil, errors.New("unknown index backend " + string(cfg.Backend))
	}
}
