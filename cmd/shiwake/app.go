package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/config"
	"github.com/Veraticus/shiwake/internal/engine"
	"github.com/Veraticus/shiwake/internal/ocr"
	"github.com/Veraticus/shiwake/internal/rules"
	"github.com/Veraticus/shiwake/internal/storage"
	"github.com/Veraticus/shiwake/internal/yayoi"
	"github.com/spf13/viper"
)

// app is the set of components a command works with.
type app struct {
	settings   *config.Settings
	store      *storage.SQLiteStorage
	index      *rules.Index
	classifier *engine.Classifier
	pipeline   *engine.Pipeline
	cache      *ocr.CachingExtractor
}

// newApp opens the ledger, loads master data and wires the engine.
// The OCR extractor is only created when an API key is configured.
func newApp(ctx context.Context) (*app, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	md := rules.DefaultMasterData()
	if settings.MasterPath != "" {
		md, err = config.LoadMasterData(settings.MasterPath)
		if err != nil {
			return nil, err
		}
	}
	index := rules.NewIndex(md)

	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	var (
		extractor ocr.Extractor
		cache     *ocr.CachingExtractor
	)
	if settings.OCRAPIKey != "" {
		backend, err := ocr.NewAnthropicExtractor(ocr.Config{
			APIKey:    settings.OCRAPIKey,
			Model:     settings.OCRModel,
			MaxTokens: settings.OCRMaxTokens,
		})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		cache = ocr.NewCachingExtractor(backend, settings.OCRCacheTTL)
		extractor = cache
	}

	classifier := engine.NewClassifier(index, store)
	codec := yayoi.NewCodec(settings.StartSlipNo)

	slog.Debug("Initialized application",
		"database", settings.DatabasePath,
		"vendors", len(index.Vendors()),
		"rules", len(index.Rules()),
		"ocr", extractor != nil)

	return &app{
		settings:   settings,
		store:      store,
		index:      index,
		classifier: classifier,
		pipeline:   engine.NewPipeline(extractor, classifier, store, codec),
		cache:      cache,
	}, nil
}

func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if err := a.store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

// withApp runs fn with a fully wired app and closes it afterwards.
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// userError turns well-known failures into actionable messages.
func userError(err error) error {
	switch {
	case errors.Is(err, engine.ErrNoExtractor):
		return common.NewUserError("OCR is not configured; set ocr.api_key or ANTHROPIC_API_KEY", err)
	case errors.Is(err, yayoi.ErrNoEntries):
		return common.NewUserError("nothing to export", err)
	}
	return err
}
