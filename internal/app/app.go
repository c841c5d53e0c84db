package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/fsutil"
	"github.com/vk/forgeci/internal/logstream"
	"github.com/vk/forgeci/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *config.Model
	stream   *logstream.Broker
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
func NewApp(outW io.Writer, appConfig *Config, loaders []config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load all workflow files into the format-agnostic model first. Each
	// loader picks up the file extensions it owns.
	var models []*config.Model
	totalFiles := 0
	for _, loader := range loaders {
		files, err := fsutil.FindFilesByExtension(appConfig.WorkflowPath, loader.Extensions()...)
		if err != nil {
			// A failure to discover config is a fatal startup error.
			panic(fmt.Errorf("failed to discover workflow files: %w", err))
		}
		if len(files) == 0 {
			continue
		}
		totalFiles += len(files)
		model, err := loader.Load(ctx, files...)
		if err != nil {
			panic(fmt.Errorf("failed to load workflow configuration: %w", err))
		}
		models = append(models, model)
	}
	if totalFiles == 0 {
		panic(fmt.Errorf("no workflow files found at %s", appConfig.WorkflowPath))
	}
	cfgModel := config.Merge(models...)
	logger.Debug("Configuration loaded and translated into unified model.", "workflows", len(cfgModel.Workflows))

	if err := config.Validate(cfgModel); err != nil {
		panic(err)
	}
	logger.Debug("Configuration validation passed.")

	// Create and populate the registry with Go handlers.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All action modules registered.", "count", len(modules))

	// Validate the integrity of the registry.
	if err := reg.Validate(ctx); err != nil {
		// This is a programmer error (mismatch between definition and
		// handler struct), so we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   cfgModel,
		stream:   logstream.NewBroker(),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Config returns the loaded workflow model. This is primarily for testing.
func (a *App) Config() *config.Model {
	return a.config
}

// Stream returns the application's run event broker.
func (a *App) Stream() *logstream.Broker {
	return a.stream
}
