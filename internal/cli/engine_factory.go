package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/tickstory"
	"github.com/aretw0/tickstory/internal/adapters/fsloader"
	"github.com/aretw0/tickstory/pkg/adapters/process"
	"github.com/aretw0/tickstory/pkg/observability"
	"github.com/aretw0/tickstory/pkg/ports"
	"github.com/aretw0/tickstory/pkg/registry"
)

// DefaultHandlersFile is looked up next to the story when no handlers file is given.
const DefaultHandlersFile = "handlers.yaml"

// EngineOptions are the settings shared by the commands that build an engine.
type EngineOptions struct {
	HandlersPath string
	Debug        bool
}

// loadHandlers builds the registry of external handlers for a story directory.
func loadHandlers(dir, path string) (*registry.Registry, error) {
	if path == "" {
		candidate := filepath.Join(dir, DefaultHandlersFile)
		if _, err := os.Stat(candidate); err != nil {
			return registry.NewRegistry(), nil
		}
		path = candidate
	}

	declared, err := process.LoadHandlers(path)
	if err != nil {
		return nil, err
	}

	reg := registry.NewRegistry()
	process.NewRunner(
		process.WithHandlers(declared),
		process.WithBaseDir(filepath.Dir(path)),
	).Bind(reg)
	return reg, nil
}

// createEngine loads ref and binds it to store with the CLI conventions.
func createEngine(ctx context.Context, loader *fsloader.Loader, ref StoryRef, opts EngineOptions, store ports.SessionStore, logger *slog.Logger, extra ...tickstory.Option) (*tickstory.Engine, error) {
	handlers, err := loadHandlers(ref.Dir, opts.HandlersPath)
	if err != nil {
		return nil, err
	}

	engineOpts := []tickstory.Option{
		tickstory.WithLogger(logger),
		tickstory.WithStore(store),
		tickstory.WithHandlers(handlers),
	}
	if opts.Debug {
		engineOpts = append(engineOpts, tickstory.WithHooks(observability.LoggingHooks(logger)))
	}
	engineOpts = append(engineOpts, extra...)

	engine, err := tickstory.NewFromLoader(ctx, loader, ref.Name, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
