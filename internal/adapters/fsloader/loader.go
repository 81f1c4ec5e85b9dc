package fsloader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/tickstory/internal/compiler"
	"github.com/aretw0/tickstory/internal/logging"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/ports"
	"github.com/fsnotify/fsnotify"
)

var extensions = []string{".yaml", ".yml", ".json"}

// Loader reads story definitions from a directory.
// A story is named after its file, without the extension. Files are read on
// every Load so edits are picked up without restarting.
type Loader struct {
	dir    string
	parser *compiler.Parser
	logger *slog.Logger
}

var (
	_ ports.StoryLoader = (*Loader)(nil)
	_ ports.Watchable   = (*Loader)(nil)
)

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used to report watch events.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// New creates a loader for dir.
func New(dir string, opts ...Option) *Loader {
	l := &Loader{dir: dir, parser: compiler.NewParser(), logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile parses a single story file.
func LoadFile(path string) (*domain.TickConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read story file: %w", err)
	}
	cfg, err := compiler.NewParser().Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load parses the story file called name in the loader directory.
func (l *Loader) Load(ctx context.Context, name string) (*domain.TickConfiguration, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid story name %q: %w", name, domain.ErrStoryNotFound)
	}
	for _, ext := range extensions {
		path := filepath.Join(l.dir, name+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read story %q: %w", name, err)
		}
		cfg, err := l.parser.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	}
	return nil, fmt.Errorf("%q in %s: %w", name, l.dir, domain.ErrStoryNotFound)
}

// List returns the names of the story files in the directory, sorted.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read story dir %q: %w", l.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name, ok := storyName(entry.Name()); ok && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Watch reports the name of every story whose file is written, created,
// removed or renamed. The channel is closed when ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(l.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch dir %q: %w", l.dir, err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				name, ok := storyName(filepath.Base(event.Name))
				if !ok {
					continue
				}
				l.logger.Debug("story changed", "story", name, "op", event.Op.String())
				select {
				case ch <- name:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn("watcher error", "dir", l.dir, "error", err)
			}
		}
	}()
	return ch, nil
}

func storyName(file string) (string, bool) {
	ext := filepath.Ext(file)
	if !slices.Contains(extensions, ext) || strings.HasPrefix(file, ".") {
		return "", false
	}
	return strings.TrimSuffix(file, ext), true
}
