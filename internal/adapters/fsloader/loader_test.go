package fsloader_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/tickstory/internal/adapters/fsloader"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const story = `
name: %s
machine:
  initial: start
  states:
    start:
      transitions:
        go: done
    done:
actions:
  - name: start
  - name: done
    final: true
`

func writeStory(t *testing.T, dir, file, name string) {
	t.Helper()
	content := []byte(fmt.Sprintf(story, name))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), content, 0644))
}

func TestLoader_LoadAndList(t *testing.T) {
	dir := t.TempDir()
	writeStory(t, dir, "greeting.yaml", "greeting")
	writeStory(t, dir, "farewell.yml", "farewell")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0755))

	l := fsloader.New(dir)
	ctx := context.Background()

	names, err := l.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"farewell", "greeting"}, names)

	cfg, err := l.Load(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "greeting", cfg.Name)
	assert.Len(t, cfg.Actions, 2)

	_, err = l.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrStoryNotFound)

	_, err = l.Load(ctx, "../greeting")
	assert.ErrorIs(t, err, domain.ErrStoryNotFound)
}

func TestLoader_ReadsLatestContent(t *testing.T) {
	dir := t.TempDir()
	writeStory(t, dir, "greeting.yaml", "greeting")
	l := fsloader.New(dir)

	_, err := l.Load(context.Background(), "greeting")
	require.NoError(t, err)

	writeStory(t, dir, "greeting.yaml", "renamed")
	cfg, err := l.Load(context.Background(), "greeting")
	require.NoError(t, err)
	assert.Equal(t, "renamed", cfg.Name)
}

func TestLoader_InvalidStory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"name": "broken"}`), 0644))

	_, err := fsloader.New(dir).Load(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.json")
}

func TestLoadFile(t *testing.T) {
	cfg, err := fsloader.LoadFile(filepath.Join("..", "..", "compiler", "testdata", "weather.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "weather", cfg.Name)

	_, err = fsloader.LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestLoader_Watch(t *testing.T) {
	dir := t.TempDir()
	l := fsloader.New(dir, fsloader.WithLogger(slogt.New(t)))

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := l.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644))
	writeStory(t, dir, "greeting.yaml", "greeting")

	select {
	case name := <-ch:
		assert.Equal(t, "greeting", name)
	case <-time.After(5 * time.Second):
		t.Fatal("no watch event received")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond, "channel closes with the context")
}

func TestLoader_WatchMissingDir(t *testing.T) {
	_, err := fsloader.New(filepath.Join(t.TempDir(), "missing")).Watch(context.Background())
	assert.Error(t, err)
}
