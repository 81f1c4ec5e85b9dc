package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/tickstory/internal/adapters/fsloader"
)

// StoryRef locates a story on disk: the directory it lives in and its name.
type StoryRef struct {
	Dir  string
	Name string
}

// ResolveStory turns a command line argument into a StoryRef.
// A file is taken as is; a directory is searched for its entry story.
func ResolveStory(path string) (StoryRef, error) {
	if path == "" {
		path = "."
	}
	info, err := os.Stat(path)
	if err != nil {
		return StoryRef{}, fmt.Errorf("story not found: %w", err)
	}
	if !info.IsDir() {
		base := filepath.Base(path)
		return StoryRef{
			Dir:  filepath.Dir(path),
			Name: strings.TrimSuffix(base, filepath.Ext(base)),
		}, nil
	}

	name, err := determineEntryPoint(path)
	if err != nil {
		return StoryRef{}, err
	}
	return StoryRef{Dir: path, Name: name}, nil
}

// determineEntryPoint picks the story to run from a directory: start, main,
// index, a story named after the directory, or the only story there.
func determineEntryPoint(dir string) (string, error) {
	names, err := fsloader.New(dir).List(context.Background())
	if err != nil {
		return "", err
	}

	abs, _ := filepath.Abs(dir)
	for _, candidate := range []string{"start", "main", "index", filepath.Base(abs)} {
		if slices.Contains(names, candidate) {
			return candidate, nil
		}
	}
	switch len(names) {
	case 0:
		return "", fmt.Errorf("no story found in %s", dir)
	case 1:
		return names[0], nil
	}
	return "", fmt.Errorf("several stories in %s (%s), pick one", dir, strings.Join(names, ", "))
}
