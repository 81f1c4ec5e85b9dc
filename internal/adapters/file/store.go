package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/ports"
)

// DefaultDir is used when New receives an empty directory.
var DefaultDir = filepath.Join(".tickstory", "sessions")

const ext = ".json"

// ErrInvalidID is returned for conversation ids that cannot name a file.
var ErrInvalidID = errors.New("invalid conversation id")

// Store keeps one indented JSON file per conversation, <dir>/<id>.json.
// Writes are atomic, so a crash never leaves a truncated session behind.
type Store struct {
	dir string
}

var _ ports.SessionStore = (*Store)(nil)

// New creates a store rooted at dir. The directory is created on first save.
func New(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{dir: dir}
}

// Dir returns the directory sessions are written to.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) file(conversationID string) (string, error) {
	switch {
	case conversationID == "", conversationID == ".", conversationID == "..",
		strings.ContainsAny(conversationID, `/\`):
		return "", fmt.Errorf("%w: %q", ErrInvalidID, conversationID)
	}
	return filepath.Join(s.dir, conversationID+ext), nil
}

func (s *Store) Save(ctx context.Context, conversationID string, session domain.TickSession) error {
	dest, err := s.file(conversationID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %q: %w", conversationID, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	if err := replaceFile(dest, data); err != nil {
		return fmt.Errorf("save session %q: %w", conversationID, err)
	}
	return nil
}

// replaceFile writes data next to dest, syncs it and renames it over dest.
func replaceFile(dest string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	// Windows refuses to rename an open file or onto an existing one.
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Remove(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

func (s *Store) Load(ctx context.Context, conversationID string) (domain.TickSession, error) {
	path, err := s.file(conversationID)
	if err != nil {
		return domain.TickSession{}, err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return domain.TickSession{}, domain.ErrSessionNotFound
	case err != nil:
		return domain.TickSession{}, fmt.Errorf("read session %q: %w", conversationID, err)
	}

	var session domain.TickSession
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.TickSession{}, fmt.Errorf("decode session %q: %w", conversationID, err)
	}
	if session.Contexts == nil {
		session.Contexts = make(domain.Contexts)
	}
	return session, nil
}

func (s *Store) Delete(ctx context.Context, conversationID string) error {
	path, err := s.file(conversationID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete session %q: %w", conversationID, err)
	}
	return nil
}

// List returns the ids of the stored sessions, sorted. A missing directory
// holds no sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return []string{}, nil
	case err != nil:
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	ids := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if id, ok := strings.CutSuffix(name, ext); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}
