package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/tickstory/internal/adapters/file"
	"github.com/aretw0/tickstory/internal/adapters/fsloader"
	"github.com/aretw0/tickstory/internal/presentation/graph"
	"github.com/aretw0/tickstory/internal/validator"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/statemachine"
)

// ErrInvalidStory is returned by Validate when a lint error was found.
var ErrInvalidStory = errors.New("story has errors")

func compile(path string) (StoryRef, *domain.TickConfiguration, *statemachine.Machine, error) {
	ref, err := ResolveStory(path)
	if err != nil {
		return StoryRef{}, nil, nil, err
	}
	cfg, err := fsloader.New(ref.Dir).Load(context.Background(), ref.Name)
	if err != nil {
		return ref, nil, nil, err
	}
	m, err := statemachine.New(cfg.Name, cfg.Machine)
	if err != nil {
		return ref, nil, nil, err
	}
	return ref, cfg, m, nil
}

// Validate lints the story at path and prints every issue.
// Handlers are checked against the handlers file when one is found.
func Validate(path, handlersPath string, out io.Writer) error {
	ref, cfg, m, err := compile(path)
	if err != nil {
		return err
	}

	opts := validator.Options{}
	reg, err := loadHandlers(ref.Dir, handlersPath)
	if err != nil {
		return err
	}
	if names := reg.Names(); len(names) > 0 || handlersPath != "" {
		opts.Handlers = names
	}

	issues := validator.Lint(cfg, m, opts)
	failed := false
	for _, issue := range issues {
		fmt.Fprintln(out, issue.String())
		if issue.Severity == validator.SeverityError {
			failed = true
		}
	}
	if failed {
		return ErrInvalidStory
	}
	fmt.Fprintf(out, "Story '%s' is valid (%d states, %d actions).\n", cfg.Name, len(m.LeafStates()), len(cfg.Actions))
	return nil
}

// Graph prints the Mermaid diagram of the story at path. With a
// conversation id the stored session is overlaid.
func Graph(ctx context.Context, path, sessionsDir, conversationID string, out io.Writer) error {
	_, cfg, m, err := compile(path)
	if err != nil {
		return err
	}

	var overlay *graph.Overlay
	if conversationID != "" {
		s, err := file.New(sessionsDir).Load(ctx, conversationID)
		if err != nil {
			return fmt.Errorf("failed to load session '%s': %w", conversationID, err)
		}
		overlay = graph.OverlayFrom(s)
	}

	fmt.Fprint(out, graph.GenerateMermaid(cfg, m, overlay))
	return nil
}

// ListSessions prints the stored conversation ids.
func ListSessions(ctx context.Context, sessionsDir string, out io.Writer) error {
	ids, err := file.New(sessionsDir).List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No active sessions found.")
		return nil
	}
	fmt.Fprintln(out, "Active Sessions:")
	for _, id := range ids {
		fmt.Fprintln(out, "- "+id)
	}
	return nil
}

// InspectSession prints a stored session as indented JSON.
func InspectSession(ctx context.Context, sessionsDir, conversationID string, out io.Writer) error {
	s, err := file.New(sessionsDir).Load(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", conversationID, err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// RemoveSessions deletes the given sessions, reporting each one.
func RemoveSessions(ctx context.Context, sessionsDir string, ids []string, out io.Writer) error {
	store := file.New(sessionsDir)
	var errs []error
	for _, id := range ids {
		if err := store.Delete(ctx, id); err != nil {
			fmt.Fprintf(out, "Error removing '%s': %v\n", id, err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(out, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}
