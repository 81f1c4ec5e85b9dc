package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/tickstory"
	"github.com/aretw0/tickstory/internal/adapters/file"
	"github.com/aretw0/tickstory/internal/adapters/fsloader"
	"github.com/aretw0/tickstory/internal/logging"
	"github.com/aretw0/tickstory/internal/presentation/tui"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/runner"
	"golang.org/x/term"
)

// ChatOptions configures an interactive conversation.
type ChatOptions struct {
	EngineOptions

	Path           string
	ConversationID string
	SessionsDir    string
	JSON           bool
	Fresh          bool
	Watch          bool
	StopOnFinal    bool
}

// IO carries the streams a command talks on.
type IO struct {
	In  io.Reader
	Out io.Writer
}

// StdIO returns the process streams.
func StdIO() IO {
	return IO{In: os.Stdin, Out: os.Stdout}
}

// Chat runs a conversation with the story at opts.Path until input ends, the
// user quits or ctx is done.
func Chat(ctx context.Context, opts ChatOptions, stdio IO) error {
	logger := createLogger(opts.Debug)

	ref, err := ResolveStory(opts.Path)
	if err != nil {
		return err
	}
	if opts.ConversationID == "" {
		opts.ConversationID = runner.DefaultConversationID
		if opts.Watch {
			opts.ConversationID = watchConversationID(ref)
		}
	}

	store := file.New(opts.SessionsDir)
	if opts.Fresh {
		if err := store.Delete(ctx, opts.ConversationID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
	}

	handler := newIOHandler(opts, stdio)
	if !opts.JSON {
		tui.PrintBanner(stdio.Out, tickstory.Version)
	}

	loader := fsloader.New(ref.Dir, fsloader.WithLogger(logger))
	session := chatSession{
		opts:    opts,
		ref:     ref,
		loader:  loader,
		store:   store,
		handler: handler,
		out:     stdio.Out,
		logger:  logger,
	}

	if opts.Watch {
		return session.watch(ctx)
	}

	engine, err := session.engine(ctx)
	if err != nil {
		return err
	}
	return handleExecutionError(session.runner().Run(ctx, engine))
}

type chatSession struct {
	opts    ChatOptions
	ref     StoryRef
	loader  *fsloader.Loader
	store   *file.Store
	handler runner.IOHandler
	out     io.Writer
	logger  *slog.Logger
}

func (c *chatSession) engine(ctx context.Context) (*tickstory.Engine, error) {
	engine, err := createEngine(ctx, c.loader, c.ref, c.opts.EngineOptions, c.store, c.logger)
	if err != nil {
		return nil, err
	}
	if err := c.guardSession(ctx, engine); err != nil {
		return nil, err
	}
	return engine, nil
}

// guardSession resets a stored session whose state the story no longer has.
func (c *chatSession) guardSession(ctx context.Context, engine *tickstory.Engine) error {
	s, err := engine.Session(ctx, c.opts.ConversationID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if s.CurrentState == "" || engine.Machine().State(s.CurrentState) != nil {
		return nil
	}
	c.logger.Warn("stored state missing from story, resetting", "conversation", c.opts.ConversationID, "state", s.CurrentState)
	if !c.opts.JSON {
		tui.SystemMessage(c.out, "State '%s' no longer exists. Starting over.", s.CurrentState)
	}
	return engine.Reset(ctx, c.opts.ConversationID)
}

func (c *chatSession) runner() *runner.Runner {
	return runner.New(
		runner.WithInputHandler(c.handler),
		runner.WithLogger(c.logger),
		runner.WithConversationID(c.opts.ConversationID),
		runner.WithStopOnFinal(c.opts.StopOnFinal),
	)
}

func newIOHandler(opts ChatOptions, stdio IO) runner.IOHandler {
	if opts.JSON {
		return runner.NewJSONHandler(stdio.In, stdio.Out)
	}
	var topts []runner.TextHandlerOption
	if isTerminal(stdio.Out) {
		topts = append(topts, runner.WithTextHandlerRenderer(runner.ContentRenderer(tui.NewRenderer())))
	}
	return runner.NewTextHandler(stdio.In, stdio.Out, topts...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// createLogger writes to Stderr in debug mode and discards otherwise.
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// handleExecutionError treats interruptions as a clean exit.
func handleExecutionError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
