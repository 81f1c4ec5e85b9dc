package cli

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/aretw0/tickstory/internal/presentation/tui"
	"github.com/google/uuid"
)

// reloadDelay lets editors finish writing before the story is read again.
const reloadDelay = 100 * time.Millisecond

// watchConversationID derives a stable conversation per story path, so
// reloads and restarts resume where the developer left off.
func watchConversationID(ref StoryRef) string {
	abs, err := filepath.Abs(filepath.Join(ref.Dir, ref.Name))
	if err != nil {
		abs = filepath.Join(ref.Dir, ref.Name)
	}
	return "watch-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String()[:8]
}

// watch runs the conversation and restarts it with a fresh engine every time
// the story file changes. The session survives reloads.
func (c *chatSession) watch(ctx context.Context) error {
	c.logger.Info("starting watcher", "dir", c.ref.Dir, "story", c.ref.Name, "conversation", c.opts.ConversationID)
	tui.SystemMessage(c.out, "Watching '%s' in %s.", c.ref.Name, c.ref.Dir)

	for {
		again, err := c.watchIteration(ctx)
		if err != nil || !again {
			return handleExecutionError(err)
		}
		c.logger.Info("watcher restarting", "story", c.ref.Name)
	}
}

// watchIteration reports whether the loop should go on with a new engine.
func (c *chatSession) watchIteration(parent context.Context) (bool, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	changes, err := c.loader.Watch(ctx)
	if err != nil {
		return false, err
	}

	engine, err := c.engine(ctx)
	if err != nil {
		c.logger.Error("engine initialization failed", "err", err)
		tui.ErrorMessage(c.out, err)
		tui.SystemMessage(c.out, "Waiting for changes...")
		return c.waitForChange(parent, changes)
	}

	done := make(chan error, 1)
	go func() {
		done <- c.runner().Run(ctx, engine)
	}()

	for {
		select {
		case <-parent.Done():
			cancel()
			<-done
			return false, nil
		case name, ok := <-changes:
			if !ok {
				cancel()
				<-done
				return false, nil
			}
			if name != c.ref.Name {
				continue
			}
			tui.SystemMessage(c.out, "Change detected in '%s'. Reloading.", name)
			cancel()
			<-done
			return c.settle(parent)
		case err := <-done:
			if errors.Is(err, context.Canceled) && parent.Err() == nil {
				return true, nil
			}
			return false, err
		}
	}
}

func (c *chatSession) waitForChange(ctx context.Context, changes <-chan string) (bool, error) {
	for {
		select {
		case <-ctx.Done():
			return false, nil
		case name, ok := <-changes:
			if !ok {
				return false, nil
			}
			if name == c.ref.Name {
				return c.settle(ctx)
			}
		}
	}
}

func (c *chatSession) settle(ctx context.Context) (bool, error) {
	select {
	case <-ctx.Done():
		return false, nil
	case <-time.After(reloadDelay):
		return true, nil
	}
}
