// Package process serves story handlers with external commands.
//
// A command receives the current contexts as a JSON object on stdin and as
// TICKSTORY_CTX_<NAME> environment variables. It answers with a JSON object on
// stdout holding the context delta: strings set a context, null clears it.
// Empty output is an empty delta.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/registry"
)

// EnvPrefix prefixes the environment variables carrying contexts.
const EnvPrefix = "TICKSTORY_CTX_"

// DefaultGracePeriod is how long a cancelled command may take to exit after
// its interrupt before it is killed.
const DefaultGracePeriod = 5 * time.Second

// Runner executes registered commands as handlers.
type Runner struct {
	commands map[string]HandlerConfig
	baseDir  string
	grace    time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithHandlers registers every declared handler.
func WithHandlers(handlers map[string]HandlerConfig) RunnerOption {
	return func(r *Runner) {
		for name, h := range handlers {
			h.Name = name
			r.commands[name] = h
		}
	}
}

// WithBaseDir sets the working directory of the commands.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithGracePeriod overrides DefaultGracePeriod.
func WithGracePeriod(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.grace = d
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		commands: make(map[string]HandlerConfig),
		grace:    DefaultGracePeriod,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register declares name as served by command.
func (r *Runner) Register(name, command string, args ...string) {
	r.commands[name] = HandlerConfig{Name: name, Command: command, Args: args}
}

// Names returns the registered handler names, sorted.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Bind registers every command of r into reg.
func (r *Runner) Bind(reg *registry.Registry) {
	for _, name := range r.Names() {
		reg.Register(name, r.Handler(name))
	}
}

// Handler adapts the command registered under name to a registry.HandlerFunc.
func (r *Runner) Handler(name string) registry.HandlerFunc {
	return func(ctx context.Context, contexts domain.Contexts) (domain.Contexts, error) {
		return r.Execute(ctx, name, contexts)
	}
}

// Execute runs the command registered under name and decodes its delta.
func (r *Runner) Execute(ctx context.Context, name string, contexts domain.Contexts) (domain.Contexts, error) {
	h, ok := r.commands[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", registry.ErrHandlerNotFound, name)
	}

	input, err := json.Marshal(contexts.Plain())
	if err != nil {
		return nil, fmt.Errorf("failed to encode contexts: %w", err)
	}

	cmd := exec.CommandContext(ctx, h.Command, h.Args...)
	cmd.Dir = r.baseDir
	cmd.Cancel = func() error {
		return interrupt(cmd)
	}
	cmd.WaitDelay = r.grace

	// Values travel through the environment, never as flags.
	env := cmd.Environ()
	for k, v := range h.Environment {
		env = append(env, k+"="+v)
	}
	for k, v := range contexts.Plain() {
		env = append(env, EnvPrefix+envName(k)+"="+v)
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("handler %s: %w", name, ctxErr)
		}
		return nil, fmt.Errorf("handler %s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	return decodeDelta(name, stdout.Bytes())
}

func decodeDelta(name string, out []byte) (domain.Contexts, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return domain.Contexts{}, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("handler %s returned invalid output: %w", name, err)
	}

	delta := make(domain.Contexts, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			delta[k] = nil
		case string:
			delta.Set(k, val)
		default:
			// Numbers and booleans keep their JSON spelling.
			b, _ := json.Marshal(val)
			delta.Set(k, string(b))
		}
	}
	return delta, nil
}

func envName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
}
