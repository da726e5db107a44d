package credman

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// ProcessRunner invokes an external executable and captures its result.
// Backends that drive a command-line tool depend on this interface rather
// than on os/exec directly, so their session and fetch logic can be tested
// with scripted runners instead of real process spawns.
type ProcessRunner interface {
	// Run executes the command described by opts and waits for it to
	// finish. A command that starts and exits non-zero is not an error:
	// the exit code is reported through the output. Run returns an error
	// only when the process could not be run at all, e.g. the executable
	// is missing or the context is done.
	Run(ctx context.Context, opts RunOptions) (RunOutput, error)
}

// RunOptions describe a single external process invocation.
type RunOptions struct {
	// Path is the path of the executable to run. It is resolved against
	// PATH when not absolute.
	Path string
	// Args are the arguments passed to the executable, not including the
	// executable name itself.
	Args []string
	// Stdin is piped to the process's standard input when non-empty.
	Stdin []byte
	// Env lists extra environment variables in KEY=VALUE form. They are
	// appended to the current process environment, so they take
	// precedence over inherited variables of the same name.
	Env []string
}

// RunOutput is the captured result of a finished process.
type RunOutput struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// BasicProcessRunner provides a ProcessRunner implementation backed by
// os/exec.
type BasicProcessRunner struct{}

// NewBasicProcessRunner creates a runner that spawns real processes.
func NewBasicProcessRunner() *BasicProcessRunner {
	return &BasicProcessRunner{}
}

// Run executes the command and captures its exit code, stdout, and stderr.
func (r *BasicProcessRunner) Run(ctx context.Context, opts RunOptions) (RunOutput, error) {
	if opts.Path == "" {
		return RunOutput{}, errors.New("must provide an executable path")
	}

	cmd := exec.CommandContext(ctx, opts.Path, opts.Args...)
	if len(opts.Stdin) != 0 {
		cmd.Stdin = bytes.NewReader(opts.Stdin)
	}
	if len(opts.Env) != 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	out := RunOutput{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		exitErr := &exec.ExitError{}
		if !errors.As(err, &exitErr) {
			return RunOutput{}, errors.Wrapf(err, "running '%s'", opts.Path)
		}
		if ctx.Err() != nil {
			return RunOutput{}, errors.Wrapf(ctx.Err(), "running '%s'", opts.Path)
		}
		out.ExitCode = exitErr.ExitCode()
	}

	// Arguments may carry secrets, so only the subcommand is logged.
	grip.Debug(message.Fields{
		"message":   "ran external command",
		"path":      opts.Path,
		"op":        subcommand(opts.Args),
		"exit_code": out.ExitCode,
	})

	return out, nil
}

func subcommand(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
