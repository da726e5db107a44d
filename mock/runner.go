package mock

import (
	"context"

	"github.com/grimoirelab/credman"
	"github.com/pkg/errors"
)

// ScriptedRun is one scripted process result.
type ScriptedRun struct {
	Output credman.RunOutput
	Error  error
}

// ProcessRunner provides a mock implementation of a credman.ProcessRunner.
// This makes it possible to introspect on the commands that were run and
// control their results. Results are scripted in FIFO order; once the
// script is exhausted, runs return DefaultOutput and DefaultError.
type ProcessRunner struct {
	// RunInputs records the options of every run, in order.
	RunInputs []credman.RunOptions

	script []ScriptedRun

	DefaultOutput credman.RunOutput
	DefaultError  error
}

// Append adds scripted results to the end of the script.
func (r *ProcessRunner) Append(runs ...ScriptedRun) *ProcessRunner {
	r.script = append(r.script, runs...)
	return r
}

// AppendOutput adds a scripted successful run with the given output.
func (r *ProcessRunner) AppendOutput(out credman.RunOutput) *ProcessRunner {
	return r.Append(ScriptedRun{Output: out})
}

// AppendError adds a scripted run that fails to start with the given error.
func (r *ProcessRunner) AppendError(err error) *ProcessRunner {
	return r.Append(ScriptedRun{Error: err})
}

// Run records the input and returns the next scripted result.
func (r *ProcessRunner) Run(ctx context.Context, opts credman.RunOptions) (credman.RunOutput, error) {
	r.RunInputs = append(r.RunInputs, opts)

	if len(r.script) != 0 {
		next := r.script[0]
		r.script = r.script[1:]
		return next.Output, next.Error
	}

	return r.DefaultOutput, r.DefaultError
}

// NumRuns returns how many commands were run.
func (r *ProcessRunner) NumRuns() int {
	return len(r.RunInputs)
}

// RunsFor returns the recorded inputs whose first argument matches the
// given subcommand.
func (r *ProcessRunner) RunsFor(subcommand string) []credman.RunOptions {
	var matches []credman.RunOptions
	for _, in := range r.RunInputs {
		if len(in.Args) != 0 && in.Args[0] == subcommand {
			matches = append(matches, in)
		}
	}
	return matches
}

// AssertExhausted returns an error if any scripted results remain unused.
func (r *ProcessRunner) AssertExhausted() error {
	if len(r.script) != 0 {
		return errors.Errorf("%d scripted runs left unused", len(r.script))
	}
	return nil
}
