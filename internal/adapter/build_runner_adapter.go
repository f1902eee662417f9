package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

// BuildResult holds the outcome of the build command that ran between the
// two scans. A non-zero exit code is data, not an error: the profiler still
// diffs the tree the build left behind.
type BuildResult struct {
	ExitCode int
	Output   string
	Duration time.Duration
}

// BuildRunner abstracts execution of the user's build command.
type BuildRunner interface {
	// Run executes command in workDir and waits for it to finish. A timeout
	// of zero means no limit. Run returns an error only when the command
	// could not be started or was cut short by ctx/timeout; an unsuccessful
	// build is reported through BuildResult.ExitCode.
	Run(ctx context.Context, workDir m.Path, command []string, timeout time.Duration) (BuildResult, error)
}

// LocalBuildRunner runs build commands with os/exec.
type LocalBuildRunner struct{}

// NewLocalBuildRunner constructs a LocalBuildRunner.
func NewLocalBuildRunner() *LocalBuildRunner {
	return &LocalBuildRunner{}
}

// Run executes the build command and captures its combined output.
func (a *LocalBuildRunner) Run(ctx context.Context, workDir m.Path, command []string, timeout time.Duration) (BuildResult, error) {
	if len(command) == 0 {
		return BuildResult{}, errors.New("empty build command")
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)

		defer cancel()
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = string(workDir)

	var combined bytes.Buffer

	cmd.Stdout = &combined
	cmd.Stderr = &combined

	start := time.Now()
	err := cmd.Run()
	result := BuildResult{
		Output:   combined.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("build command interrupted: %w", ctxErr)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		return result, fmt.Errorf("start build command %q: %w", command[0], err)
	}

	return result, nil
}
