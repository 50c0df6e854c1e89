package tools

import (
	"bytes"
	"context"
	"fmt"
	"github.com/op/go-logging"
	"os/exec"
	"strings"
	"time"
)

// Runner runs external programs with a time limit. All of the
// loader's external tools (FOP, pdftotext, ImageMagick, xsltproc)
// run through a Runner.
type Runner struct {
	Timeout time.Duration
	Logger  *logging.Logger
}

// Result is the output of a finished command.
type Result struct {
	Command  string
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

func NewRunner(timeout time.Duration, logger *logging.Logger) *Runner {
	return &Runner{
		Timeout: timeout,
		Logger:  logger,
	}
}

// GetCommand returns the command the runner would execute. The
// command is killed if it runs longer than the runner's timeout
// after ctx is created.
func GetCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// Run runs name with args and waits for it to finish. It returns an
// error if the program can't be started, exits with a non-zero status,
// or runs past the timeout. The result is returned in all cases where
// the program started, so callers can log its output.
func (runner *Runner) Run(name string, args ...string) (*Result, error) {
	timeout := runner.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	cmd := GetCommand(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	result := &Result{
		Command: strings.Join(append([]string{name}, args...), " "),
	}
	if runner.Logger != nil {
		runner.Logger.Debug("Running %s", result.Command)
	}
	err := cmd.Run()
	result.Stdout = stdout.Bytes()
	result.Stderr = stderr.Bytes()
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	if ctx.Err() == context.DeadlineExceeded {
		return result, fmt.Errorf("%s timed out after %s", name, timeout)
	}
	if err != nil {
		if _, isExitError := err.(*exec.ExitError); isExitError {
			return result, fmt.Errorf("%s exited with status %d: %s",
				name, result.ExitCode, strings.TrimSpace(string(result.Stderr)))
		}
		return result, fmt.Errorf("Cannot run %s: %v", name, err)
	}
	return result, nil
}
