package tools_test

import (
	"github.com/etdloader/etdloader/tools"
	"github.com/etdloader/etdloader/util/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requireProgram(t *testing.T, name string) {
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("Skipping test because %s is not installed", name)
	}
}

func TestRunnerRun(t *testing.T) {
	requireProgram(t, "echo")
	runner := tools.NewRunner(5*time.Second, logger.DiscardLogger("runner_test"))
	result, err := runner.Run("echo", "hello", "world")
	require.Nil(t, err)
	assert.Equal(t, "hello world\n", string(result.Stdout))
	assert.Equal(t, "echo hello world", result.Command)
	assert.Equal(t, 0, result.ExitCode)
}

func TestRunnerNonZeroExit(t *testing.T) {
	requireProgram(t, "sh")
	runner := tools.NewRunner(5*time.Second, nil)
	result, err := runner.Run("sh", "-c", "echo oops >&2; exit 3")
	require.NotNil(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.True(t, strings.Contains(err.Error(), "status 3"))
	assert.True(t, strings.Contains(err.Error(), "oops"))
}

func TestRunnerTimeout(t *testing.T) {
	requireProgram(t, "sleep")
	runner := tools.NewRunner(100*time.Millisecond, nil)
	_, err := runner.Run("sleep", "5")
	require.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "timed out"))
}

func TestRunnerMissingProgram(t *testing.T) {
	runner := tools.NewRunner(time.Second, nil)
	_, err := runner.Run("/no/such/program")
	require.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Cannot run"))
}
