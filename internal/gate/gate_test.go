package gate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/lint-gate/internal/checker"
	"github.com/shinji-kodama/lint-gate/internal/config"
	"github.com/shinji-kodama/lint-gate/internal/environment"
	"github.com/shinji-kodama/lint-gate/internal/logging"
	"github.com/shinji-kodama/lint-gate/internal/model"
)

// spyRunner records every invocation and replays a fixed checker status.
type spyRunner struct {
	calls  int
	status int
	err    error // overrides status when set
}

func (s *spyRunner) Run(_ context.Context, _ *environment.Environment, name string, _ ...string) (*model.CheckResult, error) {
	s.calls++
	if s.err != nil {
		return &model.CheckResult{Checker: name, ExitCode: -1}, s.err
	}
	result := &model.CheckResult{Checker: name, Ran: true, ExitCode: s.status}
	if s.status != 0 {
		return result, fmt.Errorf("%w: %s exited with status %d", model.ErrCheckFailed, name, s.status)
	}
	return result, nil
}

// stubActivator returns a fixed environment or error and counts calls.
type stubActivator struct {
	calls int
	err   error
}

func (s *stubActivator) Activate(root string) (*environment.Environment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &environment.Environment{ProjectRoot: root, Dir: filepath.Join(root, "venv")}, nil
}

func testConfig(root string) *config.Config {
	return &config.Config{
		ProjectRoot: root,
		EnvDir:      config.DefaultEnvDir,
		Checker:     config.DefaultChecker,
		LogLevel:    config.DefaultLogLevel,
		LogFormat:   config.LogFormatLogfmt,
	}
}

// For every checker status s: s == 0 yields success, anything else exit 1.
func TestRun_StatusMapping(t *testing.T) {
	for _, status := range []int{0, 1, 2, 3, 64, 127, 255} {
		t.Run(fmt.Sprintf("checker exits %d", status), func(t *testing.T) {
			runner := &spyRunner{status: status}
			g := New(testConfig(t.TempDir()), &Dependencies{Activator: &stubActivator{}, Runner: runner})

			err := g.Run(context.Background())

			want := model.ExitCheckFailed
			if status == 0 {
				want = model.ExitSuccess
			}
			assert.Equal(t, want, model.ExitCodeOf(err))
			assert.Equal(t, 1, runner.calls, "checker must run exactly once")
		})
	}
}

// Same checker result, same gate result.
func TestRun_Idempotent(t *testing.T) {
	runner := &spyRunner{status: 2}
	g := New(testConfig(t.TempDir()), &Dependencies{Activator: &stubActivator{}, Runner: runner})

	first := model.ExitCodeOf(g.Run(context.Background()))
	second := model.ExitCodeOf(g.Run(context.Background()))
	assert.Equal(t, first, second)
	assert.Equal(t, 2, runner.calls)
}

func TestRun_MissingProjectRoot(t *testing.T) {
	runner := &spyRunner{}
	activator := &stubActivator{}
	g := New(testConfig(filepath.Join(t.TempDir(), "backend_api")), &Dependencies{Activator: activator, Runner: runner})

	err := g.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrProjectRoot)
	assert.Equal(t, model.ExitSetupFailed, model.ExitCodeOf(err))
	assert.Zero(t, activator.calls)
	assert.Zero(t, runner.calls, "checker must not run without a project root")
}

func TestRun_ActivationFails(t *testing.T) {
	runner := &spyRunner{}
	activator := &stubActivator{err: fmt.Errorf("%w: no pyvenv.cfg", model.ErrEnvironment)}
	g := New(testConfig(t.TempDir()), &Dependencies{Activator: activator, Runner: runner})

	err := g.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrEnvironment)
	assert.Equal(t, model.ExitSetupFailed, model.ExitCodeOf(err))
	assert.Equal(t, 1, activator.calls)
	assert.Zero(t, runner.calls, "checker must not run without an environment")
}

func TestRun_CheckerUnavailable(t *testing.T) {
	runner := &spyRunner{err: fmt.Errorf("%w: flake8 not found", model.ErrCheckerUnavailable)}
	g := New(testConfig(t.TempDir()), &Dependencies{Activator: &stubActivator{}, Runner: runner})

	err := g.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCheckerUnavailable)
	assert.Equal(t, model.ExitCheckFailed, model.ExitCodeOf(err))
	assert.Contains(t, err.Error(), `checker "flake8" could not be started`)
}

// nilResultRunner violates the runner contract by reporting no error and no result.
type nilResultRunner struct{}

func (nilResultRunner) Run(context.Context, *environment.Environment, string, ...string) (*model.CheckResult, error) {
	return nil, nil
}

func TestRun_NilResultIsFailure(t *testing.T) {
	g := New(testConfig(t.TempDir()), &Dependencies{Activator: &stubActivator{}, Runner: nilResultRunner{}})

	err := g.Run(context.Background())
	assert.Equal(t, model.ExitCheckFailed, model.ExitCodeOf(err))
	assert.ErrorIs(t, err, model.ErrCheckFailed)
}

func TestRun_LogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "debug", config.LogFormatLogfmt)
	require.NoError(t, err)

	g := New(testConfig(t.TempDir()), &Dependencies{Activator: &stubActivator{}, Runner: &spyRunner{status: 1}, Logger: logger})
	require.Error(t, g.Run(context.Background()))

	assert.Contains(t, buf.String(), "environment activated")
	assert.Contains(t, buf.String(), "checker reported failure")
	assert.Contains(t, buf.String(), "exit=1")
}

// The scenarios below run the production activator and runner against a
// real virtualenv layout with a shell-script checker.

func setupProject(t *testing.T, checkerBody string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("checker fixtures are POSIX shell scripts")
	}

	root := filepath.Join(t.TempDir(), "backend_api")
	bin := filepath.Join(root, "venv", "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "venv", environment.DescriptorFile), []byte("home = /usr/bin\n"), 0o644))
	if checkerBody != "" {
		script := "#!/bin/sh\n" + checkerBody + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(bin, "flake8"), []byte(script), 0o755))
	}
	return root
}

func quietRunner() *checker.Runner {
	return &checker.Runner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
}

func TestScenarios(t *testing.T) {
	t.Run("A: clean checker exits 0", func(t *testing.T) {
		root := setupProject(t, "exit 0")
		err := New(testConfig(root), &Dependencies{Runner: quietRunner()}).Run(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, model.ExitSuccess, model.ExitCodeOf(err))
	})

	t.Run("B: checker exits 2, gate exits 1", func(t *testing.T) {
		root := setupProject(t, "exit 2")
		err := New(testConfig(root), &Dependencies{Runner: quietRunner()}).Run(context.Background())
		assert.ErrorIs(t, err, model.ErrCheckFailed)
		assert.Equal(t, model.ExitCheckFailed, model.ExitCodeOf(err))
	})

	t.Run("C: missing project root never starts the checker", func(t *testing.T) {
		marker := filepath.Join(t.TempDir(), "ran")
		root := setupProject(t, "touch "+marker)
		cfg := testConfig(filepath.Join(filepath.Dir(root), "missing"))

		err := New(cfg, &Dependencies{Runner: quietRunner()}).Run(context.Background())
		assert.Equal(t, model.ExitSetupFailed, model.ExitCodeOf(err))
		_, statErr := os.Stat(marker)
		assert.True(t, errors.Is(statErr, os.ErrNotExist), "checker must not have run")
	})

	t.Run("D: checker absent from the environment exits 1", func(t *testing.T) {
		root := setupProject(t, "")
		cfg := testConfig(root)
		// Keep the host PATH from supplying a system-wide flake8.
		t.Setenv("PATH", "")

		err := New(cfg, &Dependencies{Runner: quietRunner()}).Run(context.Background())
		assert.ErrorIs(t, err, model.ErrCheckerUnavailable)
		assert.Equal(t, model.ExitCheckFailed, model.ExitCodeOf(err))
	})

	t.Run("broken environment never starts the checker", func(t *testing.T) {
		marker := filepath.Join(t.TempDir(), "ran")
		root := setupProject(t, "touch "+marker)
		require.NoError(t, os.Remove(filepath.Join(root, "venv", environment.DescriptorFile)))

		err := New(testConfig(root), &Dependencies{Runner: quietRunner()}).Run(context.Background())
		assert.ErrorIs(t, err, model.ErrEnvironment)
		assert.Equal(t, model.ExitSetupFailed, model.ExitCodeOf(err))
		_, statErr := os.Stat(marker)
		assert.True(t, errors.Is(statErr, os.ErrNotExist), "checker must not have run")
	})
}
