// Package gate implements the lint gate pipeline: resolve the project
// root, activate its environment, run the checker once, and turn the
// outcome into an error carrying the process exit code.
package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/shinji-kodama/lint-gate/internal/checker"
	"github.com/shinji-kodama/lint-gate/internal/config"
	"github.com/shinji-kodama/lint-gate/internal/environment"
	"github.com/shinji-kodama/lint-gate/internal/logging"
	"github.com/shinji-kodama/lint-gate/internal/model"
)

// Activator prepares the environment found under a project root.
type Activator interface {
	Activate(projectRoot string) (*environment.Environment, error)
}

// CheckerRunner runs the checker once inside env.
type CheckerRunner interface {
	Run(ctx context.Context, env *environment.Environment, name string, args ...string) (*model.CheckResult, error)
}

// Dependencies holds the gate's collaborators. Nil fields get production
// implementations built from the configuration.
type Dependencies struct {
	Activator Activator
	Runner    CheckerRunner
	Logger    *log.Logger
}

// Gate runs the lint pipeline for one project.
type Gate struct {
	cfg       *config.Config
	activator Activator
	runner    CheckerRunner
	logger    *log.Logger
}

// New creates a Gate for cfg.
func New(cfg *config.Config, deps *Dependencies) *Gate {
	if deps == nil {
		deps = &Dependencies{}
	}
	g := &Gate{
		cfg:       cfg,
		activator: deps.Activator,
		runner:    deps.Runner,
		logger:    deps.Logger,
	}
	if g.activator == nil {
		g.activator = environment.NewActivator(cfg.EnvDir, cfg.EnvFile)
	}
	if g.runner == nil {
		g.runner = checker.NewRunner()
	}
	if g.logger == nil {
		g.logger = logging.Discard()
	}
	return g
}

// Run executes the pipeline and blocks until the checker exits.
//
// It returns nil when the checker exited 0. Every other outcome is a
// *model.CLIError: ExitSetupFailed when the project root or environment
// was unusable (the checker is not started), ExitCheckFailed when the
// checker reported issues or could not be started.
func (g *Gate) Run(ctx context.Context) error {
	root, err := environment.ResolveProjectRoot(g.cfg.ProjectRoot)
	if err != nil {
		return model.WrapCLIError(model.ExitSetupFailed, "cannot enter project root", err)
	}
	g.logger.Debug("project root resolved", "root", root)

	env, err := g.activator.Activate(root)
	if err != nil {
		return model.WrapCLIError(model.ExitSetupFailed, "cannot activate environment", err)
	}
	g.logger.Debug("environment activated", "env", env.Dir, "python", env.Descriptor["version"])

	g.logger.Debug("running checker", "checker", g.cfg.Checker)
	result, err := g.runner.Run(ctx, env, g.cfg.Checker)
	if err != nil {
		return g.checkFailure(result, err)
	}
	if !result.Passed() {
		// A runner must report a non-zero status as an error; treat a
		// result that slipped through as a failure rather than success.
		status := -1
		if result != nil {
			status = result.ExitCode
		}
		return g.checkFailure(result, fmt.Errorf("%w: exit status %d", model.ErrCheckFailed, status))
	}

	g.logger.Info("lint passed", "checker", result.Checker, "took", result.Duration)
	return nil
}

func (g *Gate) checkFailure(result *model.CheckResult, err error) error {
	if errors.Is(err, model.ErrCheckerUnavailable) {
		return model.WrapCLIError(model.ExitCheckFailed,
			fmt.Sprintf("checker %q could not be started", g.cfg.Checker), err)
	}

	keyvals := []interface{}{"checker", g.cfg.Checker}
	if result != nil {
		keyvals = append(keyvals, "exit", result.ExitCode, "took", result.Duration)
	}
	g.logger.Debug("checker reported failure", keyvals...)
	return model.WrapCLIError(model.ExitCheckFailed, "lint failed", err)
}
