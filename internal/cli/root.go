// Package cli implements the cobra-based command line of lint-gate.
//
// The binary has a single root command with no subcommands, no positional
// arguments and no functional flags. Settings come from the config layer
// (see internal/config); the only flags are cobra's --help and --version.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/lint-gate/internal/config"
	"github.com/shinji-kodama/lint-gate/internal/gate"
	"github.com/shinji-kodama/lint-gate/internal/logging"
	"github.com/shinji-kodama/lint-gate/internal/model"
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// logger is replaced with a configured one once settings are loaded.
// Until then errors go to stderr at error level.
var logger = logging.Default()

// loadConfig is swapped out in tests.
var loadConfig = config.Load

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lint-gate",
		Short: "Run the project linter inside its virtualenv and gate on the result",
		Long: `lint-gate activates the project's virtualenv, runs the checker once
against the project root, and exits 0 if it passed or 1 if it did not.

The checker's output is passed through unchanged. Setup problems (missing
project root or broken virtualenv) exit 2 without running the checker.

Settings (environment variable, or key in lint-gate.yaml):
  LINT_GATE_PROJECT_ROOT  project_root  directory to lint        (backend_api)
  LINT_GATE_ENV_DIR       env_dir       virtualenv directory     (venv)
  LINT_GATE_ENV_FILE      env_file      optional dotenv file     (.env)
  LINT_GATE_CHECKER       checker       checker executable       (flake8)
  LINT_GATE_LOG_LEVEL     log_level     debug|info|warn|error    (warn)
  LINT_GATE_LOG_FORMAT    log_format    auto|text|logfmt|json    (auto)`,

		Args: cobra.NoArgs,

		// Errors and exit codes are handled by Execute.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGate(cmd)
		},
	}

	return rootCmd
}

func runGate(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return model.WrapCLIError(model.ExitSetupFailed, "invalid configuration", err)
	}

	configured, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return model.WrapCLIError(model.ExitSetupFailed, "invalid logging configuration", err)
	}
	logger = configured

	logger.Debug("configuration loaded",
		"root", cfg.ProjectRoot, "env", cfg.EnvDir, "checker", cfg.Checker)

	return gate.New(cfg, &gate.Dependencies{Logger: logger}).Run(cmd.Context())
}

// Run executes the root command and returns the process exit code
// without exiting, so it can be exercised from tests.
func Run(rootCmd *cobra.Command) int {
	err := rootCmd.Execute()
	if err == nil {
		return int(model.ExitSuccess)
	}

	// Anything the gate did not classify is a usage error from cobra.
	code := model.ExitSetupFailed
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) || model.IsCheckFailure(err) || model.IsSetupFailure(err) {
		code = model.ExitCodeOf(err)
	}
	printError(logger, err, code)
	return int(code)
}

// Execute runs the root command and exits the process with its status.
// This is the main entry point called from main.go.
func Execute(rootCmd *cobra.Command) {
	os.Exit(Run(rootCmd))
}

// printError reports a failed run. CLIErrors carry a message of their own;
// anything else (usage errors from cobra) is printed as is.
func printError(l *log.Logger, err error, code model.ExitCode) {
	if cliErr, ok := err.(*model.CLIError); ok {
		if cliErr.Err != nil {
			l.Error(cliErr.Message, "err", cliErr.Err, "exit", int(code))
		} else {
			l.Error(cliErr.Message, "exit", int(code))
		}
		return
	}
	l.Error(err.Error(), "exit", int(code))
}
