package environment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bitfield/script"
	"github.com/subosito/gotenv"

	"github.com/shinji-kodama/lint-gate/internal/model"
)

// DescriptorFile is the file that marks a directory as a virtualenv.
const DescriptorFile = "pyvenv.cfg"

// Environment is an activated virtualenv, ready to hand to a child process.
type Environment struct {
	// ProjectRoot is the absolute directory the checker runs in.
	ProjectRoot string

	// Dir is the absolute virtualenv directory.
	Dir string

	// BinDir is the virtualenv's executable directory (bin, or Scripts on Windows).
	BinDir string

	// Descriptor holds the key/value pairs read from pyvenv.cfg.
	Descriptor map[string]string

	// Vars is the complete child-process environment as KEY=VALUE pairs.
	Vars []string

	goos string
}

// Getenv returns the value of key in the child environment.
func (e *Environment) Getenv(key string) string {
	v, _ := lookupVar(e.Vars, key, e.goos)
	return v
}

// ResolveProjectRoot returns the absolute form of path after checking that
// it names an accessible directory. Any failure wraps model.ErrProjectRoot.
func ResolveProjectRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", model.ErrProjectRoot, path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrProjectRoot, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", model.ErrProjectRoot, abs)
	}

	// Stat succeeds on a directory we cannot enter; opening it does not.
	f, err := os.Open(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrProjectRoot, err)
	}
	_ = f.Close()

	return abs, nil
}

// Activator builds Environments for a project root.
type Activator struct {
	envDir  string
	envFile string

	// environ supplies the parent environment. Tests replace it.
	environ func() []string
	goos    string
}

// NewActivator creates an Activator for the virtualenv at envDir and the
// optional dotenv file envFile. Relative paths are resolved against the
// project root passed to Activate. An empty envFile disables dotenv loading.
func NewActivator(envDir, envFile string) *Activator {
	return &Activator{
		envDir:  envDir,
		envFile: envFile,
		environ: os.Environ,
		goos:    runtime.GOOS,
	}
}

// Activate prepares the virtualenv under projectRoot. Any failure wraps
// model.ErrEnvironment.
func (a *Activator) Activate(projectRoot string) (*Environment, error) {
	dir := resolveUnder(projectRoot, a.envDir)

	descriptor, err := readDescriptor(filepath.Join(dir, DescriptorFile))
	if err != nil {
		return nil, err
	}

	binDir := filepath.Join(dir, binDirName(a.goos))
	info, err := os.Stat(binDir)
	if err != nil {
		return nil, fmt.Errorf("%w: executable directory: %w", model.ErrEnvironment, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", model.ErrEnvironment, binDir)
	}

	vars := a.environ()
	parentPath, _ := lookupVar(vars, "PATH", a.goos)
	newPath := binDir
	if parentPath != "" {
		newPath = binDir + string(os.PathListSeparator) + parentPath
	}

	vars = unsetVar(vars, "PYTHONHOME", a.goos)
	vars = setVar(vars, "VIRTUAL_ENV", dir, a.goos)
	vars = setVar(vars, "PATH", newPath, a.goos)

	if a.envFile != "" {
		vars, err = mergeDotenv(vars, resolveUnder(projectRoot, a.envFile), a.goos)
		if err != nil {
			return nil, err
		}
	}

	return &Environment{
		ProjectRoot: projectRoot,
		Dir:         dir,
		BinDir:      binDir,
		Descriptor:  descriptor,
		Vars:        vars,
		goos:        a.goos,
	}, nil
}

// readDescriptor parses pyvenv.cfg. Lines are "key = value"; keys are
// case-insensitive and blank or '#' lines are skipped.
func readDescriptor(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: descriptor: %w", model.ErrEnvironment, err)
	}

	lines, err := script.File(path).Slice()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", model.ErrEnvironment, path, err)
	}

	descriptor := make(map[string]string)
	for n, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %s:%d: expected key = value", model.ErrEnvironment, path, n+1)
		}
		descriptor[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	if descriptor["home"] == "" {
		return nil, fmt.Errorf("%w: %s has no home key", model.ErrEnvironment, path)
	}
	return descriptor, nil
}

// mergeDotenv overlays the variables from a dotenv file onto vars. A
// missing file is not an error; a malformed one is.
func mergeDotenv(vars []string, path, goos string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return vars, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: env file: %w", model.ErrEnvironment, err)
	}
	defer f.Close()

	env, err := gotenv.StrictParse(f)
	if err != nil {
		return nil, fmt.Errorf("%w: env file %s: %w", model.ErrEnvironment, path, err)
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		vars = setVar(vars, k, env[k], goos)
	}
	return vars, nil
}

func resolveUnder(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

func binDirName(goos string) string {
	if goos == "windows" {
		return "Scripts"
	}
	return "bin"
}
