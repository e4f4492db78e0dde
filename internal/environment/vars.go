package environment

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variable names are case-insensitive on Windows only.
func keyEqual(a, b, goos string) bool {
	if goos == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func lookupVar(vars []string, key, goos string) (string, bool) {
	// Later entries win, matching how exec.Cmd dedups Env.
	for i := len(vars) - 1; i >= 0; i-- {
		k, v, ok := strings.Cut(vars[i], "=")
		if ok && keyEqual(k, key, goos) {
			return v, true
		}
	}
	return "", false
}

func unsetVar(vars []string, key, goos string) []string {
	out := make([]string, 0, len(vars))
	for _, kv := range vars {
		k, _, _ := strings.Cut(kv, "=")
		if keyEqual(k, key, goos) {
			continue
		}
		out = append(out, kv)
	}
	return out
}

func setVar(vars []string, key, value, goos string) []string {
	return append(unsetVar(vars, key, goos), key+"="+value)
}

// LookPath searches for an executable named file in the directories named
// by the environment's PATH, not the wrapper's. A name containing a path
// separator is resolved against ProjectRoot and checked directly.
//
// exec.LookPath cannot be used here because it only consults the current
// process's PATH, which activation deliberately leaves untouched.
func (e *Environment) LookPath(file string) (string, error) {
	if strings.ContainsRune(file, '/') || strings.ContainsRune(file, filepath.Separator) {
		p := resolveUnder(e.ProjectRoot, file)
		if found, ok := e.executable(p); ok {
			return found, nil
		}
		return "", fmt.Errorf("%s: not an executable file", p)
	}

	for _, dir := range filepath.SplitList(e.Getenv("PATH")) {
		if dir == "" {
			// An empty PATH element means the current directory, which
			// for the checker is the project root.
			dir = e.ProjectRoot
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(e.ProjectRoot, dir)
		}
		if found, ok := e.executable(filepath.Join(dir, file)); ok {
			return found, nil
		}
	}
	return "", fmt.Errorf("%s: executable file not found in activated PATH", file)
}

// executable reports whether path (or, on Windows, path plus one of the
// PATHEXT extensions) is a regular file the process may execute.
func (e *Environment) executable(path string) (string, bool) {
	if e.goos != "windows" {
		return path, isExecutable(path, false)
	}

	if filepath.Ext(path) != "" && isExecutable(path, true) {
		return path, true
	}
	exts := e.Getenv("PATHEXT")
	if exts == "" {
		exts = ".com;.exe;.bat;.cmd"
	}
	for _, ext := range strings.Split(strings.ToLower(exts), ";") {
		if ext == "" {
			continue
		}
		if isExecutable(path+ext, true) {
			return path + ext, true
		}
	}
	return "", false
}

func isExecutable(path string, windows bool) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if windows {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
