// Package environment prepares the project-local Python virtualenv the
// checker runs in.
//
// Activation here is explicit: instead of sourcing bin/activate into the
// current shell, Activate returns an Environment value holding the
// variables a child process needs (VIRTUAL_ENV, a PATH with the env's
// executable directory first, no PYTHONHOME, plus an optional dotenv file).
// The wrapper's own working directory and environment are never mutated.
//
// The virtualenv is recognised by its pyvenv.cfg descriptor, which every
// venv and virtualenv (>= 20) writes at the env root. A descriptor without
// a "home" key is treated as malformed.
package environment
