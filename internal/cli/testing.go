package cli

import (
	"bytes"
	"testing"
)

// CLI provides a clean interface for running CLI commands in tests.
// It manages a temp directory and environment variables.
type CLI struct {
	t   *testing.T
	Dir string
	Env map[string]string
}

// NewCLI creates a new test CLI with a temp directory.
func NewCLI(t *testing.T) *CLI {
	t.Helper()

	return &CLI{
		t:   t,
		Dir: t.TempDir(),
		Env: map[string]string{},
	}
}

// Run executes the CLI with the given args and returns stdout, stderr,
// and exit code. Args should not include "shrinkfuzz" or "--cwd" -
// those are added automatically.
func (r *CLI) Run(args ...string) (string, string, int) {
	r.t.Helper()

	var outBuf, errBuf bytes.Buffer

	fullArgs := append([]string{"shrinkfuzz", "--cwd", r.Dir}, args...)
	code := Run(nil, &outBuf, &errBuf, fullArgs, r.Env, nil)

	return outBuf.String(), errBuf.String(), code
}
