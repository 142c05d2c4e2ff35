package mash

import (
	"bytes"
	"context"
	"os/exec"
)

// runner executes the mash binary. Abstracted so tests can substitute canned
// tool output without mash installed.
type runner interface {
	// Run executes the mash binary with args and returns captured stdout and
	// stderr. A non-zero exit is returned as err with stderr still populated.
	Run(ctx context.Context, args ...string) (stdout, stderr string, err error)
}

// execRunner invokes the real binary via os/exec.
type execRunner struct {
	execPath string
}

func (r *execRunner) Run(ctx context.Context, args ...string) (string, string, error) {
	var outBuf, errBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, r.execPath, args...)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	return outBuf.String(), errBuf.String(), err
}
