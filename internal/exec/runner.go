package exec

import (
	"context"
	"os"
	osexec "os/exec"
	"path/filepath"
)

// ExecRunner is the production CommandRunner, backed by os/exec.
type ExecRunner struct{}

// NewRunner creates a new ExecRunner.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes a command and returns combined stdout/stderr output.
func (r *ExecRunner) Run(ctx context.Context, workDir string, name string, args ...string) ([]byte, error) {
	cmd := osexec.CommandContext(ctx, name, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	return cmd.CombinedOutput()
}

// RunShell executes a shell command through "sh -c".
func (r *ExecRunner) RunShell(ctx context.Context, workDir string, command string) ([]byte, error) {
	return r.Run(ctx, workDir, "sh", "-c", command)
}

// Exists reports whether path exists, without spawning a process.
func (r *ExecRunner) Exists(ctx context.Context, workDir string, path string) bool {
	if !filepath.IsAbs(path) && workDir != "" {
		path = filepath.Join(workDir, path)
	}
	_, err := os.Stat(path)
	return err == nil
}

var _ CommandRunner = (*ExecRunner)(nil)
