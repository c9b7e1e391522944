// Package exec abstracts the external tools a build session shells out
// to (git, python3, mpremote) so that they can be faked in tests.
package exec

import "context"

// CommandRunner runs external tools on behalf of the build. Every call
// takes a context so a stopped session also stops its subprocesses.
type CommandRunner interface {
	// Run executes a command and returns combined stdout/stderr output.
	// The working directory is set to workDir when non-empty.
	Run(ctx context.Context, workDir string, name string, args ...string) (output []byte, err error)

	// RunShell executes a shell command through "sh -c", for the rare
	// invocation that needs globbing or pipes.
	RunShell(ctx context.Context, workDir string, command string) (output []byte, err error)

	// Exists reports whether a path exists, resolved against workDir when
	// the path is relative.
	Exists(ctx context.Context, workDir string, path string) bool
}
