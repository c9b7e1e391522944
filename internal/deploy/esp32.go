package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zoidbergclawd/elisa-sub008/internal/exec"
	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// ESP32Deployer compile-checks the project's MicroPython sources and
// flashes them to a connected board with mpremote.
type ESP32Deployer struct {
	runner exec.CommandRunner
	port   string
}

// NewESP32Deployer creates a hardware deployer. port may be empty, in
// which case mpremote's auto-detection is used.
func NewESP32Deployer(runner exec.CommandRunner, port string) *ESP32Deployer {
	return &ESP32Deployer{runner: runner, port: port}
}

// pyFiles collects the project's Python sources, skipping hidden
// directories and __pycache__.
func pyFiles(projectPath string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(projectPath, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			name := entry.Name()
			if path != projectPath && (strings.HasPrefix(name, ".") || name == "__pycache__") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(entry.Name(), ".py") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// CompileCheck verifies every .py file byte-compiles. Errors are
// returned per file so the message can name the broken one.
func (d *ESP32Deployer) CompileCheck(ctx context.Context, projectPath string) []string {
	files, err := pyFiles(projectPath)
	if err != nil {
		return []string{err.Error()}
	}
	if len(files) == 0 {
		return []string{"No Python files found"}
	}

	var errs []string
	for _, f := range files {
		if out, err := d.runner.Run(ctx, projectPath, "python3", "-m", "py_compile", f); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %s", filepath.Base(f), strings.TrimSpace(string(out))))
		}
	}
	return errs
}

// Deploy implements Deployer: compile-check, then
// `mpremote connect <port> cp <files...> + run main.py`.
func (d *ESP32Deployer) Deploy(ctx context.Context, projectPath string) (*Result, error) {
	if errs := d.CompileCheck(ctx, projectPath); len(errs) > 0 {
		return &Result{
			Target:  models.DeployESP32,
			Message: "Compile check failed: " + strings.Join(errs, "; "),
		}, nil
	}

	files, err := pyFiles(projectPath)
	if err != nil {
		return nil, err
	}

	args := []string{"connect", d.portArg(), "cp"}
	for _, f := range files {
		args = append(args, f, ":/"+filepath.Base(f))
	}
	mainPy := filepath.Join(projectPath, "main.py")
	if _, err := os.Stat(mainPy); err == nil {
		args = append(args, "+", "run", mainPy)
	}

	out, err := d.runner.Run(ctx, projectPath, "mpremote", args...)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		if strings.Contains(err.Error(), "executable file not found") {
			msg = "mpremote not found. Install it with: pip install mpremote"
		}
		return &Result{
			Target:  models.DeployESP32,
			Message: "Flash failed: " + msg,
		}, nil
	}

	return &Result{
		Target:  models.DeployESP32,
		Success: true,
		Message: fmt.Sprintf("Flashed %d file(s) to %s", len(files), d.portArg()),
		Files:   len(files),
	}, nil
}

func (d *ESP32Deployer) portArg() string {
	if d.port == "" {
		return "auto"
	}
	return d.port
}
