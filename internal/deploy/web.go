package deploy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// stageDirName is where the web artifact is staged inside the project.
const stageDirName = "dist"

// Directories never staged for web serving.
var webSkipDirs = map[string]bool{
	".elisa":       true,
	".git":         true,
	"__pycache__":  true,
	"node_modules": true,
	stageDirName:   true,
}

// WebDeployer stages the project's files into dist/ so the preview
// server can serve them. It is a plain copy; no bundling happens here.
type WebDeployer struct{}

// NewWebDeployer creates a web deployer.
func NewWebDeployer() *WebDeployer {
	return &WebDeployer{}
}

// Deploy implements Deployer.
func (d *WebDeployer) Deploy(ctx context.Context, projectPath string) (*Result, error) {
	stageDir := filepath.Join(projectPath, stageDirName)
	if err := os.RemoveAll(stageDir); err != nil {
		return nil, fmt.Errorf("failed to clear stage dir: %w", err)
	}
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create stage dir: %w", err)
	}

	count := 0
	err := filepath.WalkDir(projectPath, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, err := filepath.Rel(projectPath, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if entry.IsDir() {
			if webSkipDirs[entry.Name()] || strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(stageDir, rel), 0o755)
		}
		if strings.HasPrefix(entry.Name(), ".") {
			return nil
		}
		if err := copyFile(path, filepath.Join(stageDir, rel)); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stage web artifact: %w", err)
	}

	return &Result{
		Target:  models.DeployWeb,
		Success: true,
		Message: fmt.Sprintf("Staged %d file(s) for web preview", count),
		Files:   count,
	}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
