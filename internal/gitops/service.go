// Package gitops records build progress as git history in the kid's
// project directory. Every settled task becomes a checkpoint commit so
// the timeline view can replay what each agent did.
package gitops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zoidbergclawd/elisa-sub008/internal/exec"
)

// Committer identity for checkpoint commits. The repo is local-only;
// no remote ever sees this address.
const (
	commitUserName  = "Elisa"
	commitUserEmail = "elisa@local"
)

// CommitInfo describes a checkpoint commit that was created.
type CommitInfo struct {
	SHA          string    `json:"sha"`
	ShortSHA     string    `json:"short_sha"`
	Message      string    `json:"message"`
	AgentName    string    `json:"agent_name,omitempty"`
	TaskID       string    `json:"task_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	FilesChanged int       `json:"files_changed"`
}

// Service runs git against a single project directory.
type Service struct {
	runner exec.CommandRunner
	path   string
}

// NewService creates a git service for the project at path.
func NewService(runner exec.CommandRunner, path string) *Service {
	return &Service{runner: runner, path: path}
}

func (s *Service) git(ctx context.Context, args ...string) (string, error) {
	out, err := s.runner.Run(ctx, s.path, "git", args...)
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, string(out))
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether the project directory is already a git repo.
func (s *Service) IsRepo(ctx context.Context) bool {
	return s.runner.Exists(ctx, s.path, ".git")
}

// InitRepo initializes the project repository: git init, a local
// committer identity, a README stating the goal, and the first commit.
// Calling it on an existing repo is a no-op.
func (s *Service) InitRepo(ctx context.Context, goal string) error {
	if s.IsRepo(ctx) {
		return nil
	}

	if _, err := s.git(ctx, "init"); err != nil {
		return err
	}
	if _, err := s.git(ctx, "config", "user.name", commitUserName); err != nil {
		return err
	}
	if _, err := s.git(ctx, "config", "user.email", commitUserEmail); err != nil {
		return err
	}

	readme := fmt.Sprintf("# %s\n\nBuilt with Elisa.\n", goal)
	if err := os.WriteFile(filepath.Join(s.path, "README.md"), []byte(readme), 0o644); err != nil {
		return fmt.Errorf("failed to write README: %w", err)
	}

	if _, err := s.git(ctx, "add", "-A"); err != nil {
		return err
	}
	if _, err := s.git(ctx, "commit", "-m", "Project started!"); err != nil {
		return err
	}
	return nil
}

// HasChanges reports whether the working tree has uncommitted changes.
func (s *Service) HasChanges(ctx context.Context) (bool, error) {
	status, err := s.git(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return status != "", nil
}

// Commit stages everything and creates a checkpoint commit attributed
// to an agent and task. Returns (nil, nil) when there is nothing to
// commit, which is common for review and planning tasks.
func (s *Service) Commit(ctx context.Context, message, agentName, taskID string) (*CommitInfo, error) {
	if _, err := s.git(ctx, "add", "-A"); err != nil {
		return nil, err
	}

	staged, err := s.git(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	if staged == "" {
		return nil, nil
	}

	full := message
	if agentName != "" || taskID != "" {
		full = fmt.Sprintf("%s\n\nAgent: %s\nTask: %s", message, agentName, taskID)
	}
	if _, err := s.git(ctx, "commit", "-m", full); err != nil {
		return nil, err
	}

	sha, err := s.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return nil, err
	}

	info := &CommitInfo{
		SHA:       sha,
		Message:   message,
		AgentName: agentName,
		TaskID:    taskID,
		Timestamp: time.Now(),
	}
	if len(sha) >= 7 {
		info.ShortSHA = sha[:7]
	} else {
		info.ShortSHA = sha
	}

	files, err := s.git(ctx, "diff-tree", "--no-commit-id", "--name-only", "-r", "HEAD")
	if err == nil && files != "" {
		info.FilesChanged = len(strings.Split(files, "\n"))
	}

	return info, nil
}

// CommitCount returns the number of commits on the current branch.
func (s *Service) CommitCount(ctx context.Context) (int, error) {
	out, err := s.git(ctx, "rev-list", "--count", "HEAD")
	if err != nil {
		return 0, err
	}
	var n int
	if _, err := fmt.Sscanf(out, "%d", &n); err != nil {
		return 0, fmt.Errorf("unexpected rev-list output %q: %w", out, err)
	}
	return n, nil
}

// Log returns the most recent checkpoint commits, newest first.
func (s *Service) Log(ctx context.Context, limit int) ([]CommitInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	out, err := s.git(ctx, "log", fmt.Sprintf("-%d", limit), "--pretty=format:%H\x1f%s\x1f%cI")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	var commits []CommitInfo
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Split(line, "\x1f")
		if len(parts) != 3 {
			continue
		}
		info := CommitInfo{SHA: parts[0], Message: parts[1]}
		if len(info.SHA) >= 7 {
			info.ShortSHA = info.SHA[:7]
		}
		if ts, err := time.Parse(time.RFC3339, parts[2]); err == nil {
			info.Timestamp = ts
		}
		commits = append(commits, info)
	}
	return commits, nil
}
