// Package agent executes build tasks by calling the model API with
// role-specific prompts, tracking usage and cost per call.
package agent

import (
	"context"
	"errors"

	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// ErrRateLimited indicates the model API refused the call for rate or
// capacity reasons. The coordinator answers it with a tier fallback; the
// call-level retry with backoff has already been exhausted by then.
var ErrRateLimited = errors.New("model API rate limited")

// TaskDescriptor carries everything a runner needs to execute one task.
type TaskDescriptor struct {
	// Task is the task being executed.
	Task *models.Task
	// Agent is the agent assigned to the task.
	Agent *models.Agent
	// Spec is the project specification for prompt context.
	Spec *models.ProjectSpec
	// Context is the assembled briefing: predecessor summaries plus the
	// workspace file manifest.
	Context string
	// Model is the resolved model ID to call.
	Model string
}

// Result is the outcome of one task execution.
type Result struct {
	Success      bool
	Summary      string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// Runner executes a task against the external model. Execute blocks
// until the task settles or ctx is cancelled; a non-nil error means the
// call itself failed (transport, rate limit), while a Result with
// Success=false means the agent ran but did not complete the task.
type Runner interface {
	Execute(ctx context.Context, desc TaskDescriptor) (*Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, desc TaskDescriptor) (*Result, error)

// Execute implements Runner.
func (f RunnerFunc) Execute(ctx context.Context, desc TaskDescriptor) (*Result, error) {
	return f(ctx, desc)
}
