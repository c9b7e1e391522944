package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zoidbergclawd/elisa-sub008/internal/workspace"
	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// fakeClient returns canned completions and records calls.
type fakeClient struct {
	completions []*Completion
	errs        []error
	calls       int
	lastModel   string
	lastSystem  string
	lastUser    string
}

func (f *fakeClient) Complete(ctx context.Context, model, system, user string, maxTokens int) (*Completion, error) {
	idx := f.calls
	f.calls++
	f.lastModel = model
	f.lastSystem = system
	f.lastUser = user
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	if len(f.completions) == 0 {
		return nil, f.errs[len(f.errs)-1]
	}
	if idx < len(f.completions) {
		return f.completions[idx], nil
	}
	return f.completions[len(f.completions)-1], nil
}

func fastRetry() RetryConfig {
	return RetryConfig{
		InitialInterval:     time.Millisecond,
		MaxInterval:         2 * time.Millisecond,
		MaxElapsedTime:      50 * time.Millisecond,
		Multiplier:          1.5,
		RandomizationFactor: 0,
	}
}

func testDescriptor() TaskDescriptor {
	return TaskDescriptor{
		Task:  &models.Task{ID: "task-1", Name: "Scaffold the project"},
		Agent: &models.Agent{Name: "Builder Bot", Role: models.RoleBuilder},
		Spec:  &models.ProjectSpec{Goal: "A drawing app"},
		Model: "claude-sonnet-4-20250514",
	}
}

func TestAPIRunnerExecuteSuccess(t *testing.T) {
	client := &fakeClient{completions: []*Completion{{
		Text:         "SUMMARY: Scaffolded the app.\nSTATUS: done",
		InputTokens:  1000,
		OutputTokens: 500,
	}}}

	ws := workspace.New(t.TempDir())
	if err := ws.Init(); err != nil {
		t.Fatalf("init workspace: %v", err)
	}

	pricing := func(model string) (float64, float64) { return 3.0, 15.0 }
	runner := NewAPIRunner(client, ws, pricing)
	runner.SetRetryConfig(fastRetry())

	result, err := runner.Execute(context.Background(), testDescriptor())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Error("expected success")
	}
	if result.Summary != "Scaffolded the app." {
		t.Errorf("expected summary, got %q", result.Summary)
	}
	if result.InputTokens != 1000 || result.OutputTokens != 500 {
		t.Errorf("expected 1000/500 tokens, got %d/%d", result.InputTokens, result.OutputTokens)
	}
	// 1000 in at $3/M + 500 out at $15/M
	wantCost := 0.003 + 0.0075
	if diff := result.CostUSD - wantCost; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected cost %f, got %f", wantCost, result.CostUSD)
	}

	if got := ws.ReadTaskSummary("task-1"); got != "Scaffolded the app." {
		t.Errorf("expected comms file written, got %q", got)
	}

	if !strings.Contains(client.lastSystem, "Builder Bot") {
		t.Errorf("expected system prompt built from agent, got %q", client.lastSystem)
	}
	if !strings.Contains(client.lastUser, "Scaffold the project") {
		t.Errorf("expected user prompt built from task, got %q", client.lastUser)
	}
}

func TestAPIRunnerExecuteBlockedIsNotError(t *testing.T) {
	client := &fakeClient{completions: []*Completion{{
		Text: "SUMMARY: Could not finish.\nSTATUS: blocked",
	}}}
	runner := NewAPIRunner(client, nil, nil)
	runner.SetRetryConfig(fastRetry())

	result, err := runner.Execute(context.Background(), testDescriptor())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Success {
		t.Error("expected failure result")
	}
}

func TestAPIRunnerRetriesTransientError(t *testing.T) {
	client := &fakeClient{
		errs: []error{errors.New("connection reset"), nil},
		completions: []*Completion{
			nil,
			{Text: "SUMMARY: ok\nSTATUS: done"},
		},
	}
	runner := NewAPIRunner(client, nil, nil)
	runner.SetRetryConfig(fastRetry())

	result, err := runner.Execute(context.Background(), testDescriptor())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Error("expected success after retry")
	}
	if client.calls < 2 {
		t.Errorf("expected at least 2 calls, got %d", client.calls)
	}
}

func TestAPIRunnerRateLimitSurfaces(t *testing.T) {
	client := &fakeClient{errs: []error{
		errors.New("429 rate_limit_error"),
		errors.New("429 rate_limit_error"),
		errors.New("429 rate_limit_error"),
		errors.New("429 rate_limit_error"),
		errors.New("429 rate_limit_error"),
	}}
	runner := NewAPIRunner(client, nil, nil)
	runner.SetRetryConfig(fastRetry())

	_, err := runner.Execute(context.Background(), testDescriptor())
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestAPIRunnerMissingFields(t *testing.T) {
	runner := NewAPIRunner(&fakeClient{}, nil, nil)

	if _, err := runner.Execute(context.Background(), TaskDescriptor{}); err == nil {
		t.Error("expected error for empty descriptor")
	}

	desc := testDescriptor()
	desc.Model = ""
	if _, err := runner.Execute(context.Background(), desc); err == nil {
		t.Error("expected error for missing model")
	}
}
