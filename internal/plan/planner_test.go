package plan

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zoidbergclawd/elisa-sub008/internal/agent"
	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

type fakeClient struct {
	responses []string
	err       error
	calls     int
	lastUser  string
}

func (f *fakeClient) Complete(ctx context.Context, model, system, user string, maxTokens int) (*agent.Completion, error) {
	idx := f.calls
	f.calls++
	f.lastUser = user
	if f.err != nil {
		return nil, f.err
	}
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return &agent.Completion{Text: f.responses[idx], InputTokens: 100, OutputTokens: 50}, nil
}

func testSpec() *models.ProjectSpec {
	return &models.ProjectSpec{Goal: "A tic-tac-toe game"}
}

func TestPlannerGenerate(t *testing.T) {
	client := &fakeClient{responses: []string{sampleResponse}}
	planner := NewPlanner(client, "claude-opus-4-1")

	result, err := planner.Generate(context.Background(), testSpec())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(result.Plan.Tasks) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(result.Plan.Tasks))
	}
	if result.InputTokens != 100 || result.OutputTokens != 50 {
		t.Errorf("expected 100/50 tokens, got %d/%d", result.InputTokens, result.OutputTokens)
	}
	if client.calls != 1 {
		t.Errorf("expected 1 call, got %d", client.calls)
	}
	if !strings.Contains(client.lastUser, "tic-tac-toe") {
		t.Errorf("expected spec in prompt, got %q", client.lastUser)
	}
}

func TestPlannerRetriesBadPlan(t *testing.T) {
	client := &fakeClient{responses: []string{"not json at all", sampleResponse}}
	planner := NewPlanner(client, "claude-opus-4-1")

	result, err := planner.Generate(context.Background(), testSpec())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if client.calls != 2 {
		t.Errorf("expected 2 calls, got %d", client.calls)
	}
	if !strings.Contains(client.lastUser, "rejected") {
		t.Errorf("expected rejection feedback in retry prompt, got %q", client.lastUser)
	}
	// Both attempts count against the budget.
	if result.InputTokens != 200 || result.OutputTokens != 100 {
		t.Errorf("expected 200/100 tokens, got %d/%d", result.InputTokens, result.OutputTokens)
	}
}

func TestPlannerGivesUpAfterTwoBadPlans(t *testing.T) {
	client := &fakeClient{responses: []string{"nope", "still nope"}}
	planner := NewPlanner(client, "claude-opus-4-1")

	if _, err := planner.Generate(context.Background(), testSpec()); err == nil {
		t.Error("expected error after two unusable plans")
	}
	if client.calls != 2 {
		t.Errorf("expected 2 calls, got %d", client.calls)
	}
}

func TestPlannerClientError(t *testing.T) {
	client := &fakeClient{err: errors.New("boom")}
	planner := NewPlanner(client, "claude-opus-4-1")

	if _, err := planner.Generate(context.Background(), testSpec()); err == nil {
		t.Error("expected error when client fails")
	}
}

func TestPlannerEmptySpec(t *testing.T) {
	planner := NewPlanner(&fakeClient{}, "claude-opus-4-1")
	if _, err := planner.Generate(context.Background(), nil); err == nil {
		t.Error("expected error for nil spec")
	}
	if _, err := planner.Generate(context.Background(), &models.ProjectSpec{}); err == nil {
		t.Error("expected error for spec without goal")
	}
}
