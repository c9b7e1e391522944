// Package plan turns a project spec into a validated task DAG, either
// by calling the planning model or by loading a plan file.
package plan

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zoidbergclawd/elisa-sub008/internal/agent"
	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

const planMaxTokens = 8192

// Result is a validated plan plus the token cost of producing it. Token
// counts are zero for plans loaded from a file.
type Result struct {
	Plan         *models.Plan
	InputTokens  int
	OutputTokens int
}

// Planner decomposes project specs into task plans via a model call.
type Planner struct {
	client agent.ModelClient
	model  string
}

// NewPlanner creates a planner that calls the given model.
func NewPlanner(client agent.ModelClient, model string) *Planner {
	return &Planner{client: client, model: model}
}

// Generate calls the planning model with the project spec and returns
// the parsed, validated plan. One retry is attempted if the first
// response fails to parse or validate; the parse error is fed back so
// the model can correct itself.
func (p *Planner) Generate(ctx context.Context, spec *models.ProjectSpec) (*Result, error) {
	if spec == nil || spec.Goal == "" {
		return nil, fmt.Errorf("project spec has no goal")
	}

	specJSON, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode project spec: %w", err)
	}
	user := metaPlannerUser(string(specJSON))

	result := &Result{}
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		prompt := user
		if lastErr != nil {
			prompt += fmt.Sprintf("\n\nYour previous plan was rejected: %v\nFix the problem and output the corrected JSON.", lastErr)
		}

		completion, err := p.client.Complete(ctx, p.model, metaPlannerSystem, prompt, planMaxTokens)
		if err != nil {
			return nil, fmt.Errorf("planning call failed: %w", err)
		}
		result.InputTokens += completion.InputTokens
		result.OutputTokens += completion.OutputTokens

		parsed, err := Parse(completion.Text)
		if err == nil {
			err = Validate(parsed)
		}
		if err == nil {
			result.Plan = parsed
			return result, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("planner produced an unusable plan: %w", lastErr)
}
