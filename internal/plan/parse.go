package plan

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// wirePlan mirrors the planner's JSON output. Complexity arrives as a
// word and is mapped to a score before the plan leaves this package.
type wirePlan struct {
	Tasks                []wireTask   `json:"tasks"`
	Agents               []*wireAgent `json:"agents"`
	PlanExplanation      string       `json:"plan_explanation"`
	EstimatedTimeMinutes int          `json:"estimated_time_minutes"`
	CriticalPath         []string     `json:"critical_path"`
}

type wireTask struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	Dependencies       []string `json:"dependencies"`
	AgentName          string   `json:"agent_name"`
	Complexity         string   `json:"complexity"`
}

type wireAgent struct {
	Name            string   `json:"name"`
	Role            string   `json:"role"`
	Persona         string   `json:"persona"`
	AllowedPaths    []string `json:"allowed_paths"`
	RestrictedPaths []string `json:"restricted_paths"`
}

// complexityScore maps the planner's complexity words to [0, 1] scores.
// Unknown words get the medium score.
func complexityScore(word string) float64 {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "simple":
		return 0.2
	case "complex":
		return 0.8
	default:
		return 0.5
	}
}

// Parse extracts and decodes the plan JSON from a model response. The
// response may wrap the object in prose or markdown fences; everything
// outside the outermost braces is discarded.
func Parse(response string) (*models.Plan, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object found in planner response")
	}

	var wire wirePlan
	if err := json.Unmarshal([]byte(response[start:end+1]), &wire); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}

	if len(wire.Tasks) == 0 {
		return nil, fmt.Errorf("plan contains no tasks")
	}
	if len(wire.Agents) == 0 {
		return nil, fmt.Errorf("plan contains no agents")
	}

	p := &models.Plan{
		PlanExplanation:      wire.PlanExplanation,
		EstimatedTimeMinutes: wire.EstimatedTimeMinutes,
		CriticalPath:         wire.CriticalPath,
	}
	for _, wt := range wire.Tasks {
		p.Tasks = append(p.Tasks, &models.Task{
			ID:                 wt.ID,
			Name:               wt.Name,
			Description:        wt.Description,
			AcceptanceCriteria: wt.AcceptanceCriteria,
			Status:             models.TaskStatusPending,
			DependsOn:          wt.Dependencies,
			AgentName:          wt.AgentName,
			Complexity:         complexityScore(wt.Complexity),
		})
	}
	for _, wa := range wire.Agents {
		p.Agents = append(p.Agents, &models.Agent{
			Name:            wa.Name,
			Role:            models.Role(strings.ToLower(strings.TrimSpace(wa.Role))),
			Persona:         wa.Persona,
			Status:          models.AgentStatusIdle,
			AllowedPaths:    wa.AllowedPaths,
			RestrictedPaths: wa.RestrictedPaths,
		})
	}

	return p, nil
}
