package plan

import (
	"fmt"

	"github.com/zoidbergclawd/elisa-sub008/internal/graph"
	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// Validate checks that a plan is executable: tasks form a valid DAG,
// every task is assigned to a declared agent, and every agent has a
// role the executor understands. Validation runs before any dispatch.
func Validate(p *models.Plan) error {
	if p == nil || len(p.Tasks) == 0 {
		return fmt.Errorf("plan has no tasks")
	}
	if len(p.Agents) == 0 {
		return fmt.Errorf("plan has no agents")
	}

	agents := make(map[string]*models.Agent, len(p.Agents))
	for _, a := range p.Agents {
		if a.Name == "" {
			return fmt.Errorf("agent has empty name")
		}
		if _, exists := agents[a.Name]; exists {
			return fmt.Errorf("duplicate agent name %s", a.Name)
		}
		if !a.Role.Valid() {
			return fmt.Errorf("agent %s has invalid role %q", a.Name, a.Role)
		}
		agents[a.Name] = a
	}

	for _, t := range p.Tasks {
		if t.AgentName == "" {
			return fmt.Errorf("task %s has no agent assigned", t.ID)
		}
		if _, ok := agents[t.AgentName]; !ok {
			return fmt.Errorf("task %s assigned to unknown agent %s", t.ID, t.AgentName)
		}
	}

	// Build catches duplicate IDs, dangling dependencies, and cycles.
	g := graph.New()
	if err := g.Build(p.Tasks); err != nil {
		return fmt.Errorf("invalid task graph: %w", err)
	}

	return nil
}
