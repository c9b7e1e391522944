package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// LoadPlanFile reads a hand-written plan from a YAML or JSON file and
// validates it. The format is chosen by extension; anything that is not
// .json is treated as YAML. Tasks default to pending and agents to idle.
func LoadPlanFile(path string) (*models.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var p models.Plan
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &p)
	} else {
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse plan file %s: %w", path, err)
	}

	for _, t := range p.Tasks {
		if t.Status == "" {
			t.Status = models.TaskStatusPending
		}
	}
	for _, a := range p.Agents {
		if a.Status == "" {
			a.Status = models.AgentStatusIdle
		}
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}
