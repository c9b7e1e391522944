package models

// DeployTarget identifies where the built artifact should run.
type DeployTarget string

const (
	// DeployPreview keeps the artifact local for in-app preview only.
	DeployPreview DeployTarget = "preview"
	// DeployWeb stages the artifact for web serving.
	DeployWeb DeployTarget = "web"
	// DeployESP32 flashes the artifact to a connected ESP32 board.
	DeployESP32 DeployTarget = "esp32"
	// DeployBoth stages for web and flashes to hardware.
	DeployBoth DeployTarget = "both"
)

// Valid returns true if the target is a known value.
func (d DeployTarget) Valid() bool {
	switch d {
	case DeployPreview, DeployWeb, DeployESP32, DeployBoth:
		return true
	default:
		return false
	}
}

// IncludesHardware returns true if the target involves flashing a board.
func (d DeployTarget) IncludesHardware() bool {
	return d == DeployESP32 || d == DeployBoth
}

// Requirement is a single feature or constraint from the project spec.
type Requirement struct {
	// Type categorizes the requirement (e.g. "feature", "constraint").
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	// Description states what the project must do.
	Description string `json:"description" yaml:"description"`
}

// StylePrefs captures the look-and-feel preferences from the spec.
type StylePrefs struct {
	// Colors names the preferred color palette.
	Colors string `json:"colors,omitempty" yaml:"colors,omitempty"`
	// Theme names the visual theme (e.g. "space", "underwater").
	Theme string `json:"theme,omitempty" yaml:"theme,omitempty"`
	// Tone describes the writing tone for in-app text.
	Tone string `json:"tone,omitempty" yaml:"tone,omitempty"`
}

// Deployment describes where and how the artifact ships.
type Deployment struct {
	// Target is the deployment destination.
	Target DeployTarget `json:"target,omitempty" yaml:"target,omitempty"`
	// Port is the serial port for hardware targets; empty auto-detects.
	Port string `json:"port,omitempty" yaml:"port,omitempty"`
}

// ProjectSpec is the originating description of what to build.
type ProjectSpec struct {
	// Goal is the one-line project goal.
	Goal string `json:"goal" yaml:"goal"`
	// Description elaborates on the goal.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Requirements lists the features and constraints.
	Requirements []Requirement `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	// Style holds look-and-feel preferences.
	Style StylePrefs `json:"style,omitempty" yaml:"style,omitempty"`
	// Deployment describes the target environment.
	Deployment Deployment `json:"deployment,omitempty" yaml:"deployment,omitempty"`
}

// Plan is the planner's decomposition of a project spec into tasks.
type Plan struct {
	// Tasks is the full task list, in plan order.
	Tasks []*Task `json:"tasks" yaml:"tasks"`
	// Agents is the roster of agents the tasks are assigned to.
	Agents []*Agent `json:"agents" yaml:"agents"`
	// PlanExplanation is a short kid-friendly summary of the plan.
	PlanExplanation string `json:"plan_explanation,omitempty" yaml:"plan_explanation,omitempty"`
	// EstimatedTimeMinutes is the planner's wall-clock estimate.
	EstimatedTimeMinutes int `json:"estimated_time_minutes,omitempty" yaml:"estimated_time_minutes,omitempty"`
	// CriticalPath is the longest chain of dependent task IDs.
	CriticalPath []string `json:"critical_path,omitempty" yaml:"critical_path,omitempty"`
}
