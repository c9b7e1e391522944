package models

// Role represents the kind of work an agent performs.
type Role string

const (
	// RoleBuilder writes code and implements features.
	RoleBuilder Role = "builder"
	// RoleTester writes tests and verifies acceptance criteria.
	RoleTester Role = "tester"
	// RoleReviewer checks code quality and completeness.
	RoleReviewer Role = "reviewer"
	// RoleCustom is a user-defined role with its own prompt.
	RoleCustom Role = "custom"
	// RolePlanner is the top-level planning call that decomposes the
	// project into tasks. It is never assigned to a plan agent, but the
	// model router treats it specially.
	RolePlanner Role = "planner"
)

// Valid returns true if the role can be assigned to a plan agent.
func (r Role) Valid() bool {
	switch r {
	case RoleBuilder, RoleTester, RoleReviewer, RoleCustom:
		return true
	default:
		return false
	}
}

// AgentStatus represents the current state of an agent.
type AgentStatus string

const (
	// AgentStatusIdle indicates the agent has no task in flight.
	AgentStatusIdle AgentStatus = "idle"
	// AgentStatusWorking indicates the agent is executing a task.
	AgentStatusWorking AgentStatus = "working"
	// AgentStatusWaiting indicates the agent is blocked on dependencies.
	AgentStatusWaiting AgentStatus = "waiting"
	// AgentStatusDone indicates the agent finished all of its tasks.
	AgentStatusDone AgentStatus = "done"
	// AgentStatusError indicates the agent's last task failed.
	AgentStatusError AgentStatus = "error"
)

// Valid returns true if the status is a known value.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusIdle, AgentStatusWorking, AgentStatusWaiting,
		AgentStatusDone, AgentStatusError:
		return true
	default:
		return false
	}
}

// Agent represents a named worker that executes tasks via a model call.
type Agent struct {
	// Name is the agent's display name (e.g. "Builder Bot").
	Name string `json:"name" yaml:"name"`
	// Role determines the agent's prompt module and default model tier.
	Role Role `json:"role" yaml:"role"`
	// Persona is a short character description woven into the prompt.
	Persona string `json:"persona,omitempty" yaml:"persona,omitempty"`
	// Status is the current state of the agent.
	Status AgentStatus `json:"status" yaml:"-"`
	// AllowedPaths lists directories the agent may create or modify files in.
	AllowedPaths []string `json:"allowed_paths,omitempty" yaml:"allowed_paths,omitempty"`
	// RestrictedPaths lists directories the agent must not touch.
	RestrictedPaths []string `json:"restricted_paths,omitempty" yaml:"restricted_paths,omitempty"`
}
