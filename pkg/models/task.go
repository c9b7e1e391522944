package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusDone indicates the task completed successfully.
	TaskStatusDone TaskStatus = "done"
	// TaskStatusFailed indicates the task failed.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is done or failed.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusDone || s == TaskStatusFailed
}

// Task represents a unit of work in the build plan.
// Tasks are created once at plan time and mutated only by the coordinator;
// they are never deleted within a session.
type Task struct {
	// ID is the unique identifier for this task (the planner emits "task-N").
	ID string `json:"id" yaml:"id"`
	// Name is the short description of the task.
	Name string `json:"name" yaml:"name"`
	// Description provides detailed instructions for the assigned agent.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// AcceptanceCriteria lists testable conditions for task completion.
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty" yaml:"acceptance_criteria,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status" yaml:"status,omitempty"`
	// DependsOn lists task IDs that must complete before this task.
	DependsOn []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	// AgentName is the name of the agent this task is assigned to.
	AgentName string `json:"agent_name,omitempty" yaml:"agent_name,omitempty"`
	// Complexity scores how demanding the task is, in [0, 1].
	Complexity float64 `json:"complexity,omitempty" yaml:"complexity,omitempty"`
	// RetryCount is the number of times this task has been re-dispatched.
	RetryCount int `json:"retry_count,omitempty" yaml:"-"`
	// Error contains the error message if the task failed.
	Error string `json:"error,omitempty" yaml:"-"`
	// StartedAt is when the task was first dispatched, if it ran.
	StartedAt *time.Time `json:"started_at,omitempty" yaml:"-"`
	// CompletedAt is when the task settled, if it ran.
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"-"`
}
