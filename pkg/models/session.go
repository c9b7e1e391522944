package models

import "time"

// SessionState represents the lifecycle state of a build session.
type SessionState string

const (
	// SessionIdle indicates the session exists but has not started.
	SessionIdle SessionState = "idle"
	// SessionPlanning indicates the task graph is being built and validated.
	SessionPlanning SessionState = "planning"
	// SessionExecuting indicates build tasks are being dispatched.
	SessionExecuting SessionState = "executing"
	// SessionTesting indicates the test phase is running.
	SessionTesting SessionState = "testing"
	// SessionDeploying indicates the artifact is being deployed.
	SessionDeploying SessionState = "deploying"
	// SessionReviewing indicates the review phase is running.
	SessionReviewing SessionState = "reviewing"
	// SessionDone indicates the session is finished.
	SessionDone SessionState = "done"
)

// Valid returns true if the state is a known value.
func (s SessionState) Valid() bool {
	switch s {
	case SessionIdle, SessionPlanning, SessionExecuting, SessionTesting,
		SessionDeploying, SessionReviewing, SessionDone:
		return true
	default:
		return false
	}
}

// sessionTransitions lists the allowed next states for each state.
// The testing/deploying/reviewing phases may bounce between each other
// (deploy, re-test, review); everything may jump to done on cancellation.
var sessionTransitions = map[SessionState][]SessionState{
	SessionIdle:      {SessionPlanning, SessionDone},
	SessionPlanning:  {SessionExecuting, SessionDone},
	SessionExecuting: {SessionTesting, SessionDeploying, SessionReviewing, SessionDone},
	SessionTesting:   {SessionDeploying, SessionReviewing, SessionDone},
	SessionDeploying: {SessionTesting, SessionReviewing, SessionDone},
	SessionReviewing: {SessionTesting, SessionDeploying, SessionDone},
	SessionDone:      {},
}

// CanTransitionTo returns true if moving from s to next is allowed.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BuildSession represents one build from goal to artifact. It owns all
// Task and Agent instances created at plan time.
type BuildSession struct {
	// ID is the unique identifier for this session.
	ID string `json:"id"`
	// State is the current lifecycle state.
	State SessionState `json:"state"`
	// Spec is the originating project specification.
	Spec *ProjectSpec `json:"spec,omitempty"`
	// Tasks is the planned task list, in plan order.
	Tasks []*Task `json:"tasks,omitempty"`
	// Agents is the planned agent roster.
	Agents []*Agent `json:"agents,omitempty"`
	// StartedAt is when the session began.
	StartedAt time.Time `json:"started_at"`
	// FinishedAt is when the session reached done, if it has.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// TaskByID returns the session task with the given ID, or nil.
func (s *BuildSession) TaskByID(id string) *Task {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// AgentByName returns the session agent with the given name, or nil.
func (s *BuildSession) AgentByName(name string) *Agent {
	for _, a := range s.Agents {
		if a.Name == name {
			return a
		}
	}
	return nil
}
