// Package event defines the typed lifecycle events the build loop emits
// and the fire-and-forget sinks that carry them to observers.
package event

import "github.com/zoidbergclawd/elisa-sub008/pkg/models"

// Type identifies an event variant. The string values form the wire
// vocabulary consumed by external observers and trigger conditions.
type Type string

const (
	TypePlanningStarted Type = "planning_started"
	TypePlanReady       Type = "plan_ready"
	TypeStateChanged    Type = "state_changed"
	TypeTaskStarted     Type = "task_started"
	TypeTaskCompleted   Type = "task_completed"
	TypeTaskFailed      Type = "task_failed"
	TypeTaskUnreachable Type = "task_unreachable"
	TypeAgentMessage    Type = "agent_message"
	TypeTokenUsage      Type = "token_usage"
	TypeBudgetWarning   Type = "budget_warning"
	TypeHealthUpdate    Type = "system_health_update"
	TypeHealthSummary   Type = "system_health_summary"
	TypeMeetingInvite   Type = "meeting_invite"
	TypeCommitCreated   Type = "commit_created"
	TypeTestResult      Type = "test_result"
	TypeDeployStarted   Type = "deploy_started"
	TypeDeployProgress  Type = "deploy_progress"
	TypeDeployComplete  Type = "deploy_complete"
	TypeSessionComplete Type = "session_complete"
	TypeError           Type = "error"
)

// Event is the interface implemented by every lifecycle event variant.
// Consumers dispatch on the concrete type via a type switch, never by
// probing optional fields.
type Event interface {
	EventType() Type
}

// PlanningStarted is emitted when plan decomposition begins.
type PlanningStarted struct {
	SessionID string
	Goal      string
}

func (PlanningStarted) EventType() Type { return TypePlanningStarted }

// PlanReady is emitted when the planner has produced a validated plan.
type PlanReady struct {
	SessionID        string
	TaskCount        int
	AgentCount       int
	PlanExplanation  string
	EstimatedMinutes int
}

func (PlanReady) EventType() Type { return TypePlanReady }

// StateChanged is emitted on every build session state transition.
type StateChanged struct {
	SessionID string
	From      models.SessionState
	To        models.SessionState
}

func (StateChanged) EventType() Type { return TypeStateChanged }

// TaskStarted is emitted when a task is dispatched to its agent.
type TaskStarted struct {
	TaskID      string
	TaskName    string
	Description string
	AgentName   string
	AgentRole   models.Role
	RetryCount  int
}

func (TaskStarted) EventType() Type { return TypeTaskStarted }

// TaskCompleted is emitted when a task settles successfully. It carries
// the running done/total counts so threshold trigger conditions can match
// on build progress.
type TaskCompleted struct {
	TaskID       string
	AgentName    string
	AgentRole    models.Role
	Summary      string
	TasksDone    int
	TasksTotal   int
	DeployTarget models.DeployTarget
}

func (TaskCompleted) EventType() Type { return TypeTaskCompleted }

// TaskFailed is emitted when a task settles unsuccessfully after its
// retries are exhausted.
type TaskFailed struct {
	TaskID     string
	AgentName  string
	Error      string
	RetryCount int
}

func (TaskFailed) EventType() Type { return TypeTaskFailed }

// TaskUnreachable is emitted once per task that can never run because a
// transitive dependency failed. The task itself stays pending.
type TaskUnreachable struct {
	TaskID    string
	FailedDep string
}

func (TaskUnreachable) EventType() Type { return TypeTaskUnreachable }

// AgentMessage carries a conversational progress message from an agent.
type AgentMessage struct {
	AgentName string
	Text      string
}

func (AgentMessage) EventType() Type { return TypeAgentMessage }

// TokenUsage is emitted after each agent call settles.
type TokenUsage struct {
	AgentName    string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	TotalTokens  int
	BudgetMax    int
}

func (TokenUsage) EventType() Type { return TypeTokenUsage }

// BudgetWarning is emitted exactly once, the first time actual usage
// crosses the warning threshold.
type BudgetWarning struct {
	UsedTokens int
	MaxTokens  int
	Fraction   float64
}

func (BudgetWarning) EventType() Type { return TypeBudgetWarning }

// HealthUpdate carries the current composite health score.
type HealthUpdate struct {
	Score int
	Grade string
}

func (HealthUpdate) EventType() Type { return TypeHealthUpdate }

// HealthSummary carries the per-component health breakdown.
type HealthSummary struct {
	Summary models.HealthSummary
}

func (HealthSummary) EventType() Type { return TypeHealthSummary }

// MeetingInvite is emitted when a trigger condition matches and the
// meeting has not been shown before in this session.
type MeetingInvite struct {
	MeetingID   string
	DisplayName string
	Persona     string
	Kind        string
	TaskID      string
}

func (MeetingInvite) EventType() Type { return TypeMeetingInvite }

// CommitCreated is emitted after a checkpoint commit lands.
type CommitCreated struct {
	TaskID       string
	SHA          string
	ShortSHA     string
	Message      string
	AgentName    string
	FilesChanged int
}

func (CommitCreated) EventType() Type { return TypeCommitCreated }

// TestResult is emitted when a tester task reports its counts.
type TestResult struct {
	TaskID  string
	Passed  int
	Failed  int
	Summary string
}

func (TestResult) EventType() Type { return TypeTestResult }

// DeployStarted is emitted when a deployment begins.
type DeployStarted struct {
	Target models.DeployTarget
}

func (DeployStarted) EventType() Type { return TypeDeployStarted }

// DeployProgress reports a deployment stage and percent complete.
type DeployProgress struct {
	Target   models.DeployTarget
	Stage    string
	Progress int
}

func (DeployProgress) EventType() Type { return TypeDeployProgress }

// DeployComplete is emitted when a deployment finishes.
type DeployComplete struct {
	Target models.DeployTarget
	URL    string
}

func (DeployComplete) EventType() Type { return TypeDeployComplete }

// SessionComplete is emitted once at the end of a build. NeverRan counts
// tasks left pending because a dependency failed.
type SessionComplete struct {
	SessionID   string
	TasksDone   int
	TasksFailed int
	NeverRan    int
	HealthScore int
	Grade       string
	TotalTokens int
	TotalCost   float64
}

func (SessionComplete) EventType() Type { return TypeSessionComplete }

// Error carries a user-visible error. Recoverable errors do not stop the
// build.
type Error struct {
	Message     string
	Recoverable bool
}

func (Error) EventType() Type { return TypeError }
