package orchestrator

import (
	"github.com/zoidbergclawd/elisa-sub008/internal/deploy"
	"github.com/zoidbergclawd/elisa-sub008/internal/event"
	"github.com/zoidbergclawd/elisa-sub008/internal/gitops"
	"github.com/zoidbergclawd/elisa-sub008/internal/meeting"
	"github.com/zoidbergclawd/elisa-sub008/internal/state"
	"github.com/zoidbergclawd/elisa-sub008/internal/workspace"
)

// DefaultMaxAgents is how many tasks may be in flight at once.
const DefaultMaxAgents = 3

// DefaultMaxRetries is how many correction cycles a failed task gets.
const DefaultMaxRetries = 2

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithEventSink sets the sink lifecycle events are delivered to.
func WithEventSink(sink event.Sink) Option {
	return func(c *Coordinator) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// WithMaxAgents caps concurrent in-flight tasks. Values below 1 are
// ignored.
func WithMaxAgents(n int) Option {
	return func(c *Coordinator) {
		if n >= 1 {
			c.maxAgents = n
		}
	}
}

// WithMaxRetries sets the correction cycles allowed per failed task.
// Negative values are ignored; zero disables retries.
func WithMaxRetries(n int) Option {
	return func(c *Coordinator) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithGit enables checkpoint commits through the given service.
func WithGit(svc *gitops.Service) Option {
	return func(c *Coordinator) {
		c.git = svc
	}
}

// WithDeployer enables the deploying phase after execution.
func WithDeployer(d deploy.Deployer) Option {
	return func(c *Coordinator) {
		c.deployer = d
	}
}

// MeetingLedger records which meeting types already fired for a session.
// *state.DB satisfies it; tests use an in-memory map.
type MeetingLedger interface {
	MarkMeetingShown(sessionID, meetingType string) error
	MeetingShown(sessionID, meetingType string) (bool, error)
}

// WithMeetings enables milestone meeting evaluation. A nil ledger gets
// an in-memory one, so meetings dedup within the process only.
func WithMeetings(engine *meeting.Engine, ledger MeetingLedger) Option {
	return func(c *Coordinator) {
		c.meetings = engine
		if ledger != nil {
			c.meetingLedger = ledger
		}
	}
}

// WithStore enables session and health persistence.
func WithStore(db *state.DB) Option {
	return func(c *Coordinator) {
		c.store = db
	}
}

// WithSignals wires the file-based stop signal into cancellation.
func WithSignals(sw *workspace.SignalWatcher) Option {
	return func(c *Coordinator) {
		c.signals = sw
	}
}

// WithDebugLogger sets the debug logger.
func WithDebugLogger(l *DebugLogger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// memoryLedger is the in-process fallback MeetingLedger.
type memoryLedger struct {
	shown map[string]bool
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{shown: make(map[string]bool)}
}

func (m *memoryLedger) MarkMeetingShown(sessionID, meetingType string) error {
	m.shown[sessionID+"/"+meetingType] = true
	return nil
}

func (m *memoryLedger) MeetingShown(sessionID, meetingType string) (bool, error) {
	return m.shown[sessionID+"/"+meetingType], nil
}
