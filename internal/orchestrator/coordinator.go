package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zoidbergclawd/elisa-sub008/internal/agent"
	"github.com/zoidbergclawd/elisa-sub008/internal/deploy"
	"github.com/zoidbergclawd/elisa-sub008/internal/event"
	"github.com/zoidbergclawd/elisa-sub008/internal/gitops"
	"github.com/zoidbergclawd/elisa-sub008/internal/graph"
	"github.com/zoidbergclawd/elisa-sub008/internal/health"
	"github.com/zoidbergclawd/elisa-sub008/internal/meeting"
	"github.com/zoidbergclawd/elisa-sub008/internal/router"
	"github.com/zoidbergclawd/elisa-sub008/internal/state"
	"github.com/zoidbergclawd/elisa-sub008/internal/workspace"
	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// Summary is the final account of a build run.
type Summary struct {
	TasksDone      int     `json:"tasks_done"`
	TasksFailed    int     `json:"tasks_failed"`
	NeverRan       int     `json:"never_ran"`
	HealthScore    int     `json:"health_score"`
	Grade          string  `json:"grade"`
	TotalTokens    int     `json:"total_tokens"`
	TotalCost      float64 `json:"total_cost"`
	BudgetExceeded bool    `json:"budget_exceeded"`
	Canceled       bool    `json:"canceled"`
}

// Coordinator drives one build session from validated plan to final
// summary. All graph, budget, and health mutation happens on the single
// goroutine running Run; worker goroutines only execute tasks and report
// back through the completion channel.
type Coordinator struct {
	session *models.BuildSession
	runner  agent.Runner
	router  *router.Router
	ws      *workspace.Workspace

	graph  *graph.TaskGraph
	budget *BudgetTracker
	scorer *health.Scorer

	sink          event.Sink
	git           *gitops.Service
	deployer      deploy.Deployer
	meetings      *meeting.Engine
	meetingLedger MeetingLedger
	store         *state.DB
	signals       *workspace.SignalWatcher
	logger        *DebugLogger

	maxAgents  int
	maxRetries int

	// Run-loop state, owned by the coordinating goroutine.
	completed   map[string]bool
	summaries   map[string]string
	unreachable map[string]bool
	taskMap     map[string]*models.Task
}

// New creates a coordinator for a planned session. The session must
// carry its tasks and agents; tokenBudget of zero or less disables the
// budget.
func New(session *models.BuildSession, runner agent.Runner, modelRouter *router.Router, ws *workspace.Workspace, tokenBudget int, opts ...Option) *Coordinator {
	c := &Coordinator{
		session:       session,
		runner:        runner,
		router:        modelRouter,
		ws:            ws,
		budget:        NewBudgetTracker(tokenBudget),
		scorer:        health.NewScorer(tokenBudget),
		sink:          event.NopSink{},
		meetingLedger: newMemoryLedger(),
		logger:        NopLogger(),
		maxAgents:     DefaultMaxAgents,
		maxRetries:    DefaultMaxRetries,
		completed:     make(map[string]bool),
		summaries:     make(map[string]string),
		unreachable:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Budget exposes the session budget tracker.
func (c *Coordinator) Budget() *BudgetTracker {
	return c.budget
}

// Health exposes the session health scorer.
func (c *Coordinator) Health() *health.Scorer {
	return c.scorer
}

// Run executes the session: validate the plan into a task graph, run
// the scheduling loop, deploy if configured, and emit the final
// summary. Cancellation is cooperative; in-flight work settles and is
// accounted before Run returns.
func (c *Coordinator) Run(ctx context.Context) (*Summary, error) {
	if c.session == nil || len(c.session.Tasks) == 0 {
		return nil, fmt.Errorf("session has no tasks")
	}

	c.logger.Log("[run] session %s starting with %d tasks, %d agents",
		c.session.ID, len(c.session.Tasks), len(c.session.Agents))

	if err := c.transition(models.SessionPlanning); err != nil {
		return nil, err
	}
	c.persistSession()

	// Plan validation happens before any dispatch: a bad plan never
	// partially executes.
	c.graph = graph.New()
	c.graph.SetDebugLog(c.logger.Log)
	if err := c.graph.Build(c.session.Tasks); err != nil {
		c.finishSession()
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	c.taskMap = make(map[string]*models.Task, len(c.session.Tasks))
	for _, t := range c.session.Tasks {
		c.taskMap[t.ID] = t
	}
	c.scorer.SetTasksTotal(len(c.session.Tasks))

	if c.git != nil && c.session.Spec != nil {
		if err := c.git.InitRepo(ctx, c.session.Spec.Goal); err != nil {
			c.emit(event.Error{Message: fmt.Sprintf("git init failed: %v", err), Recoverable: true})
		}
	}

	if err := c.transition(models.SessionExecuting); err != nil {
		return nil, err
	}
	c.persistSession()

	canceled, budgetExceeded := c.runTasks(ctx)

	if c.deployer != nil && !canceled && c.failedCount() == 0 {
		if err := c.transition(models.SessionDeploying); err == nil {
			c.runDeploy(ctx)
		}
	}

	c.transition(models.SessionDone)
	now := time.Now()
	c.session.FinishedAt = &now

	summary := c.buildSummary(canceled, budgetExceeded)
	c.emitAndEvaluate(event.SessionComplete{
		SessionID:   c.session.ID,
		TasksDone:   summary.TasksDone,
		TasksFailed: summary.TasksFailed,
		NeverRan:    summary.NeverRan,
		HealthScore: summary.HealthScore,
		Grade:       summary.Grade,
		TotalTokens: summary.TotalTokens,
		TotalCost:   summary.TotalCost,
	})

	c.finishSession()
	c.writeStatusFiles()

	c.logger.Log("[run] session %s done: %d done, %d failed, %d never ran",
		c.session.ID, summary.TasksDone, summary.TasksFailed, summary.NeverRan)

	if canceled && ctx.Err() != nil {
		return summary, ctx.Err()
	}
	return summary, nil
}

// transition moves the session to the next state and emits the change.
// Illegal transitions are rejected.
func (c *Coordinator) transition(next models.SessionState) error {
	from := c.session.State
	if from == next {
		return nil
	}
	if !from.CanTransitionTo(next) {
		return fmt.Errorf("illegal session transition %s -> %s", from, next)
	}
	c.session.State = next
	c.logger.Log("[state] %s -> %s", from, next)
	c.emit(event.StateChanged{SessionID: c.session.ID, From: from, To: next})
	return nil
}

// emit delivers an event to the sink.
func (c *Coordinator) emit(ev event.Event) {
	c.sink.Send(ev)
}

// emitAndEvaluate delivers an event and matches it against the meeting
// registry. Each meeting type fires at most once per session.
func (c *Coordinator) emitAndEvaluate(ev event.Event) {
	c.emit(ev)
	if c.meetings == nil {
		return
	}

	taskID := ""
	switch e := ev.(type) {
	case event.TaskStarted:
		taskID = e.TaskID
	case event.TaskCompleted:
		taskID = e.TaskID
	}

	for _, t := range c.meetings.Evaluate(ev) {
		shown, err := c.meetingLedger.MeetingShown(c.session.ID, t.ID)
		if err != nil {
			c.logger.Log("[meeting] ledger check for %s: %v", t.ID, err)
			continue
		}
		if shown {
			continue
		}
		if err := c.meetingLedger.MarkMeetingShown(c.session.ID, t.ID); err != nil {
			c.logger.Log("[meeting] ledger mark for %s: %v", t.ID, err)
		}
		c.emit(event.MeetingInvite{
			MeetingID:   t.ID,
			DisplayName: t.DisplayName,
			Persona:     t.Persona,
			Kind:        t.Kind,
			TaskID:      taskID,
		})
	}
}

// runDeploy ships the artifact and reports the outcome as events. A
// failed deployment never fails the session.
func (c *Coordinator) runDeploy(ctx context.Context) {
	target := models.DeployPreview
	if c.session.Spec != nil {
		target = c.session.Spec.Deployment.Target
	}

	c.emit(event.DeployStarted{Target: target})
	res, err := c.deployer.Deploy(ctx, c.ws.Root())
	if err != nil {
		c.emit(event.Error{Message: fmt.Sprintf("deploy failed: %v", err), Recoverable: true})
		return
	}
	if !res.Success {
		c.emit(event.Error{Message: res.Message, Recoverable: true})
		return
	}
	c.emit(event.DeployComplete{Target: res.Target})
}

func (c *Coordinator) failedCount() int {
	n := 0
	for _, t := range c.session.Tasks {
		if t.Status == models.TaskStatusFailed {
			n++
		}
	}
	return n
}

func (c *Coordinator) buildSummary(canceled, budgetExceeded bool) *Summary {
	s := &Summary{
		Canceled:       canceled,
		BudgetExceeded: budgetExceeded,
		TotalTokens:    c.budget.ActualTotal(),
		TotalCost:      c.budget.TotalCost(),
	}
	for _, t := range c.session.Tasks {
		switch t.Status {
		case models.TaskStatusDone:
			s.TasksDone++
		case models.TaskStatusFailed:
			s.TasksFailed++
		default:
			s.NeverRan++
		}
	}
	s.HealthScore = c.scorer.ComputeScore()
	s.Grade = health.ScoreToGrade(s.HealthScore)
	return s
}

// persistSession upserts the session row. Persistence failures are
// logged, never fatal.
func (c *Coordinator) persistSession() {
	if c.store == nil {
		return
	}
	goal := ""
	if c.session.Spec != nil {
		goal = c.session.Spec.Goal
	}
	rec := &state.SessionRecord{
		ID:          c.session.ID,
		Goal:        goal,
		State:       c.session.State,
		TokenBudget: c.budget.MaxTokens(),
		TokensUsed:  c.budget.ActualTotal(),
		CostUSD:     c.budget.TotalCost(),
		StartedAt:   c.session.StartedAt,
		FinishedAt:  c.session.FinishedAt,
	}
	existing, err := c.store.GetSession(c.session.ID)
	if err != nil {
		c.logger.Log("[state] get session: %v", err)
		return
	}
	if existing == nil {
		err = c.store.CreateSession(rec)
	} else {
		err = c.store.UpdateSession(rec)
	}
	if err != nil {
		c.logger.Log("[state] persist session: %v", err)
	}
}

func (c *Coordinator) finishSession() {
	c.persistSession()
}

// recordHealth emits the current health score and persists a snapshot.
func (c *Coordinator) recordHealth() {
	summary := c.scorer.Summary()
	c.emit(event.HealthUpdate{Score: summary.Score, Grade: summary.Grade})

	if c.store == nil {
		return
	}
	goal := ""
	if c.session.Spec != nil {
		goal = c.session.Spec.Goal
	}
	err := c.store.AddHealthSnapshot(&state.HealthSnapshot{
		SessionID:  c.session.ID,
		RecordedAt: time.Now(),
		Goal:       goal,
		Score:      summary.Score,
		Grade:      summary.Grade,
		Breakdown:  summary.Breakdown,
	})
	if err != nil {
		c.logger.Log("[state] health snapshot: %v", err)
	}
}

// writeStatusFiles refreshes the external observer files. Failures are
// logged only.
func (c *Coordinator) writeStatusFiles() {
	if c.ws == nil {
		return
	}
	if err := c.ws.WriteCurrentState(c.session.Tasks, c.session.Agents); err != nil {
		c.logger.Log("[workspace] write current state: %v", err)
	}
	if err := c.ws.WriteProjectContext(workspace.BuildProjectContext(c.summaries, c.completed)); err != nil {
		c.logger.Log("[workspace] write project context: %v", err)
	}
}

// checkpointCommit records a task's work as a git commit.
func (c *Coordinator) checkpointCommit(ctx context.Context, t *models.Task, agentName, summary string) {
	if c.git == nil {
		return
	}
	msg := t.Name
	if line := firstLine(summary); line != "" {
		msg = line
	}
	info, err := c.git.Commit(ctx, msg, agentName, t.ID)
	if err != nil {
		c.emit(event.Error{Message: fmt.Sprintf("checkpoint commit for %s failed: %v", t.ID, err), Recoverable: true})
		return
	}
	if info == nil {
		return
	}
	c.emit(event.CommitCreated{
		TaskID:       t.ID,
		SHA:          info.SHA,
		ShortSHA:     info.ShortSHA,
		Message:      info.Message,
		AgentName:    agentName,
		FilesChanged: info.FilesChanged,
	})
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
