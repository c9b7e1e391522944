package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/zoidbergclawd/elisa-sub008/internal/agent"
	"github.com/zoidbergclawd/elisa-sub008/internal/event"
	"github.com/zoidbergclawd/elisa-sub008/internal/router"
	"github.com/zoidbergclawd/elisa-sub008/internal/workspace"
	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// Dispatch reservation estimate: a floor for prompt overhead plus a
// complexity-scaled allowance for the response.
const (
	reserveBaseTokens       = 8000
	reserveComplexityTokens = 16000
)

// signalPollInterval is how often the loop polls the file-based stop
// signal while waiting for completions.
const signalPollInterval = 200 * time.Millisecond

// taskOutcome is what a worker goroutine reports back when a task
// settles. All interpretation happens on the loop goroutine.
type taskOutcome struct {
	taskID    string
	agentName string
	model     string
	estimate  int
	result    *agent.Result
	err       error
}

// estimateTokens is the provisional budget hold for one dispatch.
func estimateTokens(t *models.Task) int {
	return reserveBaseTokens + int(t.Complexity*reserveComplexityTokens)
}

// runTasks drives the scheduling loop until every reachable task has
// settled, the budget blocks further dispatch, or the run is canceled.
// Graph, budget, health, and task mutation all happen here; workers only
// call the runner.
func (c *Coordinator) runTasks(ctx context.Context) (canceled, budgetExceeded bool) {
	completionCh := make(chan taskOutcome)
	inFlight := 0
	paused := false

	// done is nilled out after the first cancellation so the select
	// blocks on completions instead of spinning on the closed channel.
	done := ctx.Done()

	ticker := time.NewTicker(signalPollInterval)
	defer ticker.Stop()

	for {
		if now := c.pauseRequested(); now != paused {
			paused = now
			if paused {
				c.logger.Log("[loop] pause signal present, holding new dispatches")
				c.emit(event.Error{Message: "Build paused. Remove the pause signal to continue.", Recoverable: true})
			} else {
				c.logger.Log("[loop] pause signal cleared, resuming dispatch")
				c.emit(event.Error{Message: "Build resumed.", Recoverable: true})
			}
		}

		if !canceled && !paused {
			inFlight += c.dispatchReady(ctx, completionCh)
		}

		if inFlight == 0 {
			ready := c.graph.GetReady(c.completed)
			if canceled || len(ready) == 0 {
				return canceled, budgetExceeded
			}
			if !c.budget.CanStartNew() {
				c.logger.Log("[loop] budget exhausted with %d tasks still pending", len(ready))
				return canceled, true
			}
			// Paused with work remaining: wait for the signal to clear.
		}

		select {
		case out := <-completionCh:
			inFlight--
			c.settle(ctx, out)
		case <-done:
			c.logger.Log("[loop] context canceled, draining %d in-flight tasks", inFlight)
			canceled = true
			done = nil
		case <-ticker.C:
			if c.signals != nil && c.signals.ShouldStop() {
				c.logger.Log("[loop] stop signal received, draining %d in-flight tasks", inFlight)
				canceled = true
			}
		}
	}
}

// pauseRequested reports whether the kid's pause file is present.
func (c *Coordinator) pauseRequested() bool {
	return c.signals != nil && c.signals.ShouldPause()
}

// dispatchReady starts every ready task the agent cap and budget allow,
// returning how many workers it launched. GetReady only returns pending
// tasks, and each dispatch flips its task to in-progress, so repeated
// calls never double-dispatch.
func (c *Coordinator) dispatchReady(ctx context.Context, completionCh chan<- taskOutcome) int {
	launched := 0
	for c.inFlightCount() < c.maxAgents && c.budget.CanStartNew() {
		ready := c.graph.GetReady(c.completed)
		if len(ready) == 0 {
			break
		}
		if c.dispatch(ctx, c.taskMap[ready[0]], completionCh) {
			launched++
		}
	}
	return launched
}

func (c *Coordinator) inFlightCount() int {
	n := 0
	for _, t := range c.session.Tasks {
		if t.Status == models.TaskStatusInProgress {
			n++
		}
	}
	return n
}

// dispatch reserves budget, resolves the model, assembles the task
// briefing, and hands the task to a worker goroutine.
func (c *Coordinator) dispatch(ctx context.Context, t *models.Task, completionCh chan<- taskOutcome) bool {
	ag := c.session.AgentByName(t.AgentName)
	if ag == nil {
		// Validation guarantees assignment; an unknown agent here is a
		// programming error, settle the task as failed without a worker.
		t.Status = models.TaskStatusFailed
		t.Error = "no agent assigned"
		c.emit(event.TaskFailed{TaskID: t.ID, Error: t.Error})
		return false
	}

	estimate := estimateTokens(t)
	c.budget.Reserve(estimate)

	decision := c.router.Resolve(router.Request{
		Role:            ag.Role,
		Complexity:      t.Complexity,
		RetryCount:      t.RetryCount,
		BudgetRemaining: c.budget.BudgetRemaining(),
		BudgetTotal:     c.budget.MaxTokens(),
	})
	c.logger.Log("[dispatch] %s -> %s on %s (%s)", t.ID, ag.Name, decision.Model, decision.Reason)

	briefing := workspace.AssembleTaskContext(t.ID, c.taskMap, c.summaries, c.ws.Root())

	now := time.Now()
	t.Status = models.TaskStatusInProgress
	if t.StartedAt == nil {
		t.StartedAt = &now
	}
	ag.Status = models.AgentStatusWorking

	c.emitAndEvaluate(event.TaskStarted{
		TaskID:      t.ID,
		TaskName:    t.Name,
		Description: t.Description,
		AgentName:   ag.Name,
		AgentRole:   ag.Role,
		RetryCount:  t.RetryCount,
	})

	desc := agent.TaskDescriptor{
		Task:    t,
		Agent:   ag,
		Spec:    c.session.Spec,
		Context: briefing,
		Model:   decision.Model,
	}

	go func() {
		res, err := c.runner.Execute(ctx, desc)
		if errors.Is(err, agent.ErrRateLimited) {
			// One tier down, one more try. The call-level backoff has
			// already been exhausted inside the runner.
			fb := c.router.ResolveFallback(desc.Model)
			c.logger.Log("[worker] %s rate limited on %s, retrying on %s", t.ID, desc.Model, fb.Model)
			desc.Model = fb.Model
			res, err = c.runner.Execute(ctx, desc)
		}
		completionCh <- taskOutcome{
			taskID:    t.ID,
			agentName: ag.Name,
			model:     desc.Model,
			estimate:  estimate,
			result:    res,
			err:       err,
		}
	}()
	return true
}

// settle interprets one task outcome: releases the reservation, accounts
// usage, and routes to the success or failure path.
func (c *Coordinator) settle(ctx context.Context, out taskOutcome) {
	c.budget.ReleaseReservation(out.estimate)

	t := c.taskMap[out.taskID]
	ag := c.session.AgentByName(out.agentName)

	if out.result != nil {
		c.accountUsage(out.agentName, out.result)
	}

	switch {
	case out.err != nil && ctx.Err() != nil:
		// Canceled mid-call. The task goes back to pending untouched so a
		// resumed session can run it.
		t.Status = models.TaskStatusPending
		if ag != nil {
			ag.Status = models.AgentStatusIdle
		}
		c.logger.Log("[settle] %s interrupted by cancellation", t.ID)
	case out.err != nil:
		c.settleFailure(t, ag, out.err.Error())
	case !out.result.Success:
		c.settleFailure(t, ag, failureMessage(out.result.Summary))
	default:
		c.settleSuccess(ctx, t, ag, out.result)
	}

	c.persistSession()
	c.writeStatusFiles()
}

func failureMessage(summary string) string {
	if summary == "" {
		return "agent did not complete the task"
	}
	return summary
}

// accountUsage records settled tokens and cost against the budget and
// health counters and reports them.
func (c *Coordinator) accountUsage(agentName string, res *agent.Result) {
	c.budget.AddForAgent(agentName, res.InputTokens, res.OutputTokens, res.CostUSD)
	c.scorer.RecordTokens(res.InputTokens + res.OutputTokens)

	c.emit(event.TokenUsage{
		AgentName:    agentName,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
		CostUSD:      res.CostUSD,
		TotalTokens:  c.budget.ActualTotal(),
		BudgetMax:    c.budget.MaxTokens(),
	})

	if c.budget.CheckWarning() {
		used, max, fraction := c.budget.GetUsage()
		c.emit(event.BudgetWarning{UsedTokens: used, MaxTokens: max, Fraction: fraction})
	}
}

// settleFailure retries the task if correction cycles remain, otherwise
// marks it failed and reports every dependent that can no longer run.
func (c *Coordinator) settleFailure(t *models.Task, ag *models.Agent, errMsg string) {
	if t.RetryCount < c.maxRetries {
		t.RetryCount++
		t.Status = models.TaskStatusPending
		t.Error = errMsg
		if ag != nil {
			ag.Status = models.AgentStatusIdle
		}
		c.scorer.RecordCorrection()
		c.logger.Log("[settle] %s failed (%s), retry %d of %d", t.ID, errMsg, t.RetryCount, c.maxRetries)
		c.emit(event.Error{
			Message:     "task " + t.ID + " hit a snag, trying again: " + errMsg,
			Recoverable: true,
		})
		c.recordHealth()
		return
	}

	now := time.Now()
	t.Status = models.TaskStatusFailed
	t.Error = errMsg
	t.CompletedAt = &now
	if ag != nil {
		ag.Status = models.AgentStatusError
	}

	c.logger.Log("[settle] %s failed permanently: %s", t.ID, errMsg)
	c.emitAndEvaluate(event.TaskFailed{
		TaskID:     t.ID,
		AgentName:  t.AgentName,
		Error:      errMsg,
		RetryCount: t.RetryCount,
	})

	c.markUnreachable(t.ID)
	c.recordHealth()
}

// markUnreachable walks the dependent closure of a failed task and emits
// TaskUnreachable once per affected task. The tasks themselves stay
// pending; GetReady will simply never return them.
func (c *Coordinator) markUnreachable(failedID string) {
	stack := c.graph.GetDependents(failedID)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if c.unreachable[id] {
			continue
		}
		c.unreachable[id] = true
		c.emit(event.TaskUnreachable{TaskID: id, FailedDep: failedID})
		stack = append(stack, c.graph.GetDependents(id)...)
	}
}

// settleSuccess records the completion: summary capture, health and test
// accounting, progress event, checkpoint commit.
func (c *Coordinator) settleSuccess(ctx context.Context, t *models.Task, ag *models.Agent, res *agent.Result) {
	now := time.Now()
	t.Status = models.TaskStatusDone
	t.Error = ""
	t.CompletedAt = &now
	c.completed[t.ID] = true

	// Prefer the summary the agent wrote to its comms file; it may have
	// refined it after the model response.
	summary := c.ws.ReadTaskSummary(t.ID)
	if summary == "" {
		summary = res.Summary
	}
	c.summaries[t.ID] = summary

	if ag != nil {
		if c.agentHasRemainingTasks(ag.Name) {
			ag.Status = models.AgentStatusIdle
		} else {
			ag.Status = models.AgentStatusDone
		}
	}

	c.scorer.RecordTaskDone()

	if ag != nil && ag.Role == models.RoleTester {
		passed, failed, ok := agent.ParseTestCounts(summary)
		if !ok {
			// No parseable counts: the tester task itself succeeded, so it
			// counts as a single passing test.
			passed, failed = 1, 0
		}
		c.scorer.RecordTestResults(passed, failed)
		c.emit(event.TestResult{TaskID: t.ID, Passed: passed, Failed: failed, Summary: firstLine(summary)})
	}

	target := models.DeployPreview
	if c.session.Spec != nil {
		target = c.session.Spec.Deployment.Target
	}

	c.logger.Log("[settle] %s done (%d/%d)", t.ID, len(c.completed), len(c.session.Tasks))
	c.emitAndEvaluate(event.TaskCompleted{
		TaskID:       t.ID,
		AgentName:    t.AgentName,
		AgentRole:    agentRole(ag),
		Summary:      firstLine(summary),
		TasksDone:    len(c.completed),
		TasksTotal:   len(c.session.Tasks),
		DeployTarget: target,
	})

	c.checkpointCommit(ctx, t, t.AgentName, summary)
	c.recordHealth()
}

func (c *Coordinator) agentHasRemainingTasks(agentName string) bool {
	for _, t := range c.session.Tasks {
		if t.AgentName == agentName && !t.Status.Terminal() {
			return true
		}
	}
	return false
}

func agentRole(ag *models.Agent) models.Role {
	if ag == nil {
		return ""
	}
	return ag.Role
}
