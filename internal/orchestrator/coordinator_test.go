package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoidbergclawd/elisa-sub008/internal/agent"
	"github.com/zoidbergclawd/elisa-sub008/internal/event"
	"github.com/zoidbergclawd/elisa-sub008/internal/meeting"
	"github.com/zoidbergclawd/elisa-sub008/internal/router"
	"github.com/zoidbergclawd/elisa-sub008/internal/workspace"
	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// recorder collects events for assertions. Send may be called from the
// loop goroutine while the test reads after Run returns, so it locks.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Send(ev event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) ofType(t event.Type) []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.Event
	for _, ev := range r.events {
		if ev.EventType() == t {
			out = append(out, ev)
		}
	}
	return out
}

func testWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws := workspace.New(t.TempDir())
	if err := ws.Init(); err != nil {
		t.Fatalf("init workspace: %v", err)
	}
	return ws
}

func testSession(tasks []*models.Task, agents []*models.Agent) *models.BuildSession {
	return &models.BuildSession{
		ID:    "session-1",
		State: models.SessionIdle,
		Spec: &models.ProjectSpec{
			Goal:       "a dinosaur racing game",
			Deployment: models.Deployment{Target: models.DeployPreview},
		},
		Tasks:     tasks,
		Agents:    agents,
		StartedAt: time.Now(),
	}
}

func okRunner(summary string) agent.Runner {
	return agent.RunnerFunc(func(ctx context.Context, desc agent.TaskDescriptor) (*agent.Result, error) {
		return &agent.Result{
			Success:      true,
			Summary:      summary,
			InputTokens:  100,
			OutputTokens: 50,
			CostUSD:      0.01,
		}, nil
	})
}

func TestRunCompletesAllTasks(t *testing.T) {
	tasks := []*models.Task{
		{ID: "task-1", Name: "Scaffold project", AgentName: "Ada"},
		{ID: "task-2", Name: "Build game loop", AgentName: "Ada", DependsOn: []string{"task-1"}},
		{ID: "task-3", Name: "Test the game", AgentName: "Tess", DependsOn: []string{"task-2"}},
	}
	agents := []*models.Agent{
		{Name: "Ada", Role: models.RoleBuilder},
		{Name: "Tess", Role: models.RoleTester},
	}

	rec := &recorder{}
	c := New(testSession(tasks, agents), okRunner("All tests ran: 3 passed, 0 failed"),
		router.NewRouter(), testWorkspace(t), 500000, WithEventSink(rec))

	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.TasksDone != 3 || summary.TasksFailed != 0 || summary.NeverRan != 0 {
		t.Errorf("expected 3 done, got %+v", summary)
	}
	if summary.HealthScore != 100 || summary.Grade != "A" {
		t.Errorf("expected score 100 grade A, got %d %s", summary.HealthScore, summary.Grade)
	}
	if summary.TotalTokens != 450 {
		t.Errorf("expected 450 tokens, got %d", summary.TotalTokens)
	}

	for _, task := range tasks {
		if task.Status != models.TaskStatusDone {
			t.Errorf("task %s not done: %s", task.ID, task.Status)
		}
	}

	if got := rec.ofType(event.TypeSessionComplete); len(got) != 1 {
		t.Fatalf("expected 1 session_complete, got %d", len(got))
	}
	if got := rec.ofType(event.TypeTestResult); len(got) != 1 {
		t.Errorf("expected 1 test_result, got %d", len(got))
	} else if tr := got[0].(event.TestResult); tr.Passed != 3 || tr.Failed != 0 {
		t.Errorf("unexpected test counts: %+v", tr)
	}

	var states []models.SessionState
	for _, ev := range rec.ofType(event.TypeStateChanged) {
		states = append(states, ev.(event.StateChanged).To)
	}
	want := []models.SessionState{models.SessionPlanning, models.SessionExecuting, models.SessionDone}
	if len(states) != len(want) {
		t.Fatalf("expected states %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("state %d: expected %s, got %s", i, want[i], states[i])
		}
	}
}

func TestRunRetryThenSuccess(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	runner := agent.RunnerFunc(func(ctx context.Context, desc agent.TaskDescriptor) (*agent.Result, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return &agent.Result{Success: false, Summary: "I could not finish", InputTokens: 80, OutputTokens: 20}, nil
		}
		return &agent.Result{Success: true, Summary: "Fixed it", InputTokens: 80, OutputTokens: 20}, nil
	})

	tasks := []*models.Task{{ID: "task-1", Name: "Build it", AgentName: "Ada"}}
	agents := []*models.Agent{{Name: "Ada", Role: models.RoleBuilder}}

	rec := &recorder{}
	c := New(testSession(tasks, agents), runner, router.NewRouter(), testWorkspace(t), 500000,
		WithEventSink(rec), WithMaxRetries(1))

	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.TasksDone != 1 {
		t.Fatalf("expected 1 done, got %+v", summary)
	}
	// One correction cycle costs the 20-point correction component.
	if summary.HealthScore != 80 || summary.Grade != "B" {
		t.Errorf("expected score 80 grade B, got %d %s", summary.HealthScore, summary.Grade)
	}

	starts := rec.ofType(event.TypeTaskStarted)
	if len(starts) != 2 {
		t.Fatalf("expected 2 task_started, got %d", len(starts))
	}
	if got := starts[1].(event.TaskStarted).RetryCount; got != 1 {
		t.Errorf("expected retry count 1 on second start, got %d", got)
	}
	if tasks[0].RetryCount != 1 {
		t.Errorf("expected task retry count 1, got %d", tasks[0].RetryCount)
	}
}

func TestRunFailedTaskBlocksDependents(t *testing.T) {
	runner := agent.RunnerFunc(func(ctx context.Context, desc agent.TaskDescriptor) (*agent.Result, error) {
		return nil, errors.New("model call failed")
	})

	tasks := []*models.Task{
		{ID: "task-1", Name: "Scaffold", AgentName: "Ada"},
		{ID: "task-2", Name: "Build on it", AgentName: "Ada", DependsOn: []string{"task-1"}},
	}
	agents := []*models.Agent{{Name: "Ada", Role: models.RoleBuilder}}

	rec := &recorder{}
	c := New(testSession(tasks, agents), runner, router.NewRouter(), testWorkspace(t), 500000,
		WithEventSink(rec), WithMaxRetries(0))

	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.TasksFailed != 1 || summary.NeverRan != 1 || summary.TasksDone != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if tasks[0].Status != models.TaskStatusFailed {
		t.Errorf("expected task-1 failed, got %s", tasks[0].Status)
	}
	if tasks[1].Status != models.TaskStatusPending {
		t.Errorf("expected task-2 still pending, got %s", tasks[1].Status)
	}

	unreachable := rec.ofType(event.TypeTaskUnreachable)
	if len(unreachable) != 1 {
		t.Fatalf("expected 1 task_unreachable, got %d", len(unreachable))
	}
	tu := unreachable[0].(event.TaskUnreachable)
	if tu.TaskID != "task-2" || tu.FailedDep != "task-1" {
		t.Errorf("unexpected unreachable event: %+v", tu)
	}
}

func TestRunBudgetExhaustedBlocksDispatch(t *testing.T) {
	runner := agent.RunnerFunc(func(ctx context.Context, desc agent.TaskDescriptor) (*agent.Result, error) {
		return &agent.Result{Success: true, Summary: "done", InputTokens: 5000, OutputTokens: 500}, nil
	})

	tasks := []*models.Task{
		{ID: "task-1", Name: "First", AgentName: "Ada"},
		{ID: "task-2", Name: "Second", AgentName: "Ada"},
	}
	agents := []*models.Agent{{Name: "Ada", Role: models.RoleBuilder}}

	rec := &recorder{}
	c := New(testSession(tasks, agents), runner, router.NewRouter(), testWorkspace(t), 1000,
		WithEventSink(rec))

	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// The reservation for task-1 alone exceeds the budget, so task-2
	// never dispatches, and settled usage keeps the budget exhausted.
	if !summary.BudgetExceeded {
		t.Error("expected budget exceeded")
	}
	if summary.TasksDone != 1 || summary.NeverRan != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if got := rec.ofType(event.TypeBudgetWarning); len(got) != 1 {
		t.Errorf("expected 1 budget_warning, got %d", len(got))
	}
}

func TestRunRateLimitFallsBackOneTier(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	runner := agent.RunnerFunc(func(ctx context.Context, desc agent.TaskDescriptor) (*agent.Result, error) {
		mu.Lock()
		seen = append(seen, desc.Model)
		n := len(seen)
		mu.Unlock()
		if n == 1 {
			return nil, agent.ErrRateLimited
		}
		return &agent.Result{Success: true, Summary: "done", InputTokens: 10, OutputTokens: 10}, nil
	})

	tasks := []*models.Task{{ID: "task-1", Name: "Build", AgentName: "Ada"}}
	agents := []*models.Agent{{Name: "Ada", Role: models.RoleBuilder}}

	c := New(testSession(tasks, agents), runner, router.NewRouter(), testWorkspace(t), 500000)
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.TasksDone != 1 {
		t.Fatalf("expected task done, got %+v", summary)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("expected 2 model calls, got %v", seen)
	}
	if seen[0] != router.ModelSonnet || seen[1] != router.ModelHaiku {
		t.Errorf("expected sonnet then haiku, got %v", seen)
	}
}

func TestRunCancellationLeavesTaskPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := agent.RunnerFunc(func(ctx context.Context, desc agent.TaskDescriptor) (*agent.Result, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	})

	tasks := []*models.Task{{ID: "task-1", Name: "Build", AgentName: "Ada"}}
	agents := []*models.Agent{{Name: "Ada", Role: models.RoleBuilder}}

	c := New(testSession(tasks, agents), runner, router.NewRouter(), testWorkspace(t), 500000)
	summary, err := c.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !summary.Canceled {
		t.Error("expected canceled summary")
	}
	if tasks[0].Status != models.TaskStatusPending {
		t.Errorf("expected interrupted task pending, got %s", tasks[0].Status)
	}
	if tasks[0].RetryCount != 0 {
		t.Errorf("cancellation must not burn a retry, got %d", tasks[0].RetryCount)
	}
}

func TestRunMeetingInvitesFireOnce(t *testing.T) {
	tasks := []*models.Task{
		{ID: "task-1", Name: "First half", AgentName: "Ada"},
		{ID: "task-2", Name: "Second half", AgentName: "Ada"},
	}
	agents := []*models.Agent{{Name: "Ada", Role: models.RoleBuilder}}

	rec := &recorder{}
	c := New(testSession(tasks, agents), okRunner("done"), router.NewRouter(), testWorkspace(t), 500000,
		WithEventSink(rec),
		WithMeetings(meeting.NewEngine(meeting.DefaultTypes()...), nil),
		WithMaxAgents(1))

	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	counts := make(map[string]int)
	for _, ev := range rec.ofType(event.TypeMeetingInvite) {
		counts[ev.(event.MeetingInvite).MeetingID]++
	}

	// The first completion reaches 50% and trips both progress check-ins;
	// the second completion must not repeat them. Wrap-up fires at the end.
	want := map[string]int{
		meeting.FirstCheckIn:   1,
		meeting.MidpointReview: 1,
		meeting.WrapUp:         1,
	}
	for id, n := range want {
		if counts[id] != n {
			t.Errorf("meeting %s: expected %d invite(s), got %d", id, n, counts[id])
		}
	}
	if len(counts) != len(want) {
		t.Errorf("unexpected invites: %v", counts)
	}
}

func TestRunConcurrencyCappedAtMaxAgents(t *testing.T) {
	var current, peak atomic.Int32
	runner := agent.RunnerFunc(func(ctx context.Context, desc agent.TaskDescriptor) (*agent.Result, error) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		current.Add(-1)
		return &agent.Result{Success: true, Summary: "done", InputTokens: 10, OutputTokens: 10}, nil
	})

	var tasks []*models.Task
	for i := 1; i <= 6; i++ {
		tasks = append(tasks, &models.Task{
			ID:        fmt.Sprintf("task-%d", i),
			Name:      fmt.Sprintf("Piece %d", i),
			AgentName: "Ada",
		})
	}
	agents := []*models.Agent{{Name: "Ada", Role: models.RoleBuilder}}

	c := New(testSession(tasks, agents), runner, router.NewRouter(), testWorkspace(t), 500000,
		WithMaxAgents(2))

	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.TasksDone != 6 {
		t.Fatalf("expected 6 done, got %+v", summary)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("expected at most 2 concurrent executions, got %d", got)
	}
}

func TestRunPauseSignalHoldsDispatch(t *testing.T) {
	ws := testWorkspace(t)
	sw, err := workspace.WatchSignals(ws)
	if err != nil {
		t.Fatalf("watch signals: %v", err)
	}
	defer sw.Close()
	if err := sw.SendPause(); err != nil {
		t.Fatalf("send pause: %v", err)
	}

	var calls atomic.Int32
	runner := agent.RunnerFunc(func(ctx context.Context, desc agent.TaskDescriptor) (*agent.Result, error) {
		calls.Add(1)
		return &agent.Result{Success: true, Summary: "done", InputTokens: 10, OutputTokens: 10}, nil
	})

	tasks := []*models.Task{{ID: "task-1", Name: "Build", AgentName: "Ada"}}
	agents := []*models.Agent{{Name: "Ada", Role: models.RoleBuilder}}

	c := New(testSession(tasks, agents), runner, router.NewRouter(), ws, 500000,
		WithSignals(sw))

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := c.Run(context.Background()); err != nil {
			t.Errorf("run: %v", err)
		}
	}()

	// Several poll intervals pass with the pause file present; nothing
	// may dispatch.
	time.Sleep(500 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Fatalf("dispatched %d tasks while paused", n)
	}

	if err := os.Remove(filepath.Join(ws.SignalsDir(), workspace.SignalPause)); err != nil {
		t.Fatalf("remove pause file: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish after pause was cleared")
	}
	if tasks[0].Status != models.TaskStatusDone {
		t.Errorf("expected task done after resume, got %s", tasks[0].Status)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 execution, got %d", got)
	}
}

func TestRunRejectsCyclicPlan(t *testing.T) {
	tasks := []*models.Task{
		{ID: "task-1", Name: "A", AgentName: "Ada", DependsOn: []string{"task-2"}},
		{ID: "task-2", Name: "B", AgentName: "Ada", DependsOn: []string{"task-1"}},
	}
	agents := []*models.Agent{{Name: "Ada", Role: models.RoleBuilder}}

	c := New(testSession(tasks, agents), okRunner("done"), router.NewRouter(), testWorkspace(t), 500000)
	if _, err := c.Run(context.Background()); err == nil {
		t.Fatal("expected error for cyclic plan")
	}
}

func TestRunEmptySession(t *testing.T) {
	c := New(testSession(nil, nil), okRunner("done"), router.NewRouter(), testWorkspace(t), 500000)
	if _, err := c.Run(context.Background()); err == nil {
		t.Fatal("expected error for empty session")
	}
}
