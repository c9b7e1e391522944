package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zoidbergclawd/elisa-sub008/internal/agent"
	"github.com/zoidbergclawd/elisa-sub008/internal/config"
	"github.com/zoidbergclawd/elisa-sub008/internal/deploy"
	"github.com/zoidbergclawd/elisa-sub008/internal/event"
	"github.com/zoidbergclawd/elisa-sub008/internal/exec"
	"github.com/zoidbergclawd/elisa-sub008/internal/gitops"
	"github.com/zoidbergclawd/elisa-sub008/internal/meeting"
	"github.com/zoidbergclawd/elisa-sub008/internal/orchestrator"
	"github.com/zoidbergclawd/elisa-sub008/internal/plan"
	"github.com/zoidbergclawd/elisa-sub008/internal/router"
	"github.com/zoidbergclawd/elisa-sub008/internal/state"
	"github.com/zoidbergclawd/elisa-sub008/internal/workspace"
	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

var (
	runPlanFile   string
	runDir        string
	runBudget     int
	runAgents     int
	runRetries    int
	runTarget     string
	runPort       string
	runModel      string
	runNoMeetings bool
	runNoGit      bool
	runVerbose    bool
)

var runCmd = &cobra.Command{
	Use:   "run [goal]",
	Short: "Build a project from a goal",
	Long: `Plan and build a project with a team of AI helpers.

Describe the goal in plain words, or hand Elisa a ready-made plan file:

  elisa run "a memory card game with animals"
  elisa run --plan plan.yaml

The build streams progress to the console. Press Ctrl-C (or create
.elisa/signals/stop in the project directory) to stop; finished work is
kept and committed.`,
	Args: cobra.ArbitraryArgs,
	RunE: runBuild,
}

func init() {
	runCmd.Flags().StringVar(&runPlanFile, "plan", "", "Build from a plan file (YAML or JSON) instead of planning")
	runCmd.Flags().StringVar(&runDir, "dir", ".", "Project directory")
	runCmd.Flags().IntVar(&runBudget, "budget", 0, "Token budget for the session (0 uses the configured default)")
	runCmd.Flags().IntVar(&runAgents, "agents", 0, "Max helpers working at once (0 uses the configured default)")
	runCmd.Flags().IntVar(&runRetries, "retries", -1, "Correction cycles per failed task (-1 uses the configured default)")
	runCmd.Flags().StringVar(&runTarget, "target", "", "Deploy target: preview, web, esp32, or both")
	runCmd.Flags().StringVar(&runPort, "port", "", "Serial port for hardware targets (auto-detects when empty)")
	runCmd.Flags().StringVar(&runModel, "model", "", "Pin every call to one model")
	runCmd.Flags().BoolVar(&runNoMeetings, "no-meetings", false, "Skip check-in meetings")
	runCmd.Flags().BoolVar(&runNoGit, "no-git", false, "Skip git snapshots")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Show token usage and state changes")
}

func runBuild(cmd *cobra.Command, args []string) error {
	goal := strings.TrimSpace(strings.Join(args, " "))
	if goal == "" && runPlanFile == "" {
		return fmt.Errorf("tell me what to build: elisa run \"a snake game\" (or use --plan)")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dir, err := filepath.Abs(runDir)
	if err != nil {
		return fmt.Errorf("resolve project directory: %w", err)
	}
	ws := workspace.New(dir)
	if err := ws.Init(); err != nil {
		return fmt.Errorf("prepare workspace: %w", err)
	}

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}
	rtr := buildRouter(cfg, runModel)

	target := models.DeployTarget(runTarget)
	if runTarget == "" {
		target = models.DeployTarget(cfg.Deployment.Target)
	}
	if target == "" {
		target = models.DeployPreview
	}
	if !target.Valid() {
		return fmt.Errorf("unknown deploy target %q (use preview, web, esp32, or both)", target)
	}
	port := runPort
	if port == "" {
		port = cfg.Deployment.Port
	}

	spec := &models.ProjectSpec{
		Goal:       goal,
		Deployment: models.Deployment{Target: target, Port: port},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The renderer drains the sink on its own goroutine so a slow
	// terminal never stalls the planner or the build loop.
	rend := newRenderer(buildTeacher(cfg, client, rtr), runVerbose || os.Getenv("ELISA_DEBUG") != "")
	sink := event.NewBufferedSink(256)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for ev := range sink.Events() {
			rend.handle(ev)
		}
		return nil
	})
	fail := func(err error) error {
		sink.Close()
		_ = g.Wait()
		return err
	}

	buildPlan, planTokensIn, planTokensOut, err := resolvePlan(gctx, sink, client, rtr, spec)
	if err != nil {
		return fail(err)
	}
	if goal == "" {
		spec.Goal = planGoal(buildPlan)
	}

	session := &models.BuildSession{
		ID:        newSessionID(),
		State:     models.SessionIdle,
		Spec:      spec,
		Tasks:     buildPlan.Tasks,
		Agents:    buildPlan.Agents,
		StartedAt: time.Now(),
	}

	budget := runBudget
	if budget <= 0 {
		budget = cfg.Defaults.TokenBudget
	}
	maxAgents := runAgents
	if maxAgents <= 0 {
		maxAgents = cfg.Defaults.MaxAgents
	}
	maxRetries := runRetries
	if maxRetries < 0 {
		maxRetries = cfg.Defaults.MaxRetries
	}

	opts := []orchestrator.Option{
		orchestrator.WithEventSink(sink),
		orchestrator.WithMaxAgents(maxAgents),
		orchestrator.WithMaxRetries(maxRetries),
	}

	if os.Getenv("ELISA_DEBUG") != "" {
		logger := orchestrator.NewDebugLoggerForProject(dir)
		defer logger.Close()
		opts = append(opts, orchestrator.WithDebugLogger(logger))
	}

	if !runNoGit {
		opts = append(opts, orchestrator.WithGit(gitops.NewService(exec.NewRunner(), dir)))
	}

	if target != models.DeployPreview {
		deployer, err := deploy.ForTarget(target, exec.NewRunner(), port)
		if err != nil {
			return fail(err)
		}
		if deployer != nil {
			opts = append(opts, orchestrator.WithDeployer(deployer))
		}
	}

	db, err := state.OpenProject(dir)
	if err != nil {
		warnColor.Printf("Session history unavailable: %v\n", err)
	} else {
		defer db.Close()
		if err := db.Migrate(); err != nil {
			warnColor.Printf("Session history unavailable: %v\n", err)
			db.Close()
			db = nil
		}
	}
	if db != nil {
		opts = append(opts, orchestrator.WithStore(db))
	}

	if cfg.Meetings.Enabled && !runNoMeetings {
		engine := meeting.NewEngine(meeting.DefaultTypes()...)
		var ledger orchestrator.MeetingLedger
		if db != nil {
			ledger = db
		}
		opts = append(opts, orchestrator.WithMeetings(engine, ledger))
	}

	sw, err := workspace.WatchSignals(ws)
	if err == nil {
		sw.Clear()
		defer sw.Close()
		opts = append(opts, orchestrator.WithSignals(sw))
	}

	runner := agent.NewAPIRunner(client, ws, rtr.Pricing)
	coord := orchestrator.New(session, runner, rtr, ws, budget, opts...)

	// Planner tokens count against the same session budget as the agents.
	coord.Budget().Add(planTokensIn, planTokensOut)

	g.Go(func() error {
		defer sink.Close()
		_, err := coord.Run(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			warnColor.Println("\nBuild stopped. Finished work is saved.")
			return nil
		}
		return err
	}
	return nil
}

// resolvePlan loads the plan file or asks the planner for one, reporting
// progress through the sink.
func resolvePlan(ctx context.Context, sink event.Sink, client agent.ModelClient, rtr *router.Router, spec *models.ProjectSpec) (*models.Plan, int, int, error) {
	if runPlanFile != "" {
		p, err := plan.LoadPlanFile(runPlanFile)
		if err != nil {
			return nil, 0, 0, err
		}
		sink.Send(event.PlanReady{TaskCount: len(p.Tasks), AgentCount: len(p.Agents), PlanExplanation: p.PlanExplanation})
		return p, 0, 0, nil
	}

	sink.Send(event.PlanningStarted{Goal: spec.Goal})

	plannerModel := rtr.Resolve(router.Request{Role: models.RolePlanner}).Model
	res, err := plan.NewPlanner(client, plannerModel).Generate(ctx, spec)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("planning failed: %w", err)
	}

	sink.Send(event.PlanReady{
		TaskCount:        len(res.Plan.Tasks),
		AgentCount:       len(res.Plan.Agents),
		PlanExplanation:  res.Plan.PlanExplanation,
		EstimatedMinutes: res.Plan.EstimatedTimeMinutes,
	})
	return res.Plan, res.InputTokens, res.OutputTokens, nil
}

// planGoal derives a display goal from a plan file that carries no spec.
func planGoal(p *models.Plan) string {
	if p.PlanExplanation != "" {
		return p.PlanExplanation
	}
	if len(p.Tasks) > 0 {
		return p.Tasks[0].Name
	}
	return "your project"
}
