package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/zoidbergclawd/elisa-sub008/internal/event"
	"github.com/zoidbergclawd/elisa-sub008/internal/meeting"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	agentColor   = color.New(color.FgMagenta)
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed)
	lessonColor  = color.New(color.FgBlue)
	subtleColor  = color.New(color.Faint)
	meetingColor = color.New(color.FgYellow, color.Bold)
)

// renderer turns lifecycle events into the colored console stream. It
// runs on the buffered sink's delivery goroutine, so printing in order
// needs no further locking.
type renderer struct {
	teacher *meeting.Teacher
	verbose bool
}

func newRenderer(teacher *meeting.Teacher, verbose bool) *renderer {
	return &renderer{teacher: teacher, verbose: verbose}
}

func (r *renderer) handle(ev event.Event) {
	switch e := ev.(type) {
	case event.PlanningStarted:
		headerColor.Printf("\nPlanning: %s\n", e.Goal)
	case event.PlanReady:
		okColor.Printf("Plan ready: %d tasks for %d helpers", e.TaskCount, e.AgentCount)
		if e.EstimatedMinutes > 0 {
			subtleColor.Printf(" (about %d minutes)", e.EstimatedMinutes)
		}
		fmt.Println()
		if e.PlanExplanation != "" {
			fmt.Printf("  %s\n", e.PlanExplanation)
		}
	case event.StateChanged:
		if r.verbose {
			subtleColor.Printf("  [%s -> %s]\n", e.From, e.To)
		}
	case event.TaskStarted:
		prefix := "started"
		if e.RetryCount > 0 {
			prefix = fmt.Sprintf("retrying (attempt %d)", e.RetryCount+1)
		}
		fmt.Printf("%s %s: %s\n", agentColor.Sprint(e.AgentName), prefix, e.TaskName)
	case event.TaskCompleted:
		okColor.Printf("✓ %s finished %s (%d/%d)\n", e.AgentName, e.TaskID, e.TasksDone, e.TasksTotal)
		if e.Summary != "" {
			subtleColor.Printf("  %s\n", e.Summary)
		}
	case event.TaskFailed:
		failColor.Printf("✗ %s could not finish %s: %s\n", e.AgentName, e.TaskID, e.Error)
	case event.TaskUnreachable:
		warnColor.Printf("  %s is blocked because %s failed\n", e.TaskID, e.FailedDep)
	case event.AgentMessage:
		fmt.Printf("%s: %s\n", agentColor.Sprint(e.AgentName), e.Text)
	case event.TokenUsage:
		if r.verbose {
			subtleColor.Printf("  tokens: +%d in, +%d out (%d total)\n", e.InputTokens, e.OutputTokens, e.TotalTokens)
		}
	case event.BudgetWarning:
		warnColor.Printf("Heads up: %d%% of the token budget is used (%d of %d)\n",
			int(e.Fraction*100), e.UsedTokens, e.MaxTokens)
	case event.HealthUpdate:
		if r.verbose {
			subtleColor.Printf("  health: %d (%s)\n", e.Score, e.Grade)
		}
	case event.MeetingInvite:
		meetingColor.Printf("\n— %s —\n", e.DisplayName)
		fmt.Printf("%s would like a quick chat.\n\n", e.Persona)
	case event.CommitCreated:
		subtleColor.Printf("  saved snapshot %s: %s\n", e.ShortSHA, e.Message)
	case event.TestResult:
		if e.Failed == 0 {
			okColor.Printf("  tests: %d passed\n", e.Passed)
		} else {
			warnColor.Printf("  tests: %d passed, %d failed\n", e.Passed, e.Failed)
		}
	case event.DeployStarted:
		headerColor.Printf("\nDeploying to %s...\n", e.Target)
	case event.DeployComplete:
		okColor.Printf("Deployed to %s!\n", e.Target)
	case event.SessionComplete:
		r.printSummary(e)
	case event.Error:
		if e.Recoverable {
			warnColor.Printf("  %s\n", e.Message)
		} else {
			failColor.Printf("Error: %s\n", e.Message)
		}
	}

	r.teach(ev)
}

// teach prints the teaching moment an event unlocks, if any.
func (r *renderer) teach(ev event.Event) {
	if r.teacher == nil {
		return
	}
	moment := r.teacher.MomentFor(context.Background(), ev)
	if moment == nil {
		return
	}
	lessonColor.Printf("\n  💡 %s\n", moment.Headline)
	fmt.Printf("  %s\n", wrapIndent(moment.Explanation, "  "))
	if moment.TellMeMore != "" {
		subtleColor.Printf("  %s\n", wrapIndent(moment.TellMeMore, "  "))
	}
	fmt.Println()
}

func (r *renderer) printSummary(e event.SessionComplete) {
	headerColor.Println("\n=== Build Complete ===")
	fmt.Printf("Tasks: %d done", e.TasksDone)
	if e.TasksFailed > 0 {
		failColor.Printf(", %d failed", e.TasksFailed)
	}
	if e.NeverRan > 0 {
		warnColor.Printf(", %d never ran", e.NeverRan)
	}
	fmt.Println()

	gradeColor := okColor
	if e.HealthScore < 80 {
		gradeColor = warnColor
	}
	if e.HealthScore < 60 {
		gradeColor = failColor
	}
	fmt.Printf("Health: %s\n", gradeColor.Sprintf("%d (%s)", e.HealthScore, e.Grade))
	fmt.Printf("Tokens: %d", e.TotalTokens)
	if e.TotalCost > 0 {
		fmt.Printf(" ($%.4f)", e.TotalCost)
	}
	fmt.Println()
}

// wrapIndent keeps multi-line text aligned under the list indent.
func wrapIndent(text, indent string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "\n", "\n"+indent)
}
