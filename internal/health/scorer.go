// Package health derives a weighted build-health score from task, test,
// correction, and token-budget counters.
package health

import (
	"math"
	"sync"

	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// Component weights. The four components sum to 100.
const (
	WeightTasks       = 30
	WeightTests       = 40
	WeightCorrections = 20
	WeightBudget      = 10
)

// Scorer accumulates build-health counters and computes the composite
// score. Only the coordinator mutates counters; reads are safe from any
// goroutine.
type Scorer struct {
	mu           sync.RWMutex
	tasksDone    int
	tasksTotal   int
	testsPassing int
	testsTotal   int
	corrections  int
	tokensUsed   int
	tokenBudget  int
}

// NewScorer creates a scorer for a build with the given token budget.
// A budget of zero or less means no budget is configured and the budget
// component always earns full credit.
func NewScorer(tokenBudget int) *Scorer {
	return &Scorer{tokenBudget: tokenBudget}
}

// SetTasksTotal records the number of tasks in the plan.
func (s *Scorer) SetTasksTotal(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasksTotal = n
}

// RecordTaskDone increments the completed-task counter.
func (s *Scorer) RecordTaskDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasksDone++
}

// RecordTestResults accumulates test counts reported by a tester agent.
func (s *Scorer) RecordTestResults(passed, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.testsPassing += passed
	s.testsTotal += passed + failed
}

// RecordCorrection increments the correction-cycle counter. A correction
// cycle is any retry of a failed task.
func (s *Scorer) RecordCorrection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corrections++
}

// RecordTokens accumulates token usage toward the budget component.
func (s *Scorer) RecordTokens(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokensUsed += n
}

// taskRatio and testRatio give full credit when nothing has been counted
// yet: an empty session is a healthy session.
func (s *Scorer) taskRatio() float64 {
	if s.tasksTotal == 0 {
		return 1
	}
	return float64(s.tasksDone) / float64(s.tasksTotal)
}

func (s *Scorer) testRatio() float64 {
	if s.testsTotal == 0 {
		return 1
	}
	return float64(s.testsPassing) / float64(s.testsTotal)
}

func (s *Scorer) underBudget() bool {
	return s.tokenBudget <= 0 || s.tokensUsed < s.tokenBudget
}

// ComputeScore returns the composite health score in [0, 100]: the four
// weighted components are summed as floats and the sum is rounded once.
// This is not always equal to the sum of the per-component integers in
// Summary, which rounds each component independently. Both behaviors are
// load-bearing contracts; do not reconcile them.
func (s *Scorer) ComputeScore() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scoreLocked()
}

func (s *Scorer) scoreLocked() int {
	sum := WeightTasks*s.taskRatio() + WeightTests*s.testRatio()
	if s.corrections == 0 {
		sum += WeightCorrections
	}
	if s.underBudget() {
		sum += WeightBudget
	}
	return int(math.Round(sum))
}

// Summary returns the current health snapshot with each breakdown
// component rounded independently and clamped to its weight.
func (s *Scorer) Summary() models.HealthSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	breakdown := models.HealthBreakdown{
		Tasks: clamp(int(math.Round(WeightTasks*s.taskRatio())), WeightTasks),
		Tests: clamp(int(math.Round(WeightTests*s.testRatio())), WeightTests),
	}
	if s.corrections == 0 {
		breakdown.Corrections = WeightCorrections
	}
	if s.underBudget() {
		breakdown.Budget = WeightBudget
	}

	score := s.scoreLocked()
	return models.HealthSummary{
		Score:            score,
		Grade:            ScoreToGrade(score),
		Breakdown:        breakdown,
		TasksDone:        s.tasksDone,
		TasksTotal:       s.tasksTotal,
		TestsPassing:     s.testsPassing,
		TestsTotal:       s.testsTotal,
		CorrectionCycles: s.corrections,
		TokensUsed:       s.tokensUsed,
		TokenBudget:      s.tokenBudget,
	}
}

func clamp(v, max int) int {
	if v > max {
		return max
	}
	return v
}

// ScoreToGrade maps a composite score to a letter grade.
func ScoreToGrade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
