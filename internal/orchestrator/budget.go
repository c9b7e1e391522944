// Package orchestrator coordinates plan execution: task scheduling,
// budget and health accounting, and lifecycle events.
package orchestrator

import (
	"sort"
	"sync"

	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// BudgetStatus represents the current state of budget consumption.
type BudgetStatus int

const (
	// BudgetOK indicates usage is below the warning threshold (<80%).
	BudgetOK BudgetStatus = iota
	// BudgetWarning indicates usage is between warning and exhaustion (80-99%).
	BudgetWarning
	// BudgetExhausted indicates budget is fully consumed (>=100%).
	BudgetExhausted
)

// String returns a human-readable representation of the budget status.
func (s BudgetStatus) String() string {
	switch s {
	case BudgetOK:
		return "OK"
	case BudgetWarning:
		return "Warning"
	case BudgetExhausted:
		return "Exhausted"
	default:
		return "Unknown"
	}
}

// DefaultWarningThreshold is the default fraction of budget at which the
// one-shot warning fires.
const DefaultWarningThreshold = 0.80

// BudgetTracker accumulates settled token usage and cost, a per-agent
// breakdown, and provisional reservations held by in-flight dispatches.
// The scheduler reserves an estimate before dispatching a task and
// releases it exactly once when the task settles; scheduling decisions
// use the effective total (actual + reserved) so concurrent dispatches
// cannot collectively overshoot the budget.
type BudgetTracker struct {
	// maxTokens is the session token budget. Zero or negative means no limit.
	maxTokens int
	// inputTokens and outputTokens accumulate settled usage.
	inputTokens  int
	outputTokens int
	// reservedTokens is provisional budget held by in-flight work.
	reservedTokens int
	// totalCost accumulates the dollar cost of settled usage.
	totalCost float64
	// perAgent is the per-agent usage breakdown, append-only accumulation.
	perAgent map[string]*models.TokenUsageRecord
	// warningThreshold is the fraction (0.0-1.0) at which the warning fires.
	warningThreshold float64
	// warned latches true once the one-shot warning has fired.
	warned bool
	// mu protects mutable state.
	mu sync.RWMutex
}

// NewBudgetTracker creates a tracker with the specified token budget.
func NewBudgetTracker(maxTokens int) *BudgetTracker {
	return &BudgetTracker{
		maxTokens:        maxTokens,
		perAgent:         make(map[string]*models.TokenUsageRecord),
		warningThreshold: DefaultWarningThreshold,
	}
}

// Add accumulates settled token usage not attributed to a named agent.
func (b *BudgetTracker) Add(input, output int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inputTokens += input
	b.outputTokens += output
}

// AddForAgent accumulates settled usage and cost for one agent.
func (b *BudgetTracker) AddForAgent(agentName string, input, output int, cost float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inputTokens += input
	b.outputTokens += output
	b.totalCost += cost

	rec, ok := b.perAgent[agentName]
	if !ok {
		rec = &models.TokenUsageRecord{AgentName: agentName}
		b.perAgent[agentName] = rec
	}
	rec.InputTokens += input
	rec.OutputTokens += output
	rec.CostUSD += cost
}

// Reserve places a provisional hold for an in-flight dispatch. Every
// Reserve must be paired with exactly one ReleaseReservation when the
// dispatch settles.
func (b *BudgetTracker) Reserve(estimate int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.reservedTokens += estimate
}

// ReleaseReservation releases a hold placed by Reserve.
func (b *BudgetTracker) ReleaseReservation(estimate int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.reservedTokens -= estimate
}

// ActualTotal returns settled input plus output tokens.
func (b *BudgetTracker) ActualTotal() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.inputTokens + b.outputTokens
}

// Reserved returns the tokens currently held by in-flight work.
func (b *BudgetTracker) Reserved() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.reservedTokens
}

// EffectiveTotal returns settled usage plus outstanding reservations.
func (b *BudgetTracker) EffectiveTotal() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.effectiveTotalLocked()
}

func (b *BudgetTracker) effectiveTotalLocked() int {
	return b.inputTokens + b.outputTokens + b.reservedTokens
}

// EffectiveBudgetExceeded reports whether the effective total has reached
// the budget. Always false when no budget is configured.
func (b *BudgetTracker) EffectiveBudgetExceeded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.maxTokens <= 0 {
		return false
	}
	return b.effectiveTotalLocked() >= b.maxTokens
}

// BudgetRemaining returns max(0, budget - settled usage).
func (b *BudgetTracker) BudgetRemaining() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	remaining := b.maxTokens - (b.inputTokens + b.outputTokens)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CheckWarning is a one-shot latch: it returns true exactly once, the
// first time settled usage reaches the warning threshold, and false on
// every later call regardless of further growth.
func (b *BudgetTracker) CheckWarning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.warned || b.maxTokens <= 0 {
		return false
	}
	actual := b.inputTokens + b.outputTokens
	if float64(actual) >= b.warningThreshold*float64(b.maxTokens) {
		b.warned = true
		return true
	}
	return false
}

// CheckBudget returns the current budget status based on the effective
// usage fraction.
// Returns:
//   - BudgetOK: usage < 80% (or configured warning threshold)
//   - BudgetWarning: usage 80-99%
//   - BudgetExhausted: usage >= 100%
func (b *BudgetTracker) CheckBudget() BudgetStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.maxTokens <= 0 {
		return BudgetOK // No budget limit set
	}

	fraction := float64(b.effectiveTotalLocked()) / float64(b.maxTokens)
	if fraction >= 1.0 {
		return BudgetExhausted
	}
	if fraction >= b.warningThreshold {
		return BudgetWarning
	}
	return BudgetOK
}

// CanStartNew returns true if new tasks can be dispatched. Returns false
// when the effective budget is exhausted, blocking new scheduling while
// in-flight work settles.
func (b *BudgetTracker) CanStartNew() bool {
	return b.CheckBudget() != BudgetExhausted
}

// GetUsage returns settled tokens, the budget, and the settled fraction
// of budget (0.0 when no budget is configured).
func (b *BudgetTracker) GetUsage() (used, budget int, fraction float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	used = b.inputTokens + b.outputTokens
	budget = b.maxTokens
	if budget > 0 {
		fraction = float64(used) / float64(budget)
	}
	return used, budget, fraction
}

// MaxTokens returns the configured token budget.
func (b *BudgetTracker) MaxTokens() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.maxTokens
}

// TotalCost returns the accumulated dollar cost of settled usage.
func (b *BudgetTracker) TotalCost() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.totalCost
}

// AgentUsage returns the per-agent usage records sorted by agent name.
func (b *BudgetTracker) AgentUsage() []models.TokenUsageRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	records := make([]models.TokenUsageRecord, 0, len(b.perAgent))
	for _, rec := range b.perAgent {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].AgentName < records[j].AgentName
	})
	return records
}

// WarningThreshold returns the current warning threshold (0.0-1.0).
func (b *BudgetTracker) WarningThreshold() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.warningThreshold
}

// SetWarningThreshold sets the warning threshold fraction. Values outside
// [0, 1] are clamped.
func (b *BudgetTracker) SetWarningThreshold(threshold float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	b.warningThreshold = threshold
}
