package meeting

import (
	"context"
	"log"
	"sync"

	"github.com/zoidbergclawd/elisa-sub008/internal/event"
	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// FallbackFunc produces a teaching moment for a situation the curriculum
// does not cover, typically by calling the model API. Returning nil with
// a nil error means no moment should be shown.
type FallbackFunc func(ctx context.Context, concept, details string) (*Moment, error)

// Teacher turns lifecycle events into teaching moments. Each concept is
// shown at most once per session; the curriculum is consulted first and
// the fallback only for concepts with no prepared moment.
type Teacher struct {
	mu          sync.Mutex
	curriculum  Curriculum
	shown       map[string]bool
	commitCount int
	fallback    FallbackFunc
}

// NewTeacher creates a teacher over the given curriculum. fallback may be
// nil, in which case uncovered concepts are skipped.
func NewTeacher(curriculum Curriculum, fallback FallbackFunc) *Teacher {
	if curriculum == nil {
		curriculum = DefaultCurriculum()
	}
	return &Teacher{
		curriculum: curriculum,
		shown:      make(map[string]bool),
		fallback:   fallback,
	}
}

// MomentFor maps an event to its teaching concept and returns the moment
// to show, or nil when the event teaches nothing, the concept was already
// shown, or no content exists for it.
func (t *Teacher) MomentFor(ctx context.Context, ev event.Event) *Moment {
	concept, details := t.conceptFor(ev)
	if concept == "" {
		return nil
	}

	t.mu.Lock()
	if t.shown[concept] {
		t.mu.Unlock()
		return nil
	}
	moment, ok := t.curriculum[concept]
	if ok {
		t.shown[concept] = true
	}
	fallback := t.fallback
	t.mu.Unlock()

	if ok {
		return &moment
	}
	if fallback == nil {
		return nil
	}

	got, err := fallback(ctx, concept, details)
	if err != nil || got == nil {
		if err != nil {
			log.Printf("[meeting] teaching fallback for %s: %v", concept, err)
		}
		return nil
	}

	t.mu.Lock()
	t.shown[concept] = true
	t.mu.Unlock()
	return got
}

// conceptFor resolves the concept key and detail text for an event.
// Commit events alternate between first-commit and subsequent-commit
// concepts, so the commit counter advances here.
func (t *Teacher) conceptFor(ev event.Event) (concept, details string) {
	switch e := ev.(type) {
	case event.PlanReady:
		return ConceptTaskBreakdown, e.PlanExplanation
	case event.CommitCreated:
		t.mu.Lock()
		t.commitCount++
		first := t.commitCount == 1
		t.mu.Unlock()
		if first {
			return ConceptFirstCommit, e.Message
		}
		return ConceptMoreCommits, e.Message
	case event.TestResult:
		if e.Failed == 0 {
			return ConceptTestPass, e.Summary
		}
		return ConceptTestFail, e.Summary
	case event.TaskCompleted:
		switch e.AgentRole {
		case models.RoleTester:
			return ConceptFirstTestRun, e.Summary
		case models.RoleReviewer:
			return ConceptFirstReview, e.Summary
		}
		return "", ""
	case event.DeployComplete:
		if e.Target.IncludesHardware() {
			return ConceptFlashing, string(e.Target)
		}
		return "", ""
	default:
		return "", ""
	}
}

// ShownConcepts returns the concept keys already shown this session.
func (t *Teacher) ShownConcepts() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.shown))
	for key := range t.shown {
		keys = append(keys, key)
	}
	return keys
}

// MarkShown records a concept as already shown, preventing repeats.
func (t *Teacher) MarkShown(concept string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shown[concept] = true
}
