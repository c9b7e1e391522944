package meeting

import (
	"context"
	"errors"
	"testing"

	"github.com/zoidbergclawd/elisa-sub008/internal/event"
	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

func TestMomentForConceptMapping(t *testing.T) {
	tests := []struct {
		name        string
		ev          event.Event
		wantConcept string
	}{
		{
			name:        "plan ready teaches decomposition",
			ev:          event.PlanReady{TaskCount: 5},
			wantConcept: ConceptTaskBreakdown,
		},
		{
			name:        "passing tests teach test_pass",
			ev:          event.TestResult{Passed: 4, Failed: 0},
			wantConcept: ConceptTestPass,
		},
		{
			name:        "failing tests teach test_fail",
			ev:          event.TestResult{Passed: 2, Failed: 1},
			wantConcept: ConceptTestFail,
		},
		{
			name:        "tester completion teaches first test run",
			ev:          event.TaskCompleted{AgentRole: models.RoleTester},
			wantConcept: ConceptFirstTestRun,
		},
		{
			name:        "reviewer completion teaches first review",
			ev:          event.TaskCompleted{AgentRole: models.RoleReviewer},
			wantConcept: ConceptFirstReview,
		},
		{
			name:        "hardware deploy teaches flashing",
			ev:          event.DeployComplete{Target: models.DeployESP32},
			wantConcept: ConceptFlashing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			teacher := NewTeacher(nil, nil)
			got := teacher.MomentFor(context.Background(), tt.ev)
			if got == nil {
				t.Fatalf("MomentFor() = nil, want concept %s", tt.wantConcept)
			}
			if got.Concept != tt.wantConcept {
				t.Errorf("MomentFor() concept = %q, want %q", got.Concept, tt.wantConcept)
			}
		})
	}
}

func TestMomentForSilentEvents(t *testing.T) {
	teacher := NewTeacher(nil, nil)

	silent := []event.Event{
		event.TaskCompleted{AgentRole: models.RoleBuilder},
		event.DeployComplete{Target: models.DeployWeb},
		event.TokenUsage{},
		event.TaskStarted{},
	}
	for _, ev := range silent {
		if got := teacher.MomentFor(context.Background(), ev); got != nil {
			t.Errorf("MomentFor(%T) = %v, want nil", ev, got)
		}
	}
}

func TestMomentForDedup(t *testing.T) {
	teacher := NewTeacher(nil, nil)
	ev := event.TestResult{Passed: 3}

	if teacher.MomentFor(context.Background(), ev) == nil {
		t.Fatal("first MomentFor() = nil, want moment")
	}
	if got := teacher.MomentFor(context.Background(), ev); got != nil {
		t.Errorf("second MomentFor() = %v, want nil (concept already shown)", got)
	}
}

func TestMomentForCommitSequence(t *testing.T) {
	teacher := NewTeacher(nil, nil)

	first := teacher.MomentFor(context.Background(), event.CommitCreated{Message: "Project started!"})
	if first == nil || first.Concept != ConceptFirstCommit {
		t.Fatalf("first commit moment = %v, want %s", first, ConceptFirstCommit)
	}

	second := teacher.MomentFor(context.Background(), event.CommitCreated{Message: "Add game loop"})
	if second == nil || second.Concept != ConceptMoreCommits {
		t.Fatalf("second commit moment = %v, want %s", second, ConceptMoreCommits)
	}

	// Third and later commits repeat the already-shown concept.
	if got := teacher.MomentFor(context.Background(), event.CommitCreated{Message: "Polish"}); got != nil {
		t.Errorf("third commit moment = %v, want nil", got)
	}
}

func TestMomentForFallback(t *testing.T) {
	curriculum := Curriculum{} // nothing prepared
	calls := 0
	fallback := func(ctx context.Context, concept, details string) (*Moment, error) {
		calls++
		return &Moment{Concept: concept, Headline: "improvised"}, nil
	}
	teacher := NewTeacher(curriculum, fallback)

	got := teacher.MomentFor(context.Background(), event.TestResult{Passed: 1})
	if got == nil || got.Headline != "improvised" {
		t.Fatalf("MomentFor() = %v, want fallback moment", got)
	}
	if calls != 1 {
		t.Errorf("fallback calls = %d, want 1", calls)
	}

	// Fallback result is deduped like curriculum content.
	if teacher.MomentFor(context.Background(), event.TestResult{Passed: 2}) != nil {
		t.Error("expected nil after fallback concept shown")
	}
	if calls != 1 {
		t.Errorf("fallback calls = %d, want 1", calls)
	}
}

func TestMomentForFallbackFailure(t *testing.T) {
	calls := 0
	fail := true
	teacher := NewTeacher(Curriculum{}, func(ctx context.Context, concept, details string) (*Moment, error) {
		calls++
		if fail {
			return nil, errors.New("api unavailable")
		}
		return &Moment{Concept: concept}, nil
	})

	if got := teacher.MomentFor(context.Background(), event.TestResult{Passed: 1}); got != nil {
		t.Errorf("MomentFor() = %v, want nil on fallback failure", got)
	}

	// A failed fallback does not burn the concept; a later event tries
	// again.
	fail = false
	if got := teacher.MomentFor(context.Background(), event.TestResult{Passed: 1}); got == nil {
		t.Error("MomentFor() = nil, want moment once fallback recovers")
	}
	if calls != 2 {
		t.Errorf("fallback calls = %d, want 2", calls)
	}
}

func TestMarkShown(t *testing.T) {
	teacher := NewTeacher(nil, nil)
	teacher.MarkShown(ConceptTestPass)

	if got := teacher.MomentFor(context.Background(), event.TestResult{Passed: 1}); got != nil {
		t.Errorf("MomentFor() = %v, want nil after MarkShown", got)
	}

	shown := teacher.ShownConcepts()
	if len(shown) != 1 || shown[0] != ConceptTestPass {
		t.Errorf("ShownConcepts() = %v, want [%s]", shown, ConceptTestPass)
	}
}

func TestDefaultCurriculumCoversAllConcepts(t *testing.T) {
	curriculum := DefaultCurriculum()
	concepts := []string{
		ConceptTaskBreakdown,
		ConceptFirstCommit,
		ConceptMoreCommits,
		ConceptTestPass,
		ConceptTestFail,
		ConceptFirstTestRun,
		ConceptFirstReview,
		ConceptFlashing,
	}
	for _, c := range concepts {
		moment, ok := curriculum[c]
		if !ok {
			t.Errorf("curriculum missing concept %s", c)
			continue
		}
		if moment.Headline == "" || moment.Explanation == "" {
			t.Errorf("curriculum entry %s is incomplete", c)
		}
	}
}
