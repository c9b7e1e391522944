package agent

import (
	"strings"
	"testing"

	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

func TestSystemPromptIncludesPersonaAndBoundaries(t *testing.T) {
	a := &models.Agent{
		Name:            "Builder Bot",
		Role:            models.RoleBuilder,
		Persona:         "A friendly robot who loves building things",
		AllowedPaths:    []string{"src/", "public/"},
		RestrictedPaths: []string{".elisa/"},
	}

	got := SystemPrompt(a, "task-3")

	for _, want := range []string{
		"Builder Bot",
		"A friendly robot who loves building things",
		"BUILDER",
		"src/, public/",
		".elisa/",
		".elisa/comms/task-3_summary.md",
		"STATUS:",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected system prompt to contain %q", want)
		}
	}
}

func TestSystemPromptDefaultBoundaries(t *testing.T) {
	a := &models.Agent{Name: "Builder Bot", Role: models.RoleBuilder}
	got := SystemPrompt(a, "task-1")

	if !strings.Contains(got, "src/, tests/") {
		t.Errorf("expected default allowed paths, got:\n%s", got)
	}
}

func TestSystemPromptTesterCharter(t *testing.T) {
	a := &models.Agent{Name: "Test Turtle", Role: models.RoleTester}
	got := SystemPrompt(a, "task-2")

	if !strings.Contains(got, "TESTER") {
		t.Errorf("expected tester charter, got:\n%s", got)
	}
	if !strings.Contains(got, "passed, M failed") {
		t.Errorf("expected test-count reporting instruction, got:\n%s", got)
	}
}

func TestSystemPromptUnknownRoleFallsBackToBuilder(t *testing.T) {
	a := &models.Agent{Name: "Mystery", Role: models.Role("wizard")}
	if got := SystemPrompt(a, "task-1"); !strings.Contains(got, "BUILDER") {
		t.Errorf("expected builder fallback, got:\n%s", got)
	}
}

func TestTaskPrompt(t *testing.T) {
	desc := TaskDescriptor{
		Task: &models.Task{
			ID:                 "task-2",
			Name:               "Build the game board",
			Description:        "Create the 3x3 grid",
			AcceptanceCriteria: []string{"Grid renders", "Cells are clickable"},
		},
		Agent: &models.Agent{Name: "Builder Bot", Role: models.RoleBuilder},
		Spec: &models.ProjectSpec{
			Goal:         "A tic-tac-toe game",
			Requirements: []models.Requirement{{Type: "feature", Description: "Two players take turns"}},
			Style:        models.StylePrefs{Theme: "space"},
			Deployment:   models.Deployment{Target: models.DeployWeb},
		},
		Context: "## WHAT HAPPENED BEFORE YOU\nscaffold is in place",
	}

	got := TaskPrompt(desc)

	for _, want := range []string{
		"# Task: Build the game board",
		"Create the 3x3 grid",
		"- Grid renders",
		"Goal: A tic-tac-toe game",
		"[feature] Two players take turns",
		"Theme: space",
		"Deployment Target: web",
		"scaffold is in place",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected task prompt to contain %q", want)
		}
	}
	if strings.Contains(got, "## Retry") {
		t.Errorf("expected no retry section on first attempt")
	}
}

func TestTaskPromptRetrySection(t *testing.T) {
	desc := TaskDescriptor{
		Task:  &models.Task{ID: "task-1", Name: "Fix it", RetryCount: 1},
		Agent: &models.Agent{Name: "Builder Bot", Role: models.RoleBuilder},
	}
	got := TaskPrompt(desc)
	if !strings.Contains(got, "attempt 2") {
		t.Errorf("expected retry section with attempt number, got:\n%s", got)
	}
}
