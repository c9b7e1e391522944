package agent

import (
	"fmt"
	"strings"

	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// Default path boundaries applied when the plan leaves them empty.
var (
	defaultAllowedPaths    = []string{"src/", "tests/"}
	defaultRestrictedPaths = []string{".elisa/"}
)

// roleCharters describe what each role does, woven into the system
// prompt together with the agent's persona and path boundaries.
var roleCharters = map[models.Role]string{
	models.RoleBuilder: `You are a BUILDER. You write code, create files, and implement features.
- Write clean, well-structured code appropriate for the project type.
- Follow the project's style preferences (colors, theme, tone).
- Keep code simple and readable; a kid should be able to follow along.`,
	models.RoleTester: `You are a TESTER. You write tests and verify acceptance criteria.
- Write small, focused tests for the acceptance criteria of completed work.
- Run through each criterion and report which pass and which fail.
- Always state your results as "N passed, M failed" in your summary.`,
	models.RoleReviewer: `You are a REVIEWER. You check code quality and completeness.
- Read through the project files and point out problems or gaps.
- Suggest concrete improvements in plain language.
- Verify every requirement has been addressed.`,
	models.RoleCustom: `You carry out the task exactly as described, using your persona's
special skills. Follow the task description carefully.`,
}

// SystemPrompt builds the role-specific system prompt for an agent
// executing the given task.
func SystemPrompt(a *models.Agent, taskID string) string {
	charter, ok := roleCharters[a.Role]
	if !ok {
		charter = roleCharters[models.RoleBuilder]
	}

	allowed := a.AllowedPaths
	if len(allowed) == 0 {
		allowed = defaultAllowedPaths
	}
	restricted := a.RestrictedPaths
	if len(restricted) == 0 {
		restricted = defaultRestrictedPaths
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, an agent working on a kid's software project in Elisa.\n\n", a.Name)
	if a.Persona != "" {
		fmt.Fprintf(&b, "## Your Persona\n%s\n\n", a.Persona)
	}
	fmt.Fprintf(&b, "## Your Role\n%s\n\n", charter)
	b.WriteString("## Rules\n")
	fmt.Fprintf(&b, "- Create or modify files ONLY within your allowed paths: %s\n", strings.Join(allowed, ", "))
	fmt.Fprintf(&b, "- Do NOT touch files in restricted paths: %s\n", strings.Join(restricted, ", "))
	fmt.Fprintf(&b, "- After completing your task, write a brief summary (2-3 sentences) to .elisa/comms/%s_summary.md\n\n", taskID)
	b.WriteString(`## Response Format
End your response with exactly these two sections:

SUMMARY: <what you did, in 2-3 sentences>
STATUS: <done or blocked>

Use STATUS: done only if every acceptance criterion is satisfied.`)
	return b.String()
}

// TaskPrompt assembles the user prompt for one task: the task itself,
// project context from the spec, and the prepared briefing (predecessor
// summaries plus the workspace manifest).
func TaskPrompt(desc TaskDescriptor) string {
	task := desc.Task
	var parts []string

	parts = append(parts, "# Task: "+task.Name)
	if task.Description != "" {
		parts = append(parts, "\n## Description\n"+task.Description)
	}

	if len(task.AcceptanceCriteria) > 0 {
		parts = append(parts, "\n## Acceptance Criteria")
		for _, criterion := range task.AcceptanceCriteria {
			parts = append(parts, "- "+criterion)
		}
	}

	if spec := desc.Spec; spec != nil {
		parts = append(parts, "\n## Project Context\nGoal: "+spec.Goal)
		if spec.Description != "" {
			parts = append(parts, "Description: "+spec.Description)
		}

		if len(spec.Requirements) > 0 {
			parts = append(parts, "\n## Project Requirements")
			for _, req := range spec.Requirements {
				reqType := req.Type
				if reqType == "" {
					reqType = "feature"
				}
				parts = append(parts, fmt.Sprintf("- [%s] %s", reqType, req.Description))
			}
		}

		if style := formatStyle(spec.Style); style != "" {
			parts = append(parts, "\n## Style Preferences\n"+style)
		}

		if spec.Deployment.Target != "" {
			parts = append(parts, "\n## Deployment Target: "+string(spec.Deployment.Target))
		}
	}

	if task.RetryCount > 0 {
		parts = append(parts, fmt.Sprintf(
			"\n## Retry\nThis is attempt %d. The previous attempt did not complete the task; read the workspace carefully and fix what went wrong.",
			task.RetryCount+1))
	}

	if desc.Context != "" {
		parts = append(parts, "\n"+desc.Context)
	}

	return strings.Join(parts, "\n")
}

func formatStyle(style models.StylePrefs) string {
	var lines []string
	if style.Colors != "" {
		lines = append(lines, "Colors: "+style.Colors)
	}
	if style.Theme != "" {
		lines = append(lines, "Theme: "+style.Theme)
	}
	if style.Tone != "" {
		lines = append(lines, "Tone: "+style.Tone)
	}
	return strings.Join(lines, "\n")
}
