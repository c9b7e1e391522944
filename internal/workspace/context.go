package workspace

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// DefaultSummaryWords is the word cap applied to predecessor summaries
// before they enter a task prompt.
const DefaultSummaryWords = 500

// TransitivePredecessors returns every task ID reachable from taskID by
// walking the dependency relation. The traversal is an iterative stack
// with a visited set, so it terminates even when the input contains a
// cycle; the caller validates acyclicity separately.
func TransitivePredecessors(taskID string, taskMap map[string]*models.Task) []string {
	var result []string
	visited := make(map[string]bool)

	var stack []string
	if t, ok := taskMap[taskID]; ok {
		stack = append(stack, t.DependsOn...)
	}

	for len(stack) > 0 {
		dep := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[dep] {
			continue
		}
		visited[dep] = true
		result = append(result, dep)
		if t, ok := taskMap[dep]; ok {
			stack = append(stack, t.DependsOn...)
		}
	}
	return result
}

// CapSummary truncates text to at most maxWords words at a word boundary,
// appending a truncation marker. Text already under the limit is returned
// unchanged.
func CapSummary(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ") + " [truncated]"
}

// BuildProjectContext assembles the cumulative project-context markdown
// from completed-task summaries, one section per completed task in
// sorted-ID order for stable output.
func BuildProjectContext(summaries map[string]string, completed map[string]bool) string {
	ids := make([]string, 0, len(completed))
	for id := range completed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := []string{"# Project Context", ""}
	for _, id := range ids {
		summary := summaries[id]
		if summary == "" {
			continue
		}
		lines = append(lines, "## "+id, summary, "")
	}
	return strings.Join(lines, "\n")
}

// AssembleTaskContext builds the briefing appended to a task prompt: the
// capped summaries of every transitive predecessor, followed by the
// workspace file manifest.
func AssembleTaskContext(taskID string, taskMap map[string]*models.Task, summaries map[string]string, projectDir string) string {
	var parts []string

	predecessors := TransitivePredecessors(taskID, taskMap)
	var capped []string
	for _, depID := range predecessors {
		if summary, ok := summaries[depID]; ok && summary != "" {
			capped = append(capped, CapSummary(summary, DefaultSummaryWords))
		}
	}
	if len(capped) > 0 {
		parts = append(parts, "## WHAT HAPPENED BEFORE YOU")
		parts = append(parts, "Previous agents completed these tasks. Use their output as context:")
		for _, summary := range capped {
			parts = append(parts, fmt.Sprintf("\n---\n%s", summary))
		}
	}

	if manifest := BuildFileManifest(projectDir); manifest != "" {
		parts = append(parts, "\n## FILES IN WORKSPACE\n"+manifest)
	}

	return strings.Join(parts, "\n")
}
