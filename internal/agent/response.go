package agent

import (
	"regexp"
	"strconv"
	"strings"
)

// parseResponse extracts the SUMMARY and STATUS sections from an agent's
// response. A missing STATUS counts as blocked; a missing SUMMARY falls
// back to the response tail so the coordinator always has something to
// report.
func parseResponse(text string) (summary string, done bool) {
	status := extractSection(text, "STATUS")
	done = strings.EqualFold(strings.TrimSpace(status), "done")

	summary = extractSection(text, "SUMMARY")
	if summary == "" {
		summary = tail(text, 400)
	}
	return summary, done
}

// extractSection returns the text after "LABEL:" up to the next labeled
// section or end of input.
func extractSection(text, label string) string {
	idx := strings.LastIndex(text, label+":")
	if idx == -1 {
		return ""
	}
	section := text[idx+len(label)+1:]
	// SUMMARY is followed by STATUS in the requested format.
	if cut := strings.Index(section, "STATUS:"); label != "STATUS" && cut != -1 {
		section = section[:cut]
	}
	return strings.TrimSpace(section)
}

func tail(text string, n int) string {
	text = strings.TrimSpace(text)
	if len(text) <= n {
		return text
	}
	return text[len(text)-n:]
}

// testCountPattern matches tester summaries like "4 passed, 1 failed".
var testCountPattern = regexp.MustCompile(`(\d+)\s+passed\s*,\s*(\d+)\s+failed`)

// ParseTestCounts extracts "N passed, M failed" counts from a tester
// summary. ok is false when the summary carries no parseable counts; the
// caller then falls back to counting the task outcome as a single test.
func ParseTestCounts(summary string) (passed, failed int, ok bool) {
	m := testCountPattern.FindStringSubmatch(strings.ToLower(summary))
	if m == nil {
		return 0, 0, false
	}
	passed, _ = strconv.Atoi(m[1])
	failed, _ = strconv.Atoi(m[2])
	return passed, failed, true
}
