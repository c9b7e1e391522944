package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoidbergclawd/elisa-sub008/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent builds and project health",
	Long: `Display the most recent build session in this project: its state,
token usage, and the health history recorded while it ran, followed by
earlier sessions.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	dbPath := state.ProjectDBPath(cwd)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No builds here yet. Run 'elisa run \"your idea\"' to start one.")
		return nil
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open session database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate session database: %w", err)
	}

	latest, err := db.LatestSession()
	if err != nil {
		return fmt.Errorf("load latest session: %w", err)
	}
	if latest == nil {
		fmt.Println("No builds here yet. Run 'elisa run \"your idea\"' to start one.")
		return nil
	}

	displaySessionRecord(latest)

	history, err := db.HealthHistory(latest.ID)
	if err != nil {
		return fmt.Errorf("load health history: %w", err)
	}
	displayHealthHistory(history)

	return displayEarlierSessions(db, latest.ID)
}

func displaySessionRecord(s *state.SessionRecord) {
	headerColor.Printf("Latest build: %s\n", s.ID)
	if s.Goal != "" {
		fmt.Printf("  Goal: %s\n", s.Goal)
	}
	fmt.Printf("  State: %s\n", s.State)
	fmt.Printf("  Started: %s ago\n", formatDuration(time.Since(s.StartedAt)))
	if s.FinishedAt != nil {
		fmt.Printf("  Took: %s\n", formatDuration(s.FinishedAt.Sub(s.StartedAt)))
	}

	pct := 0
	if s.TokenBudget > 0 {
		pct = (s.TokensUsed * 100) / s.TokenBudget
	}
	fmt.Printf("  Tokens: %s / %s (%d%%)\n", formatNumber(s.TokensUsed), formatNumber(s.TokenBudget), pct)
	if s.CostUSD > 0 {
		fmt.Printf("  Cost: $%.4f\n", s.CostUSD)
	}
}

func displayHealthHistory(history []state.HealthSnapshot) {
	if len(history) == 0 {
		return
	}

	latest := history[len(history)-1]
	gradeColor := okColor
	if latest.Score < 80 {
		gradeColor = warnColor
	}
	if latest.Score < 60 {
		gradeColor = failColor
	}
	fmt.Printf("  Health: %s\n", gradeColor.Sprintf("%d (%s)", latest.Score, latest.Grade))

	fmt.Println("\nHealth history:")
	for _, snap := range history {
		fmt.Printf("  %s  %3d %s  tasks:%d tests:%d corrections:%d budget:%d\n",
			snap.RecordedAt.Format("15:04:05"),
			snap.Score, snap.Grade,
			snap.Breakdown.Tasks, snap.Breakdown.Tests,
			snap.Breakdown.Corrections, snap.Breakdown.Budget)
	}
}

func displayEarlierSessions(db *state.DB, latestID string) error {
	sessions, err := db.ListSessions()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	var earlier []state.SessionRecord
	for _, s := range sessions {
		if s.ID != latestID {
			earlier = append(earlier, s)
			if len(earlier) >= 5 {
				break
			}
		}
	}
	if len(earlier) == 0 {
		return nil
	}

	fmt.Println("\nEarlier builds:")
	for _, s := range earlier {
		goal := s.Goal
		if goal == "" {
			goal = "(no goal recorded)"
		}
		fmt.Printf("  %s: %s — %s (%s ago)\n", s.ID, goal, s.State, formatDuration(time.Since(s.StartedAt)))
	}
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dd", int(d.Hours())/24)
}

// formatNumber formats a number with commas.
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	offset := len(s) % 3
	if offset > 0 {
		result.WriteString(s[:offset])
		result.WriteString(",")
	}
	for i := offset; i < len(s); i += 3 {
		result.WriteString(s[i : i+3])
		if i+3 < len(s) {
			result.WriteString(",")
		}
	}
	return result.String()
}
