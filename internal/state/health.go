package state

import (
	"fmt"
	"time"

	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// HealthHistoryCap is the maximum number of health snapshots kept per
// session; the oldest rows are trimmed past it.
const HealthHistoryCap = 20

// HealthSnapshot is one persisted health-score reading.
type HealthSnapshot struct {
	SessionID  string                 `json:"session_id"`
	RecordedAt time.Time              `json:"recorded_at"`
	Goal       string                 `json:"goal"`
	Score      int                    `json:"score"`
	Grade      string                 `json:"grade"`
	Breakdown  models.HealthBreakdown `json:"breakdown"`
}

// AddHealthSnapshot appends a snapshot for a session, trimming the
// oldest rows past HealthHistoryCap.
func (db *DB) AddHealthSnapshot(snap *HealthSnapshot) error {
	_, err := db.Exec(`
		INSERT INTO health_history (session_id, recorded_at, goal, score, grade, tasks, tests, corrections, budget)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.SessionID, formatTime(snap.RecordedAt), snap.Goal, snap.Score, snap.Grade,
		snap.Breakdown.Tasks, snap.Breakdown.Tests, snap.Breakdown.Corrections, snap.Breakdown.Budget)
	if err != nil {
		return fmt.Errorf("add health snapshot: %w", err)
	}

	_, err = db.Exec(`
		DELETE FROM health_history WHERE session_id = ? AND id NOT IN (
			SELECT id FROM health_history WHERE session_id = ? ORDER BY id DESC LIMIT ?
		)
	`, snap.SessionID, snap.SessionID, HealthHistoryCap)
	if err != nil {
		return fmt.Errorf("trim health history: %w", err)
	}
	return nil
}

// HealthHistory returns a session's snapshots, oldest first.
func (db *DB) HealthHistory(sessionID string) ([]HealthSnapshot, error) {
	rows, err := db.Query(`
		SELECT session_id, recorded_at, goal, score, grade, tasks, tests, corrections, budget
		FROM health_history WHERE session_id = ? ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list health history: %w", err)
	}
	defer rows.Close()

	var snaps []HealthSnapshot
	for rows.Next() {
		var snap HealthSnapshot
		var recordedAt string
		if err := rows.Scan(&snap.SessionID, &recordedAt, &snap.Goal, &snap.Score, &snap.Grade,
			&snap.Breakdown.Tasks, &snap.Breakdown.Tests, &snap.Breakdown.Corrections, &snap.Breakdown.Budget); err != nil {
			return nil, fmt.Errorf("scan health snapshot: %w", err)
		}
		snap.RecordedAt, _ = parseTime(recordedAt)
		snaps = append(snaps, snap)
	}
	return snaps, nil
}
