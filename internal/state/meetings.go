package state

import (
	"fmt"
	"time"
)

// MarkMeetingShown records that a meeting type fired for a session.
// Re-marking an already-shown meeting is a no-op.
func (db *DB) MarkMeetingShown(sessionID, meetingType string) error {
	_, err := db.Exec(`
		INSERT OR IGNORE INTO shown_meetings (session_id, meeting_type, shown_at)
		VALUES (?, ?, ?)
	`, sessionID, meetingType, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("mark meeting shown: %w", err)
	}
	return nil
}

// MeetingShown reports whether a meeting type already fired for a
// session.
func (db *DB) MeetingShown(sessionID, meetingType string) (bool, error) {
	var n int
	row := db.QueryRow(`
		SELECT COUNT(*) FROM shown_meetings WHERE session_id = ? AND meeting_type = ?
	`, sessionID, meetingType)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("check meeting shown: %w", err)
	}
	return n > 0, nil
}

// ShownMeetings returns the meeting types already fired for a session.
func (db *DB) ShownMeetings(sessionID string) ([]string, error) {
	rows, err := db.Query(`
		SELECT meeting_type FROM shown_meetings WHERE session_id = ? ORDER BY shown_at
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list shown meetings: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var mt string
		if err := rows.Scan(&mt); err != nil {
			return nil, fmt.Errorf("scan meeting type: %w", err)
		}
		types = append(types, mt)
	}
	return types, nil
}
