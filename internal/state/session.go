package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// SessionRecord is the persisted shape of a build session.
type SessionRecord struct {
	ID          string              `json:"id"`
	Goal        string              `json:"goal"`
	State       models.SessionState `json:"state"`
	TokenBudget int                 `json:"token_budget"`
	TokensUsed  int                 `json:"tokens_used"`
	CostUSD     float64             `json:"cost_usd"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  *time.Time          `json:"finished_at,omitempty"`
}

// CreateSession inserts a new session row.
func (db *DB) CreateSession(s *SessionRecord) error {
	_, err := db.Exec(`
		INSERT INTO sessions (id, goal, state, token_budget, tokens_used, cost_usd, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
	`, s.ID, s.Goal, string(s.State), s.TokenBudget, s.TokensUsed, s.CostUSD, formatTime(s.StartedAt))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID. Returns (nil, nil) when the
// session does not exist.
func (db *DB) GetSession(id string) (*SessionRecord, error) {
	row := db.QueryRow(`
		SELECT id, goal, state, token_budget, tokens_used, cost_usd, started_at, finished_at
		FROM sessions WHERE id = ?
	`, id)

	s, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// UpdateSession updates a session row.
func (db *DB) UpdateSession(s *SessionRecord) error {
	var finishedAt *string
	if s.FinishedAt != nil {
		f := formatTime(*s.FinishedAt)
		finishedAt = &f
	}

	_, err := db.Exec(`
		UPDATE sessions SET goal = ?, state = ?, token_budget = ?, tokens_used = ?, cost_usd = ?, finished_at = ?
		WHERE id = ?
	`, s.Goal, string(s.State), s.TokenBudget, s.TokensUsed, s.CostUSD, finishedAt, s.ID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// DeleteSession deletes a session row and its dependent records.
func (db *DB) DeleteSession(id string) error {
	if _, err := db.Exec("DELETE FROM health_history WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("delete health history: %w", err)
	}
	if _, err := db.Exec("DELETE FROM shown_meetings WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("delete shown meetings: %w", err)
	}
	if _, err := db.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ListSessions lists all sessions, newest first.
func (db *DB) ListSessions() ([]SessionRecord, error) {
	rows, err := db.Query(`
		SELECT id, goal, state, token_budget, tokens_used, cost_usd, started_at, finished_at
		FROM sessions ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, nil
}

// LatestSession returns the most recently started session, if any.
func (db *DB) LatestSession() (*SessionRecord, error) {
	sessions, err := db.ListSessions()
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

func scanSession(scan func(...any) error) (*SessionRecord, error) {
	var s SessionRecord
	var state, startedAt string
	var finishedAt sql.NullString
	if err := scan(&s.ID, &s.Goal, &state, &s.TokenBudget, &s.TokensUsed, &s.CostUSD, &startedAt, &finishedAt); err != nil {
		return nil, err
	}
	s.State = models.SessionState(state)
	s.StartedAt, _ = parseTime(startedAt)
	s.FinishedAt = parseNullableTime(finishedAt)
	return &s, nil
}
