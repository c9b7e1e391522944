package models

// HealthBreakdown holds the per-component health contributions. Each
// component is independently bounded to its weight: tasks ≤ 30, tests
// ≤ 40, corrections ≤ 20, budget ≤ 10.
type HealthBreakdown struct {
	Tasks       int `json:"tasks"`
	Tests       int `json:"tests"`
	Corrections int `json:"corrections"`
	Budget      int `json:"budget"`
}

// HealthSummary is a point-in-time snapshot of build health: the
// composite score, its letter grade, and the component breakdown.
type HealthSummary struct {
	Score     int             `json:"score"`
	Grade     string          `json:"grade"`
	Breakdown HealthBreakdown `json:"breakdown"`

	TasksDone        int `json:"tasks_done"`
	TasksTotal       int `json:"tasks_total"`
	TestsPassing     int `json:"tests_passing"`
	TestsTotal       int `json:"tests_total"`
	CorrectionCycles int `json:"correction_cycles"`
	TokensUsed       int `json:"tokens_used"`
	TokenBudget      int `json:"token_budget"`
}
