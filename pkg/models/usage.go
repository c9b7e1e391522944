package models

// TokenUsageRecord is the accumulated token and cost usage for one agent.
// Records are append-only: usage is added to, never rewritten.
type TokenUsageRecord struct {
	AgentName    string  `json:"agent_name"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// TotalTokens returns input plus output tokens.
func (r TokenUsageRecord) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}
