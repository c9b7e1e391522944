package models

// RoutingDecision is the outcome of resolving a model for one agent call.
// Reason is a human-readable trace of the rules that fired; it exists for
// observability and tests, never for business logic.
type RoutingDecision struct {
	Model  string    `json:"model"`
	Tier   ModelTier `json:"tier"`
	Reason string    `json:"reason"`
}
