package models

import "fmt"

// ModelTier is an ordered cost/capability class a model belongs to.
// Tiers compare as low < medium < high.
type ModelTier int

const (
	// TierLow is the cheapest tier, for simple mechanical tasks.
	TierLow ModelTier = iota
	// TierMedium is the default tier for standard implementation work.
	TierMedium
	// TierHigh is the most capable tier, for planning and complex tasks.
	TierHigh
)

// String returns the tier's configuration name.
func (t ModelTier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Valid returns true if the tier is a known value.
func (t ModelTier) Valid() bool {
	return t >= TierLow && t <= TierHigh
}

// ParseModelTier converts a configuration name into a tier.
func ParseModelTier(s string) (ModelTier, error) {
	switch s {
	case "low":
		return TierLow, nil
	case "medium":
		return TierMedium, nil
	case "high":
		return TierHigh, nil
	default:
		return TierLow, fmt.Errorf("unknown model tier %q", s)
	}
}

// Promote returns the tier raised by n levels, saturating at TierHigh.
// A non-positive n is a no-op.
func (t ModelTier) Promote(n int) ModelTier {
	for i := 0; i < n && t < TierHigh; i++ {
		t++
	}
	return t
}

// Demote returns the tier lowered by n levels, saturating at TierLow.
// A non-positive n is a no-op.
func (t ModelTier) Demote(n int) ModelTier {
	for i := 0; i < n && t > TierLow; i++ {
		t--
	}
	return t
}
