package models

import "testing"

func TestModelTier_Ordering(t *testing.T) {
	if !(TierLow < TierMedium && TierMedium < TierHigh) {
		t.Fatal("tiers must order as low < medium < high")
	}
}

func TestModelTier_String(t *testing.T) {
	tests := []struct {
		tier ModelTier
		want string
	}{
		{TierLow, "low"},
		{TierMedium, "medium"},
		{TierHigh, "high"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.tier.String(); got != tt.want {
				t.Errorf("ModelTier.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseModelTier(t *testing.T) {
	for _, tier := range []ModelTier{TierLow, TierMedium, TierHigh} {
		got, err := ParseModelTier(tier.String())
		if err != nil {
			t.Fatalf("ParseModelTier(%q) returned error: %v", tier.String(), err)
		}
		if got != tier {
			t.Errorf("ParseModelTier(%q) = %v, want %v", tier.String(), got, tier)
		}
	}

	if _, err := ParseModelTier("architect"); err == nil {
		t.Error("ParseModelTier should reject unknown tier names")
	}
}

func TestModelTier_PromoteSaturates(t *testing.T) {
	tests := []struct {
		name string
		tier ModelTier
		n    int
		want ModelTier
	}{
		{"low promotes to medium", TierLow, 1, TierMedium},
		{"medium promotes to high", TierMedium, 1, TierHigh},
		{"high saturates", TierHigh, 1, TierHigh},
		{"promote past top saturates", TierLow, 5, TierHigh},
		{"zero levels is a no-op", TierMedium, 0, TierMedium},
		{"negative levels is a no-op", TierMedium, -2, TierMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tier.Promote(tt.n); got != tt.want {
				t.Errorf("%v.Promote(%d) = %v, want %v", tt.tier, tt.n, got, tt.want)
			}
		})
	}
}

func TestModelTier_DemoteSaturates(t *testing.T) {
	tests := []struct {
		name string
		tier ModelTier
		n    int
		want ModelTier
	}{
		{"high demotes to medium", TierHigh, 1, TierMedium},
		{"medium demotes to low", TierMedium, 1, TierLow},
		{"low saturates", TierLow, 1, TierLow},
		{"demote past bottom saturates", TierHigh, 5, TierLow},
		{"zero levels is a no-op", TierMedium, 0, TierMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tier.Demote(tt.n); got != tt.want {
				t.Errorf("%v.Demote(%d) = %v, want %v", tt.tier, tt.n, got, tt.want)
			}
		})
	}
}
