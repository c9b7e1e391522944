package meeting

import "github.com/zoidbergclawd/elisa-sub008/internal/event"

// Well-known interaction type IDs.
const (
	FirstCheckIn   = "first-check-in"
	MidpointReview = "midpoint-review"
	HardwarePrep   = "hardware-prep"
	WrapUp         = "wrap-up"
	DesignReview   = "design-review"
)

// DefaultTypes returns the built-in interaction registry: progress
// check-ins at 25% and 50%, a hardware-prep session at 60% for builds
// flashing a board, a wrap-up at session completion, and a design review
// before design-flavored tasks start.
func DefaultTypes() []Type {
	return []Type{
		{
			ID:          FirstCheckIn,
			DisplayName: "First Check-In",
			Persona:     "an encouraging guide who celebrates early progress",
			Kind:        "checkin",
			Conditions: []Condition{
				{Event: event.TypeTaskCompleted, When: ProgressAtLeast(0.25)},
			},
		},
		{
			ID:          MidpointReview,
			DisplayName: "Midpoint Review",
			Persona:     "a thoughtful reviewer who walks through what has been built so far",
			Kind:        "checkin",
			Conditions: []Condition{
				{Event: event.TypeTaskCompleted, When: ProgressAtLeast(0.50)},
			},
		},
		{
			ID:          HardwarePrep,
			DisplayName: "Hardware Prep",
			Persona:     "a careful technician who explains how code gets onto the board",
			Kind:        "hardware",
			Conditions: []Condition{
				{Event: event.TypeTaskCompleted, When: All(ProgressAtLeast(0.60), TargetsHardware())},
			},
		},
		{
			ID:          WrapUp,
			DisplayName: "Wrap-Up",
			Persona:     "a proud teammate who recaps the whole build",
			Kind:        "celebration",
			Conditions: []Condition{
				{Event: event.TypeSessionComplete},
			},
		},
		{
			ID:          DesignReview,
			DisplayName: "Design Review",
			Persona:     "a curious designer who asks about colors, layout, and feel",
			Kind:        "design",
			Conditions: []Condition{
				{Event: event.TypeTaskStarted, When: DesignTask()},
			},
		},
	}
}
