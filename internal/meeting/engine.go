// Package meeting matches build-lifecycle events against registered
// side-interaction types and supplies the teaching moments shown in them.
package meeting

import (
	"strings"

	"github.com/zoidbergclawd/elisa-sub008/internal/event"
)

// Predicate filters a matched event by its payload. Implementations
// inspect the concrete event type and return false for anything else.
type Predicate interface {
	Matches(ev event.Event) bool
}

// PredicateFunc adapts a function to the Predicate interface.
type PredicateFunc func(ev event.Event) bool

// Matches implements Predicate.
func (f PredicateFunc) Matches(ev event.Event) bool { return f(ev) }

// Condition pairs an event type with an optional payload predicate. A
// nil When matches every event of that type.
type Condition struct {
	Event event.Type
	When  Predicate
}

// Type describes one side-interaction: who hosts it, what canvas it uses,
// and the conditions that trigger it. Conditions are OR'd: any one match
// activates the type.
type Type struct {
	ID          string
	DisplayName string
	Persona     string
	Kind        string
	Conditions  []Condition
}

// Engine holds the registry of interaction types and evaluates events
// against it. The engine carries no session state: whether a matched
// type has already been shown is the caller's concern.
type Engine struct {
	registry []Type
}

// NewEngine creates an engine over the given interaction types.
func NewEngine(types ...Type) *Engine {
	return &Engine{registry: append([]Type(nil), types...)}
}

// Register appends an interaction type to the registry.
func (e *Engine) Register(t Type) {
	e.registry = append(e.registry, t)
}

// Types returns the registered interaction types in registration order.
func (e *Engine) Types() []Type {
	return append([]Type(nil), e.registry...)
}

// Evaluate returns, in registration order, every registered type having
// at least one condition whose event type matches ev and whose predicate
// (if present) accepts ev's payload.
func (e *Engine) Evaluate(ev event.Event) []Type {
	var matched []Type
	for _, t := range e.registry {
		for _, c := range t.Conditions {
			if c.Event != ev.EventType() {
				continue
			}
			if c.When != nil && !c.When.Matches(ev) {
				continue
			}
			matched = append(matched, t)
			break
		}
	}
	return matched
}

// All combines predicates; every member must match.
func All(preds ...Predicate) Predicate {
	return PredicateFunc(func(ev event.Event) bool {
		for _, p := range preds {
			if !p.Matches(ev) {
				return false
			}
		}
		return true
	})
}

// ProgressAtLeast matches task-completed events once the done/total ratio
// has reached the threshold.
func ProgressAtLeast(threshold float64) Predicate {
	return PredicateFunc(func(ev event.Event) bool {
		tc, ok := ev.(event.TaskCompleted)
		if !ok || tc.TasksTotal == 0 {
			return false
		}
		return float64(tc.TasksDone)/float64(tc.TasksTotal) >= threshold
	})
}

// TargetsHardware matches task-completed events in builds deploying to a
// physical board.
func TargetsHardware() Predicate {
	return PredicateFunc(func(ev event.Event) bool {
		tc, ok := ev.(event.TaskCompleted)
		return ok && tc.DeployTarget.IncludesHardware()
	})
}

// Keywords that indicate a task is design work.
var designKeywords = []string{
	"design",
	"architecture",
	"layout",
	"theme",
	"style",
	"interface",
	"mockup",
}

// Keywords that exclude scaffolding and setup tasks from design review.
var scaffoldKeywords = []string{
	"scaffold",
	"setup",
	"boilerplate",
	"project structure",
	"initialize",
}

// DesignTask matches task-started events whose name or description reads
// like design work and not like scaffolding.
func DesignTask() Predicate {
	return PredicateFunc(func(ev event.Event) bool {
		ts, ok := ev.(event.TaskStarted)
		if !ok {
			return false
		}
		text := strings.ToLower(ts.TaskName + " " + ts.Description)
		for _, kw := range scaffoldKeywords {
			if strings.Contains(text, kw) {
				return false
			}
		}
		for _, kw := range designKeywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
		return false
	})
}
