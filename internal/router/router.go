// Package router resolves which model serves each agent call, balancing
// capability against cost with tiered promotion and demotion rules.
package router

import (
	"fmt"
	"strings"
	"sync"

	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// Model identifiers for the default catalog.
const (
	// ModelHaiku is the lightweight, fast model for simple tasks.
	ModelHaiku = "claude-3-5-haiku-20241022"
	// ModelSonnet is the balanced model for standard work.
	ModelSonnet = "claude-sonnet-4-20250514"
	// ModelOpus is the most capable model for complex tasks.
	ModelOpus = "claude-opus-4-5-20251101"
)

// DefaultModel is the hard fallback when the catalog resolves nothing.
const DefaultModel = ModelSonnet

// ComplexityPromotionFloor is the complexity score at or above which a
// medium-tier task is promoted one tier.
const ComplexityPromotionFloor = 0.5

// LowBudgetFraction is the remaining/total budget ratio below which
// routing demotes one tier to conserve spend.
const LowBudgetFraction = 0.2

// CatalogEntry describes one model available for routing.
type CatalogEntry struct {
	ID               string
	Tier             models.ModelTier
	InputPerMillion  float64
	OutputPerMillion float64
}

func (e CatalogEntry) cost() float64 {
	return e.InputPerMillion + e.OutputPerMillion
}

// DefaultCatalog returns the built-in model catalog with current pricing
// per 1M tokens.
func DefaultCatalog() []CatalogEntry {
	return []CatalogEntry{
		{ID: ModelHaiku, Tier: models.TierLow, InputPerMillion: 0.80, OutputPerMillion: 4.00},
		{ID: ModelSonnet, Tier: models.TierMedium, InputPerMillion: 3.00, OutputPerMillion: 15.00},
		{ID: "claude-3-5-sonnet-20241022", Tier: models.TierMedium, InputPerMillion: 3.00, OutputPerMillion: 15.00},
		{ID: ModelOpus, Tier: models.TierHigh, InputPerMillion: 15.00, OutputPerMillion: 75.00},
	}
}

// DefaultRoleTiers maps each agent role to its starting tier. The planner
// gets the top tier because plan quality bounds everything downstream.
func DefaultRoleTiers() map[models.Role]models.ModelTier {
	return map[models.Role]models.ModelTier{
		models.RolePlanner:  models.TierHigh,
		models.RoleBuilder:  models.TierMedium,
		models.RoleReviewer: models.TierMedium,
		models.RoleTester:   models.TierLow,
		models.RoleCustom:   models.TierMedium,
	}
}

// Request carries the inputs to one routing decision.
type Request struct {
	// Role is the agent role the call is made for.
	Role models.Role
	// Complexity is the task complexity score in [0, 1].
	Complexity float64
	// RetryCount is how many times this task has already failed.
	RetryCount int
	// OverrideModel, when set, wins over every other rule.
	OverrideModel string
	// BudgetRemaining and BudgetTotal are token counts from the budget
	// tracker. A zero BudgetTotal disables the low-budget demotion.
	BudgetRemaining int
	BudgetTotal     int
}

// Router resolves model identities by tier. Safe for concurrent use.
type Router struct {
	mu             sync.RWMutex
	catalog        []CatalogEntry
	roleTiers      map[models.Role]models.ModelTier
	roleOverrides  map[models.Role]string
	globalOverride string
	conservation   bool
}

// Option configures a Router.
type Option func(*Router)

// WithCatalog replaces the default model catalog.
func WithCatalog(entries []CatalogEntry) Option {
	return func(r *Router) {
		r.catalog = append([]CatalogEntry(nil), entries...)
	}
}

// WithRoleTier overrides the default starting tier for a role.
func WithRoleTier(role models.Role, tier models.ModelTier) Option {
	return func(r *Router) {
		r.roleTiers[role] = tier
	}
}

// WithRoleOverride pins a role to a specific model, bypassing tier rules.
func WithRoleOverride(role models.Role, model string) Option {
	return func(r *Router) {
		r.roleOverrides[role] = model
	}
}

// WithGlobalOverride pins every call to a specific model.
func WithGlobalOverride(model string) Option {
	return func(r *Router) {
		r.globalOverride = model
	}
}

// WithConservationMode forces budget demotion regardless of remaining
// budget.
func WithConservationMode(on bool) Option {
	return func(r *Router) {
		r.conservation = on
	}
}

// WithAllowedModels restricts the catalog to the given model IDs. An
// empty list leaves the catalog unrestricted. Restricting away every
// entry leaves routing on the hard default model.
func WithAllowedModels(ids []string) Option {
	return func(r *Router) {
		if len(ids) == 0 {
			return
		}
		allowed := make(map[string]bool, len(ids))
		for _, id := range ids {
			id = strings.TrimSpace(id)
			if id != "" {
				allowed[id] = true
			}
		}
		var kept []CatalogEntry
		for _, e := range r.catalog {
			if allowed[e.ID] {
				kept = append(kept, e)
			}
		}
		r.catalog = kept
	}
}

// NewRouter creates a router with the default catalog and role tiers,
// then applies options. WithAllowedModels must follow WithCatalog when
// both are given.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		catalog:       DefaultCatalog(),
		roleTiers:     DefaultRoleTiers(),
		roleOverrides: make(map[models.Role]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve applies the routing rules in strict precedence order and
// returns the chosen model. Overrides (process-wide, then per-role) end
// resolution outright; otherwise the role's default tier is adjusted by
// complexity promotion, budget demotion, and finally retry promotion,
// which runs last and may undo a demotion.
func (r *Router) Resolve(req Request) models.RoutingDecision {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if req.OverrideModel != "" {
		return models.RoutingDecision{
			Model:  req.OverrideModel,
			Tier:   r.tierOf(req.OverrideModel),
			Reason: "process override",
		}
	}
	if r.globalOverride != "" {
		return models.RoutingDecision{
			Model:  r.globalOverride,
			Tier:   r.tierOf(r.globalOverride),
			Reason: "process override",
		}
	}
	if model, ok := r.roleOverrides[req.Role]; ok && model != "" {
		return models.RoutingDecision{
			Model:  model,
			Tier:   r.tierOf(model),
			Reason: fmt.Sprintf("role override for %s", req.Role),
		}
	}

	tier, ok := r.roleTiers[req.Role]
	if !ok {
		tier = models.TierMedium
	}
	steps := []string{fmt.Sprintf("%s defaults to %s", req.Role, tier)}

	if tier == models.TierMedium && req.Complexity >= ComplexityPromotionFloor {
		tier = tier.Promote(1)
		steps = append(steps, fmt.Sprintf("complexity %.2f promotes to %s", req.Complexity, tier))
	}

	if r.conservation || lowBudget(req) {
		// Plan quality is never traded for cost.
		if req.Role != models.RolePlanner {
			tier = tier.Demote(1)
			steps = append(steps, fmt.Sprintf("low budget demotes to %s", tier))
		}
	}

	// Retry promotion runs last: a retried task gets a stronger model
	// even when budget demotion just fired.
	if req.RetryCount >= 1 && tier != models.TierHigh {
		tier = tier.Promote(1)
		steps = append(steps, fmt.Sprintf("retry %d promotes to %s", req.RetryCount, tier))
	}

	model, actual := r.modelForTier(tier)
	if actual != tier {
		steps = append(steps, fmt.Sprintf("no %s model, using %s", tier, actual))
	}
	return models.RoutingDecision{
		Model:  model,
		Tier:   actual,
		Reason: strings.Join(steps, "; "),
	}
}

// ResolveFallback demotes exactly one tier from the current model's tier,
// for rate-limit recovery. Idempotent once at the lowest tier.
func (r *Router) ResolveFallback(currentModel string) models.RoutingDecision {
	r.mu.RLock()
	defer r.mu.RUnlock()

	from := r.tierOf(currentModel)
	tier := from.Demote(1)
	model, actual := r.modelForTier(tier)
	return models.RoutingDecision{
		Model:  model,
		Tier:   actual,
		Reason: fmt.Sprintf("rate limit fallback from %s", from),
	}
}

// tierOf returns the catalog tier for a model, or medium for a model the
// catalog does not know.
func (r *Router) tierOf(model string) models.ModelTier {
	for _, e := range r.catalog {
		if e.ID == model {
			return e.Tier
		}
	}
	return models.TierMedium
}

// modelForTier picks the cheapest catalog entry for the tier. When the
// tier is empty it searches upward through higher tiers, then downward,
// and finally falls back to DefaultModel. Returns the model and the tier
// it was actually found in.
func (r *Router) modelForTier(tier models.ModelTier) (string, models.ModelTier) {
	if model := r.cheapestAt(tier); model != "" {
		return model, tier
	}
	for t := tier.Promote(1); t != tier; t = t.Promote(1) {
		if model := r.cheapestAt(t); model != "" {
			return model, t
		}
		if t == models.TierHigh {
			break
		}
	}
	for t := tier.Demote(1); t != tier; t = t.Demote(1) {
		if model := r.cheapestAt(t); model != "" {
			return model, t
		}
		if t == models.TierLow {
			break
		}
	}
	return DefaultModel, tier
}

func (r *Router) cheapestAt(tier models.ModelTier) string {
	var best string
	var bestCost float64
	for _, e := range r.catalog {
		if e.Tier != tier {
			continue
		}
		if best == "" || e.cost() < bestCost {
			best = e.ID
			bestCost = e.cost()
		}
	}
	return best
}

// Pricing returns the per-million-token pricing for a model, falling back
// to zero pricing for unknown models.
func (r *Router) Pricing(model string) (inputPerMillion, outputPerMillion float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.catalog {
		if e.ID == model {
			return e.InputPerMillion, e.OutputPerMillion
		}
	}
	return 0, 0
}

func lowBudget(req Request) bool {
	if req.BudgetTotal <= 0 {
		return false
	}
	return float64(req.BudgetRemaining) < LowBudgetFraction*float64(req.BudgetTotal)
}
