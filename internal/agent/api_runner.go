package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/zoidbergclawd/elisa-sub008/internal/workspace"
)

// PricingFunc returns per-million-token prices for a model. The router's
// catalog provides this in production wiring.
type PricingFunc func(model string) (inputPerMillion, outputPerMillion float64)

// APIRunner executes tasks as single model-API completions with backoff
// and circuit-breaker protection. It is the production Runner.
type APIRunner struct {
	client    ModelClient
	workspace *workspace.Workspace
	pricing   PricingFunc
	breakers  *BreakerRegistry
	retryCfg  RetryConfig
	maxTokens int
}

// NewAPIRunner creates a runner over the given client. pricing may be
// nil, in which case cost is reported as zero.
func NewAPIRunner(client ModelClient, ws *workspace.Workspace, pricing PricingFunc) *APIRunner {
	return &APIRunner{
		client:    client,
		workspace: ws,
		pricing:   pricing,
		breakers:  NewBreakerRegistry(),
		retryCfg:  DefaultRetryConfig(),
		maxTokens: 8192,
	}
}

// SetRetryConfig overrides the default backoff settings.
func (r *APIRunner) SetRetryConfig(cfg RetryConfig) {
	r.retryCfg = cfg
}

// Execute implements Runner. The call is retried with backoff inside;
// a breaker-open or persistent rate limit surfaces as ErrRateLimited.
func (r *APIRunner) Execute(ctx context.Context, desc TaskDescriptor) (*Result, error) {
	if desc.Task == nil || desc.Agent == nil {
		return nil, fmt.Errorf("task descriptor missing task or agent")
	}
	if desc.Model == "" {
		return nil, fmt.Errorf("task descriptor missing model")
	}

	system := SystemPrompt(desc.Agent, desc.Task.ID)
	user := TaskPrompt(desc)

	cb := r.breakers.Get(desc.Model)
	completion, err := completeWithRetry(ctx, r.client, cb, r.retryCfg, desc.Model, system, user, r.maxTokens)
	if err != nil {
		return nil, err
	}

	summary, done := parseResponse(completion.Text)
	result := &Result{
		Success:      done,
		Summary:      summary,
		InputTokens:  completion.InputTokens,
		OutputTokens: completion.OutputTokens,
		CostUSD:      r.cost(desc.Model, completion),
	}

	if r.workspace != nil && summary != "" {
		if err := r.workspace.WriteTaskSummary(desc.Task.ID, summary); err != nil {
			log.Printf("[agent] write comms file for %s: %v", desc.Task.ID, err)
		}
	}

	return result, nil
}

func (r *APIRunner) cost(model string, c *Completion) float64 {
	if r.pricing == nil {
		return 0
	}
	inPerM, outPerM := r.pricing(model)
	return float64(c.InputTokens)/1_000_000*inPerM + float64(c.OutputTokens)/1_000_000*outPerM
}
