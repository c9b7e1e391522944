package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/zoidbergclawd/elisa-sub008/internal/agent"
	"github.com/zoidbergclawd/elisa-sub008/internal/config"
	"github.com/zoidbergclawd/elisa-sub008/internal/meeting"
	"github.com/zoidbergclawd/elisa-sub008/internal/router"
	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

// newSessionID returns a short random session identifier.
func newSessionID() string {
	return uuid.New().String()[:8]
}

// buildClient creates the model API client from configuration. Bedrock
// sessions authenticate with AWS credentials; the direct API needs an
// Anthropic key from the environment or the config file.
func buildClient(cfg *config.Config) (*agent.Client, error) {
	clientCfg := agent.ClientConfig{
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	}
	if !clientCfg.UseAWSBedrock {
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w\n\nSet ANTHROPIC_API_KEY or run: elisa config anthropic.api_key <key>", err)
		}
		if err := config.ValidateAPIKey(key); err != nil {
			return nil, fmt.Errorf("%w (source: %s)", err, config.GetAPIKeySource(cfg))
		}
		clientCfg.APIKey = key
	}
	return agent.NewClient(clientCfg)
}

// buildRouter creates the model router from configuration.
func buildRouter(cfg *config.Config, modelFlag string) *router.Router {
	var opts []router.Option
	if len(cfg.Models.Allowed) > 0 {
		opts = append(opts, router.WithAllowedModels(cfg.Models.Allowed))
	}
	for role, model := range cfg.Models.RoleOverrides {
		opts = append(opts, router.WithRoleOverride(models.Role(strings.ToLower(role)), model))
	}
	if cfg.Models.Conserve {
		opts = append(opts, router.WithConservationMode(true))
	}
	override := modelFlag
	if override == "" {
		override = cfg.Models.Override
	}
	if override != "" {
		opts = append(opts, router.WithGlobalOverride(override))
	}
	return router.NewRouter(opts...)
}

// buildTeacher creates the teaching-moment source: the curriculum file
// merged over the built-in one, with a short model call as the fallback
// for concepts neither covers.
func buildTeacher(cfg *config.Config, client agent.ModelClient, rtr *router.Router) *meeting.Teacher {
	curriculum := meeting.DefaultCurriculum()
	if cfg.Meetings.Curriculum != "" {
		loaded, err := meeting.LoadCurriculumFile(cfg.Meetings.Curriculum)
		if err == nil {
			curriculum = loaded
		}
	}

	var fallback meeting.FallbackFunc
	if client != nil {
		model := rtr.Resolve(router.Request{Role: models.RoleTester}).Model
		fallback = lessonFallback(client, model)
	}
	return meeting.NewTeacher(curriculum, fallback)
}

// lessonFallback asks the model for a tiny kid-friendly explanation of a
// concept the curriculum has no prepared moment for.
func lessonFallback(client agent.ModelClient, model string) meeting.FallbackFunc {
	const system = "You explain software ideas to a curious 10-year-old in two short sentences. No jargon, no code."
	return func(ctx context.Context, concept, details string) (*meeting.Moment, error) {
		user := fmt.Sprintf("Explain what just happened in our build: %s. Detail: %s", concept, details)
		completion, err := client.Complete(ctx, model, system, user, 300)
		if err != nil {
			return nil, err
		}
		text := strings.TrimSpace(completion.Text)
		if text == "" {
			return nil, nil
		}
		return &meeting.Moment{
			Concept:     concept,
			Headline:    "Something new just happened!",
			Explanation: text,
		}, nil
	}
}
