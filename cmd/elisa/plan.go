package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zoidbergclawd/elisa-sub008/internal/config"
	"github.com/zoidbergclawd/elisa-sub008/internal/plan"
	"github.com/zoidbergclawd/elisa-sub008/internal/router"
	"github.com/zoidbergclawd/elisa-sub008/pkg/models"
)

var planModel string

var planCmd = &cobra.Command{
	Use:   "plan <goal>",
	Short: "Show the build plan without building",
	Long: `Ask the planner how it would split a goal into tasks and helpers,
without executing anything.

  elisa plan "a quiz game about space"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planModel, "model", "", "Pin the planner to one model")
}

func runPlan(cmd *cobra.Command, args []string) error {
	goal := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client, err := buildClient(cfg)
	if err != nil {
		return err
	}
	rtr := buildRouter(cfg, planModel)

	spec := &models.ProjectSpec{Goal: goal}
	plannerModel := rtr.Resolve(router.Request{Role: models.RolePlanner}).Model

	headerColor.Printf("Planning: %s\n", goal)
	res, err := plan.NewPlanner(client, plannerModel).Generate(cmd.Context(), spec)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	printPlan(res.Plan)
	subtleColor.Printf("\nPlanning used %d tokens.\n", res.InputTokens+res.OutputTokens)
	return nil
}

func printPlan(p *models.Plan) {
	if p.PlanExplanation != "" {
		fmt.Printf("\n%s\n", p.PlanExplanation)
	}

	headerColor.Println("\nHelpers:")
	for _, a := range p.Agents {
		fmt.Printf("  %s (%s)", agentColor.Sprint(a.Name), a.Role)
		if a.Persona != "" {
			subtleColor.Printf(" — %s", a.Persona)
		}
		fmt.Println()
	}

	headerColor.Println("\nTasks:")
	for _, t := range p.Tasks {
		fmt.Printf("  %s: %s", t.ID, t.Name)
		if t.AgentName != "" {
			fmt.Printf("  [%s]", agentColor.Sprint(t.AgentName))
		}
		if len(t.DependsOn) > 0 {
			subtleColor.Printf("  (after %s)", strings.Join(t.DependsOn, ", "))
		}
		fmt.Println()
	}

	if len(p.CriticalPath) > 0 {
		subtleColor.Printf("\nCritical path: %s\n", strings.Join(p.CriticalPath, " -> "))
	}
	if p.EstimatedTimeMinutes > 0 {
		fmt.Printf("Estimated time: about %d minutes\n", p.EstimatedTimeMinutes)
	}
}
