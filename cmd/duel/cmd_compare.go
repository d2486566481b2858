package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llm-duel/backend/internal/comparison"
	"github.com/llm-duel/backend/internal/models"
	"github.com/llm-duel/backend/internal/persona"
	"github.com/llm-duel/backend/internal/prompts"
	"github.com/llm-duel/backend/internal/session"
)

type compareOptions struct {
	prompt       string
	quick        int
	personaA     string
	personaB     string
	temperatureA float64
	temperatureB float64
	output       string
}

func newCompareCommand() *cobra.Command {
	opts := &compareOptions{}
	defA, defB := models.DefaultConfigA(), models.DefaultConfigB()

	cmd := &cobra.Command{
		Use:   "compare [prompt]",
		Short: "Run one comparison and print the result",
		Long: `Run the prompt against Model A and Model B concurrently, then score both
answers. The prompt comes from the argument, --prompt, or --quick N for one of
the built-in prompts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.prompt = args[0]
			}
			return runCompare(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "Prompt to compare")
	cmd.Flags().IntVar(&opts.quick, "quick", 0, "Use built-in prompt N (1-based, see 'duel prompts')")
	cmd.Flags().StringVar(&opts.personaA, "persona-a", defA.Persona.String(), "Persona for Model A")
	cmd.Flags().StringVar(&opts.personaB, "persona-b", defB.Persona.String(), "Persona for Model B")
	cmd.Flags().Float64Var(&opts.temperatureA, "temperature-a", defA.Temperature, "Temperature for Model A (0.0-2.0)")
	cmd.Flags().Float64Var(&opts.temperatureB, "temperature-b", defB.Temperature, "Temperature for Model B (0.0-2.0)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "Output format: text, json or yaml")

	return cmd
}

func runCompare(cmd *cobra.Command, opts *compareOptions) error {
	render, err := renderer(opts.output)
	if err != nil {
		return err
	}

	prompt := opts.prompt
	if opts.quick > 0 {
		quick := prompts.Quick()
		if opts.quick > len(quick) {
			return fmt.Errorf("--quick must be between 1 and %d", len(quick))
		}
		prompt = quick[opts.quick-1]
	}
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("a prompt is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	comparer, err := newComparer(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	sess := session.New("cli", comparer, nil)
	sess.SetPrompt(prompt)

	updates := []struct {
		slot models.Slot
		cfg  models.ModelConfiguration
	}{
		{models.SlotA, models.ModelConfiguration{Persona: persona.Parse(opts.personaA), Temperature: opts.temperatureA}},
		{models.SlotB, models.ModelConfiguration{Persona: persona.Parse(opts.personaB), Temperature: opts.temperatureB}},
	}
	for _, u := range updates {
		if err := sess.UpdateConfig(u.slot, u.cfg); err != nil {
			return fmt.Errorf("model %s: %w", u.slot, err)
		}
	}

	result, err := sess.Run(cmd.Context(), func(stage comparison.Stage) {
		if opts.output == "text" {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s...\n", stage)
		}
	})
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), result)
}
