package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracecart/curator/internal/config"
	"github.com/tracecart/curator/internal/gates"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and manage quality threshold rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the active rule set in priority order",
	RunE: func(cmd *cobra.Command, args []string) error {
		rules := gates.DefaultRules()
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		source := "built-in defaults"
		if cfg.RulesPath != "" {
			rules, err = config.LoadRules(cfg.RulesPath)
			if err != nil {
				return err
			}
			source = cfg.RulesPath
		}

		registry, err := gates.NewRegistryWithRules(rules)
		if err != nil {
			return fmt.Errorf("invalid quality rules: %w", err)
		}

		fmt.Printf("\n%s (%s)\n\n", cyan("=== Quality Rules ==="), source)
		for _, rule := range registry.Snapshot() {
			state := green("enabled")
			if !rule.Enabled {
				state = red("disabled")
			}
			fmt.Printf("[%3d] %s  %s in [%.0f, %.0f] -> %s  (%s)\n",
				rule.Priority, rule.Name, rule.Category,
				rule.MinScore, rule.MaxScore, actionLabel(rule.Action), state)
			for _, cond := range rule.Conditions {
				fmt.Printf("        when %s %s %g\n", cond.Field, cond.Operator, cond.Value)
			}
		}
		fmt.Println()
		return nil
	},
}

var rulesExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Write the default rule set to a YAML file for editing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SaveRules(args[0], gates.DefaultRules()); err != nil {
			return err
		}
		fmt.Printf("wrote default rules to %s\n", args[0])
		fmt.Println("set CURATOR_RULES_PATH to use the edited file")
		return nil
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate a YAML rules file without loading it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := config.LoadRules(args[0])
		if err != nil {
			return err
		}
		if _, err := gates.NewRegistryWithRules(rules); err != nil {
			return fmt.Errorf("invalid quality rules: %w", err)
		}
		fmt.Printf("%s %s: %d rules OK\n", green("✓"), args[0], len(rules))
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesExportCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rootCmd.AddCommand(rulesCmd)
}
