// curator turns recorded browser sessions into gated training examples.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tracecart/curator/internal/ai"
	"github.com/tracecart/curator/internal/cache"
	"github.com/tracecart/curator/internal/config"
	"github.com/tracecart/curator/internal/gates"
	"github.com/tracecart/curator/internal/pipeline"
	"github.com/tracecart/curator/internal/storage/sqlite"
	"github.com/tracecart/curator/internal/types"
)

var rootCmd = &cobra.Command{
	Use:   "curator",
	Short: "Curate recorded browser sessions into training examples",
	Long: `curator processes recorded browser-interaction sessions: it resolves
selectors, reconstructs the user journey, scores session quality, and
gates which sessions are eligible to export as training examples.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runtime bundles the wired components a command needs. Close releases
// the underlying database.
type runtime struct {
	cfg     config.Config
	storage *sqlite.Storage
	cache   *cache.Cache
	gate    *gates.Gate
	pipe    *pipeline.Pipeline
}

func (r *runtime) Close() {
	if r.storage != nil {
		_ = r.storage.Close()
	}
}

// newRuntime wires storage, cache, gate, and pipeline from the
// environment configuration. Vision analysis is attached only when
// enabled and an API key is available.
func newRuntime() (*runtime, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg}

	var store cache.Store
	var trends gates.TrendLog
	if cfg.DBPath != "" {
		storage, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		rt.storage = storage
		store = storage
		trends = storage
	} else {
		store = cache.NewMemoryStore()
		trends = gates.NewMemoryTrendLog()
	}

	rt.cache, err = cache.New(&cache.Config{Store: store, TTL: cfg.CacheTTL()})
	if err != nil {
		rt.Close()
		return nil, err
	}

	rules := gates.DefaultRules()
	if cfg.RulesPath != "" {
		rules, err = config.LoadRules(cfg.RulesPath)
		if err != nil {
			rt.Close()
			return nil, err
		}
	}
	registry, err := gates.NewRegistryWithRules(rules)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("invalid quality rules: %w", err)
	}
	rt.gate, err = gates.New(&gates.Config{Registry: registry, Trends: trends})
	if err != nil {
		rt.Close()
		return nil, err
	}

	var analyzer pipeline.VisionAnalyzer
	if cfg.VisionEnabled && os.Getenv("ANTHROPIC_API_KEY") != "" {
		a, err := ai.NewAnalyzer(&ai.Config{Model: cfg.Model, Cache: rt.cache})
		if err != nil {
			rt.Close()
			return nil, err
		}
		analyzer = a
	}

	rt.pipe, err = pipeline.New(&pipeline.Config{
		Gate:             rt.gate,
		Analyzer:         analyzer,
		ReliabilityFloor: cfg.ReliabilityFloor,
		Concurrency:      cfg.Concurrency,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}

	return rt, nil
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// actionLabel renders a gate action with the conventional color coding.
func actionLabel(action types.RuleAction) string {
	switch action {
	case types.ActionAccept:
		return green("ACCEPT")
	case types.ActionWarn:
		return yellow("WARN")
	case types.ActionFlag:
		return yellow("FLAG")
	case types.ActionReject:
		return red("REJECT")
	default:
		return string(action)
	}
}
