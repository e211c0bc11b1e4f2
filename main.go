package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pthm-cable/crescent/catalog"
	"github.com/pthm-cable/crescent/config"
	"github.com/pthm-cable/crescent/core"
	"github.com/pthm-cable/crescent/creature"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	catalogDir := flag.String("catalog-dir", "", "Catalog directory (empty = embedded defaults)")
	trait := flag.String("trait", "", "Primary trait (empty = random creature)")
	env := flag.String("environment", "", "Generate for this environment and adapt in it")
	theme := flag.String("theme", "", "Theme to apply")
	themeStrength := flag.Float64("theme-strength", 1.0, "Strength for -theme")
	exposure := flag.Int("exposure", 0, "Time units of environmental exposure")
	mutate := flag.Bool("mutate", false, "Express the lifetime mutation")
	catalyst := flag.String("catalyst", "", "Mutation catalyst")
	evolve := flag.Int("evolve", 0, "Evolution attempts")
	outputDir := flag.String("output-dir", "", "Output directory for snapshot and event CSV")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	registry, err := catalog.Load(*catalogDir)
	if err != nil {
		slog.Error("failed to load catalogs", "error", err)
		os.Exit(1)
	}

	if err := run(registry, cfg, options{
		trait:         *trait,
		env:           *env,
		theme:         *theme,
		themeStrength: *themeStrength,
		exposure:      *exposure,
		mutate:        *mutate,
		catalyst:      *catalyst,
		evolve:        *evolve,
		outputDir:     *outputDir,
		seed:          *seed,
	}); err != nil {
		slog.Error("lifecycle run failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	trait         string
	env           string
	theme         string
	themeStrength float64
	exposure      int
	mutate        bool
	catalyst      string
	evolve        int
	outputDir     string
	seed          int64
}

func run(registry *catalog.Registry, cfg *config.Config, opts options) error {
	genOpts := []creature.Option{creature.WithSeed(opts.seed)}
	if opts.outputDir != "" {
		genOpts = append(genOpts, creature.WithEventLog(opts.outputDir))
	}

	var c *creature.Creature
	var err error
	switch {
	case opts.trait != "":
		c, err = creature.New(registry, cfg, opts.trait, genOpts...)
	case opts.env != "":
		c, err = creature.GenerateForEnvironment(registry, cfg, opts.env, genOpts...)
	default:
		c, err = creature.GenerateRandom(registry, cfg, genOpts...)
	}
	if err != nil {
		return err
	}
	defer c.Close()

	c.Events().OnAll(func(ev creature.Event) {
		slog.Info("lifecycle event", "kind", string(ev.Kind), "detail", ev.Detail, "stage", ev.Stage)
	})

	state := c.State()
	slog.Info("creature generated",
		"id", state.ID,
		"name", state.Name,
		"suggested_name", state.SuggestedName,
		"shape", state.Form.Shape.String(),
		"movement", state.Form.PrimaryMovement.String(),
	)

	if opts.theme != "" {
		if err := c.AddTheme(opts.theme, opts.themeStrength); err != nil {
			return err
		}
	}
	if opts.env != "" && opts.exposure > 0 {
		if err := c.Adapt(opts.env, opts.exposure); err != nil {
			return err
		}
	}
	if opts.mutate {
		if tag, err := c.Mutate(opts.catalyst); err != nil {
			slog.Warn("mutation rejected", "error", err)
		} else {
			slog.Info("mutation expressed", "tag", tag.String())
		}
	}
	for i := 0; i < opts.evolve; i++ {
		path, err := c.Evolve()
		if err != nil {
			slog.Warn("evolution halted", "attempt", i+1, "error", err)
			break
		}
		slog.Info("evolved", "path", path)
	}

	result := c.ValidateState()
	slog.Info("final validation",
		"valid", result.Valid,
		"warnings", len(result.Warnings),
		"pressure", fmt.Sprintf("%.2f", c.EvolutionaryPressure()),
	)

	if opts.outputDir != "" {
		data, err := c.Snapshot(core.DefaultSnapshotOptions())
		if err != nil {
			return err
		}
		path := filepath.Join(opts.outputDir, "creature.json")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		if err := cfg.WriteYAML(filepath.Join(opts.outputDir, "config.yaml")); err != nil {
			return err
		}
		slog.Info("snapshot written", "path", path)
	}
	return nil
}
