// Package evolution computes evolutionary pressure, enumerates weighted
// evolution paths, and applies stage advances.
package evolution

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pthm-cable/crescent/catalog"
	"github.com/pthm-cable/crescent/config"
	"github.com/pthm-cable/crescent/core"
	"github.com/pthm-cable/crescent/environment"
	"github.com/pthm-cable/crescent/rng"
	"github.com/pthm-cable/crescent/themes"
)

// Engine drives stage advancement for one creature. It holds no per-creature
// state of its own; everything lives in CreatureState.Evolution.
type Engine struct {
	registry *catalog.Registry
	cfg      config.EvolutionConfig
	rng      *rng.Source
}

// NewEngine creates an evolution engine.
func NewEngine(registry *catalog.Registry, cfg config.EvolutionConfig, src *rng.Source) *Engine {
	return &Engine{registry: registry, cfg: cfg, rng: src}
}

// Pressure accumulates evolutionary pressure from environmental adaptation,
// active theme strength, and a flat bonus once the creature has mutated.
// Evolution unlocks at a pressure of 1.0.
func (e *Engine) Pressure(state *core.CreatureState, stack *themes.Stack, envs *environment.Interaction) float64 {
	pressure := e.cfg.EnvironmentalWeight * envs.MaxAdaptation()
	pressure += e.cfg.ThemeWeight * stack.TotalStrength()
	if state.Mutated {
		pressure += e.cfg.MutationBonus
	}
	return pressure
}

// CanEvolve reports whether the creature is below the final stage and has
// accumulated enough pressure.
func (e *Engine) CanEvolve(state *core.CreatureState, stack *themes.Stack, envs *environment.Interaction) bool {
	return state.Evolution.CurrentStage < e.cfg.MaxStage &&
		e.Pressure(state, stack, envs) >= 1.0
}

// AvailablePaths enumerates every evolution path open to the creature with
// its selection weight. Paths are named source/effect: a trait offering one
// of its evolved abilities, a theme offering one of its abilities, or an
// environment offering deeper attunement once adaptation clears the gate.
// Attunement paths unlocked by earlier evolutions stay open regardless of
// the gate.
func (e *Engine) AvailablePaths(state *core.CreatureState, stack *themes.Stack, envs *environment.Interaction) map[string]float64 {
	paths := make(map[string]float64)

	for _, trait := range state.ActiveTraits {
		dominance := e.Dominance(&trait, state, stack, envs)
		for _, ability := range trait.Abilities {
			if ability.Kind != core.AbilityEvolved || state.HasAbility(ability.Name) {
				continue
			}
			paths[trait.Name+"/"+ability.Name] = dominance
		}
	}

	for _, themeName := range stack.Active() {
		def, err := e.registry.Theme(themeName)
		if err != nil {
			continue
		}
		strength, _ := stack.Strength(themeName)
		for _, ability := range def.Abilities {
			if state.HasAbility(ability) {
				continue
			}
			paths[themeName+"/"+ability] = strength
		}
	}

	for _, env := range envs.Active() {
		level := envs.AdaptationLevel(env)
		if level <= e.cfg.EnvironmentalPathGate {
			continue
		}
		path := env + "/attunement"
		if !core.Contains(state.Evolution.History, path) {
			paths[path] = level
		}
	}

	// Paths unlocked by past evolutions skip the adaptation gate.
	for _, path := range state.Evolution.UnlockedPaths {
		if _, offered := paths[path]; offered {
			continue
		}
		if core.Contains(state.Evolution.History, path) {
			continue
		}
		env, _, ok := strings.Cut(path, "/")
		if !ok {
			continue
		}
		if _, err := e.registry.Environment(env); err != nil {
			continue
		}
		paths[path] = math.Max(envs.AdaptationLevel(env), e.cfg.EnvironmentalPathGate)
	}

	return paths
}

// Dominance scores how strongly a trait asserts itself: a bonus per past
// evolution through the trait, amplified by active environments and themes
// with affinity for it.
func (e *Engine) Dominance(trait *core.TraitDefinition, state *core.CreatureState, stack *themes.Stack, envs *environment.Interaction) float64 {
	dominance := 1.0 + float64(state.Evolution.TraitStrengths[trait.Name])*e.cfg.TraitStrengthBonus

	for _, env := range envs.Active() {
		if affinity, ok := trait.EnvironmentalAffinities[env]; ok {
			dominance *= 1.0 + affinity*envs.AdaptationLevel(env)
		}
	}
	for _, themeName := range stack.Active() {
		if resonance, ok := trait.ThemeResonance[themeName]; ok {
			strength, _ := stack.Strength(themeName)
			dominance *= 1.0 + resonance*strength
		}
	}
	return dominance
}

// Evolve advances the creature one stage along a weighted random path.
// It fails with EvolutionError when no pressure, no paths, or the final
// stage has been reached.
func (e *Engine) Evolve(state *core.CreatureState, stack *themes.Stack, envs *environment.Interaction) (string, error) {
	if state.Evolution.CurrentStage >= e.cfg.MaxStage {
		return "", &core.EvolutionError{
			Stage:  state.Evolution.CurrentStage,
			Reason: "final stage reached",
		}
	}
	if !e.CanEvolve(state, stack, envs) {
		return "", &core.EvolutionError{
			Stage:  state.Evolution.CurrentStage,
			Reason: fmt.Sprintf("insufficient pressure %.2f", e.Pressure(state, stack, envs)),
		}
	}

	paths := e.AvailablePaths(state, stack, envs)
	path, ok := e.rng.SelectWeighted(paths)
	if !ok {
		return "", &core.EvolutionError{
			Stage:  state.Evolution.CurrentStage,
			Reason: "no evolution paths available",
		}
	}

	if err := e.apply(state, path); err != nil {
		return "", err
	}

	state.Evolution.CurrentStage++
	state.Evolution.History = append(state.Evolution.History, path)
	e.unlockPaths(state, path)
	state.PowerLevel++
	return path, nil
}

// unlockPaths derives the attunement paths a completed evolution reveals:
// the environments the path's source has affinity for become selectable
// ahead of the adaptation gate.
func (e *Engine) unlockPaths(state *core.CreatureState, completed string) {
	source, _, ok := strings.Cut(completed, "/")
	if !ok {
		return
	}

	var envNames []string
	if trait, err := e.registry.Trait(source); err == nil {
		for env := range trait.EnvironmentalAffinities {
			envNames = append(envNames, env)
		}
	} else if theme, err := e.registry.Theme(source); err == nil {
		for env := range theme.EnvironmentAffinities {
			envNames = append(envNames, env)
		}
	}
	sort.Strings(envNames)

	for _, env := range envNames {
		path := env + "/attunement"
		if core.Contains(state.Evolution.History, path) {
			continue
		}
		state.Evolution.UnlockedPaths = core.AddUnique(state.Evolution.UnlockedPaths, path)
	}
}

// apply dispatches a path's effects onto the creature state.
func (e *Engine) apply(state *core.CreatureState, path string) error {
	source, effect, ok := strings.Cut(path, "/")
	if !ok {
		return &core.EvolutionError{Stage: state.Evolution.CurrentStage, Reason: "malformed path " + path}
	}

	if state.HasTrait(source) {
		return e.applyTraitPath(state, source, effect)
	}
	if _, err := e.registry.Theme(source); err == nil {
		return e.applyThemePath(state, source, effect)
	}
	if _, err := e.registry.Environment(source); err == nil {
		state.Form.AddFeature(strings.ToLower(source) + "_attunement")
		return nil
	}
	return &core.EvolutionError{Stage: state.Evolution.CurrentStage, Reason: "unknown path source " + source}
}

func (e *Engine) applyTraitPath(state *core.CreatureState, traitName, abilityName string) error {
	for _, trait := range state.ActiveTraits {
		if trait.Name != traitName {
			continue
		}
		for _, ability := range trait.Abilities {
			if ability.Name != abilityName {
				continue
			}
			ability.Active = true
			ability.PowerLevel = state.Evolution.CurrentStage + 1
			state.Abilities = append(state.Abilities, ability)
			if state.Evolution.TraitStrengths == nil {
				state.Evolution.TraitStrengths = make(map[string]int)
			}
			state.Evolution.TraitStrengths[traitName]++
			return nil
		}
	}
	return &core.EvolutionError{
		Stage:  state.Evolution.CurrentStage,
		Reason: fmt.Sprintf("trait %s has no evolved ability %s", traitName, abilityName),
	}
}

func (e *Engine) applyThemePath(state *core.CreatureState, themeName, abilityName string) error {
	ability, err := e.registry.Ability(abilityName)
	if err != nil {
		ability = core.Ability{Name: abilityName, Kind: core.AbilityEvolved}
	}
	ability.Kind = core.AbilityEvolved
	ability.Active = true
	ability.PowerLevel = state.Evolution.CurrentStage + 1
	ability.Requirements = core.AddUnique(ability.Requirements, "theme:"+themeName)
	state.Abilities = append(state.Abilities, ability)
	return nil
}
