// Package mutation implements the once-per-lifetime adaptive mutation:
// candidate gathering from traits, themes, and environments, catalyst
// boosting, weighted selection, and effect application.
package mutation

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/crescent/catalog"
	"github.com/pthm-cable/crescent/config"
	"github.com/pthm-cable/crescent/core"
	"github.com/pthm-cable/crescent/environment"
	"github.com/pthm-cable/crescent/evolution"
	"github.com/pthm-cable/crescent/rng"
	"github.com/pthm-cable/crescent/themes"
)

// Tag identifies one mutation as kind:effect. Environmental effects carry an
// extra env/ability segment.
type Tag struct {
	Kind   string
	Effect string
}

// Mutation kinds.
const (
	KindPhysical      = "physical"
	KindAbility       = "ability"
	KindTrait         = "trait"
	KindEnvironmental = "environmental"
)

// ParseTag splits a kind:effect mutation tag. Unknown kinds fail with
// MutationError.
func ParseTag(raw string) (Tag, error) {
	kind, effect, ok := strings.Cut(raw, ":")
	if !ok || effect == "" {
		return Tag{}, &core.MutationError{Tag: raw, Reason: "missing kind:effect separator"}
	}
	switch kind {
	case KindPhysical, KindAbility, KindTrait, KindEnvironmental:
		return Tag{Kind: kind, Effect: effect}, nil
	}
	return Tag{}, &core.MutationError{Tag: raw, Reason: "unknown mutation kind " + kind}
}

// String reassembles the tag.
func (t Tag) String() string { return t.Kind + ":" + t.Effect }

// Mutator selects and applies mutations. Trait candidates are weighted by
// the evolution engine's dominance score.
type Mutator struct {
	registry *catalog.Registry
	cfg      config.MutationConfig
	rng      *rng.Source
	engine   *evolution.Engine
}

// NewMutator creates a mutator.
func NewMutator(registry *catalog.Registry, cfg config.MutationConfig, src *rng.Source, engine *evolution.Engine) *Mutator {
	return &Mutator{registry: registry, cfg: cfg, rng: src, engine: engine}
}

// Candidates gathers every mutation tag the creature could express with its
// selection weight. Sources: active trait mutation lists (weighted by trait
// dominance), theme trait interactions (weighted by theme strength), and
// environments whose adaptation clears the gate.
func (m *Mutator) Candidates(state *core.CreatureState, stack *themes.Stack, envs *environment.Interaction) map[string]float64 {
	candidates := make(map[string]float64)

	for _, trait := range state.ActiveTraits {
		dominance := m.engine.Dominance(&trait, state, stack, envs)
		for _, tag := range trait.Mutations {
			if m.alreadyExpressed(state, envs, tag) {
				continue
			}
			candidates[tag] += dominance
		}
	}

	for _, themeName := range stack.Active() {
		def, err := m.registry.Theme(themeName)
		if err != nil {
			continue
		}
		strength, _ := stack.Strength(themeName)
		for traitName, effects := range def.TraitInteractions {
			if !state.HasTrait(traitName) {
				continue
			}
			for _, effect := range effects {
				tag := KindPhysical + ":" + effect
				if !m.alreadyExpressed(state, envs, tag) {
					candidates[tag] += strength
				}
			}
		}
	}

	for _, envName := range envs.Active() {
		level := envs.AdaptationLevel(envName)
		if level <= m.cfg.EnvironmentalGate {
			continue
		}
		env, err := m.registry.Environment(envName)
		if err != nil {
			continue
		}
		data, _ := envs.Data(envName)
		for _, ability := range env.AbilityPool {
			if core.Contains(data.DevelopedAbilities, ability) {
				continue
			}
			candidates[KindEnvironmental+":"+envName+"/"+ability] += level
		}
	}

	return candidates
}

func (m *Mutator) alreadyExpressed(state *core.CreatureState, envs *environment.Interaction, raw string) bool {
	tag, err := ParseTag(raw)
	if err != nil {
		return true
	}
	switch tag.Kind {
	case KindPhysical:
		return core.Contains(state.Form.DistinctiveFeatures, tag.Effect)
	case KindAbility:
		return state.HasAbility(tag.Effect)
	case KindTrait:
		return state.HasTrait(tag.Effect)
	case KindEnvironmental:
		env, ability, ok := strings.Cut(tag.Effect, "/")
		if !ok {
			return true
		}
		data, found := envs.Data(env)
		return found && core.Contains(data.DevelopedAbilities, ability)
	}
	return true
}

// Mutate expresses the creature's one lifetime mutation. A non-empty
// catalyst boosts matching candidates and contributes its own infusion
// candidate. Fails with MutationError when already mutated or when nothing
// is expressible.
func (m *Mutator) Mutate(state *core.CreatureState, stack *themes.Stack, envs *environment.Interaction, catalyst string) (Tag, error) {
	if state.Mutated {
		return Tag{}, &core.MutationError{Reason: "already mutated"}
	}

	candidates := m.Candidates(state, stack, envs)
	if catalyst != "" {
		for tag, weight := range candidates {
			if strings.Contains(tag, catalyst) {
				candidates[tag] = weight * m.cfg.CatalystBoost
			}
		}
		infusion := KindAbility + ":" + catalyst + "_infusion"
		if !m.alreadyExpressed(state, envs, infusion) {
			candidates[infusion] += m.cfg.CatalystWeight
		}
	}
	if len(candidates) == 0 {
		return Tag{}, &core.MutationError{Reason: "no mutation candidates"}
	}

	raw, ok := m.rng.SelectWeighted(candidates)
	if !ok {
		return Tag{}, &core.MutationError{Reason: "no mutation candidates"}
	}
	tag, err := ParseTag(raw)
	if err != nil {
		return Tag{}, err
	}
	if err := m.apply(state, envs, tag); err != nil {
		return Tag{}, err
	}
	state.Mutated = true
	return tag, nil
}

// MutateFromEnvironment restricts the lifetime mutation to one environment's
// candidates.
func (m *Mutator) MutateFromEnvironment(state *core.CreatureState, stack *themes.Stack, envs *environment.Interaction, envName string) (Tag, error) {
	return m.mutateFiltered(state, stack, envs, func(tag string) bool {
		return strings.HasPrefix(tag, KindEnvironmental+":"+envName+"/")
	}, fmt.Sprintf("no candidates from environment %s", envName))
}

// MutateFromTrait restricts the lifetime mutation to one active trait's
// mutation list.
func (m *Mutator) MutateFromTrait(state *core.CreatureState, stack *themes.Stack, envs *environment.Interaction, traitName string) (Tag, error) {
	var allowed []string
	for _, trait := range state.ActiveTraits {
		if trait.Name == traitName {
			allowed = trait.Mutations
		}
	}
	if allowed == nil {
		return Tag{}, &core.MutationError{Reason: "trait not active: " + traitName}
	}
	return m.mutateFiltered(state, stack, envs, func(tag string) bool {
		return core.Contains(allowed, tag)
	}, fmt.Sprintf("no candidates from trait %s", traitName))
}

func (m *Mutator) mutateFiltered(state *core.CreatureState, stack *themes.Stack, envs *environment.Interaction, keep func(string) bool, emptyReason string) (Tag, error) {
	if state.Mutated {
		return Tag{}, &core.MutationError{Reason: "already mutated"}
	}
	candidates := m.Candidates(state, stack, envs)
	for tag := range candidates {
		if !keep(tag) {
			delete(candidates, tag)
		}
	}
	if len(candidates) == 0 {
		return Tag{}, &core.MutationError{Reason: emptyReason}
	}
	raw, _ := m.rng.SelectWeighted(candidates)
	tag, err := ParseTag(raw)
	if err != nil {
		return Tag{}, err
	}
	if err := m.apply(state, envs, tag); err != nil {
		return Tag{}, err
	}
	state.Mutated = true
	return tag, nil
}

// apply dispatches a mutation's effect onto the creature.
func (m *Mutator) apply(state *core.CreatureState, envs *environment.Interaction, tag Tag) error {
	switch tag.Kind {
	case KindPhysical:
		return m.applyPhysical(state, tag)
	case KindAbility:
		return m.applyAbility(state, tag)
	case KindTrait:
		return m.applyTrait(state, tag)
	case KindEnvironmental:
		return m.applyEnvironmental(state, envs, tag)
	}
	return &core.MutationError{Tag: tag.String(), Reason: "unknown mutation kind"}
}

// applyPhysical interprets the effect as a locomotion gain, a size change,
// or failing both, a distinctive feature.
func (m *Mutator) applyPhysical(state *core.CreatureState, tag Tag) error {
	if movement, err := core.ParseLocomotion(tag.Effect); err == nil {
		if movement != state.Form.PrimaryMovement && core.MovementCompatible(movement, state.Form.Shape) {
			for _, have := range state.Form.SecondaryMovements {
				if have == movement {
					return nil
				}
			}
			state.Form.SecondaryMovements = append(state.Form.SecondaryMovements, movement)
		}
		return nil
	}
	if size, err := core.ParseSize(tag.Effect); err == nil {
		state.Form.Size = size
		return nil
	}
	state.Form.AddFeature(tag.Effect)
	return nil
}

func (m *Mutator) applyAbility(state *core.CreatureState, tag Tag) error {
	if state.HasAbility(tag.Effect) {
		return &core.MutationError{Tag: tag.String(), Reason: "ability already owned"}
	}
	ability, err := m.registry.Ability(tag.Effect)
	if err != nil {
		ability = core.Ability{Name: tag.Effect}
	}
	ability.Kind = core.AbilityEvolved
	ability.Active = true
	ability.PowerLevel = state.Evolution.CurrentStage + 1
	state.Abilities = append(state.Abilities, ability)
	return nil
}

func (m *Mutator) applyTrait(state *core.CreatureState, tag Tag) error {
	trait, err := m.registry.Trait(tag.Effect)
	if err != nil {
		return &core.MutationError{Tag: tag.String(), Reason: err.Error()}
	}
	for _, active := range state.ActiveTraits {
		if active.IncompatibleWithTrait(trait.Name) || trait.IncompatibleWithTrait(active.Name) {
			return &core.MutationError{
				Tag:    tag.String(),
				Reason: fmt.Sprintf("trait %s incompatible with active trait %s", trait.Name, active.Name),
			}
		}
	}
	state.ActiveTraits = append(state.ActiveTraits, trait)
	if state.Evolution.TraitStrengths == nil {
		state.Evolution.TraitStrengths = make(map[string]int)
	}
	state.Evolution.TraitStrengths[trait.Name] = 1
	return nil
}

// applyEnvironmental parses env/ability, deepens the environment bond, and
// grants the ability both environmentally and to the creature.
func (m *Mutator) applyEnvironmental(state *core.CreatureState, envs *environment.Interaction, tag Tag) error {
	envName, abilityName, ok := strings.Cut(tag.Effect, "/")
	if !ok {
		return &core.MutationError{Tag: tag.String(), Reason: "environmental effect needs env/ability"}
	}
	if err := envs.Boost(envName, m.cfg.AdaptationBoost); err != nil {
		return &core.MutationError{Tag: tag.String(), Reason: err.Error()}
	}
	if err := envs.GrantAbility(envName, abilityName); err != nil {
		return &core.MutationError{Tag: tag.String(), Reason: err.Error()}
	}
	if !state.HasAbility(abilityName) {
		ability, err := m.registry.Ability(abilityName)
		if err != nil {
			ability = core.Ability{Name: abilityName}
		}
		ability.Kind = core.AbilityEnvironmental
		ability.Active = true
		ability.PowerLevel = state.Evolution.CurrentStage + 1
		state.Abilities = append(state.Abilities, ability)
	}
	return nil
}
