// Package creature is the engine's orchestrator: it owns one creature's
// state and coordinates themes, environmental adaptation, evolution,
// mutation, events, and serialization.
package creature

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pthm-cable/crescent/catalog"
	"github.com/pthm-cable/crescent/config"
	"github.com/pthm-cable/crescent/core"
	"github.com/pthm-cable/crescent/environment"
	"github.com/pthm-cable/crescent/evolution"
	"github.com/pthm-cable/crescent/mutation"
	"github.com/pthm-cable/crescent/rng"
	"github.com/pthm-cable/crescent/themes"
)

// Creature owns one creature's full lifecycle. All mutation of the
// underlying state flows through its methods.
type Creature struct {
	state    core.CreatureState
	registry *catalog.Registry
	cfg      *config.Config
	rng      *rng.Source

	themes  *themes.Stack
	envs    *environment.Interaction
	engine  *evolution.Engine
	mutator *mutation.Mutator

	bus *Bus
	log *EventLog
}

// Option configures creature construction.
type Option func(*options)

type options struct {
	seed   int64
	logDir string
}

// WithSeed fixes the random seed so the whole lifecycle is reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

// WithEventLog enables CSV event logging under dir.
func WithEventLog(dir string) Option {
	return func(o *options) { o.logDir = dir }
}

// New generates a creature from a primary trait definition. The trait's
// base form anchors the body plan when present; otherwise the form is
// rolled. Fails with GenerationError for unknown traits or an invalid
// resulting state.
func New(registry *catalog.Registry, cfg *config.Config, primaryTrait string, opts ...Option) (*Creature, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	trait, err := registry.Trait(primaryTrait)
	if err != nil {
		return nil, err
	}

	c, err := newEmpty(registry, cfg, o)
	if err != nil {
		return nil, err
	}
	src := c.rng

	c.state = core.CreatureState{
		ID:           uuid.NewString(),
		PowerLevel:   1,
		Form:         rollForm(&trait, src),
		ActiveTraits: []core.TraitDefinition{trait},
		Evolution:    core.EvolutionData{TraitStrengths: map[string]int{trait.Name: 1}},
	}
	for _, m := range trait.Manifestations {
		c.state.Form.AddFeature(m)
	}
	for _, ability := range trait.Abilities {
		if ability.Kind == core.AbilityInnate {
			ability.Active = true
			c.state.Abilities = append(c.state.Abilities, ability)
		}
	}
	c.state.Behavior = deriveBehavior(&c.state)
	c.state.Name = DescriptiveName(&c.state.Form)
	c.state.SuggestedName = SuggestName(&c.state.Form, "", "", cfg.Naming, src)

	if result := c.ValidateState(); !result.Valid {
		return nil, &core.GenerationError{
			Reason: "generated state invalid: " + strings.Join(result.Errors, "; "),
		}
	}
	return c, nil
}

// newEmpty wires a creature's subsystems without generating a state.
func newEmpty(registry *catalog.Registry, cfg *config.Config, o options) (*Creature, error) {
	src := rng.New(o.seed)
	c := &Creature{
		registry: registry,
		cfg:      cfg,
		rng:      src,
		bus:      NewBus(),
	}
	c.themes = themes.NewStack(registry, cfg.Themes)
	c.envs = environment.New(registry, cfg.Environment, src)
	c.engine = evolution.NewEngine(registry, cfg.Evolution, src)
	c.mutator = mutation.NewMutator(registry, cfg.Mutation, src, c.engine)
	if o.logDir != "" {
		log, err := NewEventLog(o.logDir)
		if err != nil {
			return nil, &core.GenerationError{Reason: err.Error()}
		}
		c.log = log
	}
	return c, nil
}

// GenerateRandom generates a creature from a uniformly random trait.
func GenerateRandom(registry *catalog.Registry, cfg *config.Config, opts ...Option) (*Creature, error) {
	names := registry.TraitNames()
	if len(names) == 0 {
		return nil, &core.GenerationError{Reason: "no traits in registry"}
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	src := rng.New(o.seed)
	return New(registry, cfg, src.Pick(names), opts...)
}

// GenerateForEnvironment generates a creature whose primary trait has the
// strongest affinity for the given environment, then pre-exposes it.
func GenerateForEnvironment(registry *catalog.Registry, cfg *config.Config, envName string, opts ...Option) (*Creature, error) {
	if _, err := registry.Environment(envName); err != nil {
		return nil, err
	}
	best := ""
	bestAffinity := 0.0
	for _, name := range registry.TraitNames() {
		trait, err := registry.Trait(name)
		if err != nil {
			continue
		}
		if affinity := trait.EnvironmentalAffinities[envName]; affinity > bestAffinity {
			best, bestAffinity = name, affinity
		}
	}
	if best == "" {
		return nil, &core.GenerationError{
			Reason: fmt.Sprintf("no trait has affinity for environment %s", envName),
		}
	}
	c, err := New(registry, cfg, best, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Adapt(envName, cfg.Environment.MinExposureTime); err != nil {
		return nil, err
	}
	return c, nil
}

// rollForm builds the body plan: the trait's base form when it declares one,
// a random compatible plan otherwise.
func rollForm(trait *core.TraitDefinition, src *rng.Source) core.PhysicalForm {
	form := core.PhysicalForm{
		Size:               core.SizeMedium,
		AdaptabilityScores: make(map[string]float64),
	}
	if trait.BaseForm != nil {
		form.Shape = trait.BaseForm.Shape
		form.PrimaryMovement = trait.BaseForm.Movement
	} else {
		shapes := core.AllShapes()
		form.Shape = shapes[src.IntN(len(shapes))]
		form.PrimaryMovement = core.DefaultMovement(form.Shape)
	}
	sizes := core.AllSizes()
	form.Size = sizes[1+src.IntN(3)] // Small through Large at generation
	return form
}

// deriveBehavior derives the behavioral profile from form and traits.
func deriveBehavior(state *core.CreatureState) core.Behavior {
	b := core.Behavior{
		Intelligence:    core.IntelligenceAnimal,
		Aggression:      core.AggressionDefensive,
		SocialStructure: core.SocialSolitary,
	}
	switch state.Form.Shape {
	case core.ShapeAberrant:
		b.Intelligence = core.IntelligenceCunning
	case core.ShapeHumanoid:
		b.Intelligence = core.IntelligenceSapient
	case core.ShapeAmorphous:
		b.Intelligence = core.IntelligenceMindless
	}
	switch {
	case state.Form.Size >= core.SizeHuge:
		b.Aggression = core.AggressionTerritorial
	case len(state.Abilities) > 1:
		b.Aggression = core.AggressionAggressive
	}
	switch state.Form.Shape {
	case core.ShapeArachnid, core.ShapeChitinous:
		b.SocialStructure = core.SocialHive
	case core.ShapeBestial:
		b.SocialStructure = core.SocialPack
	}
	if state.Form.Size == core.SizeTiny {
		b.SocialStructure = core.SocialSwarm
	}
	for _, trait := range state.ActiveTraits {
		for _, m := range trait.Manifestations {
			b.SpecialBehaviors = core.AddUnique(b.SpecialBehaviors, m+"_display")
		}
	}
	return b
}

// ID returns the creature's unique identifier.
func (c *Creature) ID() string { return c.state.ID }

// Name returns the descriptive name.
func (c *Creature) Name() string { return c.state.Name }

// State returns a deep copy of the creature state. Mutating the copy never
// reaches the engine.
func (c *Creature) State() core.CreatureState {
	return c.state.Clone()
}

// Themes exposes the theme stack.
func (c *Creature) Themes() *themes.Stack { return c.themes }

// Environments exposes the environmental tracker.
func (c *Creature) Environments() *environment.Interaction { return c.envs }

// Events exposes the event bus for handler registration.
func (c *Creature) Events() *Bus { return c.bus }

// Close releases the event log, if any.
func (c *Creature) Close() error { return c.log.Close() }

// Adapt exposes the creature to an environment for a duration. Lethal
// stress aborts without committing and emits a stress threshold event.
func (c *Creature) Adapt(env string, duration int) error {
	if err := c.envs.ProcessTime(env, duration); err != nil {
		var kind EventKind = EventValidationFailure
		if _, lethal := err.(*core.EnvironmentalStressError); lethal {
			kind = EventStressThreshold
		}
		c.emit(kind, err.Error())
		return err
	}
	c.syncDevelopedAbilities(env)
	c.emit(EventEnvironmentalAdaptation,
		fmt.Sprintf("%s adaptation=%.2f", env, c.envs.AdaptationLevel(env)))
	c.refreshName()
	return nil
}

// syncDevelopedAbilities mirrors environmentally developed abilities onto
// the creature itself.
func (c *Creature) syncDevelopedAbilities(env string) {
	data, ok := c.envs.Data(env)
	if !ok {
		return
	}
	for _, name := range data.DevelopedAbilities {
		if c.state.HasAbility(name) {
			continue
		}
		ability, err := c.registry.Ability(name)
		if err != nil {
			ability = core.Ability{Name: name, PowerLevel: 1}
		}
		ability.Kind = core.AbilityEnvironmental
		ability.Active = true
		c.state.Abilities = append(c.state.Abilities, ability)
	}
}

// Evolve advances the creature one evolution stage.
func (c *Creature) Evolve() (string, error) {
	path, err := c.engine.Evolve(&c.state, c.themes, c.envs)
	if err != nil {
		c.emit(EventValidationFailure, err.Error())
		return "", err
	}
	c.emit(EventEvolution, path)
	c.refreshName()
	return path, nil
}

// CanEvolve reports whether evolution is currently possible.
func (c *Creature) CanEvolve() bool {
	return c.engine.CanEvolve(&c.state, c.themes, c.envs)
}

// EvolutionaryPressure returns the current accumulated pressure.
func (c *Creature) EvolutionaryPressure() float64 {
	return c.engine.Pressure(&c.state, c.themes, c.envs)
}

// AvailableEvolutionPaths returns the open paths and their weights.
func (c *Creature) AvailableEvolutionPaths() map[string]float64 {
	return c.engine.AvailablePaths(&c.state, c.themes, c.envs)
}

// Mutate expresses the creature's one lifetime mutation, optionally steered
// by a catalyst.
func (c *Creature) Mutate(catalyst string) (mutation.Tag, error) {
	tag, err := c.mutator.Mutate(&c.state, c.themes, c.envs, catalyst)
	return c.finishMutation(tag, err)
}

// MutateFromEnvironment expresses the lifetime mutation from one
// environment's candidates.
func (c *Creature) MutateFromEnvironment(env string) (mutation.Tag, error) {
	tag, err := c.mutator.MutateFromEnvironment(&c.state, c.themes, c.envs, env)
	return c.finishMutation(tag, err)
}

// MutateFromTrait expresses the lifetime mutation from one active trait's
// candidates.
func (c *Creature) MutateFromTrait(trait string) (mutation.Tag, error) {
	tag, err := c.mutator.MutateFromTrait(&c.state, c.themes, c.envs, trait)
	return c.finishMutation(tag, err)
}

func (c *Creature) finishMutation(tag mutation.Tag, err error) (mutation.Tag, error) {
	if err != nil {
		c.emit(EventValidationFailure, err.Error())
		return mutation.Tag{}, err
	}
	c.emit(EventMutation, tag.String())
	if tag.Kind == mutation.KindTrait {
		c.emit(EventTraitEmergence, tag.Effect)
	}
	c.refreshName()
	return tag, nil
}

// AddTheme activates a theme layer. Conflicts surfaced by the new
// interaction set emit conflict events but do not fail the call.
func (c *Creature) AddTheme(name string, strength float64) error {
	if err := c.themes.Add(name, strength); err != nil {
		c.emit(EventValidationFailure, err.Error())
		return err
	}
	c.emit(EventThemeAcquisition, fmt.Sprintf("%s strength=%.2f", name, strength))
	for _, conflict := range c.themes.Conflicts() {
		c.emit(EventConflict, conflict)
	}
	c.refreshName()
	return nil
}

// RemoveTheme deactivates a theme layer.
func (c *Creature) RemoveTheme(name string) bool {
	removed := c.themes.Remove(name)
	if removed {
		c.refreshName()
	}
	return removed
}

// AddTrait attaches a secondary trait, enforcing pairwise compatibility.
func (c *Creature) AddTrait(name string) error {
	trait, err := c.registry.Trait(name)
	if err != nil {
		return err
	}
	for _, active := range c.state.ActiveTraits {
		if active.IncompatibleWithTrait(trait.Name) || trait.IncompatibleWithTrait(active.Name) {
			err := &core.GenerationError{
				Reason: fmt.Sprintf("trait %s incompatible with active trait %s", trait.Name, active.Name),
			}
			c.emit(EventValidationFailure, err.Error())
			return err
		}
	}
	c.state.ActiveTraits = append(c.state.ActiveTraits, trait)
	if c.state.Evolution.TraitStrengths == nil {
		c.state.Evolution.TraitStrengths = make(map[string]int)
	}
	c.state.Evolution.TraitStrengths[trait.Name] = 1
	for _, m := range trait.Manifestations {
		c.state.Form.AddFeature(m)
	}
	for _, ability := range trait.Abilities {
		if ability.Kind == core.AbilityInnate && !c.state.HasAbility(ability.Name) {
			ability.Active = true
			c.state.Abilities = append(c.state.Abilities, ability)
		}
	}
	c.emit(EventTraitEmergence, name)
	return nil
}

// PossibleSecondaryTraits lists every registry trait compatible with the
// whole active set.
func (c *Creature) PossibleSecondaryTraits() []string {
	var out []string
	for _, name := range c.registry.TraitNames() {
		if c.state.HasTrait(name) {
			continue
		}
		trait, err := c.registry.Trait(name)
		if err != nil {
			continue
		}
		compatible := true
		for _, active := range c.state.ActiveTraits {
			if active.IncompatibleWithTrait(trait.Name) || trait.IncompatibleWithTrait(active.Name) {
				compatible = false
				break
			}
		}
		if compatible {
			out = append(out, name)
		}
	}
	return out
}

// CombinedThemeEffect folds the active themes over the creature's primary
// trait and primary environment.
func (c *Creature) CombinedThemeEffect() themes.Effect {
	primaryTrait := ""
	if len(c.state.ActiveTraits) > 0 {
		primaryTrait = c.state.ActiveTraits[0].Name
	}
	return c.themes.CombinedEffect(primaryTrait, c.envs.PrimaryEnvironment())
}

// ValidateState runs the full consistency check: form invariants, ability
// uniqueness and requirements, pairwise trait compatibility, and theme
// conflicts as warnings.
func (c *Creature) ValidateState() core.ValidationResult {
	result := core.ValidationResult{Valid: true, StabilityMetrics: map[string]float64{}}

	if err := c.state.Form.Validate(); err != nil {
		result.AddError(err.Error())
	}

	seen := make(map[string]bool)
	for _, ability := range c.state.Abilities {
		if seen[ability.Name] {
			result.AddError("duplicate ability " + ability.Name)
		}
		seen[ability.Name] = true
		for _, req := range ability.Requirements {
			if !c.requirementMet(req) {
				result.AddError(fmt.Sprintf("ability %s requirement unmet: %s", ability.Name, req))
			}
		}
	}

	for i := 0; i < len(c.state.ActiveTraits); i++ {
		for j := i + 1; j < len(c.state.ActiveTraits); j++ {
			a, b := &c.state.ActiveTraits[i], &c.state.ActiveTraits[j]
			if a.IncompatibleWithTrait(b.Name) || b.IncompatibleWithTrait(a.Name) {
				result.AddError(fmt.Sprintf("incompatible traits %s and %s", a.Name, b.Name))
			}
		}
	}

	for _, conflict := range c.themes.Conflicts() {
		result.Warnings = append(result.Warnings, conflict)
	}

	result.StabilityMetrics["theme_conflicts"] = float64(len(c.themes.Conflicts()))
	result.StabilityMetrics["evolutionary_pressure"] = c.EvolutionaryPressure()
	result.StabilityMetrics["max_adaptation"] = c.envs.MaxAdaptation()

	if !result.Valid {
		c.emit(EventValidationFailure, strings.Join(result.Errors, "; "))
	}
	return result
}

func (c *Creature) requirementMet(req string) bool {
	kind, name, ok := strings.Cut(req, ":")
	if !ok {
		return false
	}
	switch kind {
	case "trait":
		return c.state.HasTrait(name)
	case "theme":
		return c.themes.Has(name)
	case "env":
		return c.envs.IsAdaptedTo(name)
	}
	return false
}

// refreshName regenerates the suggested name from the current strongest
// theme and primary environment. The descriptive name tracks the form.
func (c *Creature) refreshName() {
	strongest := ""
	best := 0.0
	for _, name := range c.themes.Active() {
		if s, _ := c.themes.Strength(name); s > best {
			strongest, best = name, s
		}
	}
	c.state.SuggestedName = SuggestName(&c.state.Form, strongest, c.envs.PrimaryEnvironment(), c.cfg.Naming, c.rng)
	c.state.Name = DescriptiveName(&c.state.Form)
}

func (c *Creature) emit(kind EventKind, detail string) {
	ev := Event{
		Kind:       kind,
		CreatureID: c.state.ID,
		Detail:     detail,
		Stage:      c.state.Evolution.CurrentStage,
		Timestamp:  timeNow(),
	}
	c.bus.Emit(ev)
	_ = c.log.Write(ev)
}
