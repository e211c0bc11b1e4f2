package core

import "fmt"

// PhysicalForm holds a creature's bodily attributes.
type PhysicalForm struct {
	Size                Size               `json:"size" yaml:"size"`
	Shape               BodyShape          `json:"shape" yaml:"shape"`
	PrimaryMovement     Locomotion         `json:"primary_movement" yaml:"primary_movement"`
	SecondaryMovements  []Locomotion       `json:"secondary_movements,omitempty" yaml:"secondary_movements,omitempty"`
	DistinctiveFeatures []string           `json:"distinctive_features,omitempty" yaml:"distinctive_features,omitempty"`
	AdaptabilityScores  map[string]float64 `json:"adaptability_scores,omitempty" yaml:"adaptability_scores,omitempty"`
}

// Validate checks the form invariants: secondary movements never duplicate
// the primary, every movement fits the shape, and adaptability scores stay
// in [0,1].
func (f *PhysicalForm) Validate() error {
	if !MovementCompatible(f.PrimaryMovement, f.Shape) {
		return fmt.Errorf("movement %s incompatible with shape %s", f.PrimaryMovement, f.Shape)
	}
	for _, m := range f.SecondaryMovements {
		if m == f.PrimaryMovement {
			return fmt.Errorf("secondary movement %s duplicates primary", m)
		}
		if !MovementCompatible(m, f.Shape) {
			return fmt.Errorf("secondary movement %s incompatible with shape %s", m, f.Shape)
		}
	}
	for name, score := range f.AdaptabilityScores {
		if score < 0 || score > 1 {
			return fmt.Errorf("adaptability score %q out of range: %.2f", name, score)
		}
	}
	return nil
}

// Clone deep-copies the form.
func (f *PhysicalForm) Clone() PhysicalForm {
	out := *f
	out.SecondaryMovements = append([]Locomotion(nil), f.SecondaryMovements...)
	out.DistinctiveFeatures = append([]string(nil), f.DistinctiveFeatures...)
	out.AdaptabilityScores = cloneMap(f.AdaptabilityScores)
	return out
}

// AddFeature records a distinctive feature, ignoring duplicates.
func (f *PhysicalForm) AddFeature(feature string) {
	if !Contains(f.DistinctiveFeatures, feature) {
		f.DistinctiveFeatures = append(f.DistinctiveFeatures, feature)
	}
}

// Ability is a specific power a creature possesses.
type Ability struct {
	Name                   string             `json:"name" yaml:"name"`
	Description            string             `json:"description,omitempty" yaml:"description,omitempty"`
	Kind                   AbilityKind        `json:"kind" yaml:"kind"`
	PowerLevel             int                `json:"power_level" yaml:"power_level"`
	Active                 bool               `json:"active" yaml:"active"`
	Requirements           []string           `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	EnvironmentalModifiers map[string]float64 `json:"environmental_modifiers,omitempty" yaml:"environmental_modifiers,omitempty"`
}

// Clone deep-copies the ability.
func (a *Ability) Clone() Ability {
	out := *a
	out.Requirements = append([]string(nil), a.Requirements...)
	out.EnvironmentalModifiers = cloneMap(a.EnvironmentalModifiers)
	return out
}

// NewInnateAbility builds an active power-1 innate ability.
func NewInnateAbility(name, description string) Ability {
	return Ability{
		Name:        name,
		Description: description,
		Kind:        AbilityInnate,
		PowerLevel:  1,
		Active:      true,
	}
}

// FormSeed is a catalog hint anchoring the body plan a trait implies.
type FormSeed struct {
	Shape    BodyShape  `json:"shape" yaml:"shape"`
	Movement Locomotion `json:"movement" yaml:"movement"`
}

// TraitDefinition is a static catalog entry describing a composable trait.
// Creatures reference definitions; they never copy-and-mutate them.
type TraitDefinition struct {
	Name                    string             `json:"name" yaml:"name"`
	BaseForm                *FormSeed          `json:"base_form,omitempty" yaml:"base_form,omitempty"`
	Manifestations          []string           `json:"manifestations,omitempty" yaml:"manifestations,omitempty"`
	Abilities               []Ability          `json:"abilities,omitempty" yaml:"abilities,omitempty"`
	EnvironmentalAffinities map[string]float64 `json:"environmental_affinities,omitempty" yaml:"environmental_affinities,omitempty"`
	IncompatibleWith        []string           `json:"incompatible_with,omitempty" yaml:"incompatible_with,omitempty"`
	Mutations               []string           `json:"mutations,omitempty" yaml:"mutations,omitempty"`
	ThemeResonance          map[string]float64 `json:"theme_resonance,omitempty" yaml:"theme_resonance,omitempty"`
}

// Clone deep-copies the definition, including its ability list and base-form
// seed.
func (t *TraitDefinition) Clone() TraitDefinition {
	out := *t
	if t.BaseForm != nil {
		seed := *t.BaseForm
		out.BaseForm = &seed
	}
	out.Manifestations = append([]string(nil), t.Manifestations...)
	out.Abilities = nil
	for i := range t.Abilities {
		out.Abilities = append(out.Abilities, t.Abilities[i].Clone())
	}
	out.EnvironmentalAffinities = cloneMap(t.EnvironmentalAffinities)
	out.IncompatibleWith = append([]string(nil), t.IncompatibleWith...)
	out.Mutations = append([]string(nil), t.Mutations...)
	out.ThemeResonance = cloneMap(t.ThemeResonance)
	return out
}

// IncompatibleWithTrait reports whether the definition lists the other trait.
func (t *TraitDefinition) IncompatibleWithTrait(name string) bool {
	return Contains(t.IncompatibleWith, name)
}

// Behavior describes a creature's behavioral profile, derived once at
// construction from form and traits.
type Behavior struct {
	Intelligence           Intelligence       `json:"intelligence" yaml:"intelligence"`
	Aggression             Aggression         `json:"aggression" yaml:"aggression"`
	SocialStructure        SocialStructure    `json:"social_structure" yaml:"social_structure"`
	SpecialBehaviors       []string           `json:"special_behaviors,omitempty" yaml:"special_behaviors,omitempty"`
	EnvironmentalBehaviors map[string]float64 `json:"environmental_behaviors,omitempty" yaml:"environmental_behaviors,omitempty"`
	ThemeInfluences        map[string]float64 `json:"theme_influences,omitempty" yaml:"theme_influences,omitempty"`
}

// Clone deep-copies the profile.
func (b *Behavior) Clone() Behavior {
	out := *b
	out.SpecialBehaviors = append([]string(nil), b.SpecialBehaviors...)
	out.EnvironmentalBehaviors = cloneMap(b.EnvironmentalBehaviors)
	out.ThemeInfluences = cloneMap(b.ThemeInfluences)
	return out
}

// EnvironmentalStressor is a pressure generated by an environment. Stressors
// are regenerated every adaptation cycle and not persisted across cycles.
type EnvironmentalStressor struct {
	Source    string   `json:"source" yaml:"source"`
	Intensity float64  `json:"intensity" yaml:"intensity"`
	Effects   []string `json:"effects,omitempty" yaml:"effects,omitempty"`
	Lethal    bool     `json:"lethal,omitempty" yaml:"lethal,omitempty"`
}

// EnvironmentalData tracks a creature's relationship with one environment.
type EnvironmentalData struct {
	Environment        string                  `json:"environment"`
	AdaptationLevel    float64                 `json:"adaptation_level"`
	ExposureTime       int                     `json:"exposure_time"`
	DevelopedAbilities []string                `json:"developed_abilities,omitempty"`
	ActiveStressors    []EnvironmentalStressor `json:"active_stressors,omitempty"`
	ResourceUsage      map[string]float64      `json:"resource_usage,omitempty"`
	CanSynthesize      bool                    `json:"can_synthesize"`
}

// Clone deep-copies the record so cycles can run without committing.
func (d *EnvironmentalData) Clone() EnvironmentalData {
	out := *d
	out.DevelopedAbilities = append([]string(nil), d.DevelopedAbilities...)
	out.ActiveStressors = append([]EnvironmentalStressor(nil), d.ActiveStressors...)
	if d.ResourceUsage != nil {
		out.ResourceUsage = make(map[string]float64, len(d.ResourceUsage))
		for k, v := range d.ResourceUsage {
			out.ResourceUsage[k] = v
		}
	}
	return out
}

// EnvironmentDefinition is a static catalog entry describing an environment:
// the stressors it exerts, the abilities it can teach, and its resource
// demands.
type EnvironmentDefinition struct {
	Name              string                  `json:"name" yaml:"name"`
	BaseStressors     []EnvironmentalStressor `json:"base_stressors,omitempty" yaml:"base_stressors,omitempty"`
	AbilityPool       []string                `json:"ability_pool,omitempty" yaml:"ability_pool,omitempty"`
	ResourceRates     map[string]float64      `json:"resource_rates,omitempty" yaml:"resource_rates,omitempty"`
	SynthesisRequires []string                `json:"synthesis_requires,omitempty" yaml:"synthesis_requires,omitempty"`
	TraitAffinities   map[string]float64      `json:"trait_affinities,omitempty" yaml:"trait_affinities,omitempty"`
}

// ThemeInteraction describes what happens when two themes are active
// together. Strength is rescaled to the pairwise minimum of the two themes'
// current strengths whenever the active set changes.
type ThemeInteraction struct {
	Primary         string             `json:"primary" yaml:"primary"`
	Secondary       string             `json:"secondary" yaml:"secondary"`
	Strength        float64            `json:"strength" yaml:"strength"`
	EmergentEffects []string           `json:"emergent_effects,omitempty" yaml:"emergent_effects,omitempty"`
	TraitModifiers  map[string]float64 `json:"trait_modifiers,omitempty" yaml:"trait_modifiers,omitempty"`
}

// ThemeDefinition is a static catalog entry describing a theme layer.
type ThemeDefinition struct {
	Name                  string                      `json:"name" yaml:"name"`
	Manifestations        []string                    `json:"manifestations,omitempty" yaml:"manifestations,omitempty"`
	Abilities             []string                    `json:"abilities,omitempty" yaml:"abilities,omitempty"`
	TraitAffinities       map[string]float64          `json:"trait_affinities,omitempty" yaml:"trait_affinities,omitempty"`
	EnvironmentAffinities map[string]float64          `json:"environment_affinities,omitempty" yaml:"environment_affinities,omitempty"`
	CompatibleThemes      []string                    `json:"compatible_themes,omitempty" yaml:"compatible_themes,omitempty"`
	IncompatibleThemes    []string                    `json:"incompatible_themes,omitempty" yaml:"incompatible_themes,omitempty"`
	TraitInteractions     map[string][]string         `json:"trait_interactions,omitempty" yaml:"trait_interactions,omitempty"`
	Interactions          map[string]ThemeInteraction `json:"interactions,omitempty" yaml:"interactions,omitempty"`
}

// EvolutionData tracks a creature's evolutionary progress. Mutated only by
// the evolution system.
type EvolutionData struct {
	CurrentStage   int            `json:"current_stage"`
	UnlockedPaths  []string       `json:"unlocked_paths,omitempty"`
	TraitStrengths map[string]int `json:"trait_strengths,omitempty"`
	History        []string       `json:"history,omitempty"`
}

// Clone deep-copies the progress record.
func (e *EvolutionData) Clone() EvolutionData {
	out := *e
	out.UnlockedPaths = append([]string(nil), e.UnlockedPaths...)
	out.TraitStrengths = cloneMap(e.TraitStrengths)
	out.History = append([]string(nil), e.History...)
	return out
}

// ValidationResult reports the outcome of a full-state validation pass.
// Produced on demand, never persisted.
type ValidationResult struct {
	Valid            bool               `json:"valid"`
	Warnings         []string           `json:"warnings,omitempty"`
	Errors           []string           `json:"errors,omitempty"`
	StabilityMetrics map[string]float64 `json:"stability_metrics,omitempty"`
}

// AddError records a validation error and marks the result invalid.
func (r *ValidationResult) AddError(msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, msg)
}

// CreatureState is the core identity and composition of one creature.
// The orchestrator exclusively owns it; subsystems mutate it in place.
type CreatureState struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	SuggestedName string            `json:"suggested_name,omitempty"`
	PowerLevel    int               `json:"power_level"`
	Mutated       bool              `json:"mutated"`
	Form          PhysicalForm      `json:"form"`
	ActiveTraits  []TraitDefinition `json:"active_traits"`
	Abilities     []Ability         `json:"abilities"`
	Behavior      Behavior          `json:"behavior"`
	Evolution     EvolutionData     `json:"evolution"`
}

// Clone deep-copies the whole state so callers can hold a copy without
// aliasing the engine's nested maps and slices.
func (s *CreatureState) Clone() CreatureState {
	out := *s
	out.Form = s.Form.Clone()
	out.ActiveTraits = nil
	for i := range s.ActiveTraits {
		out.ActiveTraits = append(out.ActiveTraits, s.ActiveTraits[i].Clone())
	}
	out.Abilities = nil
	for i := range s.Abilities {
		out.Abilities = append(out.Abilities, s.Abilities[i].Clone())
	}
	out.Behavior = s.Behavior.Clone()
	out.Evolution = s.Evolution.Clone()
	return out
}

// HasTrait reports whether a trait is active by name.
func (s *CreatureState) HasTrait(name string) bool {
	for _, t := range s.ActiveTraits {
		if t.Name == name {
			return true
		}
	}
	return false
}

// HasAbility reports whether an ability is owned by name.
func (s *CreatureState) HasAbility(name string) bool {
	for _, a := range s.Abilities {
		if a.Name == name {
			return true
		}
	}
	return false
}

// SnapshotOptions controls what a serialized creature document includes.
type SnapshotOptions struct {
	IncludeHistory   bool
	IncludeTemporary bool
	ExcludedFields   []string
}

// DefaultSnapshotOptions matches the engine's standard document: history in,
// transient stressor state out.
func DefaultSnapshotOptions() SnapshotOptions {
	return SnapshotOptions{IncludeHistory: true}
}

// Contains reports whether a string slice holds a value. The model keeps its
// name sets as ordered slices so documents serialize stably.
func Contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}

// AddUnique appends a value if absent and returns the (possibly grown) set.
func AddUnique(set []string, value string) []string {
	if Contains(set, value) {
		return set
	}
	return append(set, value)
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
