// Package themes manages a creature's active theme stack: compatibility,
// resonance, pairwise interactions, and the combined gameplay effect.
package themes

import (
	"fmt"
	"math"
	"sort"

	"github.com/pthm-cable/crescent/catalog"
	"github.com/pthm-cable/crescent/config"
	"github.com/pthm-cable/crescent/core"
)

// Stack holds the active themes of one creature. Not safe for concurrent
// mutation; the owning orchestrator serializes access.
type Stack struct {
	registry *catalog.Registry
	cfg      config.ThemeConfig

	active       []string
	strengths    map[string]float64
	interactions []core.ThemeInteraction
}

// Effect is the combined outcome of every active theme and interaction for a
// given trait/environment context.
type Effect struct {
	Manifestations     []string                `json:"manifestations,omitempty"`
	Abilities          []string                `json:"abilities,omitempty"`
	Modifiers          map[string]float64      `json:"modifiers,omitempty"`
	ActiveInteractions []core.ThemeInteraction `json:"active_interactions,omitempty"`
}

// NewStack creates an empty stack bound to a registry and tuning config.
func NewStack(registry *catalog.Registry, cfg config.ThemeConfig) *Stack {
	return &Stack{
		registry:  registry,
		cfg:       cfg,
		strengths: make(map[string]float64),
	}
}

// Add attempts to activate a theme. It fails with ThemeCompatibilityError
// when the strength is out of range, the stack is full, the theme is already
// active, or the theme is incompatible with any active theme.
func (s *Stack) Add(name string, strength float64) error {
	if strength < s.cfg.MinStrength || strength > s.cfg.MaxStrength {
		return &core.ThemeCompatibilityError{
			Theme:  name,
			Reason: fmt.Sprintf("strength %.2f outside [%.2f, %.2f]", strength, s.cfg.MinStrength, s.cfg.MaxStrength),
		}
	}
	if len(s.active) >= s.cfg.MaxActive {
		return &core.ThemeCompatibilityError{
			Theme:  name,
			Reason: fmt.Sprintf("stack full (%d active)", len(s.active)),
		}
	}
	if s.Has(name) {
		return &core.ThemeCompatibilityError{Theme: name, Reason: "already active"}
	}

	def, err := s.registry.Theme(name)
	if err != nil {
		return err
	}

	for _, activeName := range s.active {
		activeDef, err := s.registry.Theme(activeName)
		if err != nil {
			return err
		}
		if !s.compatible(def, activeDef) {
			return &core.ThemeCompatibilityError{
				Theme:  name,
				Reason: fmt.Sprintf("incompatible with active theme %q", activeName),
			}
		}
	}

	s.active = append(s.active, name)
	s.strengths[name] = strength
	s.updateInteractions()
	return nil
}

// Remove deactivates a theme. Returns false if it was not active.
func (s *Stack) Remove(name string) bool {
	if !s.Has(name) {
		return false
	}
	for i, n := range s.active {
		if n == name {
			s.active = append(s.active[:i], s.active[i+1:]...)
			break
		}
	}
	delete(s.strengths, name)
	s.updateInteractions()
	return true
}

// Has reports whether a theme is active.
func (s *Stack) Has(name string) bool {
	return core.Contains(s.active, name)
}

// Active returns the active theme names in activation order.
func (s *Stack) Active() []string {
	return append([]string(nil), s.active...)
}

// Len returns the number of active themes.
func (s *Stack) Len() int { return len(s.active) }

// Strength returns a theme's current strength, if active.
func (s *Stack) Strength(name string) (float64, bool) {
	v, ok := s.strengths[name]
	return v, ok
}

// TotalStrength sums every active theme's strength.
func (s *Stack) TotalStrength() float64 {
	total := 0.0
	for _, v := range s.strengths {
		total += v
	}
	return total
}

// Interactions returns the current interaction set.
func (s *Stack) Interactions() []core.ThemeInteraction {
	return append([]core.ThemeInteraction(nil), s.interactions...)
}

// compatible resolves theme compatibility: explicit compatible list wins,
// then explicit incompatible list, then affinity resonance.
func (s *Stack) compatible(a, b core.ThemeDefinition) bool {
	if core.Contains(a.CompatibleThemes, b.Name) || core.Contains(b.CompatibleThemes, a.Name) {
		return true
	}
	if core.Contains(a.IncompatibleThemes, b.Name) || core.Contains(b.IncompatibleThemes, a.Name) {
		return false
	}
	return Resonance(a, b) >= s.cfg.ResonanceThreshold
}

// Resonance scores two themes' similarity over every trait and environment
// affinity key they share: the average of 1 - |diff|/2 per shared key, or 0
// when nothing is shared.
func Resonance(a, b core.ThemeDefinition) float64 {
	sum := 0.0
	n := 0
	for trait, affinity := range a.TraitAffinities {
		if other, ok := b.TraitAffinities[trait]; ok {
			sum += 1.0 - math.Abs(affinity-other)/2.0
			n++
		}
	}
	for env, affinity := range a.EnvironmentAffinities {
		if other, ok := b.EnvironmentAffinities[env]; ok {
			sum += 1.0 - math.Abs(affinity-other)/2.0
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// updateInteractions recomputes the interaction set from the active themes.
// Each unordered pair contributes at most one interaction; when both themes
// define one, the lexicographically first theme's definition wins. A defined
// interaction's strength is rescaled to the pairwise minimum of the two
// themes' current strengths.
func (s *Stack) updateInteractions() {
	s.interactions = s.interactions[:0]

	ordered := append([]string(nil), s.active...)
	sort.Strings(ordered)

	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if !s.collectInteraction(ordered[i], ordered[j]) {
				s.collectInteraction(ordered[j], ordered[i])
			}
		}
	}
}

func (s *Stack) collectInteraction(primary, secondary string) bool {
	def, err := s.registry.Theme(primary)
	if err != nil {
		return false
	}
	interaction, ok := def.Interactions[secondary]
	if !ok {
		return false
	}
	if interaction.Primary == "" {
		interaction.Primary = primary
	}
	if interaction.Secondary == "" {
		interaction.Secondary = secondary
	}
	interaction.Strength *= math.Min(s.strengths[primary], s.strengths[secondary])
	s.interactions = append(s.interactions, interaction)
	return true
}

// CombinedEffect folds every active theme and interaction into one effect
// for the given trait/environment context. Manifestations and abilities
// express only past their strength thresholds; affinity contributions scale
// with strength.
func (s *Stack) CombinedEffect(trait, environment string) Effect {
	effect := Effect{Modifiers: make(map[string]float64)}

	for _, name := range s.active {
		def, err := s.registry.Theme(name)
		if err != nil {
			continue
		}
		strength := s.strengths[name]

		if strength >= s.cfg.ManifestationThreshold {
			for _, m := range def.Manifestations {
				effect.Manifestations = core.AddUnique(effect.Manifestations, m)
			}
		}
		if strength >= s.cfg.AbilityThreshold {
			for _, a := range def.Abilities {
				effect.Abilities = core.AddUnique(effect.Abilities, a)
			}
		}
		if affinity, ok := def.TraitAffinities[trait]; ok {
			effect.Modifiers[trait] += affinity * strength
		}
		if affinity, ok := def.EnvironmentAffinities[environment]; ok {
			effect.Modifiers[environment] += affinity * strength
		}
	}

	for _, interaction := range s.interactions {
		if interaction.Strength >= s.cfg.InteractionThreshold {
			for _, e := range interaction.EmergentEffects {
				effect.Manifestations = core.AddUnique(effect.Manifestations, e)
			}
		}
		for trait, modifier := range interaction.TraitModifiers {
			effect.Modifiers[trait] += modifier * interaction.Strength
		}
	}

	effect.ActiveInteractions = s.Interactions()
	return effect
}

// HasConflicts reports whether any interaction has negative strength.
func (s *Stack) HasConflicts() bool {
	for _, interaction := range s.interactions {
		if interaction.Strength < 0 {
			return true
		}
	}
	return false
}

// Conflicts describes every negative-strength interaction.
func (s *Stack) Conflicts() []string {
	var conflicts []string
	for _, interaction := range s.interactions {
		if interaction.Strength < 0 {
			conflicts = append(conflicts,
				fmt.Sprintf("conflict between %s and %s", interaction.Primary, interaction.Secondary))
		}
	}
	return conflicts
}

// State is the serializable form of a stack. Interactions are derived state
// and recomputed on restore.
type State struct {
	Active    []string           `json:"active"`
	Strengths map[string]float64 `json:"strengths"`
}

// State captures the stack for serialization.
func (s *Stack) State() State {
	return State{
		Active:    s.Active(),
		Strengths: copyMap(s.strengths),
	}
}

// Restore rebuilds the stack from a serialized state, bypassing
// compatibility checks: the state was valid when captured.
func (s *Stack) Restore(state State) error {
	for _, name := range state.Active {
		if _, err := s.registry.Theme(name); err != nil {
			return err
		}
	}
	s.active = append([]string(nil), state.Active...)
	s.strengths = copyMap(state.Strengths)
	s.updateInteractions()
	return nil
}

func copyMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
