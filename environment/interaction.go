// Package environment runs the exposure/adaptation loop: stressor decay,
// ability development, resource usage, and synthesis eligibility.
package environment

import (
	"fmt"
	"math"
	"sort"

	"github.com/pthm-cable/crescent/catalog"
	"github.com/pthm-cable/crescent/config"
	"github.com/pthm-cable/crescent/core"
	"github.com/pthm-cable/crescent/rng"
)

// Interaction tracks a creature's relationship with every environment it has
// been exposed to.
type Interaction struct {
	registry *catalog.Registry
	cfg      config.EnvironmentConfig
	rng      *rng.Source

	data  map[string]*core.EnvironmentalData
	order []string
}

// New creates an empty interaction tracker.
func New(registry *catalog.Registry, cfg config.EnvironmentConfig, src *rng.Source) *Interaction {
	return &Interaction{
		registry: registry,
		cfg:      cfg,
		rng:      src,
		data:     make(map[string]*core.EnvironmentalData),
	}
}

// ProcessTime exposes the creature to an environment for a duration.
// Exposure below the minimum unit is rejected with no state change. Cycles
// run while unconsumed exposure covers a full unit and adaptation is below
// the environment's stress-capped potential; leftover exposure carries over.
// After the cycles every tracked environment's stressors are regenerated,
// and a stressor at or above the lethal threshold aborts the whole call
// with EnvironmentalStressError, committing nothing.
func (in *Interaction) ProcessTime(envName string, duration int) error {
	if duration < in.cfg.MinExposureTime {
		return fmt.Errorf("exposure %d below minimum unit %d", duration, in.cfg.MinExposureTime)
	}
	env, err := in.registry.Environment(envName)
	if err != nil {
		return err
	}

	current, ok := in.data[envName]
	if !ok {
		current = &core.EnvironmentalData{
			Environment:     envName,
			ActiveStressors: append([]core.EnvironmentalStressor(nil), env.BaseStressors...),
			ResourceUsage:   make(map[string]float64),
		}
	}

	// Work on clones so a lethal outcome leaves prior state untouched.
	work := current.Clone()
	work.ExposureTime += duration

	potential := in.adaptationPotential(&work, envName)
	for work.ExposureTime >= in.cfg.MinExposureTime && work.AdaptationLevel < potential {
		in.runCycle(&work, env, potential)
		work.ExposureTime -= in.cfg.MinExposureTime
	}

	staged := map[string]*core.EnvironmentalData{envName: &work}
	names := append([]string(nil), in.order...)
	if !ok {
		names = append(names, envName)
	}
	for _, name := range names {
		d, found := staged[name]
		if !found {
			clone := in.data[name].Clone()
			d = &clone
			staged[name] = d
		}
		def, err := in.registry.Environment(name)
		if err != nil {
			return err
		}
		if err := in.regenerateStressors(d, def); err != nil {
			return err
		}
	}

	in.order = names
	for name, d := range staged {
		in.data[name] = d
	}
	return nil
}

// runCycle advances one adaptation step toward the potential ceiling, rolls
// for ability development, consumes resources, and refreshes synthesis
// eligibility.
func (in *Interaction) runCycle(work *core.EnvironmentalData, env core.EnvironmentDefinition, potential float64) {
	work.AdaptationLevel = math.Min(
		math.Min(work.AdaptationLevel+in.cfg.AdaptationRate, potential),
		in.cfg.MaxAdaptation)

	if work.AdaptationLevel >= in.cfg.AbilityThreshold {
		in.developAbility(work, env)
	}

	for resource, rate := range env.ResourceRates {
		work.ResourceUsage[resource] += rate
	}

	work.CanSynthesize = work.AdaptationLevel >= in.cfg.SynthesisThreshold &&
		containsAll(work.DevelopedAbilities, env.SynthesisRequires)
}

// adaptationPotential is the ceiling adaptation can reach under the current
// stress load: full adaptation minus a penalty per point of the
// environment's own stressor intensity.
func (in *Interaction) adaptationPotential(work *core.EnvironmentalData, envName string) float64 {
	potential := in.cfg.MaxAdaptation
	for _, stressor := range work.ActiveStressors {
		if stressor.Source == envName {
			potential -= in.cfg.StressPenalty * stressor.Intensity
		}
	}
	return clamp(potential, 0, in.cfg.MaxAdaptation)
}

func (in *Interaction) developAbility(work *core.EnvironmentalData, env core.EnvironmentDefinition) {
	var candidates []string
	for _, ability := range env.AbilityPool {
		if !core.Contains(work.DevelopedAbilities, ability) {
			candidates = append(candidates, ability)
		}
	}
	if len(candidates) == 0 {
		return
	}
	if in.rng.Float64() < work.AdaptationLevel {
		work.DevelopedAbilities = append(work.DevelopedAbilities, in.rng.Pick(candidates))
	}
}

// regenerateStressors recomputes active stressors from the environment's
// base set. Adaptation suppresses intensity, catalog modifiers scale it,
// and anything at or below the stress threshold is discarded. Intensity
// alone decides lethality; the catalog's lethal flag is descriptive.
func (in *Interaction) regenerateStressors(work *core.EnvironmentalData, env core.EnvironmentDefinition) error {
	regenerated := work.ActiveStressors[:0]
	for _, stressor := range env.BaseStressors {
		modifier := in.registry.StressModifier(env.Name, stressor.Source)
		stressor.Intensity = clamp(stressor.Intensity*(1-work.AdaptationLevel)*modifier, 0, 1)
		if stressor.Intensity >= in.cfg.LethalThreshold {
			return &core.EnvironmentalStressError{
				Environment: env.Name,
				Intensity:   stressor.Intensity,
			}
		}
		if stressor.Intensity <= in.cfg.StressThreshold {
			continue
		}
		regenerated = append(regenerated, stressor)
	}
	work.ActiveStressors = regenerated
	return nil
}

// Active returns every environment exposed to, in first-exposure order.
func (in *Interaction) Active() []string {
	return append([]string(nil), in.order...)
}

// AdaptationLevel returns the adaptation level for an environment, zero if
// never exposed.
func (in *Interaction) AdaptationLevel(env string) float64 {
	if d, ok := in.data[env]; ok {
		return d.AdaptationLevel
	}
	return 0
}

// Data returns a copy of the tracked record for an environment.
func (in *Interaction) Data(env string) (core.EnvironmentalData, bool) {
	if d, ok := in.data[env]; ok {
		return d.Clone(), true
	}
	return core.EnvironmentalData{}, false
}

// Stressors returns the active stressors for an environment.
func (in *Interaction) Stressors(env string) []core.EnvironmentalStressor {
	if d, ok := in.data[env]; ok {
		return append([]core.EnvironmentalStressor(nil), d.ActiveStressors...)
	}
	return nil
}

// IsAdaptedTo reports whether adaptation has crossed the ability threshold.
func (in *Interaction) IsAdaptedTo(env string) bool {
	return in.AdaptationLevel(env) >= in.cfg.AbilityThreshold
}

// CanSynthesize reports synthesis eligibility for an environment.
func (in *Interaction) CanSynthesize(env string) bool {
	if d, ok := in.data[env]; ok {
		return d.CanSynthesize
	}
	return false
}

// PrimaryEnvironment returns the environment with the highest adaptation,
// earliest exposure winning ties. Empty string when never exposed.
func (in *Interaction) PrimaryEnvironment() string {
	best := ""
	bestLevel := -1.0
	for _, env := range in.order {
		if level := in.data[env].AdaptationLevel; level > bestLevel {
			best, bestLevel = env, level
		}
	}
	return best
}

// MaxAdaptation returns the highest adaptation level across environments.
func (in *Interaction) MaxAdaptation() float64 {
	max := 0.0
	for _, d := range in.data {
		if d.AdaptationLevel > max {
			max = d.AdaptationLevel
		}
	}
	return max
}

// DevelopedAbilities returns every environmentally developed ability across
// all environments, sorted and deduplicated.
func (in *Interaction) DevelopedAbilities() []string {
	var out []string
	for _, d := range in.data {
		for _, ability := range d.DevelopedAbilities {
			out = core.AddUnique(out, ability)
		}
	}
	sort.Strings(out)
	return out
}

// Boost raises an environment's adaptation level directly, first exposing
// the creature if needed. Used by environmental mutations.
func (in *Interaction) Boost(envName string, delta float64) error {
	env, err := in.registry.Environment(envName)
	if err != nil {
		return err
	}
	d, ok := in.data[envName]
	if !ok {
		d = &core.EnvironmentalData{
			Environment:     envName,
			ActiveStressors: append([]core.EnvironmentalStressor(nil), env.BaseStressors...),
			ResourceUsage:   make(map[string]float64),
		}
		in.data[envName] = d
		in.order = append(in.order, envName)
	}
	d.AdaptationLevel = clamp(d.AdaptationLevel+delta, 0, in.cfg.MaxAdaptation)
	d.CanSynthesize = d.AdaptationLevel >= in.cfg.SynthesisThreshold &&
		containsAll(d.DevelopedAbilities, env.SynthesisRequires)
	return nil
}

// GrantAbility records an environmentally developed ability outside the
// normal cycle, for mutation effects.
func (in *Interaction) GrantAbility(envName, ability string) error {
	if err := in.Boost(envName, 0); err != nil {
		return err
	}
	d := in.data[envName]
	d.DevelopedAbilities = core.AddUnique(d.DevelopedAbilities, ability)
	return nil
}

// State is the serializable form of the tracker.
type State struct {
	Order []string                          `json:"order"`
	Data  map[string]core.EnvironmentalData `json:"data"`
}

// State captures the tracker for serialization.
func (in *Interaction) State() State {
	out := State{
		Order: in.Active(),
		Data:  make(map[string]core.EnvironmentalData, len(in.data)),
	}
	for env, d := range in.data {
		out.Data[env] = d.Clone()
	}
	return out
}

// Restore rebuilds the tracker from a serialized state.
func (in *Interaction) Restore(state State) error {
	for _, env := range state.Order {
		if _, err := in.registry.Environment(env); err != nil {
			return err
		}
	}
	in.order = append([]string(nil), state.Order...)
	in.data = make(map[string]*core.EnvironmentalData, len(state.Data))
	for env, d := range state.Data {
		record := d.Clone()
		in.data[env] = &record
	}
	return nil
}

func containsAll(haystack, needles []string) bool {
	for _, n := range needles {
		if !core.Contains(haystack, n) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
