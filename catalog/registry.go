// Package catalog loads the definition catalogs (themes, environments,
// traits, abilities) and exposes them through an immutable registry.
//
// Loading happens exactly once, before any creature operation. The registry
// is frozen after Load returns and is safe to share across goroutines; the
// initialization barrier is the Load call itself, never a lazy first access.
package catalog

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/crescent/core"
)

//go:embed data
var defaultData embed.FS

// Registry holds the loaded definition catalogs. The zero value is
// uninitialized and fails every lookup.
type Registry struct {
	themes       map[string]core.ThemeDefinition
	environments map[string]core.EnvironmentDefinition
	traits       map[string]core.TraitDefinition
	abilities    map[string]core.Ability

	// stressModifiers scales stressor intensity per environment and source.
	stressModifiers map[stressKey]float64

	initialized bool
}

type stressKey struct {
	environment string
	source      string
}

// stressModifierRow is the CSV row shape of the stressor-modifier table.
type stressModifierRow struct {
	Environment string  `csv:"environment"`
	Source      string  `csv:"source"`
	Modifier    float64 `csv:"modifier"`
}

// Load reads the four catalogs and the stressor-modifier table from dir.
// An empty dir loads the embedded default data. Any missing or malformed
// document, or a failed cross-check, fails the whole initialization.
func Load(dir string) (*Registry, error) {
	read := func(name string) ([]byte, error) {
		if dir == "" {
			return defaultData.ReadFile("data/" + name)
		}
		return os.ReadFile(filepath.Join(dir, name))
	}

	r := &Registry{
		themes:          make(map[string]core.ThemeDefinition),
		environments:    make(map[string]core.EnvironmentDefinition),
		traits:          make(map[string]core.TraitDefinition),
		abilities:       make(map[string]core.Ability),
		stressModifiers: make(map[stressKey]float64),
	}

	if err := loadCatalog(read, "themes.yaml", r.themes); err != nil {
		return nil, err
	}
	if err := loadCatalog(read, "environments.yaml", r.environments); err != nil {
		return nil, err
	}
	if err := loadCatalog(read, "traits.yaml", r.traits); err != nil {
		return nil, err
	}
	if err := loadCatalog(read, "abilities.yaml", r.abilities); err != nil {
		return nil, err
	}
	if err := r.loadStressModifiers(read); err != nil {
		return nil, err
	}

	if err := r.validate(); err != nil {
		return nil, err
	}

	r.initialized = true
	return r, nil
}

// named is satisfied by every catalog entry type so the loader can stamp the
// mapping key back onto the definition.
type named interface {
	core.ThemeDefinition | core.EnvironmentDefinition | core.TraitDefinition | core.Ability
}

func loadCatalog[T named](read func(string) ([]byte, error), name string, dst map[string]T) error {
	data, err := read(name)
	if err != nil {
		return &core.GenerationError{Reason: fmt.Sprintf("could not read catalog %s: %v", name, err)}
	}
	parsed := make(map[string]T)
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return &core.GenerationError{Reason: fmt.Sprintf("malformed catalog %s: %v", name, err)}
	}
	for key, def := range parsed {
		dst[key] = stampName(def, key)
	}
	return nil
}

func stampName[T named](def T, key string) T {
	switch d := any(&def).(type) {
	case *core.ThemeDefinition:
		d.Name = key
	case *core.EnvironmentDefinition:
		d.Name = key
	case *core.TraitDefinition:
		d.Name = key
	case *core.Ability:
		if d.Name == "" {
			d.Name = key
		}
	}
	return def
}

func (r *Registry) loadStressModifiers(read func(string) ([]byte, error)) error {
	data, err := read("stressor_modifiers.csv")
	if err != nil {
		return &core.GenerationError{Reason: fmt.Sprintf("could not read stressor modifier table: %v", err)}
	}
	var rows []stressModifierRow
	if err := gocsv.Unmarshal(bytes.NewReader(data), &rows); err != nil {
		return &core.GenerationError{Reason: fmt.Sprintf("malformed stressor modifier table: %v", err)}
	}
	for _, row := range rows {
		if row.Modifier < 0 {
			return &core.GenerationError{
				Reason: fmt.Sprintf("stressor modifier for %s/%s is negative", row.Environment, row.Source),
			}
		}
		r.stressModifiers[stressKey{row.Environment, row.Source}] = row.Modifier
	}
	return nil
}

// validate runs the cross-catalog checks: symmetric trait incompatibility
// and stressor intensity ranges.
func (r *Registry) validate() error {
	for name, trait := range r.traits {
		for _, other := range trait.IncompatibleWith {
			otherDef, ok := r.traits[other]
			if !ok {
				return &core.GenerationError{
					Reason: fmt.Sprintf("trait %q lists unknown incompatible trait %q", name, other),
				}
			}
			if !otherDef.IncompatibleWithTrait(name) {
				return &core.GenerationError{
					Reason: fmt.Sprintf("inconsistent trait compatibility between %q and %q", name, other),
				}
			}
		}
	}

	for name, env := range r.environments {
		for _, s := range env.BaseStressors {
			if s.Intensity < 0 || s.Intensity > 1 {
				return &core.GenerationError{
					Reason: fmt.Sprintf("environment %q stressor %q intensity out of range: %.2f", name, s.Source, s.Intensity),
				}
			}
		}
	}
	return nil
}

func (r *Registry) check() error {
	if r == nil || !r.initialized {
		return &core.GenerationError{Reason: "registry not initialized"}
	}
	return nil
}

// Theme returns the named theme definition.
func (r *Registry) Theme(name string) (core.ThemeDefinition, error) {
	if err := r.check(); err != nil {
		return core.ThemeDefinition{}, err
	}
	def, ok := r.themes[name]
	if !ok {
		return core.ThemeDefinition{}, &core.GenerationError{Reason: fmt.Sprintf("unknown theme: %s", name)}
	}
	return def, nil
}

// Environment returns the named environment definition.
func (r *Registry) Environment(name string) (core.EnvironmentDefinition, error) {
	if err := r.check(); err != nil {
		return core.EnvironmentDefinition{}, err
	}
	def, ok := r.environments[name]
	if !ok {
		return core.EnvironmentDefinition{}, &core.GenerationError{Reason: fmt.Sprintf("unknown environment: %s", name)}
	}
	return def, nil
}

// Trait returns the named trait definition.
func (r *Registry) Trait(name string) (core.TraitDefinition, error) {
	if err := r.check(); err != nil {
		return core.TraitDefinition{}, err
	}
	def, ok := r.traits[name]
	if !ok {
		return core.TraitDefinition{}, &core.GenerationError{Reason: fmt.Sprintf("unknown trait: %s", name)}
	}
	return def, nil
}

// Ability returns the named base ability.
func (r *Registry) Ability(name string) (core.Ability, error) {
	if err := r.check(); err != nil {
		return core.Ability{}, err
	}
	def, ok := r.abilities[name]
	if !ok {
		return core.Ability{}, &core.GenerationError{Reason: fmt.Sprintf("unknown ability: %s", name)}
	}
	return def, nil
}

// StressModifier returns the intensity modifier for an environment/source
// pair, defaulting to 1.0 when the table has no entry.
func (r *Registry) StressModifier(environment, source string) float64 {
	if r == nil {
		return 1.0
	}
	if m, ok := r.stressModifiers[stressKey{environment, source}]; ok {
		return m
	}
	return 1.0
}

// ThemeNames lists every theme name, sorted.
func (r *Registry) ThemeNames() []string { return sortedKeys(r.themes) }

// EnvironmentNames lists every environment name, sorted.
func (r *Registry) EnvironmentNames() []string { return sortedKeys(r.environments) }

// TraitNames lists every trait name, sorted.
func (r *Registry) TraitNames() []string { return sortedKeys(r.traits) }

// AbilityNames lists every base ability name, sorted.
func (r *Registry) AbilityNames() []string { return sortedKeys(r.abilities) }

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
