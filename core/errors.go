package core

import "fmt"

// GenerationError reports an unknown definition name, a catalog that failed to
// load or validate, or registry access before initialization. Fatal to the
// attempted operation; the input or the data files need fixing.
type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	return "generation: " + e.Reason
}

// SerializationError reports a malformed snapshot or catalog document,
// including unrecognized category-enum strings.
type SerializationError struct {
	Field  string
	Reason string
}

func (e *SerializationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("serialization: %s: %s", e.Field, e.Reason)
	}
	return "serialization: " + e.Reason
}

// EnvironmentalStressError reports a stressor at or above the lethal
// threshold. Terminal for the creature/environment pairing; never retried.
type EnvironmentalStressError struct {
	Environment string
	Intensity   float64
}

func (e *EnvironmentalStressError) Error() string {
	return fmt.Sprintf("environmental stress in %q: lethal intensity %.2f", e.Environment, e.Intensity)
}

// EvolutionError reports that evolution requirements were unmet or no valid
// path exists. The caller may accumulate more pressure and retry later.
type EvolutionError struct {
	Stage  int
	Reason string
}

func (e *EvolutionError) Error() string {
	return fmt.Sprintf("evolution failed at stage %d: %s", e.Stage, e.Reason)
}

// MutationError reports a malformed mutation tag or a creature that has
// already spent its mutation.
type MutationError struct {
	Tag    string
	Reason string
}

func (e *MutationError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("mutation %q: %s", e.Tag, e.Reason)
	}
	return "mutation: " + e.Reason
}

// ThemeCompatibilityError reports a theme rejected by the stack: incompatible
// with an active theme, stack full, or strength out of range.
type ThemeCompatibilityError struct {
	Theme  string
	Reason string
}

func (e *ThemeCompatibilityError) Error() string {
	return fmt.Sprintf("theme %q: %s", e.Theme, e.Reason)
}
