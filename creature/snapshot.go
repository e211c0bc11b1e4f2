package creature

import (
	"encoding/json"
	"fmt"

	"github.com/pthm-cable/crescent/catalog"
	"github.com/pthm-cable/crescent/config"
	"github.com/pthm-cable/crescent/core"
	"github.com/pthm-cable/crescent/environment"
	"github.com/pthm-cable/crescent/themes"
)

// SnapshotVersion is the current document version. Version 1 documents
// stored themes as a bare name-to-strength map and are still readable.
const SnapshotVersion = 2

// snapshotDoc is the on-disk creature document. Evolution rides in its own
// section and only when history inclusion is requested.
type snapshotDoc struct {
	Version     int                 `json:"version"`
	Seed        int64               `json:"seed"`
	State       json.RawMessage     `json:"state"`
	Evolution   *core.EvolutionData `json:"evolution,omitempty"`
	Themes      json.RawMessage     `json:"themes,omitempty"`
	Environment *environment.State  `json:"environment,omitempty"`
}

// Snapshot serializes the creature to a versioned JSON document.
func (c *Creature) Snapshot(opts core.SnapshotOptions) ([]byte, error) {
	state := c.State()

	envState := c.envs.State()
	if !opts.IncludeTemporary {
		for name, d := range envState.Data {
			d.ActiveStressors = nil
			envState.Data[name] = d
		}
	}

	stateJSON, err := marshalState(&state, opts.ExcludedFields)
	if err != nil {
		return nil, err
	}
	themeJSON, err := json.Marshal(c.themes.State())
	if err != nil {
		return nil, &core.SerializationError{Field: "themes", Reason: err.Error()}
	}

	doc := snapshotDoc{
		Version:     SnapshotVersion,
		Seed:        c.rng.Seed(),
		State:       stateJSON,
		Themes:      themeJSON,
		Environment: &envState,
	}
	if opts.IncludeHistory {
		evo := state.Evolution
		doc.Evolution = &evo
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &core.SerializationError{Field: "document", Reason: err.Error()}
	}
	return data, nil
}

// marshalState serializes the creature state without its evolution block,
// dropping any excluded top-level fields by their JSON key.
func marshalState(state *core.CreatureState, excluded []string) (json.RawMessage, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, &core.SerializationError{Field: "state", Reason: err.Error()}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &core.SerializationError{Field: "state", Reason: err.Error()}
	}
	delete(fields, "evolution")
	for _, field := range excluded {
		delete(fields, field)
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return nil, &core.SerializationError{Field: "state", Reason: err.Error()}
	}
	return out, nil
}

// Restore rebuilds a creature from a snapshot document. The document's seed
// is reused unless an explicit WithSeed option overrides it.
func Restore(registry *catalog.Registry, cfg *config.Config, data []byte, opts ...Option) (*Creature, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &core.SerializationError{Field: "document", Reason: err.Error()}
	}
	if doc.Version < 1 || doc.Version > SnapshotVersion {
		return nil, &core.SerializationError{
			Field:  "version",
			Reason: fmt.Sprintf("unsupported version %d", doc.Version),
		}
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.seed == 0 {
		o.seed = doc.Seed
	}

	c, err := newEmpty(registry, cfg, o)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(doc.State, &c.state); err != nil {
		return nil, &core.SerializationError{Field: "state", Reason: err.Error()}
	}
	if c.state.ID == "" {
		return nil, &core.SerializationError{Field: "state.id", Reason: "missing"}
	}
	if doc.Evolution != nil {
		c.state.Evolution = *doc.Evolution
	}

	if doc.Themes != nil {
		themeState, err := decodeThemes(doc.Version, doc.Themes)
		if err != nil {
			return nil, err
		}
		if err := c.themes.Restore(themeState); err != nil {
			return nil, err
		}
	}
	if doc.Environment != nil {
		if err := c.envs.Restore(*doc.Environment); err != nil {
			return nil, err
		}
	}

	if result := c.ValidateState(); !result.Valid {
		return nil, &core.SerializationError{
			Field:  "state",
			Reason: "restored state invalid: " + result.Errors[0],
		}
	}
	return c, nil
}

// decodeThemes handles the version 1 bare-map layout alongside the current
// structured one.
func decodeThemes(version int, raw json.RawMessage) (themes.State, error) {
	if version >= 2 {
		var state themes.State
		if err := json.Unmarshal(raw, &state); err != nil {
			return themes.State{}, &core.SerializationError{Field: "themes", Reason: err.Error()}
		}
		return state, nil
	}
	var legacy map[string]float64
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return themes.State{}, &core.SerializationError{Field: "themes", Reason: err.Error()}
	}
	state := themes.State{Strengths: legacy}
	for name := range legacy {
		state.Active = append(state.Active, name)
	}
	return state, nil
}

