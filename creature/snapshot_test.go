package creature

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pthm-cable/crescent/core"
)

func buildLifecycleCreature(t *testing.T) *Creature {
	t.Helper()
	registry, cfg := testDeps(t)
	c, err := New(registry, cfg, "Serpentine_Base", WithSeed(21))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.AddTheme("Eldritch", 1.5); err != nil {
		t.Fatal(err)
	}
	if err := c.Adapt("Swamp", 500); err != nil {
		t.Fatal(err)
	}
	c.state.Evolution.History = append(c.state.Evolution.History, "Serpentine_Base/toxic_miasma")
	c.state.Evolution.UnlockedPaths = append(c.state.Evolution.UnlockedPaths, "Swamp/attunement")
	return c
}

func TestSnapshotRoundTrip(t *testing.T) {
	registry, cfg := testDeps(t)
	c := buildLifecycleCreature(t)

	data, err := c.Snapshot(core.DefaultSnapshotOptions())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	restored, err := Restore(registry, cfg, data)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if diff := cmp.Diff(c.State(), restored.State()); diff != "" {
		t.Errorf("state mismatch after round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(c.Themes().State(), restored.Themes().State()); diff != "" {
		t.Errorf("theme mismatch (-want +got):\n%s", diff)
	}
	if restored.Environments().AdaptationLevel("Swamp") != c.Environments().AdaptationLevel("Swamp") {
		t.Error("adaptation level lost in round trip")
	}
}

func TestSnapshotVersionStamp(t *testing.T) {
	c := buildLifecycleCreature(t)
	data, err := c.Snapshot(core.DefaultSnapshotOptions())
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	var version int
	if err := json.Unmarshal(doc["version"], &version); err != nil {
		t.Fatal(err)
	}
	if version != SnapshotVersion {
		t.Errorf("version = %d, want %d", version, SnapshotVersion)
	}
}

func TestSnapshotExcludesHistory(t *testing.T) {
	c := buildLifecycleCreature(t)
	opts := core.SnapshotOptions{IncludeHistory: false}
	data, err := c.Snapshot(opts)
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc["evolution"]; ok {
		t.Error("evolution section present without history inclusion")
	}

	registry, cfg := testDeps(t)
	restored, err := Restore(registry, cfg, data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(core.EvolutionData{}, restored.State().Evolution); diff != "" {
		t.Errorf("evolution data survived exclusion (-want +got):\n%s", diff)
	}
}

func TestSnapshotEvolutionSection(t *testing.T) {
	c := buildLifecycleCreature(t)
	data, err := c.Snapshot(core.DefaultSnapshotOptions())
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	var evo core.EvolutionData
	if err := json.Unmarshal(doc["evolution"], &evo); err != nil {
		t.Fatalf("evolution section: %v", err)
	}
	if diff := cmp.Diff(c.State().Evolution, evo); diff != "" {
		t.Errorf("evolution section mismatch (-want +got):\n%s", diff)
	}

	var state map[string]json.RawMessage
	if err := json.Unmarshal(doc["state"], &state); err != nil {
		t.Fatal(err)
	}
	if _, ok := state["evolution"]; ok {
		t.Error("evolution duplicated inside the state block")
	}
}

func TestSnapshotExcludedFields(t *testing.T) {
	c := buildLifecycleCreature(t)
	data, err := c.Snapshot(core.SnapshotOptions{
		IncludeHistory: true,
		ExcludedFields: []string{"suggested_name"},
	})
	if err != nil {
		t.Fatal(err)
	}

	registry, cfg := testDeps(t)
	restored, err := Restore(registry, cfg, data)
	if err != nil {
		t.Fatal(err)
	}
	if restored.State().SuggestedName != "" {
		t.Errorf("suggested name = %q, want excluded", restored.State().SuggestedName)
	}
}

func TestRestoreRejectsUnsupportedVersion(t *testing.T) {
	registry, cfg := testDeps(t)
	c := buildLifecycleCreature(t)
	data, err := c.Snapshot(core.DefaultSnapshotOptions())
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	doc["version"] = json.RawMessage("99")
	bumped, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Restore(registry, cfg, bumped)
	if _, ok := err.(*core.SerializationError); !ok {
		t.Errorf("Restore error = %v, want SerializationError", err)
	}
}

func TestRestoreLegacyThemeLayout(t *testing.T) {
	registry, cfg := testDeps(t)
	c := buildLifecycleCreature(t)
	data, err := c.Snapshot(core.DefaultSnapshotOptions())
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	doc["version"] = json.RawMessage("1")
	doc["themes"] = json.RawMessage(`{"Eldritch": 1.5}`)
	legacy, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}

	restored, err := Restore(registry, cfg, legacy)
	if err != nil {
		t.Fatalf("Restore legacy: %v", err)
	}
	if strength, ok := restored.Themes().Strength("Eldritch"); !ok || strength != 1.5 {
		t.Errorf("legacy theme strength = %v, %v", strength, ok)
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	registry, cfg := testDeps(t)
	if _, err := Restore(registry, cfg, []byte("not json")); err == nil {
		t.Error("Restore accepted garbage")
	}
	if _, err := Restore(registry, cfg, []byte(`{"version": 2, "state": {}}`)); err == nil {
		t.Error("Restore accepted a document with no creature ID")
	}
}
