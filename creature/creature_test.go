package creature

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pthm-cable/crescent/catalog"
	"github.com/pthm-cable/crescent/config"
	"github.com/pthm-cable/crescent/core"
	"github.com/pthm-cable/crescent/mutation"
)

func testDeps(t *testing.T) (*catalog.Registry, *config.Config) {
	t.Helper()
	registry, err := catalog.Load("")
	if err != nil {
		t.Fatalf("loading catalogs: %v", err)
	}
	return registry, config.Default()
}

func TestNewFromTraitDefinition(t *testing.T) {
	registry, cfg := testDeps(t)
	c, err := New(registry, cfg, "Serpentine_Base", WithSeed(42))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	state := c.State()
	if state.ID == "" {
		t.Error("missing ID")
	}
	if state.Form.Shape != core.ShapeSerpentine {
		t.Errorf("shape = %s, want Serpentine from the trait's base form", state.Form.Shape)
	}
	if state.Form.PrimaryMovement != core.MoveSlitherer {
		t.Errorf("movement = %s, want Slitherer", state.Form.PrimaryMovement)
	}
	if !state.HasAbility("venom_strike") {
		t.Error("innate ability missing")
	}
	if state.HasAbility("toxic_miasma") {
		t.Error("evolved ability granted at birth")
	}
	if !core.Contains(state.Form.DistinctiveFeatures, "sinuous_coils") {
		t.Errorf("features = %v, want trait manifestations", state.Form.DistinctiveFeatures)
	}
	if state.Name == "" || state.SuggestedName == "" {
		t.Error("names not generated")
	}

	result := c.ValidateState()
	if !result.Valid {
		t.Errorf("fresh creature invalid: %v", result.Errors)
	}
}

func TestStateCopyDetached(t *testing.T) {
	registry, cfg := testDeps(t)
	c, err := New(registry, cfg, "Serpentine_Base", WithSeed(11))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	before := c.State()

	tampered := c.State()
	tampered.Form.DistinctiveFeatures[0] = "severed"
	tampered.ActiveTraits[0].EnvironmentalAffinities["Swamp"] = -9
	tampered.ActiveTraits[0].Abilities[0].Name = "renamed"
	tampered.Abilities[0].Requirements = append(tampered.Abilities[0].Requirements, "trait:Imaginary")
	tampered.Evolution.TraitStrengths["Serpentine_Base"] = 99

	if diff := cmp.Diff(before, c.State()); diff != "" {
		t.Errorf("engine state reached through a copy (-want +got):\n%s", diff)
	}
}

func TestNewUnknownTrait(t *testing.T) {
	registry, cfg := testDeps(t)
	if _, err := New(registry, cfg, "Imaginary"); err == nil {
		t.Error("New accepted unknown trait")
	}
}

func TestSeedReproducibility(t *testing.T) {
	registry, cfg := testDeps(t)
	a, err := New(registry, cfg, "Avian_Plumage", WithSeed(7))
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(registry, cfg, "Avian_Plumage", WithSeed(7))
	if err != nil {
		t.Fatal(err)
	}
	sa, sb := a.State(), b.State()
	if sa.Form.Size != sb.Form.Size || sa.SuggestedName != sb.SuggestedName {
		t.Errorf("equal seeds produced %v/%q and %v/%q", sa.Form.Size, sa.SuggestedName, sb.Form.Size, sb.SuggestedName)
	}
}

func TestGenerateForEnvironment(t *testing.T) {
	registry, cfg := testDeps(t)
	c, err := GenerateForEnvironment(registry, cfg, "Swamp", WithSeed(3))
	if err != nil {
		t.Fatalf("GenerateForEnvironment: %v", err)
	}
	state := c.State()
	// Serpentine_Base holds the strongest Swamp affinity in the catalog
	if !state.HasTrait("Serpentine_Base") {
		t.Errorf("traits = %v, want strongest Swamp affinity", state.ActiveTraits)
	}
	if len(c.Environments().Active()) == 0 {
		t.Error("no pre-exposure recorded")
	}
}

func TestGenerateRandom(t *testing.T) {
	registry, cfg := testDeps(t)
	c, err := GenerateRandom(registry, cfg, WithSeed(11))
	if err != nil {
		t.Fatalf("GenerateRandom: %v", err)
	}
	if len(c.State().ActiveTraits) != 1 {
		t.Errorf("traits = %d, want exactly one primary", len(c.State().ActiveTraits))
	}
}

func TestThemeLifecycle(t *testing.T) {
	registry, cfg := testDeps(t)
	c, err := New(registry, cfg, "Serpentine_Base", WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}

	if err := c.AddTheme("Eldritch", 1.0); err != nil {
		t.Fatalf("AddTheme: %v", err)
	}
	var compatErr *core.ThemeCompatibilityError
	if err := c.AddTheme("Eldritch", 1.0); !errors.As(err, &compatErr) {
		t.Errorf("duplicate AddTheme error = %v, want ThemeCompatibilityError", err)
	}
	if !c.RemoveTheme("Eldritch") {
		t.Error("RemoveTheme failed")
	}
	if c.RemoveTheme("Eldritch") {
		t.Error("RemoveTheme succeeded twice")
	}
}

func TestConflictEventsEmitted(t *testing.T) {
	registry, cfg := testDeps(t)
	c, err := New(registry, cfg, "Serpentine_Base", WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}

	var conflicts []Event
	c.Events().On(EventConflict, func(ev Event) { conflicts = append(conflicts, ev) })

	if err := c.AddTheme("Venomous", 1.0); err != nil {
		t.Fatal(err)
	}
	if err := c.AddTheme("Radiant", 1.0); err != nil {
		t.Fatal(err)
	}
	if len(conflicts) == 0 {
		t.Error("negative interaction emitted no conflict event")
	}
}

func TestAdaptEmitsEvent(t *testing.T) {
	registry, cfg := testDeps(t)
	c, err := New(registry, cfg, "Serpentine_Base", WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}

	var got []Event
	c.Events().On(EventEnvironmentalAdaptation, func(ev Event) { got = append(got, ev) })

	if err := c.Adapt("Swamp", 300); err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("adaptation events = %d, want 1", len(got))
	}
	if got[0].CreatureID != c.ID() {
		t.Error("event carries wrong creature ID")
	}
}

func TestLethalAdaptEmitsStressEvent(t *testing.T) {
	registry, cfg := testDeps(t)
	c, err := New(registry, cfg, "Serpentine_Base", WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}

	var stress []Event
	c.Events().On(EventStressThreshold, func(ev Event) { stress = append(stress, ev) })

	// An unshielded bond with the depths, as an environmental mutation
	// leaves behind, turns the next regeneration lethal.
	if err := c.Environments().Boost("Abyssal_Depths", 0); err != nil {
		t.Fatal(err)
	}
	err = c.Adapt("Swamp", 100)
	var stressErr *core.EnvironmentalStressError
	if !errors.As(err, &stressErr) {
		t.Fatalf("Adapt error = %v, want EnvironmentalStressError", err)
	}
	if len(stress) != 1 {
		t.Errorf("stress events = %d, want 1", len(stress))
	}
}

func TestShortAdaptRejected(t *testing.T) {
	registry, cfg := testDeps(t)
	c, err := New(registry, cfg, "Serpentine_Base", WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Adapt("Swamp", 50); err == nil {
		t.Fatal("Adapt accepted exposure below the minimum unit")
	}
	if len(c.Environments().Active()) != 0 {
		t.Error("rejected exposure left a tracked environment")
	}
}

func TestFullLifecycle(t *testing.T) {
	registry, cfg := testDeps(t)
	c, err := New(registry, cfg, "Serpentine_Base", WithSeed(99))
	if err != nil {
		t.Fatal(err)
	}

	if err := c.AddTheme("Eldritch", 2.0); err != nil {
		t.Fatal(err)
	}
	if err := c.AddTheme("Venomous", 2.0); err != nil {
		t.Fatal(err)
	}
	if err := c.Adapt("Swamp", 1000); err != nil {
		t.Fatal(err)
	}

	tag, err := c.Mutate("")
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if tag.Kind == "" {
		t.Error("empty mutation tag")
	}
	if _, err := c.Mutate(""); err == nil {
		t.Error("second lifetime mutation allowed")
	}

	if !c.CanEvolve() {
		t.Fatalf("CanEvolve = false at pressure %v", c.EvolutionaryPressure())
	}
	path, err := c.Evolve()
	if err != nil {
		t.Fatalf("Evolve: %v", err)
	}
	if path == "" {
		t.Error("empty evolution path")
	}

	state := c.State()
	if state.Evolution.CurrentStage != 1 {
		t.Errorf("stage = %d, want 1", state.Evolution.CurrentStage)
	}
	if result := c.ValidateState(); !result.Valid {
		t.Errorf("post-lifecycle state invalid: %v", result.Errors)
	}
}

func TestEvolveToFinalStage(t *testing.T) {
	registry, cfg := testDeps(t)
	c, err := New(registry, cfg, "Serpentine_Base", WithSeed(5))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.AddTheme("Eldritch", 3.0); err != nil {
		t.Fatal(err)
	}
	if err := c.AddTheme("Venomous", 3.0); err != nil {
		t.Fatal(err)
	}

	evolved := 0
	for i := 0; i < cfg.Evolution.MaxStage; i++ {
		if _, err := c.Evolve(); err != nil {
			break
		}
		evolved++
	}
	if evolved == 0 {
		t.Fatal("no evolution happened under maximal theme pressure")
	}
	if c.State().Evolution.CurrentStage > cfg.Evolution.MaxStage {
		t.Errorf("stage %d exceeded the cap", c.State().Evolution.CurrentStage)
	}

	if c.State().Evolution.CurrentStage == cfg.Evolution.MaxStage {
		if _, err := c.Evolve(); err == nil {
			t.Error("evolution past the final stage")
		}
	}
}

func TestMutateFromTraitOperation(t *testing.T) {
	registry, cfg := testDeps(t)
	c, err := New(registry, cfg, "Chitinous_Carapace", WithSeed(2))
	if err != nil {
		t.Fatal(err)
	}
	tag, err := c.MutateFromTrait("Chitinous_Carapace")
	if err != nil {
		t.Fatalf("MutateFromTrait: %v", err)
	}
	state := c.State()
	if tag.Kind == mutation.KindTrait && !state.HasTrait(tag.Effect) {
		t.Error("trait mutation did not attach the trait")
	}
}

func TestPossibleSecondaryTraits(t *testing.T) {
	registry, cfg := testDeps(t)
	c, err := New(registry, cfg, "Serpentine_Base", WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	possible := c.PossibleSecondaryTraits()
	if core.Contains(possible, "Chitinous_Carapace") {
		t.Errorf("possible = %v, includes incompatible trait", possible)
	}
	if !core.Contains(possible, "Burrowing_Claws") {
		t.Errorf("possible = %v, missing compatible trait", possible)
	}
}

func TestAddTraitIncompatible(t *testing.T) {
	registry, cfg := testDeps(t)
	c, err := New(registry, cfg, "Serpentine_Base", WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.AddTrait("Chitinous_Carapace"); err == nil {
		t.Error("AddTrait accepted incompatible trait")
	}
	if err := c.AddTrait("Burrowing_Claws"); err != nil {
		t.Errorf("AddTrait rejected compatible trait: %v", err)
	}
	if result := c.ValidateState(); !result.Valid {
		t.Errorf("state invalid after AddTrait: %v", result.Errors)
	}
}

func TestCombinedThemeEffect(t *testing.T) {
	registry, cfg := testDeps(t)
	c, err := New(registry, cfg, "Serpentine_Base", WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.AddTheme("Eldritch", 1.5); err != nil {
		t.Fatal(err)
	}
	effect := c.CombinedThemeEffect()
	if !core.Contains(effect.Manifestations, "writhing_shadows") {
		t.Errorf("effect = %+v, want theme manifestation", effect)
	}
}
