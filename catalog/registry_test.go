package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	trait, err := r.Trait("Serpentine_Base")
	if err != nil {
		t.Fatalf("Trait: %v", err)
	}
	if trait.Name != "Serpentine_Base" {
		t.Errorf("trait name = %q, want key stamped on definition", trait.Name)
	}
	if trait.BaseForm == nil {
		t.Error("Serpentine_Base lost its base form")
	}

	if _, err := r.Theme("Eldritch"); err != nil {
		t.Errorf("Theme: %v", err)
	}
	if _, err := r.Environment("Swamp"); err != nil {
		t.Errorf("Environment: %v", err)
	}
	if _, err := r.Ability("toxin_filter"); err != nil {
		t.Errorf("Ability: %v", err)
	}
}

func TestUnknownLookups(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Trait("Nonexistent"); err == nil {
		t.Error("Trait accepted unknown name")
	}
	if _, err := r.Theme("Nonexistent"); err == nil {
		t.Error("Theme accepted unknown name")
	}
	if _, err := r.Environment("Nonexistent"); err == nil {
		t.Error("Environment accepted unknown name")
	}
}

func TestUninitializedRegistryFailsLookups(t *testing.T) {
	var r Registry
	if _, err := r.Trait("Serpentine_Base"); err == nil {
		t.Error("zero-value registry served a lookup")
	}
}

func TestStressModifier(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if got := r.StressModifier("Swamp", "stagnant_water"); got != 0.8 {
		t.Errorf("StressModifier = %v, want 0.8", got)
	}
	// Unknown pairs fall back to identity
	if got := r.StressModifier("Swamp", "unlisted"); got != 1.0 {
		t.Errorf("fallback modifier = %v, want 1.0", got)
	}
}

func TestListingsSorted(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	names := r.TraitNames()
	if len(names) < 4 {
		t.Fatalf("TraitNames = %v, want the full catalog", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("TraitNames not sorted at %d: %v", i, names)
		}
	}
}

func TestAsymmetricIncompatibilityRejected(t *testing.T) {
	dir := t.TempDir()
	copyEmbedded(t, dir)

	traits := `
One_Sided:
  incompatible_with:
    - Serpentine_Base
Serpentine_Base: {}
`
	if err := os.WriteFile(filepath.Join(dir, "traits.yaml"), []byte(traits), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("Load accepted asymmetric trait incompatibility")
	}
}

func TestStressorIntensityRangeEnforced(t *testing.T) {
	dir := t.TempDir()
	copyEmbedded(t, dir)

	environments := `
Broken:
  base_stressors:
    - source: Broken
      intensity: 1.4
`
	if err := os.WriteFile(filepath.Join(dir, "environments.yaml"), []byte(environments), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("Load accepted stressor intensity above 1")
	}
}

// copyEmbedded materializes the embedded catalogs so a test can overwrite
// one file and keep the rest valid.
func copyEmbedded(t *testing.T, dir string) {
	t.Helper()
	for _, name := range []string{
		"themes.yaml", "environments.yaml", "traits.yaml", "abilities.yaml", "stressor_modifiers.csv",
	} {
		data, err := defaultData.ReadFile("data/" + name)
		if err != nil {
			t.Fatalf("reading embedded %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			t.Fatal(err)
		}
	}
}
