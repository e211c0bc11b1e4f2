package rng

import "testing"

func TestDeterministicUnderFixedSeed(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("draw %d diverged for equal seeds", i)
		}
	}
}

func TestZeroSeedDerivesOne(t *testing.T) {
	if New(0).Seed() == 0 {
		t.Error("zero seed was not replaced")
	}
}

func TestRollBounds(t *testing.T) {
	s := New(1)
	if s.Roll(0) {
		t.Error("Roll(0) succeeded")
	}
	if !s.Roll(1) {
		t.Error("Roll(1) failed")
	}
}

func TestPickEmpty(t *testing.T) {
	if got := New(1).Pick(nil); got != "" {
		t.Errorf("Pick(nil) = %q, want empty", got)
	}
}

func TestSelectWeightedDeterministic(t *testing.T) {
	weights := map[string]float64{"a": 1, "b": 2, "c": 3}
	first, ok := New(7).SelectWeighted(weights)
	if !ok {
		t.Fatal("SelectWeighted found nothing")
	}
	second, _ := New(7).SelectWeighted(weights)
	if first != second {
		t.Errorf("equal seeds drew %q and %q", first, second)
	}
}

func TestSelectWeightedSkipsNonPositive(t *testing.T) {
	s := New(3)
	for i := 0; i < 50; i++ {
		got, ok := s.SelectWeighted(map[string]float64{"dead": 0, "neg": -1, "live": 0.5})
		if !ok || got != "live" {
			t.Fatalf("draw %d = %q (ok=%v), want live", i, got, ok)
		}
	}
}

func TestSelectWeightedEmpty(t *testing.T) {
	if _, ok := New(1).SelectWeighted(nil); ok {
		t.Error("SelectWeighted(nil) reported success")
	}
	if _, ok := New(1).SelectWeighted(map[string]float64{"x": 0}); ok {
		t.Error("all-zero weights reported success")
	}
}

func TestSelectWeightedHeavilySkewed(t *testing.T) {
	s := New(11)
	wins := 0
	for i := 0; i < 200; i++ {
		got, _ := s.SelectWeighted(map[string]float64{"heavy": 1000, "light": 0.001})
		if got == "heavy" {
			wins++
		}
	}
	if wins < 190 {
		t.Errorf("heavy won %d/200 draws, expected near-certain wins", wins)
	}
}
