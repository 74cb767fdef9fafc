package resample

import (
	"errors"
	"reflect"
	"testing"
)

func TestRebalanceTargetCounts(t *testing.T) {
	// 20 minority, 80 majority, ratios 1.0/0.5 -> 20 + 40 = 60 records
	ds := buildDataset(20, 80)
	cfg := Config{MinorityRatio: 1.0, MajorityRatio: 0.5, Seed: 42}

	result, err := Rebalance(ds, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MinorityTarget != 20 || result.MajorityTarget != 40 {
		t.Fatalf("expected targets 20/40, got %d/%d", result.MinorityTarget, result.MajorityTarget)
	}
	if result.Dataset.Len() != 60 {
		t.Fatalf("expected 60 records, got %d", result.Dataset.Len())
	}
	if result.MinoritySize != 20 || result.MajoritySize != 80 {
		t.Fatalf("expected source sizes 20/80, got %d/%d", result.MinoritySize, result.MajoritySize)
	}

	// minority draws first, then majority draws
	for i, record := range result.Dataset.Records[:20] {
		if record.Label != "fraud" {
			t.Fatalf("record %d: expected minority label, got %q", i, record.Label)
		}
	}
	for i, record := range result.Dataset.Records[20:] {
		if record.Label != "legit" {
			t.Fatalf("record %d: expected majority label, got %q", 20+i, record.Label)
		}
	}
}

func TestRebalanceDeterminism(t *testing.T) {
	cfg := Config{MinorityRatio: 1.0, MajorityRatio: 0.5, Seed: 42}

	first, err := Rebalance(buildDataset(20, 80), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Rebalance(buildDataset(20, 80), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first.Dataset.Records, second.Dataset.Records) {
		t.Fatal("same seed produced different resampled datasets")
	}
	if first.DerivedSeed != second.DerivedSeed {
		t.Fatalf("same seed produced different derived seeds: %d vs %d", first.DerivedSeed, second.DerivedSeed)
	}
}

func TestRebalanceSeedChangesOutput(t *testing.T) {
	base := Config{MinorityRatio: 1.0, MajorityRatio: 0.5, Seed: 42}
	other := base
	other.Seed = 43

	first, err := Rebalance(buildDataset(20, 80), base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Rebalance(buildDataset(20, 80), other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Dataset.Len() != second.Dataset.Len() {
		t.Fatalf("different seeds changed the result length: %d vs %d", first.Dataset.Len(), second.Dataset.Len())
	}
	if reflect.DeepEqual(first.Dataset.Records, second.Dataset.Records) && first.DerivedSeed == second.DerivedSeed {
		t.Fatal("different seeds produced identical runs")
	}
}

func TestRebalanceZeroRatio(t *testing.T) {
	result, err := Rebalance(buildDataset(20, 80), Config{MinorityRatio: 0, MajorityRatio: 0.5, Seed: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MinorityTarget != 0 {
		t.Fatalf("expected minority target 0, got %d", result.MinorityTarget)
	}
	for i, record := range result.Dataset.Records {
		if record.Label != "legit" {
			t.Fatalf("record %d: expected only majority records, got label %q", i, record.Label)
		}
	}

	result, err = Rebalance(buildDataset(20, 80), Config{MinorityRatio: 1.0, MajorityRatio: 0, Seed: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Dataset.Len() != 20 {
		t.Fatalf("expected only the 20 minority draws, got %d records", result.Dataset.Len())
	}
}

func TestRebalanceNegativeRatio(t *testing.T) {
	_, err := Rebalance(buildDataset(5, 5), Config{MinorityRatio: -0.1, MajorityRatio: 0.5, Seed: 1})
	if !errors.Is(err, ErrInvalidRatio) {
		t.Fatalf("expected ErrInvalidRatio, got %v", err)
	}

	_, err = Rebalance(buildDataset(5, 5), Config{MinorityRatio: 1.0, MajorityRatio: -1, Seed: 1})
	if !errors.Is(err, ErrInvalidRatio) {
		t.Fatalf("expected ErrInvalidRatio, got %v", err)
	}
}

func TestRebalanceEmptyGroup(t *testing.T) {
	// all-majority dataset: the positive group is empty but its ratio asks for records
	_, err := Rebalance(buildDataset(0, 100), Config{MinorityRatio: 1.0, MajorityRatio: 0.5, Seed: 1})
	if !errors.Is(err, ErrEmptyGroup) {
		t.Fatalf("expected ErrEmptyGroup, got %v", err)
	}

	// ratio 0 makes the empty group legal
	result, err := Rebalance(buildDataset(0, 100), Config{MinorityRatio: 0, MajorityRatio: 0.5, Seed: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Dataset.Len() != 50 {
		t.Fatalf("expected 50 records, got %d", result.Dataset.Len())
	}
}

func TestRebalanceRounding(t *testing.T) {
	// 5 * 0.5 = 2.5 rounds away from zero to 3
	result, err := Rebalance(buildDataset(5, 80), Config{MinorityRatio: 0.5, MajorityRatio: 0, Seed: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MinorityTarget != 3 {
		t.Fatalf("expected half-up rounding to 3, got %d", result.MinorityTarget)
	}
}

func TestRebalanceOversampling(t *testing.T) {
	// ratios above 1 draw more records than the group holds
	result, err := Rebalance(buildDataset(4, 40), Config{MinorityRatio: 3.0, MajorityRatio: 1.0, Seed: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MinorityTarget != 12 {
		t.Fatalf("expected 12 minority draws, got %d", result.MinorityTarget)
	}
	if result.Dataset.Len() != 52 {
		t.Fatalf("expected 52 records, got %d", result.Dataset.Len())
	}
}

func TestRoughlyBalancedMajorityCount(t *testing.T) {
	// out-of-range chance falls back to the minority goal
	if got := RoughlyBalancedMajorityCount(25, 0, 1); got != 25 {
		t.Fatalf("expected fallback to minority goal, got %d", got)
	}
	if got := RoughlyBalancedMajorityCount(25, 1.5, 1); got != 25 {
		t.Fatalf("expected fallback to minority goal, got %d", got)
	}

	// chance 1.0 never yields a majority hit
	if got := RoughlyBalancedMajorityCount(25, 1.0, 1); got != 0 {
		t.Fatalf("expected 0 majority draws at chance 1.0, got %d", got)
	}

	// deterministic per seed
	first := RoughlyBalancedMajorityCount(50, 0.5, 99)
	second := RoughlyBalancedMajorityCount(50, 0.5, 99)
	if first != second {
		t.Fatalf("same seed produced different counts: %d vs %d", first, second)
	}
	if first < 0 {
		t.Fatalf("negative majority count %d", first)
	}
}
