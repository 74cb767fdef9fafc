package learner

import (
	"errors"
	"testing"

	"unskewed/dataset"
	"unskewed/resample"
)

// captureLearner records what it is trained on.
type captureLearner struct {
	trained *dataset.Dataset
	seed    int64
	seedSet bool
}

func (c *captureLearner) Train(ds *dataset.Dataset) error {
	c.trained = ds
	return nil
}

func (c *captureLearner) DistributionFor(record dataset.Record) ([]float64, error) {
	return []float64{1, 0}, nil
}

func (c *captureLearner) SetSeed(seed int64) {
	c.seed = seed
	c.seedSet = true
}

// pickyLearner rejects every dataset.
type pickyLearner struct {
	captureLearner
}

func (p *pickyLearner) CheckCapabilities(ds *dataset.Dataset) error {
	return errors.New("numeric attributes only")
}

// failingLearner fails training with its own error.
type failingLearner struct {
	captureLearner
	err error
}

func (f *failingLearner) Train(ds *dataset.Dataset) error {
	return f.err
}

func skewedDataset(minorityCount, majorityCount, unlabeledCount int) *dataset.Dataset {
	ds := dataset.New(dataset.Schema{
		AttributeNames: []string{"amount"},
		LabelValues:    [2]string{"fraud", "legit"},
	})
	for i := 0; i < minorityCount; i++ {
		ds.Append(dataset.Record{Features: []float64{float64(i)}, Label: "fraud"})
	}
	for i := 0; i < majorityCount; i++ {
		ds.Append(dataset.Record{Features: []float64{float64(i)}, Label: "legit"})
	}
	for i := 0; i < unlabeledCount; i++ {
		ds.Append(dataset.Record{Features: []float64{float64(i)}})
	}
	return ds
}

func TestUnskewedBuild(t *testing.T) {
	base := &captureLearner{}
	meta := NewUnskewed(base)
	meta.Config = resample.Config{MinorityRatio: 1.0, MajorityRatio: 0.5, Seed: 42}

	if err := meta.Build(skewedDataset(20, 80, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if base.trained == nil {
		t.Fatal("base learner was not trained")
	}
	if base.trained.Len() != 60 {
		t.Fatalf("expected 60 resampled records, got %d", base.trained.Len())
	}

	run := meta.LastRun()
	if run == nil {
		t.Fatal("expected run details")
	}
	if run.MinorityTarget != 20 || run.MajorityTarget != 40 {
		t.Fatalf("expected targets 20/40, got %d/%d", run.MinorityTarget, run.MajorityTarget)
	}
	if !base.seedSet {
		t.Fatal("seedable learner did not receive the derived seed")
	}
	if base.seed != run.DerivedSeed {
		t.Fatalf("learner seed %d does not match derived seed %d", base.seed, run.DerivedSeed)
	}
}

func TestUnskewedDropsMissingLabels(t *testing.T) {
	base := &captureLearner{}
	meta := NewUnskewed(base)
	meta.Config = resample.Config{MinorityRatio: 1.0, MajorityRatio: 1.0, Seed: 1}

	if err := meta.Build(skewedDataset(5, 10, 7)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base.trained.Len() != 15 {
		t.Fatalf("expected 15 records after filtering, got %d", base.trained.Len())
	}
	for i, record := range base.trained.Records {
		if record.Label == "" {
			t.Fatalf("record %d in training set has no label", i)
		}
	}
}

func TestUnskewedDeterministicAcrossBuilds(t *testing.T) {
	cfg := resample.Config{MinorityRatio: 1.0, MajorityRatio: 0.5, Seed: 7}

	first := &captureLearner{}
	metaFirst := NewUnskewed(first)
	metaFirst.Config = cfg
	if err := metaFirst.Build(skewedDataset(10, 40, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := &captureLearner{}
	metaSecond := NewUnskewed(second)
	metaSecond.Config = cfg
	if err := metaSecond.Build(skewedDataset(10, 40, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.seed != second.seed {
		t.Fatalf("same config produced different derived seeds: %d vs %d", first.seed, second.seed)
	}
	for i := range first.trained.Records {
		if first.trained.Records[i].Label != second.trained.Records[i].Label {
			t.Fatalf("record %d differs between identical builds", i)
		}
	}
}

func TestUnskewedCapabilityViolation(t *testing.T) {
	meta := NewUnskewed(&pickyLearner{})

	err := meta.Build(skewedDataset(5, 10, 0))
	if !errors.Is(err, ErrCapability) {
		t.Fatalf("expected ErrCapability, got %v", err)
	}
}

func TestUnskewedLearnerErrorPassthrough(t *testing.T) {
	trainErr := errors.New("gradient exploded")
	meta := NewUnskewed(&failingLearner{err: trainErr})

	err := meta.Build(skewedDataset(5, 10, 0))
	if !errors.Is(err, trainErr) {
		t.Fatalf("expected the learner's own error, got %v", err)
	}
}

func TestUnskewedPredictBeforeBuild(t *testing.T) {
	meta := NewUnskewed(&captureLearner{})
	if _, err := meta.DistributionFor(dataset.Record{Features: []float64{1}}); !errors.Is(err, ErrNotBuilt) {
		t.Fatalf("expected ErrNotBuilt, got %v", err)
	}
}

func TestUnskewedMeasureForwarding(t *testing.T) {
	// the bundled tree produces measures and they surface through the wrapper
	tree := NewDecisionTree(3)
	meta := NewUnskewed(tree)
	meta.Config = resample.Config{MinorityRatio: 1.0, MajorityRatio: 1.0, Seed: 1}

	ds := skewedDataset(5, 10, 0)
	if err := meta.Build(ds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meta.Measures()) == 0 {
		t.Fatal("expected forwarded measures")
	}
	if _, err := meta.Measure("measureTreeSize"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// a learner without measures yields none
	plain := NewUnskewed(&captureLearner{})
	if plain.Measures() != nil {
		t.Fatal("expected no measures")
	}
	if _, err := plain.Measure("anything"); err == nil {
		t.Fatal("expected error for unsupported measures")
	}
}

func TestUnskewedClassify(t *testing.T) {
	tree := NewDecisionTree(4)
	meta := NewUnskewed(tree)
	meta.Config = resample.Config{MinorityRatio: 2.0, MajorityRatio: 2.0, Seed: 1}

	// minority at low feature values, majority high: separable
	ds := dataset.New(dataset.Schema{
		AttributeNames: []string{"amount"},
		LabelValues:    [2]string{"fraud", "legit"},
	})
	for _, v := range []float64{0.0, 0.1, 0.2} {
		ds.Append(dataset.Record{Features: []float64{v}, Label: "fraud"})
	}
	for _, v := range []float64{0.8, 0.9, 1.0, 1.1, 1.2} {
		ds.Append(dataset.Record{Features: []float64{v}, Label: "legit"})
	}

	if err := meta.Build(ds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	label, confidence, err := meta.Classify(dataset.Record{Features: []float64{0.05}}, ds.Schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != "fraud" {
		t.Fatalf("expected fraud, got %q", label)
	}
	if confidence <= 0 || confidence > 1 {
		t.Fatalf("confidence out of range: %v", confidence)
	}
}
