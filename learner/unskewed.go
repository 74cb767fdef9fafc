package learner

import (
	"errors"
	"fmt"

	"unskewed/dataset"
	"unskewed/resample"
)

// ErrCapability marks a dataset that violates the wrapped learner's
// capability requirements.
var ErrCapability = errors.New("dataset violates learner capabilities")

// ErrNotBuilt is returned when prediction is requested before Build.
var ErrNotBuilt = errors.New("no model built yet")

// Unskewed wraps a base learner and corrects class imbalance in its training
// data: the input dataset is partitioned by label, resampled with replacement
// under the configured ratios, and the rebalanced dataset is handed to the
// wrapped learner. When the learner is Seedable its seed is derived from the
// resampling generator, so one seed pins the whole run.
type Unskewed struct {
	Learner BaseLearner
	Config  resample.Config

	built   bool
	lastRun *resample.Result
}

// NewUnskewed wraps a base learner with the default sampling parameters.
func NewUnskewed(base BaseLearner) *Unskewed {
	return &Unskewed{
		Learner: base,
		Config:  resample.DefaultConfig(),
	}
}

// Build trains the wrapped learner on a rebalanced copy of the dataset.
// Records with a missing label are dropped before stratification. Errors from
// the wrapped learner's own training pass through unwrapped.
func (u *Unskewed) Build(ds *dataset.Dataset) error {
	if u.Learner == nil {
		return errors.New("no base learner configured")
	}

	if checker, ok := u.Learner.(CapabilityChecker); ok {
		if err := checker.CheckCapabilities(ds); err != nil {
			return fmt.Errorf("%w: %v", ErrCapability, err)
		}
	}

	filtered := ds.DropMissingLabels()

	result, err := resample.Rebalance(filtered, u.Config)
	if err != nil {
		return err
	}
	u.lastRun = result

	if seedable, ok := u.Learner.(Seedable); ok {
		seedable.SetSeed(result.DerivedSeed)
	}

	if err := u.Learner.Train(result.Dataset); err != nil {
		return err
	}
	u.built = true
	return nil
}

// DistributionFor delegates prediction to the wrapped learner.
func (u *Unskewed) DistributionFor(record dataset.Record) ([]float64, error) {
	if !u.built {
		return nil, ErrNotBuilt
	}
	return u.Learner.DistributionFor(record)
}

// Classify returns the label value with the highest predicted probability and
// its probability.
func (u *Unskewed) Classify(record dataset.Record, schema dataset.Schema) (string, float64, error) {
	dist, err := u.DistributionFor(record)
	if err != nil {
		return "", 0, err
	}
	if len(dist) != 2 {
		return "", 0, fmt.Errorf("expected binary distribution, got %d classes", len(dist))
	}
	if dist[1] > dist[0] {
		return schema.LabelValues[1], dist[1], nil
	}
	return schema.LabelValues[0], dist[0], nil
}

// LastRun reports the resampling outcome of the most recent Build, or nil.
func (u *Unskewed) LastRun() *resample.Result {
	return u.lastRun
}

// Measures forwards the wrapped learner's additional measure names, if any.
func (u *Unskewed) Measures() []string {
	if producer, ok := u.Learner.(MeasureProducer); ok {
		return producer.Measures()
	}
	return nil
}

// Measure forwards an additional measure lookup to the wrapped learner.
func (u *Unskewed) Measure(name string) (float64, error) {
	if producer, ok := u.Learner.(MeasureProducer); ok {
		return producer.Measure(name)
	}
	return 0, fmt.Errorf("additional measures not supported by base learner")
}

// String describes the built model.
func (u *Unskewed) String() string {
	if !u.built {
		return "Unskewed: no model built yet"
	}
	if stringer, ok := u.Learner.(fmt.Stringer); ok {
		return fmt.Sprintf("Unskewed base learner:\n\n%s", stringer.String())
	}
	return fmt.Sprintf("Unskewed base learner: %T", u.Learner)
}
