// Package learner defines the base-learner contract and the Unskewed
// meta-learner that rebalances a dataset before delegating training.
package learner

import (
	"unskewed/dataset"
)

// BaseLearner is the training and prediction surface any wrapped algorithm
// must expose. DistributionFor returns one probability per label value, in
// schema order.
type BaseLearner interface {
	Train(ds *dataset.Dataset) error
	DistributionFor(record dataset.Record) ([]float64, error)
}

// Seedable is implemented by learners with internal randomness that can be
// pinned to a seed.
type Seedable interface {
	SetSeed(seed int64)
}

// MeasureProducer is implemented by learners exposing named additional
// metrics beyond the prediction surface.
type MeasureProducer interface {
	Measures() []string
	Measure(name string) (float64, error)
}

// CapabilityChecker is implemented by learners with preconditions on their
// training data. CheckCapabilities runs before any training and a returned
// error aborts the whole build.
type CapabilityChecker interface {
	CheckCapabilities(ds *dataset.Dataset) error
}
