package resample

import (
	"fmt"
	"math"
	"math/rand"

	"unskewed/dataset"
)

// Config holds the parameters of one resampling run. Ratios are multipliers
// on the original group sizes; a ratio of 0 excludes that group entirely.
type Config struct {
	MinorityRatio float64
	MajorityRatio float64
	Seed          int64
}

// DefaultConfig returns the stock parameters: draw as many minority records
// as exist, half as many majority records, seed 1.
func DefaultConfig() Config {
	return Config{
		MinorityRatio: 1.0,
		MajorityRatio: 0.5,
		Seed:          1,
	}
}

// Result is the outcome of one resampling run.
type Result struct {
	Dataset        *dataset.Dataset
	MinoritySize   int
	MajoritySize   int
	MinorityTarget int
	MajorityTarget int
	// DerivedSeed is one extra value consumed from the run's generator after
	// the draw loop, intended as the wrapped learner's own seed. It couples
	// the learner's randomness to the resampling seed.
	DerivedSeed int64
}

// Run draws a fixed-size sample with replacement from each class group and
// assembles them into a new dataset: all minority draws first, then all
// majority draws, both in draw order.
//
// Target counts are round(size*ratio) with halves rounded away from zero.
// One generator is seeded from cfg.Seed for the entire call and consumed in
// a fixed order (minority draws, majority draws, derived seed), so the same
// (groups, config) input always produces an identical result. The draw order
// is part of the contract; reordering it changes the output for a given seed.
func Run(minority, majority ClassGroup, schema dataset.Schema, cfg Config) (*Result, error) {
	if cfg.MinorityRatio < 0 {
		return nil, fmt.Errorf("minority ratio %v: %w", cfg.MinorityRatio, ErrInvalidRatio)
	}
	if cfg.MajorityRatio < 0 {
		return nil, fmt.Errorf("majority ratio %v: %w", cfg.MajorityRatio, ErrInvalidRatio)
	}

	minorityTarget := int(math.Round(float64(minority.Len()) * cfg.MinorityRatio))
	majorityTarget := int(math.Round(float64(majority.Len()) * cfg.MajorityRatio))

	// an empty group with a positive ratio means the caller asked for records
	// that cannot exist; round(0*ratio) is always 0, so the ratio is checked
	if minority.Len() == 0 && cfg.MinorityRatio > 0 {
		return nil, fmt.Errorf("minority group %q: %w", minority.Label, ErrEmptyGroup)
	}
	if majority.Len() == 0 && cfg.MajorityRatio > 0 {
		return nil, fmt.Errorf("majority group %q: %w", majority.Label, ErrEmptyGroup)
	}

	rnd := rand.New(rand.NewSource(cfg.Seed))

	resampled := &dataset.Dataset{
		Schema:  schema,
		Records: make([]dataset.Record, 0, minorityTarget+majorityTarget),
	}
	for i := 0; i < minorityTarget; i++ {
		resampled.Records = append(resampled.Records, minority.Records[rnd.Intn(minority.Len())])
	}
	for i := 0; i < majorityTarget; i++ {
		resampled.Records = append(resampled.Records, majority.Records[rnd.Intn(majority.Len())])
	}

	return &Result{
		Dataset:        resampled,
		MinoritySize:   minority.Len(),
		MajoritySize:   majority.Len(),
		MinorityTarget: minorityTarget,
		MajorityTarget: majorityTarget,
		DerivedSeed:    rnd.Int63(),
	}, nil
}

// Rebalance stratifies a dataset and runs one resampling pass over it.
// Records with missing labels must already be filtered out.
func Rebalance(ds *dataset.Dataset, cfg Config) (*Result, error) {
	minority, majority, err := Stratify(ds)
	if err != nil {
		return nil, err
	}
	return Run(minority, majority, ds.Schema, cfg)
}
