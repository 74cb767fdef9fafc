// Package resample implements stratified sampling with replacement for
// correcting class imbalance in binary-labeled datasets.
package resample

import (
	"fmt"

	"unskewed/dataset"
)

// ClassGroup is the ordered set of records carrying one label value.
type ClassGroup struct {
	Label   string
	Records []dataset.Record
}

// Len returns the number of records in the group.
func (g ClassGroup) Len() int {
	return len(g.Records)
}

// Stratify partitions a dataset into its two class groups and names them by
// cardinality. Records whose label equals the schema's first (positive) value
// form one group, the rest the other; the smaller group is the minority. When
// both groups are the same size, the positive-value group is the minority.
//
// Every record must carry a label inside the schema's domain; the caller is
// expected to have run DropMissingLabels first, but the check is repeated
// here so a bad dataset fails loudly instead of skewing the partition.
func Stratify(ds *dataset.Dataset) (minority, majority ClassGroup, err error) {
	positive := ClassGroup{Label: ds.Schema.LabelValues[0]}
	negative := ClassGroup{Label: ds.Schema.LabelValues[1]}

	for i, record := range ds.Records {
		switch record.Label {
		case "":
			return ClassGroup{}, ClassGroup{}, fmt.Errorf("record %d: %w", i, ErrMissingLabel)
		case positive.Label:
			positive.Records = append(positive.Records, record)
		case negative.Label:
			negative.Records = append(negative.Records, record)
		default:
			return ClassGroup{}, ClassGroup{}, fmt.Errorf("record %d: label %q: %w", i, record.Label, ErrInvalidLabelDomain)
		}
	}

	if positive.Len() > negative.Len() {
		return negative, positive, nil
	}
	return positive, negative, nil
}
