// Package dataset defines the labeled record collections consumed by the
// resampling engine and the bundled learners.
package dataset

import (
	"errors"
	"fmt"
)

// Record is one feature vector with its class label. The label is empty when
// it is missing from the source data. Records are never mutated after load.
type Record struct {
	Features []float64
	Label    string
}

// Schema describes the attributes shared by every record in a dataset and the
// two-valued label domain. LabelValues[0] is the designated positive value:
// records carrying it are routed to the first group during stratification.
type Schema struct {
	AttributeNames []string
	LabelValues    [2]string
}

// Dataset is an ordered sequence of records sharing one schema.
type Dataset struct {
	Schema  Schema
	Records []Record
}

// New returns an empty dataset with the given schema.
func New(schema Schema) *Dataset {
	return &Dataset{Schema: schema}
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Append adds a record. The record is referenced, not copied.
func (d *Dataset) Append(record Record) {
	d.Records = append(d.Records, record)
}

// DropMissingLabels returns a new dataset holding only the records whose label
// is set. The records themselves are shared with the receiver.
func (d *Dataset) DropMissingLabels() *Dataset {
	filtered := &Dataset{
		Schema:  d.Schema,
		Records: make([]Record, 0, len(d.Records)),
	}
	for _, record := range d.Records {
		if record.Label == "" {
			continue
		}
		filtered.Records = append(filtered.Records, record)
	}
	return filtered
}

// Empty returns a new dataset with the same schema and no records.
func (d *Dataset) Empty(capacity int) *Dataset {
	return &Dataset{
		Schema:  d.Schema,
		Records: make([]Record, 0, capacity),
	}
}

// Validate checks that every record matches the schema: the right number of
// features and a label inside the two-valued domain (or missing).
func (d *Dataset) Validate() error {
	if len(d.Schema.AttributeNames) == 0 {
		return errors.New("schema has no attributes")
	}
	if d.Schema.LabelValues[0] == "" || d.Schema.LabelValues[1] == "" {
		return errors.New("schema label domain is incomplete")
	}
	for i, record := range d.Records {
		if len(record.Features) != len(d.Schema.AttributeNames) {
			return fmt.Errorf("record %d: expected %d features, got %d",
				i, len(d.Schema.AttributeNames), len(record.Features))
		}
		if record.Label != "" && record.Label != d.Schema.LabelValues[0] && record.Label != d.Schema.LabelValues[1] {
			return fmt.Errorf("record %d: label %q outside domain [%s, %s]",
				i, record.Label, d.Schema.LabelValues[0], d.Schema.LabelValues[1])
		}
	}
	return nil
}

// LabelIndex maps a label value to its position in the schema domain.
func (s Schema) LabelIndex(label string) (int, bool) {
	switch label {
	case s.LabelValues[0]:
		return 0, true
	case s.LabelValues[1]:
		return 1, true
	}
	return -1, false
}
