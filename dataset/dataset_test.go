package dataset

import (
	"testing"
)

func TestDropMissingLabels(t *testing.T) {
	ds := New(Schema{
		AttributeNames: []string{"a"},
		LabelValues:    [2]string{"yes", "no"},
	})
	ds.Append(Record{Features: []float64{1}, Label: "yes"})
	ds.Append(Record{Features: []float64{2}})
	ds.Append(Record{Features: []float64{3}, Label: "no"})
	ds.Append(Record{Features: []float64{4}})

	filtered := ds.DropMissingLabels()
	if filtered.Len() != 2 {
		t.Fatalf("expected 2 labeled records, got %d", filtered.Len())
	}
	for i, record := range filtered.Records {
		if record.Label == "" {
			t.Fatalf("record %d still has no label", i)
		}
	}

	// the original is untouched
	if ds.Len() != 4 {
		t.Fatalf("input dataset was modified, now %d records", ds.Len())
	}
}

func TestValidate(t *testing.T) {
	ds := New(Schema{
		AttributeNames: []string{"a", "b"},
		LabelValues:    [2]string{"yes", "no"},
	})
	ds.Append(Record{Features: []float64{1, 2}, Label: "yes"})
	if err := ds.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ds.Append(Record{Features: []float64{1}, Label: "no"})
	if err := ds.Validate(); err == nil {
		t.Fatal("expected error for feature count mismatch")
	}
	ds.Records = ds.Records[:1]

	ds.Append(Record{Features: []float64{1, 2}, Label: "maybe"})
	if err := ds.Validate(); err == nil {
		t.Fatal("expected error for out-of-domain label")
	}
	ds.Records = ds.Records[:1]

	// a missing label is legal before filtering
	ds.Append(Record{Features: []float64{1, 2}})
	if err := ds.Validate(); err != nil {
		t.Fatalf("unexpected error for missing label: %v", err)
	}
}

func TestLabelIndex(t *testing.T) {
	schema := Schema{LabelValues: [2]string{"yes", "no"}}

	if idx, ok := schema.LabelIndex("yes"); !ok || idx != 0 {
		t.Fatalf("expected (0, true), got (%d, %v)", idx, ok)
	}
	if idx, ok := schema.LabelIndex("no"); !ok || idx != 1 {
		t.Fatalf("expected (1, true), got (%d, %v)", idx, ok)
	}
	if _, ok := schema.LabelIndex("maybe"); ok {
		t.Fatal("expected miss for out-of-domain label")
	}
	if _, ok := schema.LabelIndex(""); ok {
		t.Fatal("expected miss for empty label")
	}
}
