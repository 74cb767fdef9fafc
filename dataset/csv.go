package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// LoadOptions controls CSV ingestion. When PositiveLabel/NegativeLabel are
// empty the label domain is inferred from the first two distinct values seen,
// in order of appearance.
type LoadOptions struct {
	Encoding      string // "utf8" (default) or "gbk"
	PositiveLabel string
	NegativeLabel string
}

// LoadCSV reads a labeled dataset from a CSV file. The header row names the
// attributes, the last column is the class label. An empty label cell marks a
// missing label; the record is kept and must be filtered with
// DropMissingLabels before stratification.
func LoadCSV(path string, opts LoadOptions) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCSV(file, opts)
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader, opts LoadOptions) (*Dataset, error) {
	if strings.EqualFold(opts.Encoding, "gbk") {
		r = transform.NewReader(r, simplifiedchinese.GBK.NewDecoder())
	}

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("expected at least one attribute column and a label column, got %d columns", len(header))
	}

	schema := Schema{
		AttributeNames: header[:len(header)-1],
		LabelValues:    [2]string{opts.PositiveLabel, opts.NegativeLabel},
	}
	infer := opts.PositiveLabel == "" && opts.NegativeLabel == ""

	ds := New(schema)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		if len(row) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, len(header), len(row))
		}

		features := make([]float64, len(row)-1)
		for i, cell := range row[:len(row)-1] {
			value, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, header[i], err)
			}
			features[i] = value
		}

		label := strings.TrimSpace(row[len(row)-1])
		if label != "" {
			if infer {
				if err := inferLabel(&ds.Schema, label, line); err != nil {
					return nil, err
				}
			} else if _, ok := ds.Schema.LabelIndex(label); !ok {
				return nil, fmt.Errorf("line %d: label %q outside domain [%s, %s]",
					line, label, ds.Schema.LabelValues[0], ds.Schema.LabelValues[1])
			}
		}

		ds.Append(Record{Features: features, Label: label})
	}

	if ds.Schema.LabelValues[0] == "" || ds.Schema.LabelValues[1] == "" {
		return nil, fmt.Errorf("label domain incomplete: need two distinct label values, found %q and %q",
			ds.Schema.LabelValues[0], ds.Schema.LabelValues[1])
	}
	return ds, nil
}

func inferLabel(schema *Schema, label string, line int) error {
	switch {
	case schema.LabelValues[0] == "" || schema.LabelValues[0] == label:
		schema.LabelValues[0] = label
	case schema.LabelValues[1] == "" || schema.LabelValues[1] == label:
		schema.LabelValues[1] = label
	default:
		return fmt.Errorf("line %d: third label value %q, only binary labels are supported", line, label)
	}
	return nil
}
