package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/seqlearn/pkg/config"
)

const sampleCSV = `x1, x2, yield
0.1, 1, 3.5
0.2, 2, 4.5
0.3, 3, 5.5
`

func TestLoadCSVAllFeatures(t *testing.T) {
	ds, err := LoadCSV(strings.NewReader(sampleCSV), "yield", nil)
	if err != nil {
		t.Fatalf("LoadCSV error: %v", err)
	}
	if ds.Len() != 3 || ds.Dim() != 2 {
		t.Fatalf("expected 3x2, got %dx%d", ds.Len(), ds.Dim())
	}
	if !reflect.DeepEqual(ds.FeatureNames, []string{"x1", "x2"}) {
		t.Errorf("unexpected feature names %v", ds.FeatureNames)
	}
	if !reflect.DeepEqual(ds.Responses, []float64{3.5, 4.5, 5.5}) {
		t.Errorf("unexpected responses %v", ds.Responses)
	}
	if ds.Features[2][1] != 3 {
		t.Errorf("unexpected feature value %v", ds.Features[2])
	}
}

func TestLoadCSVSelectedFeatures(t *testing.T) {
	ds, err := LoadCSV(strings.NewReader(sampleCSV), "yield", []string{"x2"})
	if err != nil {
		t.Fatalf("LoadCSV error: %v", err)
	}
	if ds.Dim() != 1 || ds.Features[0][0] != 1 {
		t.Fatalf("expected single x2 column, got %v", ds.Features)
	}
}

func TestLoadCSVErrors(t *testing.T) {
	tests := []struct {
		name     string
		csv      string
		response string
		features []string
		wantErr  string
	}{
		{"empty", "", "y", nil, "no header"},
		{"missing response", "a,b\n1,2\n", "y", nil, "unknown column"},
		{"missing feature", "a,y\n1,2\n", "y", []string{"z"}, "unknown column"},
		{"response as feature", "a,y\n1,2\n", "y", []string{"y"}, "cannot also be a feature"},
		{"non numeric", "a,y\n1,abc\n", "y", nil, "not numeric"},
		{"empty cell", "a,y\n,2\n", "y", nil, "empty value"},
		{"ragged", "a,y\n1,2,3\n", "y", nil, "line 2"},
		{"no rows", "a,y\n", "y", nil, "no candidates"},
		{"duplicate header", "a,a,y\n1,2,3\n", "y", nil, "duplicate csv column"},
		{"only response", "y\n1\n", "y", nil, "at least one feature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tt.csv), tt.response, tt.features)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	_, err := LoadCSV(strings.NewReader("a,b\n1,2\n"), "y", nil)
	if !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	ds, err := LoadCSVFile(path, "yield", nil)
	if err != nil {
		t.Fatalf("LoadCSVFile error: %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", ds.Len())
	}

	if _, err := LoadCSVFile(filepath.Join(t.TempDir(), "missing.csv"), "yield", nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRepositorySampleData(t *testing.T) {
	ds, err := LoadCSVFile("../../data/candidates.csv", "response", []string{"x1", "x2"})
	if err != nil {
		t.Fatalf("LoadCSVFile error: %v", err)
	}
	if ds.Len() != 30 || ds.Dim() != 2 {
		t.Fatalf("expected 30x2 sample data, got %dx%d", ds.Len(), ds.Dim())
	}
}

func TestFromConfig(t *testing.T) {
	inline, err := FromConfig(config.Dataset{Inline: &config.InlineDataset{
		Features:  [][]float64{{1}, {2}},
		Responses: []float64{3, 4},
	}}, "")
	if err != nil {
		t.Fatalf("inline: %v", err)
	}
	if inline.Len() != 2 {
		t.Fatalf("expected 2 inline rows, got %d", inline.Len())
	}

	fromText, err := FromConfig(config.Dataset{Response: "yield", Path: "ignored.csv"}, sampleCSV)
	if err != nil {
		t.Fatalf("csv text: %v", err)
	}
	if fromText.Len() != 3 {
		t.Fatalf("expected 3 rows from csv text, got %d", fromText.Len())
	}

	if _, err := FromConfig(config.Dataset{Response: "yield"}, ""); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}

	_, err = FromConfig(config.Dataset{Inline: &config.InlineDataset{
		Features:  [][]float64{{1}, {2, 3}},
		Responses: []float64{3, 4},
	}}, "")
	if err == nil {
		t.Fatal("expected error for ragged inline dataset")
	}
}
