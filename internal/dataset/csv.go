// Package dataset turns tabular candidate data into the numeric feature
// matrix and response vector the simulator consumes.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/GoSim-25-26J-441/seqlearn/pkg/config"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
)

var (
	ErrNoSource      = errors.New("no dataset source")
	ErrUnknownColumn = errors.New("unknown column")
)

// LoadCSV reads a header row followed by numeric rows. The response column
// is required; when features is empty every other column is a feature.
func LoadCSV(r io.Reader, response string, features []string) (*models.Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv has no header row")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	names := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if _, dup := columns[name]; dup {
			return nil, fmt.Errorf("duplicate csv column %q", name)
		}
		columns[name] = i
		names[i] = name
	}

	respCol, ok := columns[response]
	if !ok {
		return nil, fmt.Errorf("%w: response %q", ErrUnknownColumn, response)
	}
	if len(features) == 0 {
		for _, name := range names {
			if name != response {
				features = append(features, name)
			}
		}
	}
	featCols := make([]int, len(features))
	for i, name := range features {
		col, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("%w: feature %q", ErrUnknownColumn, name)
		}
		if col == respCol {
			return nil, fmt.Errorf("response column %q cannot also be a feature", name)
		}
		featCols[i] = col
	}

	ds := &models.Dataset{
		FeatureNames: append([]string(nil), features...),
		ResponseName: response,
	}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		y, err := parseCell(record[respCol], line, response)
		if err != nil {
			return nil, err
		}
		row := make([]float64, len(featCols))
		for i, col := range featCols {
			if row[i], err = parseCell(record[col], line, features[i]); err != nil {
				return nil, err
			}
		}
		ds.Features = append(ds.Features, row)
		ds.Responses = append(ds.Responses, y)
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// LoadCSVFile opens path and calls LoadCSV
func LoadCSVFile(path, response string, features []string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	ds, err := LoadCSV(f, response, features)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", path, err)
	}
	return ds, nil
}

// FromConfig builds the dataset an experiment describes. csvText, when
// non-empty, replaces the file named by cfg.Path; API callers send the
// table inline this way.
func FromConfig(cfg config.Dataset, csvText string) (*models.Dataset, error) {
	switch {
	case cfg.Inline != nil:
		ds := &models.Dataset{
			Features:     cfg.Inline.Features,
			Responses:    cfg.Inline.Responses,
			FeatureNames: cfg.Features,
			ResponseName: cfg.Response,
		}
		if err := ds.Validate(); err != nil {
			return nil, fmt.Errorf("invalid inline dataset: %w", err)
		}
		return ds, nil
	case csvText != "":
		return LoadCSV(strings.NewReader(csvText), cfg.Response, cfg.Features)
	case cfg.Path != "":
		return LoadCSVFile(cfg.Path, cfg.Response, cfg.Features)
	}
	return nil, ErrNoSource
}

func parseCell(cell string, line int, column string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, fmt.Errorf("line %d column %q: empty value", line, column)
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d column %q: %q is not numeric", line, column, cell)
	}
	return v, nil
}
