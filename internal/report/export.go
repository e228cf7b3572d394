// Package report writes acquisition histories and summaries to files and
// renders summary curves.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
)

// WriteHistoryCSV writes one line per replication. The header names the
// initial-sample columns init_0.. and the acquisition columns step_1..
func WriteHistoryCSV(w io.Writer, h *models.History) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, h.Width())
	for i := 0; i < h.NInit; i++ {
		header = append(header, "init_"+strconv.Itoa(i))
	}
	for i := 1; i <= h.NIter; i++ {
		header = append(header, "step_"+strconv.Itoa(i))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write history header: %w", err)
	}

	record := make([]string, h.Width())
	for r, row := range h.Indices {
		if len(row) != len(record) {
			return fmt.Errorf("replication %d has %d entries, expected %d", r, len(row), len(record))
		}
		for i, idx := range row {
			record[i] = strconv.Itoa(idx)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write replication %d: %w", r, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadHistoryCSV reads a history written by WriteHistoryCSV. The header
// must be a block of init_ columns followed only by step_ columns; the
// size of the init_ block determines NInit.
func ReadHistoryCSV(r io.Reader) (*models.History, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("history csv has no header row")
		}
		return nil, fmt.Errorf("failed to read history header: %w", err)
	}
	nInit := 0
	for nInit < len(header) && strings.HasPrefix(header[nInit], "init_") {
		nInit++
	}
	if nInit == 0 {
		return nil, fmt.Errorf("history csv has no leading init_ columns")
	}
	for i, col := range header[nInit:] {
		if !strings.HasPrefix(col, "step_") {
			return nil, fmt.Errorf("history header column %d: expected a step_ column after the init_ block, got %q", nInit+i, col)
		}
	}

	h := &models.History{NInit: nInit, NIter: len(header) - nInit}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read history line %d: %w", line, err)
		}
		row := make([]int, len(record))
		for i, cell := range record {
			if row[i], err = strconv.Atoi(cell); err != nil {
				return nil, fmt.Errorf("history line %d column %d: %q is not an index", line, i, cell)
			}
		}
		h.Indices = append(h.Indices, row)
	}
	return h, nil
}

// WriteSummaryJSON writes the summary as indented JSON
func WriteSummaryJSON(w io.Writer, s *models.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}

// WriteSummaryCSV writes one line per step: step, median, upper, mean, optimum
func WriteSummaryCSV(w io.Writer, s *models.Summary) error {
	cw := csv.NewWriter(w)
	upper := "p" + strconv.FormatFloat(s.UpperQuantile*100, 'f', -1, 64)
	if err := cw.Write([]string{"step", "median", upper, "mean", "optimum"}); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	opt := formatFloat(s.Optimum)
	for i, step := range s.Steps {
		rec := []string{strconv.Itoa(step), formatFloat(s.Median[i]), formatFloat(s.Upper[i]), formatFloat(s.Mean[i]), opt}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write summary step %d: %w", step, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates path (and its directory) and hands the file to write.
func WriteFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
