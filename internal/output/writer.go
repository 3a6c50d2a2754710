// Package output serializes scraped records and run summaries to JSON files.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/campusmetrics/profscraper/internal/model"
)

// ErrNoRecords reports an empty professor list handed to the writer. It is a
// distinct failure from an I/O error: the run produced nothing worth saving.
var ErrNoRecords = errors.New("no professor records to write")

// Writer persists professor lists as a UTF-8 JSON array of objects.
type Writer struct {
	logger *zap.Logger
}

// NewWriter builds a Writer.
func NewWriter(logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{logger: logger}
}

// SaveProfessors validates and writes professors to path, creating parent
// directories as needed. An empty input list returns ErrNoRecords.
func (w *Writer) SaveProfessors(professors []model.Professor, path string) error {
	if len(professors) == 0 {
		return ErrNoRecords
	}
	for i, p := range professors {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("record %d (%s) failed validation: %w", i, p.ProfessorName, err)
		}
	}
	if err := writeJSON(path, professors); err != nil {
		return err
	}
	w.logger.Info("wrote professor records",
		zap.Int("count", len(professors)),
		zap.String("file", path))
	return nil
}

// SaveListing writes the raw listing summaries, an optional intermediate
// artifact useful for resuming or auditing a run.
func (w *Writer) SaveListing(summaries []model.ProfessorSummary, path string) error {
	if len(summaries) == 0 {
		return ErrNoRecords
	}
	if err := writeJSON(path, summaries); err != nil {
		return err
	}
	w.logger.Info("wrote listing summaries",
		zap.Int("count", len(summaries)),
		zap.String("file", path))
	return nil
}

func writeJSON(path string, v interface{}) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
