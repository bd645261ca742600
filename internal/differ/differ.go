package differ

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aleister1102/changewatch/internal/common"
	"github.com/aleister1102/changewatch/internal/models"
	"github.com/rs/zerolog"
)

// Engine computes diffs for the monitor and keeps a copy of the most recent
// one in a single file that is overwritten on every call.
type Engine struct {
	processor    *DiffProcessor
	lastDiffPath string
	mu           sync.Mutex
	logger       zerolog.Logger
}

// NewEngine creates an Engine. An empty lastDiffPath disables the record.
func NewEngine(lastDiffPath string, logger zerolog.Logger) *Engine {
	return &Engine{
		processor:    NewDiffProcessor(),
		lastDiffPath: lastDiffPath,
		logger:       logger.With().Str("component", "DiffEngine").Logger(),
	}
}

// Compute diffs old against new and records the result. Failing to write the
// record is logged and never affects the returned diff.
func (e *Engine) Compute(old, new string) models.DiffResult {
	lines := e.processor.Lines(old, new)
	stats := CalculateStats(lines)

	if err := e.writeLastDiff(lines); err != nil {
		e.logger.Warn().Err(err).Str("path", e.lastDiffPath).Msg("Failed to write last diff record")
	}

	return models.DiffResult{
		Lines:        lines,
		LinesAdded:   stats.LinesAdded,
		LinesDeleted: stats.LinesDeleted,
	}
}

// LastDiff returns the most recently recorded diff, or "" if none was written yet.
func (e *Engine) LastDiff() (string, error) {
	if e.lastDiffPath == "" {
		return "", common.WrapError(common.ErrFeatureDisabled, "last diff record")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := os.ReadFile(e.lastDiffPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", common.WrapError(err, "failed to read last diff record")
	}
	return string(data), nil
}

func (e *Engine) writeLastDiff(lines []string) error {
	if e.lastDiffPath == "" {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	dir := filepath.Dir(e.lastDiffPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".diff-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	content := strings.Join(lines, "\n")
	if content != "" {
		content += "\n"
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, e.lastDiffPath)
}
