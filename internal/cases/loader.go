// Package cases loads evaluation cases from line-delimited JSON files.
package cases

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/microsoft/keiko/internal/models"
)

// maxLineBytes bounds a single case line. Prompts can be long but anything
// past this is almost certainly a malformed file.
const maxLineBytes = 10 * 1024 * 1024

// LoadStats reports what happened to each line of a cases file.
type LoadStats struct {
	TotalLines     int
	Loaded         int
	SkippedBlank   int
	SkippedBadJSON int
	SkippedNoID    int
	FilteredOut    int
	// Capped counts matching cases dropped because the max-cases cap was
	// already reached.
	Capped int
}

// LoadOption configures Load.
type LoadOption func(*loader)

// WithStackFilter keeps only cases whose stack equals stack exactly.
// An empty string disables filtering.
func WithStackFilter(stack string) LoadOption {
	return func(l *loader) {
		l.stackFilter = stack
	}
}

// WithMaxCases caps how many cases are returned, applied after the stack
// filter. Zero or negative disables the cap.
func WithMaxCases(n int) LoadOption {
	return func(l *loader) {
		l.maxCases = n
	}
}

type loader struct {
	stackFilter string
	maxCases    int
}

// Load reads a line-delimited JSON cases file: one case object per line.
// Blank lines are skipped silently; lines with invalid JSON or a missing id
// are skipped with a warning. Input order is preserved and duplicate ids are
// kept as-is. Only a top-level read failure returns an error.
func Load(path string, opts ...LoadOption) ([]models.Case, LoadStats, error) {
	l := &loader{}
	for _, o := range opts {
		o(l)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("opening cases file: %w", err)
	}
	defer f.Close()

	var (
		loaded []models.Case
		stats  LoadStats
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		stats.TotalLines++
		lineNum := stats.TotalLines

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			stats.SkippedBlank++
			continue
		}

		var c models.Case
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			stats.SkippedBadJSON++
			slog.Warn("skipping line with invalid JSON", "file", path, "line", lineNum, "error", err)
			continue
		}

		if strings.TrimSpace(c.ID) == "" {
			stats.SkippedNoID++
			slog.Warn("skipping case with missing id", "file", path, "line", lineNum)
			continue
		}

		if l.stackFilter != "" && c.Stack != l.stackFilter {
			stats.FilteredOut++
			continue
		}

		if l.maxCases > 0 && len(loaded) >= l.maxCases {
			stats.Capped++
			continue
		}

		loaded = append(loaded, c)
	}

	if err := scanner.Err(); err != nil {
		return nil, LoadStats{}, fmt.Errorf("reading cases file %s: %w", path, err)
	}

	stats.Loaded = len(loaded)
	return loaded, stats, nil
}
