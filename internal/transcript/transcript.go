// Package transcript saves full judge exchanges to disk. Score records keep
// only a truncated tail of unparsable responses; transcripts keep everything.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// sanitize replaces characters that are unsafe in filenames.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func sanitizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = unsafeChars.ReplaceAllString(s, "")
	if s == "" {
		s = "unnamed"
	}
	return s
}

// Transcript captures one judge exchange end to end.
type Transcript struct {
	CaseID     string    `json:"case_id"`
	Judge      string    `json:"judge"`
	Prompt     string    `json:"prompt"`
	Response   string    `json:"response"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
}

// Filename returns the transcript filename for a case.
func Filename(caseID string, ts time.Time) string {
	return fmt.Sprintf("%s-%s.json", sanitizeName(caseID), ts.Format("20060102-150405"))
}

// Write serializes a Transcript and writes it to dir.
func Write(dir string, t *Transcript) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}

	name := Filename(t.CaseID, t.StartedAt)
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}

	return path, nil
}
