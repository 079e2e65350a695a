// Package results reads and writes the per-case artifacts in a results
// directory: <id>.prompt.txt, <id>.output.txt, <id>.meta.json, <id>.score.json
// and the per-run manifest.json. Every artifact path is derived from the case
// id, so cases can never clobber each other's files.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/microsoft/keiko/internal/models"
)

const (
	promptSuffix = ".prompt.txt"
	outputSuffix = ".output.txt"
	metaSuffix   = ".meta.json"
	scoreSuffix  = ".score.json"

	manifestName = "manifest.json"
)

// Store is a results directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created lazily by
// EnsureDir, not here, so read-only consumers can point at paths that must
// already exist.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the results directory path.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDir creates the results directory if it does not exist.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create results directory %s: %w", s.dir, err)
	}

	return nil
}

func (s *Store) PromptPath(caseID string) string {
	return filepath.Join(s.dir, caseID+promptSuffix)
}

func (s *Store) OutputPath(caseID string) string {
	return filepath.Join(s.dir, caseID+outputSuffix)
}

func (s *Store) MetaPath(caseID string) string {
	return filepath.Join(s.dir, caseID+metaSuffix)
}

func (s *Store) ScorePath(caseID string) string {
	return filepath.Join(s.dir, caseID+scoreSuffix)
}

func (s *Store) ManifestPath() string {
	return filepath.Join(s.dir, manifestName)
}

// WritePrompt saves the prompt sent to the agent, verbatim.
func (s *Store) WritePrompt(caseID, prompt string) error {
	return writeText(s.PromptPath(caseID), prompt)
}

// WriteOutput saves the agent's captured output.
func (s *Store) WriteOutput(caseID, output string) error {
	return writeText(s.OutputPath(caseID), output)
}

// WriteMeta saves the run result for a case.
func (s *Store) WriteMeta(result *models.RunResult) error {
	return writeJSON(s.MetaPath(result.CaseID), result)
}

// WriteScore saves the score record for a case, overwriting any prior record.
func (s *Store) WriteScore(record *models.ScoreRecord) error {
	return writeJSON(s.ScorePath(record.CaseID), record)
}

// WriteManifest saves the batch manifest.
func (s *Store) WriteManifest(manifest *models.Manifest) error {
	return writeJSON(s.ManifestPath(), manifest)
}

// ReadPrompt returns the stored prompt for a case.
func (s *Store) ReadPrompt(caseID string) (string, error) {
	return readText(s.PromptPath(caseID))
}

// ReadOutput returns the stored agent output for a case.
func (s *Store) ReadOutput(caseID string) (string, error) {
	return readText(s.OutputPath(caseID))
}

// ReadMeta returns the run result for a case.
func (s *Store) ReadMeta(caseID string) (*models.RunResult, error) {
	var result models.RunResult

	if err := readJSON(s.MetaPath(caseID), &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ReadManifest returns the batch manifest.
func (s *Store) ReadManifest() (*models.Manifest, error) {
	var manifest models.Manifest

	if err := readJSON(s.ManifestPath(), &manifest); err != nil {
		return nil, err
	}

	return &manifest, nil
}

// ListResults loads every <id>.meta.json in the directory, sorted by case id.
func (s *Store) ListResults() ([]models.RunResult, error) {
	ids, err := s.listIDs(metaSuffix)

	if err != nil {
		return nil, err
	}

	results := make([]models.RunResult, 0, len(ids))

	for _, id := range ids {
		var result models.RunResult

		if err := readJSON(s.MetaPath(id), &result); err != nil {
			return nil, err
		}

		results = append(results, result)
	}

	return results, nil
}

// ListScores loads every <id>.score.json in the directory, sorted by case id.
func (s *Store) ListScores() ([]models.ScoreRecord, error) {
	ids, err := s.listIDs(scoreSuffix)

	if err != nil {
		return nil, err
	}

	records := make([]models.ScoreRecord, 0, len(ids))

	for _, id := range ids {
		var record models.ScoreRecord

		if err := readJSON(s.ScorePath(id), &record); err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}

func (s *Store) listIDs(suffix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)

	if err != nil {
		return nil, fmt.Errorf("failed to read results directory %s: %w", s.dir, err)
	}

	var ids []string

	for _, entry := range entries {
		name := entry.Name()

		if entry.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}

		ids = append(ids, strings.TrimSuffix(name, suffix))
	}

	sort.Strings(ids)
	return ids, nil
}

func writeText(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return string(data), nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")

	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)

	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}
