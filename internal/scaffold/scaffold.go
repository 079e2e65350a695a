// Package scaffold provides the starter file contents written by keiko init.
package scaffold

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/microsoft/keiko/internal/models"
)

// ValidateName rejects names with path-traversal characters or empty names.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("project name must not be empty")
	}
	cleaned := filepath.Clean(name)
	if cleaned == ".." || strings.Contains(cleaned, "/") || strings.Contains(cleaned, "\\") {
		return fmt.Errorf("project name %q contains invalid path characters", name)
	}
	return nil
}

// TitleCase converts a kebab-case name to Title Case.
func TitleCase(s string) string {
	words := strings.Split(s, "-")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// StarterCases returns a cases.jsonl starter: one JSON object per line, three
// cases that exercise the full pipeline. Each line is produced by json.Marshal
// so the starter file is guaranteed to load and validate.
func StarterCases(stack string) (string, error) {
	samples := []models.Case{
		{
			ID:               "fix-empty-input-crash",
			Prompt:           "The parse function crashes when it receives an empty string. Find the bug, fix it, and explain the root cause.",
			ExpectedBehavior: "Identifies the unguarded index access, adds an empty-input check, and keeps the function signature unchanged.",
			Stack:            stack,
			Rubric:           "Full marks only if the fix handles the empty case and the explanation names the failing line.",
		},
		{
			ID:               "add-input-validation",
			Prompt:           "Add validation to the user registration handler: reject empty usernames and passwords shorter than 8 characters, returning a 400 with a descriptive message.",
			ExpectedBehavior: "Both rules enforced before any storage call, each rejection returns 400 with a message naming the failed rule.",
			Stack:            stack,
			Rubric:           "Deduct for validation after side effects or for generic error messages.",
		},
		{
			ID:               "explain-then-refactor",
			Prompt:           "Explain what the legacy report builder does, then refactor it into smaller functions without changing its output.",
			ExpectedBehavior: "Accurate explanation first, then a refactor that preserves behavior and reduces nesting.",
			Stack:            stack,
			Rubric:           "The explanation must come before the refactor and the refactor must be behavior-preserving.",
		},
	}

	var b strings.Builder
	for _, c := range samples {
		line, err := json.Marshal(c)
		if err != nil {
			return "", fmt.Errorf("failed to marshal starter case %q: %w", c.ID, err)
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// README returns a starter README for a scaffolded eval project.
func README(name string) string {
	return fmt.Sprintf(`# %s

An agent evaluation project driven by keiko.

## Quick Start

1. Edit `+"`cases.jsonl`"+`: one JSON object per line, each with at least an
   `+"`id`"+` and a `+"`prompt`"+`.
2. Point `+"`agent.command`"+` in `+"`.keiko.yaml`"+` at the agent under test.
3. Run the pipeline:

`+"```bash"+`
keiko validate cases.jsonl
keiko run cases.jsonl
keiko score results/
keiko report results/
`+"```"+`

## Structure

`+"```"+`
%s/
├── .keiko.yaml     # project configuration
├── cases.jsonl     # evaluation cases, one per line
└── results/        # per-case artifacts, scores, and reports
`+"```"+`
`, TitleCase(name), name)
}
