package judge

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/microsoft/keiko/internal/models"
)

// Payload is the JSON shape judges are asked to produce. WeightedScore and
// Verdict are decoded but callers recompute both from the dimension scores;
// a judge asserting its own arithmetic is not trusted.
type Payload struct {
	Scores        models.DimensionScores `json:"scores"`
	WeightedScore float64                `json:"weighted_score"`
	Verdict       string                 `json:"verdict"`
	Notes         string                 `json:"notes"`
}

// ErrNoPayload means no candidate slice of the response unmarshaled as a
// payload object.
var ErrNoPayload = errors.New("no JSON object found in judge response")

// ParsePayload pulls the verdict object out of a raw judge reply. Judges get
// told to reply with bare JSON but routinely wrap it in markdown fences or
// surround it with prose, so extraction runs in tiers, most trusting first:
//
//  1. the whole trimmed response is the object
//  2. the first brace-balanced object found anywhere in the response
//  3. the slice from the first '{' to the last '}'
//
// The first candidate that unmarshals wins.
func ParsePayload(raw string) (*Payload, error) {
	for _, candidate := range payloadCandidates(raw) {
		var p Payload
		if err := json.Unmarshal([]byte(candidate), &p); err == nil {
			return &p, nil
		}
	}

	return nil, ErrNoPayload
}

func payloadCandidates(raw string) []string {
	trimmed := strings.TrimSpace(raw)

	var candidates []string

	if strings.HasPrefix(trimmed, "{") {
		candidates = append(candidates, trimmed)
	}

	candidates = append(candidates, balancedObjects(trimmed)...)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		candidates = append(candidates, trimmed[start:end+1])
	}

	return candidates
}

// balancedObjects returns every top-level brace-balanced span in text, in
// order. Braces inside JSON strings don't count toward nesting, including
// escaped quotes. Text outside any object is not parsed as JSON, so a '{' in
// prose can open a junk span; callers filter by unmarshaling.
func balancedObjects(text string) []string {
	var spans []string

	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				spans = append(spans, text[start:i+1])
			}
		}
	}

	return spans
}
