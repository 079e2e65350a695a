package models

// Case is a single evaluation case from a line-delimited JSON cases file.
// ID is the only required field; it keys every artifact the pipeline writes.
type Case struct {
	ID               string `json:"id"`
	Prompt           string `json:"prompt"`
	ExpectedBehavior string `json:"expected_behavior"`
	Stack            string `json:"stack"`
	Rubric           string `json:"rubric"`
}
