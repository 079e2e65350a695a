package judge

import (
	"fmt"
	"strings"
)

const notSpecified = "(not specified)"

// BuildPrompt composes the judge prompt for one run. The prompt carries
// everything the judge needs: the task, the agent's output, what was expected,
// and the rubric to score against.
func BuildPrompt(casePrompt, output, expectedBehavior, rubric string) string {
	if expectedBehavior == "" {
		expectedBehavior = notSpecified
	}

	if rubric == "" {
		rubric = notSpecified
	}

	var sb strings.Builder
	sb.WriteString("You are an expert code reviewer judging the work of a coding agent.\n\n")
	sb.WriteString("## Task given to the agent\n")
	sb.WriteString(fmt.Sprintf("```\n%s\n```\n\n", casePrompt))
	sb.WriteString("## Agent output\n")
	sb.WriteString(fmt.Sprintf("```\n%s\n```\n\n", output))
	sb.WriteString("## Expected behavior\n")
	sb.WriteString(expectedBehavior)
	sb.WriteString("\n\n")
	sb.WriteString("## Rubric\n")
	sb.WriteString(rubric)
	sb.WriteString("\n\n")
	sb.WriteString("Score each dimension from 0.0 to 1.0, judging only what the output shows.\n")
	sb.WriteString("Respond with a single JSON object and nothing else:\n")
	sb.WriteString(`{"scores": {"correctness": 0.0, "code_quality": 0.0, "security": 0.0, "performance": 0.0, "test_coverage": 0.0}, "weighted_score": 0.0, "verdict": "Excellent", "notes": "brief explanation"}`)
	sb.WriteString("\n")

	return sb.String()
}
