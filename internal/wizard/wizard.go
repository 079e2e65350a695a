// Package wizard collects eval project settings through an interactive form
// and renders the configuration file keiko init writes.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/microsoft/keiko/internal/projectconfig"
	"github.com/microsoft/keiko/internal/scaffold"
)

// ProjectSpec holds all fields collected during the interactive wizard.
type ProjectSpec struct {
	Name         string
	Stack        string
	AgentCommand []string
	Engine       string
	Model        string
	JudgeKind    string
	JudgeCommand []string
	JudgeModel   string
}

const configTemplate = `# keiko project configuration for {{ .Name }}.
# Anything omitted here falls back to built-in defaults; command-line flags
# override both.

agent:
  command: {{ .AgentCommandList }}
  engine: {{ .Engine }}
{{- if .Model }}
  model: {{ .Model }}
{{- end }}

judge:
  kind: {{ .JudgeKind }}
{{- if .JudgeCommandList }}
  command: {{ .JudgeCommandList }}
{{- end }}
{{- if .JudgeModel }}
  model: {{ .JudgeModel }}
{{- end }}

cache:
  enabled: true

# paths:
#   results: results/
`

// AgentCommandList renders the agent argv as a YAML flow sequence.
func (s ProjectSpec) AgentCommandList() string {
	return yamlList(s.AgentCommand)
}

// JudgeCommandList renders the judge argv as a YAML flow sequence, or an
// empty string when no judge command was collected.
func (s ProjectSpec) JudgeCommandList() string {
	return yamlList(s.JudgeCommand)
}

func yamlList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// RunProjectWizard runs an interactive huh form to collect project settings.
// If initialName is non-empty, it pre-populates the name field.
func RunProjectWizard(in io.Reader, out io.Writer, initialName string) (*ProjectSpec, error) {
	var (
		name       = initialName
		stack      string
		agentRaw   string
		engine     = projectconfig.DefaultEngine
		model      string
		judgeKind  = projectconfig.DefaultJudgeKind
		judgeRaw   string
		judgeModel string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Description("A kebab-case name for this eval project").
				Placeholder("backend-agent-evals").
				Value(&name).
				Validate(func(s string) error {
					return scaffold.ValidateName(strings.TrimSpace(s))
				}),
			huh.NewInput().
				Title("Primary stack").
				Description("Tags the starter cases; leave blank for none").
				Placeholder("go").
				Value(&stack),
			huh.NewInput().
				Title("Agent command").
				Description("Reads a case prompt on stdin and prints the agent's output").
				Placeholder("my-agent --headless").
				Value(&agentRaw).
				Validate(func(s string) error {
					if len(strings.Fields(s)) == 0 {
						return fmt.Errorf("agent command is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Agent engine").
				Options(
					huh.NewOption("cli", "cli"),
					huh.NewOption("copilot", "copilot"),
				).
				Value(&engine),
			huh.NewInput().
				Title("Model").
				Description("Default model requested from the engine; blank uses its fallback").
				Value(&model),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Judge kind").
				Options(
					huh.NewOption("cli", "cli"),
					huh.NewOption("copilot", "copilot"),
					huh.NewOption("mock", "mock"),
				).
				Value(&judgeKind),
			huh.NewInput().
				Title("Judge command").
				Description("Required for the cli judge; ignored otherwise").
				Placeholder("my-judge").
				Value(&judgeRaw).
				Validate(func(s string) error {
					if judgeKind == "cli" && len(strings.Fields(s)) == 0 {
						return fmt.Errorf("judge command is required for the cli judge")
					}
					return nil
				}),
			huh.NewInput().
				Title("Judge model").
				Description("Model for the copilot judge; leave blank elsewhere").
				Value(&judgeModel),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	return &ProjectSpec{
		Name:         strings.TrimSpace(name),
		Stack:        strings.TrimSpace(stack),
		AgentCommand: strings.Fields(agentRaw),
		Engine:       engine,
		Model:        strings.TrimSpace(model),
		JudgeKind:    judgeKind,
		JudgeCommand: strings.Fields(judgeRaw),
		JudgeModel:   strings.TrimSpace(judgeModel),
	}, nil
}

// DefaultSpec returns the project spec used when init runs without a terminal
// and the wizard cannot be shown. The commands are placeholders the user edits.
func DefaultSpec(name string) *ProjectSpec {
	return &ProjectSpec{
		Name:         name,
		AgentCommand: []string{"my-agent"},
		Engine:       projectconfig.DefaultEngine,
		JudgeKind:    projectconfig.DefaultJudgeKind,
		JudgeCommand: []string{"my-judge"},
	}
}

// GenerateConfig renders the .keiko.yaml content for a collected spec.
func GenerateConfig(spec *ProjectSpec) (string, error) {
	tmpl, err := template.New("keikoyaml").Parse(configTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse config template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, spec); err != nil {
		return "", fmt.Errorf("failed to render config template: %w", err)
	}
	return buf.String(), nil
}
