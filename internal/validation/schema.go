// Package validation checks cases files against the shipped JSON Schema,
// producing per-line diagnostics the CLI can print as a table. It is stricter
// than the loader on purpose: the loader skips broken lines at run time, the
// validator exists to catch them at authoring time.
package validation

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/microsoft/keiko/schemas"
)

// maxLineBytes bounds a single case line, matching the loader's limit.
const maxLineBytes = 10 * 1024 * 1024

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// caseSchema is the compiled JSON Schema for cases-file lines.
var caseSchema *jsonschema.Schema

func init() {
	caseSchema = mustCompileSchema(schemas.CaseSchemaJSON, "case.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// LineIssue holds every problem found on one line of a cases file.
type LineIssue struct {
	Line     int
	Problems []string
}

// FileReport is the outcome of validating a whole cases file.
type FileReport struct {
	TotalLines int
	// Checked counts non-blank lines, valid or not.
	Checked int
	Issues  []LineIssue
}

// Valid reports whether every checked line passed.
func (r *FileReport) Valid() bool {
	return len(r.Issues) == 0
}

// ValidateCasesFile checks every line of the file at path against the case
// schema. Blank lines are skipped, matching the loader. Only a top-level read
// failure returns an error; per-line problems land in the report.
func ValidateCasesFile(path string) (*FileReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cases file: %w", err)
	}
	defer f.Close()

	report := &FileReport{}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		report.TotalLines++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		report.Checked++

		if problems := ValidateCaseBytes([]byte(line)); len(problems) > 0 {
			report.Issues = append(report.Issues, LineIssue{
				Line:     report.TotalLines,
				Problems: problems,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading cases file %s: %w", path, err)
	}

	return report, nil
}

// ValidateCaseBytes validates one JSON case line against the case schema and
// returns its problems, formatted as "<json-pointer>: <message>".
func ValidateCaseBytes(data []byte) []string {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("invalid JSON: %v", err)}
	}

	return validateAgainstSchema(caseSchema, doc)
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}
