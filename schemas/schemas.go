// Package schemas embeds the JSON Schemas shipped with keiko.
package schemas

import _ "embed"

// CaseSchemaJSON is the JSON Schema for one cases-file line.
//
//go:embed case.schema.json
var CaseSchemaJSON string
