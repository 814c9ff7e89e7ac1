// Package schemas embeds the JSON Schemas for the report formats.
package schemas

import _ "embed"

// ResultSchemaJSON describes a single compliance result row.
//
//go:embed result.schema.json
var ResultSchemaJSON string

// ConfigSchemaJSON describes the .ifccheck.yaml project file.
//
//go:embed config.schema.json
var ConfigSchemaJSON string
