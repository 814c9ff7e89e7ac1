// Package validation checks report rows and project files against the
// embedded JSON Schemas.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/spboyer/ifccheck/internal/checks"
	"github.com/spboyer/ifccheck/schemas"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// resultSchema is the compiled JSON Schema for one result row.
var resultSchema *jsonschema.Schema

// configSchema is the compiled JSON Schema for .ifccheck.yaml.
var configSchema *jsonschema.Schema

func init() {
	resultSchema = mustCompileSchema(schemas.ResultSchemaJSON, "result.schema.json")
	configSchema = mustCompileSchema(schemas.ConfigSchemaJSON, "config.schema.json")
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

// ValidateResults validates every row against the result schema and checks
// that the summary row comes last. Errors are prefixed with the row index.
func ValidateResults(results []checks.Result) []string {
	var errs []string
	for i, r := range results {
		data, err := json.Marshal(r)
		if err != nil {
			errs = append(errs, fmt.Sprintf("[%d]: %v", i, err))
			continue
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			errs = append(errs, fmt.Sprintf("[%d]: %v", i, err))
			continue
		}
		for _, e := range validateAgainstSchema(resultSchema, doc) {
			errs = append(errs, fmt.Sprintf("[%d]%s", i, e))
		}
		if r.IsSummary() && i != len(results)-1 {
			errs = append(errs, fmt.Sprintf("[%d]: summary row must be last", i))
		}
	}
	if len(results) > 0 && !results[len(results)-1].IsSummary() {
		errs = append(errs, "missing summary row")
	}
	return errs
}

// ValidateConfigBytes validates raw .ifccheck.yaml bytes.
func ValidateConfigBytes(data []byte) []string {
	return validateYAMLBytes(configSchema, data)
}

func validateYAMLBytes(schema *jsonschema.Schema, data []byte) []string {
	var yamlDoc any
	if err := yaml.Unmarshal(data, &yamlDoc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}
	if yamlDoc == nil {
		return nil
	}

	return validateAgainstSchema(schema, convertToJSONCompatible(yamlDoc))
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

// convertToJSONCompatible turns YAML-decoded values into the shapes the
// validator expects. Non-string map keys are stringified.
func convertToJSONCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[k] = convertToJSONCompatible(v2)
		}
		return result
	case map[any]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[fmt.Sprint(k)] = convertToJSONCompatible(v2)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v2 := range val {
			result[i] = convertToJSONCompatible(v2)
		}
		return result
	default:
		return val
	}
}
