package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// defaultPrinter formats schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// runRecordSchemaJSON describes the on-disk run.json format. Records written
// by older builds or corrupted by a crashed run are rejected so the index
// builder can surface them as degraded entries instead of mis-rendering them.
const runRecordSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["run_id", "agent", "model", "prompt_name", "status", "started_at", "completed_at", "script"],
  "properties": {
    "run_id": {"type": "string", "minLength": 1},
    "agent": {"type": "string", "minLength": 1},
    "agent_binary": {"type": "string"},
    "model": {"type": "string", "minLength": 1},
    "prompt_name": {"type": "string", "minLength": 1},
    "started_at": {"type": "string"},
    "completed_at": {"type": "string"},
    "status": {"enum": ["running", "success", "failed", "timed-out", "cancelled"]},
    "exit_code": {"type": "integer"},
    "reason": {"type": "string"},
    "script": {
      "type": "object",
      "required": ["disposition"],
      "properties": {
        "disposition": {"enum": ["executed", "ambiguous", "none", "failed"]},
        "entrypoint": {"type": "string"},
        "candidates": {"type": "array", "items": {"type": "string"}},
        "exit_code": {"type": "integer"}
      }
    },
    "metrics": {"type": "object"}
  }
}`

var runRecordSchema = mustCompileSchema(runRecordSchemaJSON, "run.schema.json")

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

// ValidateRunRecord checks raw JSON bytes against the run record schema.
func ValidateRunRecord(data []byte) error {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	err := runRecordSchema.Validate(instance)
	if err == nil {
		return nil
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return fmt.Errorf("schema: %s", strings.Join(errs, "; "))
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
