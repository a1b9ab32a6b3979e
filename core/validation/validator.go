// Package validation checks API request bodies against embedded JSON
// schemas before anything is turned into a ledger transaction.
package validation

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/audit"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names one request body shape.
type Schema string

const (
	CreateCase      Schema = "create_case"
	AddDocument     Schema = "add_document"
	ScheduleHearing Schema = "schedule_hearing"
	IssueJudgment   Schema = "issue_judgment"
	VerifyDocument  Schema = "verify_document"
	RegisterJudge   Schema = "register_judge"
	Login           Schema = "login"
	RegisterUser    Schema = "register_user"
)

// Schemas lists every schema the validator compiles.
var Schemas = []Schema{
	CreateCase, AddDocument, ScheduleHearing, IssueJudgment,
	VerifyDocument, RegisterJudge, Login, RegisterUser,
}

// Older clients send the field names on the left.
var aliases = map[Schema]map[string]string{
	AddDocument: {
		"document_name":    "name",
		"document_content": "content",
	},
	ScheduleHearing: {
		"hearing_type": "type",
	},
}

// ErrInvalidPayload is matched by every *PayloadError.
var ErrInvalidPayload = errors.New("invalid payload")

// PayloadError lists every schema violation found in a body.
type PayloadError struct {
	Schema   Schema
	Problems []string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("payload failed %s validation: %s", e.Schema, strings.Join(e.Problems, "; "))
}

func (e *PayloadError) Is(target error) bool { return target == ErrInvalidPayload }

// Validator holds the compiled schemas. It is safe for concurrent use.
type Validator struct {
	schemas map[Schema]*gojsonschema.Schema
	audit   audit.AuditLogger
}

// New compiles the embedded schemas. Failures are reported to l, which may
// be nil.
func New(l audit.AuditLogger) (*Validator, error) {
	v := &Validator{schemas: make(map[Schema]*gojsonschema.Schema, len(Schemas)), audit: l}
	for _, name := range Schemas {
		raw, err := schemaFS.ReadFile("schemas/" + string(name) + ".json")
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = compiled
	}
	return v, nil
}

// Decode validates payload against the named schema and, when it passes,
// unmarshals the normalized body into out.
func (v *Validator) Decode(name Schema, payload []byte, out any) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		v.fail(name, "json", "body is not a JSON object")
		return &PayloadError{Schema: name, Problems: []string{"body is not a JSON object"}}
	}
	for from, to := range aliases[name] {
		if val, ok := body[from]; ok {
			if _, set := body[to]; !set {
				body[to] = val
			}
			delete(body, from)
		}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		v.fail(name, "schema_check", strings.Join(problems, "; "))
		return &PayloadError{Schema: name, Problems: problems}
	}

	normalized, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return json.Unmarshal(normalized, out)
}
