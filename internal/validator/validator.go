// Package validator holds the CUE contract guarding parsed tables and the
// machine-readable run result.
//
// A contract failure is never a user error: the parser already rejected
// malformed input, so a rejected table means a bug between the parser and
// the fact builder. Fix the producer, not the schema.
package validator

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaFS embed.FS

// ContractError lists every way a value failed its schema definition.
type ContractError struct {
	Definition string
	Problems   []string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s contract violated: %s", e.Definition, strings.Join(e.Problems, "; "))
}

// Validator validates data against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// New creates a new Validator with the embedded CUE schema
func New() (*Validator, error) {
	ctx := cuecontext.New()

	schemaBytes, err := schemaFS.ReadFile("schema.cue")
	if err != nil {
		return nil, fmt.Errorf("loading embedded schema: %w", err)
	}

	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	return &Validator{
		ctx:    ctx,
		schema: schema,
	}, nil
}

// ValidateTables checks fact tables against #Tables.
func (v *Validator) ValidateTables(tables interface{}) error {
	return v.validate(tables, "#Tables")
}

// ValidateResult checks a run result against #RunResult.
func (v *Validator) ValidateResult(result interface{}) error {
	return v.validate(result, "#RunResult")
}

// ValidateJSON validates JSON bytes directly against a definition such as
// "#Tables".
func (v *Validator) ValidateJSON(jsonBytes []byte, definition string) error {
	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return fmt.Errorf("compiling JSON as CUE: %w", dataValue.Err())
	}
	return v.unify(dataValue, definition)
}

func (v *Validator) validate(data interface{}, definition string) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling data to JSON: %w", err)
	}
	return v.ValidateJSON(jsonBytes, definition)
}

func (v *Validator) unify(dataValue cue.Value, definition string) error {
	def := v.schema.LookupPath(cue.ParsePath(definition))
	if def.Err() != nil {
		return fmt.Errorf("looking up %s definition: %w", definition, def.Err())
	}

	unified := def.Unify(dataValue)
	err := unified.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	cerr := &ContractError{Definition: definition}
	for _, e := range errors.Errors(err) {
		cerr.Problems = append(cerr.Problems, e.Error())
	}
	return cerr
}
