package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// ValidationError is one schema violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every violation found in one pass.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Validate checks c against the embedded schema. The error, if any, is a
// ValidationErrors.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	val := ctx.CompileBytes(data, cue.Filename("config"))
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) ValidationErrors {
	var out ValidationErrors
	seen := make(map[string]bool)
	for _, e := range errors.Errors(err) {
		format, args := e.Msg()
		ve := ValidationError{
			Field:   strings.TrimPrefix(strings.Join(e.Path(), "."), "#Config."),
			Message: fmt.Sprintf(format, args...),
		}
		// Disjunction failures repeat one message per branch.
		if key := ve.Error(); !seen[key] {
			seen[key] = true
			out = append(out, ve)
		}
	}
	if len(out) == 0 {
		out = append(out, ValidationError{Message: err.Error()})
	}
	return out
}
