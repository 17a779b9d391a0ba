package harness

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE string

// ValidateScenario checks scenario YAML against the embedded CUE schema.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// Returns a *ValidationError listing every schema violation, or nil.
func ValidateScenario(filename string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// The schema is embedded; failing to compile it is a bug, not
		// a scenario problem.
		return fmt.Errorf("compile scenario schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup #Scenario: %w", err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return &ValidationError{File: filename, Problems: []string{err.Error()}}
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return &ValidationError{File: filename, Problems: []string{err.Error()}}
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var problems []string
		for _, e := range cueerrors.Errors(err) {
			problems = append(problems, e.Error())
		}
		return &ValidationError{File: filename, Problems: problems}
	}
	return nil
}

// ValidationError reports scenario schema violations.
type ValidationError struct {
	File     string
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("invalid scenario %s: %s", e.File, e.Problems[0])
	}
	msg := fmt.Sprintf("invalid scenario %s: %d problems", e.File, len(e.Problems))
	for _, p := range e.Problems {
		msg += "\n\t" + p
	}
	return msg
}
