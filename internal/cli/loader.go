package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/temptemp3/reach-lang/internal/ast"
)

//go:embed schema.cue
var bundleSchema string

// Error codes used in CLI output.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E002" // Path not found
	ErrCodeSchemaFailed = "E003" // Bundle failed schema validation
	ErrCodeDecodeFailed = "E004" // Bundle failed node decoding
	ErrCodeCompile      = "E005" // Elaboration error in the source program
	ErrCodeWriteFailed  = "E006" // File write error
	ErrCodeCache        = "E007" // Compile-cache error
)

// LoadError represents an error that occurred during bundle loading.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadBundle reads a serialized bundle, validates it against the
// embedded schema, and decodes it into AST form. The raw bytes are
// returned alongside the bundle for content-addressed hashing.
func LoadBundle(path string) (*ast.Bundle, []byte, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("bundle not found: %s", path)}
	}
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error reading bundle: %v", err)}
	}

	if err := validateBundle(raw, path); err != nil {
		return nil, nil, err
	}

	bundle, err := ast.DecodeBundle(raw)
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeDecodeFailed, Message: err.Error()}
	}
	return bundle, raw, nil
}

// validateBundle unifies the raw JSON with the embedded CUE schema. JSON
// is valid CUE, so the document compiles directly.
func validateBundle(raw []byte, path string) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(bundleSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("compiling bundle schema: %v", err)}
	}

	doc := ctx.CompileBytes(raw, cue.Filename(path))
	if err := doc.Err(); err != nil {
		return &LoadError{Code: ErrCodeSchemaFailed, Message: fmt.Sprintf("parsing bundle: %v", err)}
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return &LoadError{Code: ErrCodeSchemaFailed, Message: fmt.Sprintf("bundle schema violation: %v", err)}
	}
	return nil
}
