package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/temptemp3/reach-lang/internal/ast"
	"github.com/temptemp3/reach-lang/internal/eval"
	"github.com/temptemp3/reach-lang/internal/ir"
)

// CompileToGolden elaborates a bundle and compares the program's
// canonical JSON against a golden file in testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files are the source of truth for the emitted IR; any change to
// lift ordering, fresh-id allocation, or encoding shows up as a diff.
func CompileToGolden(t *testing.T, name string, bundle ast.Bundle) *ir.Program {
	t.Helper()

	prog, err := eval.CompileBundle(bundle)
	if err != nil {
		t.Fatalf("CompileBundle() failed: %v", err)
	}
	data, err := prog.CanonicalJSON()
	if err != nil {
		t.Fatalf("CanonicalJSON() failed: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return prog
}
