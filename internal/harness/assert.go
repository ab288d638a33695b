package harness

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temptemp3/reach-lang/internal/ast"
	"github.com/temptemp3/reach-lang/internal/eval"
)

// RequireCompiles elaborates a bundle and fails the test on any
// diagnostic.
func RequireCompiles(t *testing.T, bundle ast.Bundle) {
	t.Helper()
	_, err := eval.CompileBundle(bundle)
	require.NoError(t, err)
}

// RequireFailsWith elaborates a bundle and requires a diagnostic with
// the given code.
func RequireFailsWith(t *testing.T, code string, bundle ast.Bundle) *eval.Error {
	t.Helper()
	_, err := eval.CompileBundle(bundle)
	require.Error(t, err)
	require.Equal(t, code, eval.CodeOf(err), "diagnostic code mismatch: %v", err)
	var ee *eval.Error
	require.ErrorAs(t, err, &ee)
	return ee
}
