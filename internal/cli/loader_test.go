package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temptemp3/reach-lang/internal/ast"
	"github.com/temptemp3/reach-lang/internal/testutil"
)

func writeBundle(t *testing.T, b ast.Bundle) string {
	t.Helper()
	data, err := ast.EncodeBundle(&b)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func exitBundle(t *testing.T) ast.Bundle {
	t.Helper()
	b := testutil.NewB("main.rsh")
	return testutil.AppModule(b,
		[]testutil.AppPart{{Name: "A"}},
		b.ExprS(b.Call(b.Id("exit"))),
	)
}

// newBrokenBundle misspells a standard-library name so elaboration fails
// with a suggestion.
func newBrokenBundle(t *testing.T) ast.Bundle {
	t.Helper()
	b := testutil.NewB("main.rsh")
	return testutil.AppModule(b,
		[]testutil.AppPart{{Name: "A"}},
		b.ExprS(b.Call(b.Id("declasify"), b.IntN(1))),
	)
}

func TestLoadBundle_RoundTrip(t *testing.T) {
	path := writeBundle(t, exitBundle(t))

	bundle, raw, err := LoadBundle(path)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	require.Len(t, bundle.Modules, 1)
	assert.Equal(t, "main.rsh", bundle.Modules[0].Key)
}

func TestLoadBundle_NotFound(t *testing.T) {
	_, _, err := LoadBundle(filepath.Join(t.TempDir(), "missing.json"))
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadBundle_SchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", `{not json`},
		{"module without key", `{"modules":[{"items":[]}]}`},
		{"item without type", `{"modules":[{"key":"m.rsh","items":[{"pos":{"line":1,"col":1}}]}]}`},
		{"bad item type", `{"modules":[{"key":"m.rsh","items":[{"type":"frobnicate"}]}]}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bundle.json")
			require.NoError(t, os.WriteFile(path, []byte(c.data), 0o644))

			_, _, err := LoadBundle(path)
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, ErrCodeSchemaFailed, loadErr.Code)
		})
	}
}

func TestLoadBundle_DecodeFailure(t *testing.T) {
	// Passes the envelope schema but fails node decoding: a statement
	// item with an unknown statement type.
	data := `{"modules":[{"key":"m.rsh","items":[{"type":"stmt","stmt":{"type":"goto","pos":{"line":1,"col":1}}}]}]}`
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, _, err := LoadBundle(path)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeDecodeFailed, loadErr.Code)
}
