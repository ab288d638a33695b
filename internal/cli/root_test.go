package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func TestRoot_RejectsInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "check", "whatever.json")
	assert.ErrorContains(t, err, "invalid format")
}

func TestRoot_ConfigFileSetsFormat(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "reachc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("format: json\n"), 0o644))
	path := writeBundle(t, exitBundle(t))

	out, _, err := execute(t, "--config", cfgPath, "check", path)
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
}

func TestRoot_FlagWinsOverConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "reachc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("format: json\n"), 0o644))
	path := writeBundle(t, exitBundle(t))

	out, _, err := execute(t, "--config", cfgPath, "--format", "text", "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok: 1 module(s)")
}

func TestCheck_TextOutput(t *testing.T) {
	path := writeBundle(t, exitBundle(t))

	out, _, err := execute(t, "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok: 1 module(s)")
	assert.Contains(t, out, "A")
}

func TestCheck_CompileErrorExitsFailure(t *testing.T) {
	b := newBrokenBundle(t)
	path := writeBundle(t, b)

	out, _, err := execute(t, "--format", "json", "check", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCompile, resp.Error.Code)
}

func TestCheck_MissingBundleExitsCommandError(t *testing.T) {
	_, _, err := execute(t, "check", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompile_JSONResult(t *testing.T) {
	path := writeBundle(t, exitBundle(t))

	out, _, err := execute(t, "--format", "json", "compile", path)
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data: %#v", resp.Data)
	assert.Len(t, data["bundle_hash"], 64)
	assert.Len(t, data["program_hash"], 64)
	assert.Equal(t, []any{"A"}, data["participants"])
	assert.Equal(t, false, data["cached"])
}

func TestCompile_WritesOutputFile(t *testing.T) {
	path := writeBundle(t, exitBundle(t))
	outPath := filepath.Join(t.TempDir(), "program.json")

	out, _, err := execute(t, "compile", path, "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote canonical IR to")

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var prog map[string]any
	require.NoError(t, json.Unmarshal(written, &prog))
	assert.Contains(t, prog, "body")
}

func TestCompile_CacheHitOnSecondRun(t *testing.T) {
	path := writeBundle(t, exitBundle(t))
	cachePath := filepath.Join(t.TempDir(), "builds.db")

	out, _, err := execute(t, "--format", "json", "--cache", cachePath, "compile", path)
	require.NoError(t, err)
	first := decodeResponse(t, out)
	firstData := first.Data.(map[string]any)
	assert.Equal(t, false, firstData["cached"])
	assert.NotEmpty(t, firstData["build_id"])

	out, _, err = execute(t, "--format", "json", "--cache", cachePath, "compile", path)
	require.NoError(t, err)
	second := decodeResponse(t, out)
	secondData := second.Data.(map[string]any)
	assert.Equal(t, true, secondData["cached"])
	assert.Equal(t, firstData["program_hash"], secondData["program_hash"])
	assert.Equal(t, firstData["build_id"], secondData["build_id"])
}

func TestHash_BundleOnly(t *testing.T) {
	path := writeBundle(t, exitBundle(t))

	out, _, err := execute(t, "--format", "json", "hash", path, "--bundle-only")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.Len(t, data["bundle_hash"], 64)
	assert.NotContains(t, data, "program_hash")
}

func TestHash_BothIdentities(t *testing.T) {
	path := writeBundle(t, exitBundle(t))

	out, _, err := execute(t, "hash", path)
	require.NoError(t, err)
	assert.Contains(t, out, "bundle  ")
	assert.Contains(t, out, "program ")
}

func TestCompile_SuggestionsInErrorDetails(t *testing.T) {
	b := newBrokenBundle(t)
	path := writeBundle(t, b)

	out, _, err := execute(t, "--format", "json", "compile", path)
	require.Error(t, err)
	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok, "details: %#v", resp.Error.Details)
	assert.Contains(t, details, "did_you_mean")
}
