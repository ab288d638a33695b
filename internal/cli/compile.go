package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/temptemp3/reach-lang/internal/eval"
	"github.com/temptemp3/reach-lang/internal/ir"
	"github.com/temptemp3/reach-lang/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompileResult is the success payload: identities plus the canonical
// program JSON.
type CompileResult struct {
	BundleHash   string   `json:"bundle_hash"`
	ProgramHash  string   `json:"program_hash"`
	BuildID      string   `json:"build_id,omitempty"`
	Participants []string `json:"participants"`
	Cached       bool     `json:"cached"`
	Program      any      `json:"program,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <bundle.json>",
		Short: "Compile a source bundle to canonical IR",
		Long: `Compile a serialized source bundle into the lifted consensus IR.

The loader validates the bundle against the embedded schema, the
evaluator elaborates it, and the result is emitted as RFC 8785
canonical JSON. With a cache configured, unchanged bundles are served
from the compile cache instead of re-elaborated.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, bundlePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	bundle, raw, err := LoadBundle(bundlePath)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	bundleHash := ir.BundleHash(raw)
	formatter.VerboseLog("Loaded bundle %s (%d module(s), hash %s)", bundlePath, len(bundle.Modules), bundleHash)

	var cache *store.Store
	if opts.Cache != "" {
		cache, err = store.Open(opts.Cache)
		if err != nil {
			return outputCommandError(formatter, ErrCodeCache, fmt.Sprintf("opening compile cache: %v", err))
		}
		defer cache.Close()

		if hit, err := cache.GetBuild(cmd.Context(), bundleHash); err == nil {
			formatter.VerboseLog("Cache hit: build %s", hit.ID)
			return finishCompile(formatter, opts, &CompileResult{
				BundleHash:  hit.BundleHash,
				ProgramHash: hit.ProgramHash,
				BuildID:     hit.ID,
				Cached:      true,
			}, hit.ProgramJSON)
		} else if !errors.Is(err, store.ErrNotFound) {
			return outputCommandError(formatter, ErrCodeCache, fmt.Sprintf("querying compile cache: %v", err))
		}
	}

	prog, err := eval.CompileBundle(*bundle)
	if err != nil {
		return outputEvalError(formatter, err)
	}
	programJSON, err := prog.CanonicalJSON()
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, fmt.Sprintf("encoding program: %v", err))
	}
	programHash, err := ir.ProgramHash(prog)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, fmt.Sprintf("hashing program: %v", err))
	}

	result := &CompileResult{
		BundleHash:   bundleHash,
		ProgramHash:  programHash,
		Participants: participantNames(prog),
	}
	if cache != nil {
		build, err := cache.PutBuild(cmd.Context(), bundleHash, prog)
		if err != nil {
			return outputCommandError(formatter, ErrCodeCache, fmt.Sprintf("caching build: %v", err))
		}
		result.BuildID = build.ID
	}
	return finishCompile(formatter, opts, result, programJSON)
}

func finishCompile(formatter *OutputFormatter, opts *CompileOptions, result *CompileResult, programJSON []byte) error {
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, programJSON, 0o644); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "compiled bundle %s\n", result.BundleHash)
	fmt.Fprintf(formatter.Writer, "program %s", result.ProgramHash)
	if result.Cached {
		fmt.Fprint(formatter.Writer, " (cached)")
	}
	fmt.Fprintln(formatter.Writer)
	if len(result.Participants) > 0 {
		fmt.Fprintf(formatter.Writer, "participants: %v\n", result.Participants)
	}
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "wrote canonical IR to %s\n", opts.Output)
	}
	return nil
}

func participantNames(p *ir.Program) []string {
	names := make([]string, 0, len(p.Participants))
	for name := range p.Participants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// outputLoadError renders a bundle-loading failure. Loading problems are
// command-level errors.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return outputCommandError(formatter, loadErr.Code, loadErr.Message)
	}
	return outputCommandError(formatter, ErrCodeGeneric, err.Error())
}

// outputEvalError renders an elaboration failure. Authoring mistakes in
// the input program exit with code 1; evaluator bugs exit with code 2.
func outputEvalError(formatter *OutputFormatter, err error) error {
	var details any
	var ee *eval.Error
	if errors.As(err, &ee) && len(ee.Suggestions) > 0 {
		details = map[string]any{"did_you_mean": ee.Suggestions}
	}
	_ = formatter.Error(ErrCodeCompile, err.Error(), details)
	code := ExitFailure
	if eval.IsInternal(err) {
		code = ExitCommandError
	}
	return NewExitError(code, err.Error())
}

func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
