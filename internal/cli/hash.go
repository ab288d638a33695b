package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temptemp3/reach-lang/internal/eval"
	"github.com/temptemp3/reach-lang/internal/ir"
)

// HashResult is the success payload for the hash command.
type HashResult struct {
	BundleHash  string `json:"bundle_hash"`
	ProgramHash string `json:"program_hash,omitempty"`
}

// NewHashCommand creates the hash command: content-addressed identities
// for a bundle and, when it elaborates, its program.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	var bundleOnly bool

	cmd := &cobra.Command{
		Use:           "hash <bundle.json>",
		Short:         "Print the content-addressed identities of a bundle",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(rootOpts, args[0], bundleOnly, cmd)
		},
	}

	cmd.Flags().BoolVar(&bundleOnly, "bundle-only", false, "skip elaboration and hash the bundle alone")

	return cmd
}

func runHash(opts *RootOptions, bundlePath string, bundleOnly bool, cmd *cobra.Command) error {
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
	result := &HashResult{BundleHash: ir.BundleHash(raw)}

	if !bundleOnly {
		prog, err := eval.CompileBundle(*bundle)
		if err != nil {
			return outputEvalError(formatter, err)
		}
		result.ProgramHash, err = ir.ProgramHash(prog)
		if err != nil {
			return outputCommandError(formatter, ErrCodeGeneric, fmt.Sprintf("hashing program: %v", err))
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "bundle  %s\n", result.BundleHash)
	if result.ProgramHash != "" {
		fmt.Fprintf(formatter.Writer, "program %s\n", result.ProgramHash)
	}
	return nil
}
