package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temptemp3/reach-lang/internal/eval"
)

// CheckResult is the success payload for the check command.
type CheckResult struct {
	Modules      int      `json:"modules"`
	Participants []string `json:"participants"`
}

// NewCheckCommand creates the check command: elaborate without emitting.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "check <bundle.json>",
		Short:         "Elaborate a bundle and report diagnostics without output",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, bundlePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	bundle, _, err := LoadBundle(bundlePath)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	prog, err := eval.CompileBundle(*bundle)
	if err != nil {
		return outputEvalError(formatter, err)
	}

	result := &CheckResult{
		Modules:      len(bundle.Modules),
		Participants: participantNames(prog),
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "ok: %d module(s), participants %v\n", result.Modules, result.Participants)
	return nil
}
