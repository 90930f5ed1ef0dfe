package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/petergi/segysak-cli/internal/operations"
)

type ebcidcFlags struct {
	extended bool
	raw      bool
}

func newEbcidcCmd(rootFlags *RootFlags) *cobra.Command {
	flags := &ebcidcFlags{}

	cmd := &cobra.Command{
		Use:     "ebcidc <file>",
		Aliases: []string{"ebcdic", "text"},
		Short:   "Print the textual file header of a SEG-Y file",
		Long: `Print the 3200 byte textual file header of a SEG-Y file as 40 lines
of 80 characters. EBCDIC and ASCII headers are detected automatically.`,
		Example: `  # Show the textual header
  segysak ebcidc survey.sgy

  # Include extended textual headers, plain lines only
  segysak ebcidc survey.sgy --extended --raw`,
		Args: existingFiles(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEbcidc(cmd.Context(), cmd.OutOrStdout(), args[0], flags, rootFlags)
		},
	}

	cmd.Flags().BoolVar(&flags.extended, "extended", false, "Also print extended textual headers")
	cmd.Flags().BoolVar(&flags.raw, "raw", false, "Print the decoded lines without styling")

	return cmd
}

func runEbcidc(ctx context.Context, w io.Writer, target string, flags *ebcidcFlags, rootFlags *RootFlags) error {
	opts, err := NewReportOptions(rootFlags)
	if err != nil {
		return err
	}
	if tf, ok := opts.Formatter.(*TextFormatter); ok {
		tf.Raw = flags.raw
	}

	report, err := operations.NewTextHeaderOperation(ctx).WithExtended(flags.extended).Execute(target)
	if err != nil {
		return fmt.Errorf("read textual header: %w", err)
	}

	if err := WriteTextHeaderReport(w, report, opts); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
