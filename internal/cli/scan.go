package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/petergi/segysak-cli/internal/operations"
)

type scanFlags struct {
	maxTraces int
	nonZero   bool
}

func newScanCmd(rootFlags *RootFlags) *cobra.Command {
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Summarise the trace headers of a SEG-Y file",
		Long: `Scan the trace headers of a SEG-Y file.

Prints the file summary from the binary header (trace count, samples,
sample interval, sample format, revision, byte order) and statistics for
every standard SEG-Y rev 1 trace header field over the scanned traces:
count, mean, std, min, 25%, 50%, 75% and max.`,
		Example: `  # Scan the first 1000 traces
  segysak scan survey.sgy

  # Scan every trace, only fields that are set
  segysak scan survey.sgy --max-traces 0 --nonzero

  # Save the statistics as JSON
  segysak scan survey.sgy --format json --report scan.json`,
		Args: existingFiles(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyConfigInt(cmd.Flags(), "max-traces", &flags.maxTraces, rootFlags.cfg.Scan.MaxTraces)
			return runScan(cmd.Context(), cmd.OutOrStdout(), args[0], flags, rootFlags)
		},
	}

	cmd.Flags().IntVarP(&flags.maxTraces, "max-traces", "m", 1000, "Number of traces to scan (0 = all)")
	cmd.Flags().BoolVar(&flags.nonZero, "nonzero", false, "Only show header fields with non-zero values")

	return cmd
}

func runScan(ctx context.Context, w io.Writer, target string, flags *scanFlags, rootFlags *RootFlags) error {
	opts, err := NewReportOptions(rootFlags)
	if err != nil {
		return err
	}
	if flags.maxTraces < 0 {
		return NewCLIError(ExitUsage, fmt.Sprintf("invalid --max-traces %d: must be 0 or more", flags.maxTraces))
	}

	report, err := operations.NewScanOperation(ctx).WithMaxTraces(flags.maxTraces).Execute(target)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if flags.nonZero {
		report.NonZero()
	}

	if err := WriteScanReport(w, report, opts); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
