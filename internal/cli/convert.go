package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/petergi/segysak-cli/internal/operations"
	"github.com/petergi/segysak-cli/internal/segy"
)

type convertFlags struct {
	outputType    string
	outputFile    string
	iline         int
	xline         int
	cdpX          int
	cdpY          int
	cdp           int
	crop          []int
	dimension     string
	twoD          bool
	sampleFormat  string
	jobs          int
	timeout       int
	progress      string
	noMemoryCheck bool
	recursive     bool
	ignore        []string
}

func newConvertCmd(rootFlags *RootFlags) *cobra.Command {
	flags := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert <file>...",
		Short: "Convert SEG-Y to NetCDF and back",
		Long: `Convert SEG-Y files to NetCDF seismic datasets, or NetCDF datasets back
to SEG-Y.

The output type is detected per input: SEG-Y files (.sgy, .segy, .seg)
become NetCDF (.seisnc) and NetCDF files (.nc, .seisnc) become SEG-Y
(.segy). Use --output-type to force it. Directories are searched for
inputs and converted with a worker pool.`,
		Example: `  # SEG-Y to NetCDF next to the input
  segysak convert survey.sgy

  # Non-standard inline/crossline byte locations
  segysak convert survey.sgy --iline 9 --xline 21 -o cube.seisnc

  # Crop to inlines 100-200, crosslines 50-80
  segysak convert survey.sgy --crop 100,200,50,80

  # 2D line keyed on CDP
  segysak convert line.sgy --2d

  # NetCDF back to IBM float SEG-Y
  segysak convert cube.seisnc --output-type SEGY --sample-format ibm

  # Every file in a directory with 4 workers
  segysak convert ./surveys --jobs 4`,
		Args: existingFiles(1, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.applyConfig(cmd, rootFlags)
			return runConvert(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, flags, rootFlags)
		},
	}

	def := operations.DefaultByteLocations()
	cmd.Flags().StringVar(&flags.outputType, "output-type", "", "Output type: SEGY or NETCDF (default: detected per input)")
	cmd.Flags().StringVarP(&flags.outputFile, "output-file", "o", "", "Output path (single input only)")
	cmd.Flags().IntVarP(&flags.iline, "iline", "i", def.Iline, "Inline byte location")
	cmd.Flags().IntVarP(&flags.xline, "xline", "x", def.Xline, "Crossline byte location")
	cmd.Flags().IntVar(&flags.cdpX, "cdp-x", def.CDPX, "CDP X byte location")
	cmd.Flags().IntVar(&flags.cdpY, "cdp-y", def.CDPY, "CDP Y byte location")
	cmd.Flags().IntVar(&flags.cdp, "cdp", def.CDP, "CDP byte location (2D)")
	cmd.Flags().IntSliceVar(&flags.crop, "crop", nil, "Crop as minil,maxil,minxl,maxxl")
	cmd.Flags().StringVar(&flags.dimension, "dimension", "twt", "Vertical dimension: twt or depth")
	cmd.Flags().BoolVar(&flags.twoD, "2d", false, "Convert a 2D line keyed on CDP")
	cmd.Flags().StringVar(&flags.sampleFormat, "sample-format", "ieee", "Sample format written to SEG-Y: ibm or ieee")
	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", runtime.NumCPU(), "Number of concurrent workers")
	cmd.Flags().IntVar(&flags.timeout, "timeout", 600, "Timeout per file in seconds (0 = none)")
	cmd.Flags().StringVar(&flags.progress, "progress", progressAuto, "Progress output mode (auto, simple, none)")
	cmd.Flags().BoolVar(&flags.noMemoryCheck, "no-memory-check", false, "Skip the available memory check")
	cmd.Flags().BoolVarP(&flags.recursive, "recursive", "r", true, "Search directories recursively")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "Glob patterns to ignore in directories")

	return cmd
}

func (f *convertFlags) applyConfig(cmd *cobra.Command, rootFlags *RootFlags) {
	c := rootFlags.cfg.Convert
	fs := cmd.Flags()
	applyConfigInt(fs, "iline", &f.iline, c.Iline)
	applyConfigInt(fs, "xline", &f.xline, c.Xline)
	applyConfigInt(fs, "cdp-x", &f.cdpX, c.CDPX)
	applyConfigInt(fs, "cdp-y", &f.cdpY, c.CDPY)
	applyConfigInt(fs, "cdp", &f.cdp, c.CDP)
	applyConfigString(fs, "dimension", &f.dimension, c.Dimension)
	applyConfigString(fs, "sample-format", &f.sampleFormat, c.SampleFormat)
	if c.Jobs > 0 {
		applyConfigInt(fs, "jobs", &f.jobs, c.Jobs)
	}
	applyConfigInt(fs, "timeout", &f.timeout, c.TimeoutS)
	if !fs.Changed("no-memory-check") {
		f.noMemoryCheck = !c.MemoryCheck
	}
}

// options turns the flags into conversion options.
func (f *convertFlags) options() (operations.ConvertOptions, error) {
	opts := operations.DefaultConvertOptions()
	opts.Version = Version

	dir, err := operations.ParseDirection(f.outputType)
	if err != nil {
		return opts, err
	}
	opts.OutputType = dir
	opts.OutputPath = f.outputFile

	opts.Bytes = operations.ByteLocations{
		Iline: f.iline,
		Xline: f.xline,
		CDPX:  f.cdpX,
		CDPY:  f.cdpY,
		CDP:   f.cdp,
	}
	if opts.Crop, err = operations.ParseCrop(f.crop); err != nil {
		return opts, err
	}
	opts.Dimension = f.dimension
	opts.TwoD = f.twoD
	if opts.SampleFormat, err = segy.ParseSampleFormat(f.sampleFormat); err != nil {
		return opts, err
	}
	opts.CheckMemory = !f.noMemoryCheck

	return opts, opts.Validate()
}

func runConvert(ctx context.Context, stdout, stderr io.Writer, targets []string, flags *convertFlags, rootFlags *RootFlags) error {
	reportOpts, err := NewReportOptions(rootFlags)
	if err != nil {
		return err
	}
	mode, err := parseProgressMode(flags.progress)
	if err != nil {
		return NewCLIError(ExitUsage, err.Error())
	}
	convOpts, err := flags.options()
	if err != nil {
		return WrapCLIError(ExitUsage, "invalid conversion options", err)
	}

	files, err := expandInputs(targets, flags)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return NewCLIError(ExitUsage, "no SEG-Y or NetCDF files found")
	}
	if flags.outputFile != "" && len(files) > 1 {
		return NewCLIError(ExitUsage, fmt.Sprintf("--output-file needs a single input, got %d files", len(files)))
	}
	if err := operations.CheckOutputs(files, convOpts); err != nil {
		return WrapCLIError(ExitUsage, "cannot convert these inputs together (use --ignore or --output-type to narrow them)", err)
	}

	slog.Debug("convert", "files", len(files), "jobs", flags.jobs, "output_type", convOpts.OutputType)

	var result operations.BatchResult
	if len(files) == 1 {
		result = convertSingle(ctx, stderr, files[0], convOpts, flags, mode, reportOpts.ColorEnabled)
	} else {
		result = convertBatch(ctx, stderr, files, convOpts, flags, mode, reportOpts.ColorEnabled)
	}

	if err := WriteConvertReport(stdout, &result, reportOpts); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if n := len(result.Failed); n > 0 {
		if result.Total == 1 && result.Failed[0].Error != nil {
			return fmt.Errorf("convert %s: %w", result.Failed[0].FilePath, result.Failed[0].Error)
		}
		return NewCLIError(ExitFailure, fmt.Sprintf("%d of %d conversion(s) failed", n, result.Total))
	}
	return nil
}

// expandInputs replaces directories with the inputs they contain. Files are
// kept whatever their extension.
func expandInputs(targets []string, flags *convertFlags) ([]string, error) {
	var files []string
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, WrapCLIError(ExitUsage, "cannot read "+target, err)
		}
		if !info.IsDir() {
			files = append(files, target)
			continue
		}
		found, err := operations.FindFiles(target, operations.FindFilesOptions{
			Recursive: flags.recursive,
			MaxDepth:  -1,
			Ignore:    flags.ignore,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to find files in %s: %w", target, err)
		}
		files = append(files, found...)
	}
	return files, nil
}

func convertSingle(ctx context.Context, stderr io.Writer, file string, opts operations.ConvertOptions, flags *convertFlags, mode string, colorEnabled bool) operations.BatchResult {
	if flags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(flags.timeout)*time.Second)
		defer cancel()
	}

	progress := newTraceProgress(stderr, mode, colorEnabled, "Converting")
	opts.Progress = progress.Update

	start := time.Now()
	res, err := operations.NewConvertOperation(ctx, opts).Execute(file)
	progress.Finish()

	return operations.AggregateResults([]operations.Result{{FilePath: file, Convert: res, Error: err}}, time.Since(start))
}

func convertBatch(ctx context.Context, stderr io.Writer, files []string, opts operations.ConvertOptions, flags *convertFlags, mode string, colorEnabled bool) operations.BatchResult {
	config := operations.DefaultBatchConfig()
	config.NumWorkers = flags.jobs
	config.Timeout = time.Duration(flags.timeout) * time.Second

	processor := operations.NewBatchProcessor(ctx, config, opts)
	stop := watchBatch(processor, stderr, mode, colorEnabled, len(files))

	start := time.Now()
	results := processor.Execute(files)
	duration := time.Since(start)
	stop()

	// Files never picked up after cancellation count as failed.
	if len(results) < len(files) {
		seen := make(map[int]bool, len(results))
		for _, r := range results {
			seen[r.Index] = true
		}
		cause := ctx.Err()
		if cause == nil {
			cause = context.Canceled
		}
		for i, f := range files {
			if !seen[i] {
				results = append(results, operations.Result{Index: i, FilePath: f, Error: cause})
			}
		}
	}

	return operations.AggregateResults(results, duration)
}
