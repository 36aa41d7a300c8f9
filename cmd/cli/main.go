package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tabstat/adapters/csv"
	"tabstat/domain/stats"
	"tabstat/internal"
	"tabstat/internal/config"
	"tabstat/internal/engine"
	"tabstat/internal/errors"
	"tabstat/internal/presenter"
	"tabstat/internal/rowcount"
	"tabstat/ports"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tabstat: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tabstat: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "tabstat",
		Short:         "Summary statistics for delimited text and spreadsheet files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			internal.DefaultLogger.SetLevel(internal.ParseLogLevel(logLevel, internal.LogLevelWarn))
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.Log.Level, "Log verbosity: error|warn|info|debug|trace")

	counter := rowcount.New()
	rootCmd.AddCommand(
		newStatsCmd(cfg, counter),
		newIndexCmd(),
		newCountCmd(counter),
	)
	return rootCmd
}

type statsFlags struct {
	source sourceFlags

	selection   []string
	everything  bool
	mode        bool
	cardinality bool
	median      bool
	mad         bool
	quartiles   bool
	typesOnly   bool
	nulls       bool

	inferDates     bool
	datesWhitelist string
	preferDMY      bool
	strictDates    bool

	round           int
	jobs            int
	minParallelRows int64
	maxValues       int

	output string
	format string
}

func newStatsCmd(cfg *config.Config, counter *rowcount.Cache) *cobra.Command {
	var f statsFlags

	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Compute summary statistics for every field of a file",
		Long: `Infer the type of every field and compute its summary statistics.

The default set is sum, min/max, range, min/max length, mean, stddev, variance,
count, nullcount and sparsity. Median, MAD, quartiles, cardinality and modes hold
the field's values in memory and are opt-in.

CSV files with an index (see "tabstat index") are scanned in parallel chunks
once they have at least --min-parallel-rows records. Results do not depend on
the number of jobs.

Example: tabstat stats data.csv --everything --infer-dates --jobs 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, counter, f)
		},
	}

	flags := cmd.Flags()
	f.source.register(cmd)
	flags.StringSliceVarP(&f.selection, "select", "s", nil, "Fields to summarise, comma separated (default all)")
	flags.BoolVarP(&f.everything, "everything", "E", false, "Compute every statistic, including the ones held in memory")
	flags.BoolVar(&f.mode, "mode", false, "Modes and antimodes")
	flags.BoolVar(&f.cardinality, "cardinality", false, "Number of distinct values")
	flags.BoolVar(&f.median, "median", false, "Median")
	flags.BoolVar(&f.mad, "mad", false, "Median absolute deviation")
	flags.BoolVar(&f.quartiles, "quartiles", false, "Quartiles, IQR, fences and quantile skewness")
	flags.BoolVar(&f.typesOnly, "typesonly", false, "Infer types only")
	flags.BoolVar(&f.nulls, "nulls", false, "Count nulls as zero in mean and variance")

	flags.BoolVar(&f.inferDates, "infer-dates", false, "Infer Date and DateTime fields")
	flags.StringVar(&f.datesWhitelist, "dates-whitelist", cfg.Stats.DatesWhitelist, `Field name fragments eligible for date inference, or "all"`)
	flags.BoolVar(&f.preferDMY, "prefer-dmy", cfg.Stats.PreferDMY, "Read ambiguous numeric dates day first")
	flags.BoolVar(&f.strictDates, "strict-dates", false, "Fail on the first value of a date candidate field that does not parse")

	flags.IntVar(&f.round, "round", cfg.Stats.Round, "Decimal places of rounded statistics")
	flags.IntVarP(&f.jobs, "jobs", "j", cfg.Stats.Jobs, "Parallel workers, 0 for one per CPU")
	flags.Int64Var(&f.minParallelRows, "min-parallel-rows", cfg.Stats.MinParallelRows, "Smallest record count scanned in parallel")
	flags.IntVar(&f.maxValues, "max-values", cfg.Stats.MaxValues, "Per-field cap on values held in memory, 0 for none")

	flags.StringVarP(&f.output, "output", "o", "", "Write the report to this file instead of stdout")
	flags.StringVar(&f.format, "format", string(presenter.FormatCSV), "Report format: csv|json|markdown|html")

	return cmd
}

func runStats(ctx context.Context, stdout io.Writer, path string, cfg *config.Config, counter *rowcount.Cache, f statsFlags) error {
	format, err := presenter.ParseFormat(f.format)
	if err != nil {
		return err
	}
	if f.round < 0 || f.round > config.MaxRound {
		return errors.InvalidInput(fmt.Sprintf("--round must be between 0 and %d", config.MaxRound))
	}
	if f.jobs < 0 || f.maxValues < 0 || f.minParallelRows < 0 {
		return errors.InvalidInput("--jobs, --max-values and --min-parallel-rows must not be negative")
	}

	opts := cfg.Options()
	opts.Select = f.selection
	opts.Everything = f.everything
	opts.Mode = f.mode
	opts.Cardinality = f.cardinality
	opts.Median = f.median
	opts.MAD = f.mad
	opts.Quartiles = f.quartiles
	opts.TypesOnly = f.typesOnly
	opts.IncludeNulls = f.nulls
	opts.Dates = stats.ParseDatePolicy(f.inferDates, f.datesWhitelist)
	opts.PreferDayFirst = f.preferDMY
	opts.StrictDates = f.strictDates
	opts.Round = f.round
	opts.Workers = f.jobs
	opts.MinParallelRows = f.minParallelRows
	opts.MaxValues = f.maxValues
	opts.Flexible = f.source.flexible

	src, err := openSource(path, f.source, true)
	if err != nil {
		return err
	}
	defer src.Close()

	report, err := engine.New(opts, counter).Run(ctx, src)
	if err != nil {
		return err
	}

	if f.output == "" {
		return presenter.Write(stdout, report, format)
	}
	out, err := os.Create(f.output)
	if err != nil {
		return errors.Wrapf(err, "create %s", f.output)
	}
	if err := presenter.Write(out, report, format); err != nil {
		out.Close()
		return errors.Wrapf(err, "write %s", f.output)
	}
	return out.Close()
}

func newIndexCmd() *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "index [file]",
		Short: "Write a record index next to a CSV file",
		Long: `Scan a CSV file once and write the byte offset of every data record to
<file>.idx. An index lets "tabstat stats" read the file in parallel chunks. It is
ignored once the file is modified after the index was written.

Example: tabstat index data.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd.OutOrStdout(), args[0], src)
		},
	}
	src.register(cmd)
	return cmd
}

func runIndex(ctx context.Context, stdout io.Writer, path string, f sourceFlags) error {
	if isWorkbook(path) {
		return errors.InvalidInput("only delimited text files can be indexed")
	}
	opts, err := f.csvOptions()
	if err != nil {
		return err
	}
	src, err := csv.Open(path, opts)
	if err != nil {
		return err
	}
	defer src.Close()

	started := time.Now()
	idx, err := csv.BuildIndex(ctx, src)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "indexed %d records of %s in %s\n", idx.Len(), path, time.Since(started).Round(time.Millisecond))
	return nil
}

func newCountCmd(counter *rowcount.Cache) *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "count [file]",
		Short: "Print the number of data records",
		Long: `Print the number of data records, excluding the header. A fresh index is
used when one exists.

Example: tabstat count data.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(cmd.Context(), cmd.OutOrStdout(), args[0], counter, src)
		},
	}
	src.register(cmd)
	return cmd
}

func runCount(ctx context.Context, stdout io.Writer, path string, counter *rowcount.Cache, f sourceFlags) error {
	src, err := openSource(path, f, false)
	if err != nil {
		return err
	}
	defer src.Close()

	countable, ok := src.(ports.Countable)
	if !ok {
		return errors.InternalError(fmt.Sprintf("%s cannot be counted", path))
	}
	n, err := counter.Count(ctx, countable)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, n)
	return nil
}

// parseDelimiter accepts a single character, or \t for tab.
func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", ",":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, errors.InvalidInput(fmt.Sprintf("delimiter %q must be a single character", s))
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
