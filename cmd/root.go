package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/segdl/internal/output"
	"github.com/tanq16/segdl/internal/segment"
	"github.com/tanq16/segdl/internal/utils"
)

const (
	ExitFailure = 1
	ExitUsage   = 2
)

var (
	outputPath string
	tempDir    string
	keepParts  bool
	inMemory   bool
	lenient    bool
	userAgent  string
	timeout    time.Duration
	configPath string
	debug      bool
	quiet      bool
)

var SegdlVersion = "dev"

type usageError struct {
	error
}

var rootCmd = &cobra.Command{
	Use:           "segdl URL WORKERS",
	Short:         "segdl downloads one HTTP resource over parallel byte-range connections",
	Version:       SegdlVersion,
	Args:          downloadArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		workers, _ := strconv.Atoi(args[1])
		opts, err := buildOptions(cmd)
		if err != nil {
			output.PrintError(err.Error())
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var observer segment.Observer
		var reporter *output.Reporter
		if !quiet {
			if opts.Lenient {
				output.PrintWarning(fmt.Sprintf("%s Lenient mode, response statuses are not checked", output.StyleSymbols["warning"]))
			}
			reporter = output.NewReporter(os.Stdout)
			observer = reporter
		}
		summary, err := segment.NewDownloader(opts, observer).Download(ctx, args[0], workers)
		if reporter != nil {
			reporter.Stop()
		}
		if err != nil {
			output.PrintError(fmt.Sprintf("%s Download failed at %v", output.StyleSymbols["fail"], err))
			return err
		}
		output.PrintSuccess(fmt.Sprintf("%s Saved %s (%s, %d chunks) in %s",
			output.StyleSymbols["pass"], summary.OutputPath, output.FormatBytes(uint64(summary.TotalSize)),
			summary.Chunks, summary.Elapsed.Round(time.Millisecond)))
		return nil
	},
}

func downloadArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return usageError{fmt.Errorf("expected URL and WORKERS, got %d argument(s)", len(args))}
	}
	workers, err := strconv.Atoi(args[1])
	if err != nil || workers < 1 {
		return usageError{fmt.Errorf("WORKERS must be a positive integer, got %q", args[1])}
	}
	return nil
}

// buildOptions layers explicitly set flags over the config file.
func buildOptions(cmd *cobra.Command) (utils.DownloadOptions, error) {
	path := configPath
	if !cmd.Flags().Changed("config") {
		path = utils.DefaultConfigPath()
	}
	cfg, err := utils.LoadConfig(path)
	if err != nil {
		return utils.DownloadOptions{}, err
	}
	utils.InitLogger(debug || cfg.Debug)
	log := utils.GetLogger("cli")
	log.Debug().Str("config", path).Msg("Configuration loaded")

	opts := cfg.Options()
	flags := cmd.Flags()
	opts.OutputPath = outputPath
	if flags.Changed("temp-dir") {
		opts.TempDir = tempDir
	}
	if flags.Changed("keep-parts") {
		opts.KeepParts = keepParts
	}
	if flags.Changed("in-memory") {
		opts.InMemory = inMemory
	}
	if flags.Changed("lenient") {
		opts.Lenient = lenient
	}
	if flags.Changed("user-agent") || opts.UserAgent == "" {
		opts.UserAgent = userAgent
	}
	if flags.Changed("timeout") {
		opts.Timeout = timeout
	}
	if opts.Timeout < 0 {
		return opts, fmt.Errorf("timeout must not be negative")
	}
	return opts, nil
}

// exitCode maps the error returned by a command to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var uerr usageError
	if errors.As(err, &uerr) {
		return ExitUsage
	}
	return ExitFailure
}

func Execute() {
	err := rootCmd.Execute()
	code := exitCode(err)
	if code == ExitUsage {
		output.PrintError(err.Error())
		fmt.Fprint(os.Stderr, rootCmd.UsageString())
	}
	if code != 0 {
		os.Exit(code)
	}
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (defaults to the last segment of the URL path)")
	rootCmd.Flags().StringVar(&tempDir, "temp-dir", "", "Directory for chunk part files (defaults to .segdl-temp next to the output)")
	rootCmd.Flags().BoolVar(&keepParts, "keep-parts", false, "Keep chunk part files after a successful download")
	rootCmd.Flags().BoolVar(&inMemory, "in-memory", false, "Hold chunks in memory instead of part files")
	rootCmd.Flags().BoolVar(&lenient, "lenient", false, "Accept any response status for probe and range requests")
	rootCmd.Flags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "Limit for the whole download (eg. 30s, 5m); 0 waits forever")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print headers or progress")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newCleanCmd())
}
