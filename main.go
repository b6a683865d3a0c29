// Package main provides the rickbot CLI entrypoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rickabrac/rickbot/crawler"
	"github.com/rickabrac/rickbot/output"
	"github.com/rickabrac/rickbot/tui"
)

// cliFlags holds parsed command-line flags.
type cliFlags struct {
	tui            bool
	logFile        string
	outputJSON     bool
	outputCSV      bool
	outputFile     string
	requestTimeout time.Duration
	memoryLimitMB  int64
}

// parseFlags parses command-line flags and returns the parsed values.
func parseFlags() *cliFlags {
	opts := &cliFlags{}
	flag.BoolVar(&opts.tui, "tui", false, "show a live Bubble Tea dashboard instead of plain log lines")
	flag.StringVar(&opts.logFile, "log-file", "", "write the bit-stable log lines here instead of stdout (defaults to rickbot.log when --tui is set, so the dashboard doesn't race the log on the terminal)")
	flag.BoolVar(&opts.outputJSON, "j", false, "write the per-page report as JSON")
	flag.BoolVar(&opts.outputJSON, "json", false, "write the per-page report as JSON")
	flag.BoolVar(&opts.outputCSV, "c", false, "write the per-page report as CSV")
	flag.BoolVar(&opts.outputCSV, "csv", false, "write the per-page report as CSV")
	flag.StringVar(&opts.outputFile, "o", "", "write structured output to a file instead of stdout")
	flag.StringVar(&opts.outputFile, "output", "", "write structured output to a file instead of stdout")
	flag.DurationVar(&opts.requestTimeout, "timeout", 10*time.Second, "per-request timeout")
	flag.Int64Var(&opts.memoryLimitMB, "memory-limit-mb", 512, "soft memory limit in MB")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: rickbot [flags] <url>")
		fmt.Fprintln(os.Stderr, "Flags:")
		flag.PrintDefaults()
	}

	flag.Parse()
	return opts
}

// validateFlags validates flag combinations and returns an error if invalid.
func validateFlags(opts *cliFlags) error {
	if opts.outputJSON && opts.outputCSV {
		return fmt.Errorf("--json and --csv are mutually exclusive")
	}
	return nil
}

// newHTTPClient builds the shared client both the Robots Manager and Page
// Loader use. It must not follow redirects transparently: the core
// implements its own single explicit redirect hop (spec.md §4.3, §4.4).
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// writeStructuredOutput writes the per-page report as JSON or CSV to stdout
// or a file (spec.md's supplemented -o/--json/--csv reporting).
func writeStructuredOutput(opts *cliFlags, res *output.Result) error {
	var w io.Writer = os.Stdout
	if opts.outputFile != "" {
		f, err := os.Create(opts.outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				fmt.Fprintf(os.Stderr, "Error closing output file: %v\n", cerr)
			}
		}()
		w = f
	}

	useJSON := opts.outputJSON || (!opts.outputCSV && opts.outputFile != "")
	if useJSON {
		return output.WriteJSON(w, res.Pages)
	}
	return output.WriteCSV(w, res.Pages)
}

// runTUI drives the crawl through the Bubble Tea dashboard, returning the
// final model once the program exits.
func runTUI(ctx context.Context, cancel context.CancelFunc, coord *crawler.Coordinator, seedURL string) (tui.Model, error) {
	eventCh := make(chan crawler.CrawlEvent, 100)
	coord.SetEventChannel(eventCh)

	model := tui.NewModel(ctx, cancel, coord, seedURL, eventCh)
	program := tea.NewProgram(model)

	finalModel, err := program.Run()
	if err != nil {
		return tui.Model{}, fmt.Errorf("run tui: %w", err)
	}
	return finalModel.(tui.Model), nil
}

func main() {
	opts := parseFlags()

	if err := validateFlags(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	seedURL := flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logFile := opts.logFile
	if logFile == "" && opts.tui {
		logFile = "rickbot.log"
	}

	logDest := os.Stdout
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: create log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logDest = f
	}

	client := newHTTPClient(opts.requestTimeout)
	cfg := crawler.DefaultConfig(seedURL)
	cfg.RequestTimeout = opts.requestTimeout
	cfg.MemoryLimitMB = opts.memoryLimitMB
	coord := crawler.NewCoordinator(cfg, client, output.NewWriterSink(logDest))

	var (
		count int
		err   error
		res   *output.Result
	)

	if opts.tui {
		var tuiCtx context.Context
		tuiCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		finalModel, tuiErr := runTUI(tuiCtx, cancel, coord, seedURL)
		if tuiErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", tuiErr)
			os.Exit(1)
		}
		count, err = finalModel.Count(), finalModel.Err()
		res = finalModel.Result()
		fmt.Println(tui.RenderSummary(res))
	} else {
		count, err = coord.Run(ctx, seedURL)
		res = coord.Result()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !opts.tui {
		output.PrintSummary(os.Stdout, res)
	}

	if opts.outputJSON || opts.outputCSV || opts.outputFile != "" {
		if err := writeStructuredOutput(opts, res); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	_ = count
}
