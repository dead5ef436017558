package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"caption-search-backend/internal/config"
	"caption-search-backend/internal/export"
	"caption-search-backend/internal/search"
	"caption-search-backend/internal/worker"
)

type runOptions struct {
	refsPath string
	keywords string
	cookies  string
	csvPath  string
	grouped  bool
	verbose  bool
}

func newRunCommand(providers worker.ProviderFactory) *cobra.Command {
	if providers == nil {
		providers = worker.YouTubeProviders
	}
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one batch search and print the matching caption lines",
		Example: `  captionsearch run --refs urls.txt --keywords "kubernetes, docker"
  cat urls.txt | captionsearch run --refs - --keywords golang --csv .`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadSearch()
			if opts.cookies != "" {
				cfg.CookieFile = opts.cookies
			}

			rawRefs, err := readReferences(opts.refsPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			transcripts, titles, err := providers(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runSearch(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, cfg, rawRefs, transcripts, titles)
		},
	}

	cmd.Flags().StringVar(&opts.refsPath, "refs", "", "File with one video URL per line (- for stdin)")
	cmd.Flags().StringVarP(&opts.keywords, "keywords", "k", "", "Keywords separated by commas or spaces")
	cmd.Flags().StringVar(&opts.cookies, "cookies", "", "Netscape cookie file (overrides YOUTUBE_COOKIE_FILE)")
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "Write results as CSV to this file or directory")
	cmd.Flags().BoolVar(&opts.grouped, "grouped", false, "Group hits by video")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log per-video details to stderr")
	_ = cmd.MarkFlagRequired("refs")
	_ = cmd.MarkFlagRequired("keywords")

	return cmd
}

func readReferences(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read references from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read references: %w", err)
	}
	return string(data), nil
}

func runSearch(
	ctx context.Context,
	stdout, stderr io.Writer,
	opts runOptions,
	cfg config.SearchConfig,
	rawRefs string,
	transcripts search.TranscriptProvider,
	titles search.TitleProvider,
) error {
	reporter, finish := newCLIReporter(stderr)

	orchOpts := []search.Option{
		search.WithTitles(titles),
		search.WithLanguageAttempts(cfg.LanguageAttempts()),
		search.WithReporter(reporter),
	}
	if opts.verbose {
		orchOpts = append(orchOpts, search.WithLogger(log.New(stderr, "", log.LstdFlags)))
	}

	result, err := search.NewOrchestrator(transcripts, orchOpts...).Run(ctx, rawRefs, opts.keywords)
	finish()
	if err != nil {
		return err
	}

	if len(result.Hits) == 0 {
		fmt.Fprintln(stdout, "No matching caption lines found.")
	} else if opts.grouped {
		fmt.Fprint(stdout, renderGroups(result.Groups()))
	} else {
		fmt.Fprintln(stdout, renderHits(result.Hits))
	}

	if len(result.Skipped) > 0 {
		fmt.Fprintf(stdout, "\nSkipped %d of %d references:\n", len(result.Skipped), result.Total)
		fmt.Fprintln(stdout, renderSkips(result.Skipped))
	}

	fmt.Fprintf(stdout, "\n%d hits in %d videos (%d references processed, %d skipped)\n",
		len(result.Hits), len(result.Groups()), result.Processed, len(result.Skipped))

	if opts.csvPath != "" {
		path, err := writeCSVFile(opts.csvPath, result.Hits, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %d rows to %s\n", len(result.Hits), path)
	}

	if result.Interrupted {
		fmt.Fprintf(stderr, "Interrupted after %d of %d references; results are partial.\n", result.Processed, result.Total)
		return context.Canceled
	}
	return nil
}

// writeCSVFile writes to target, or to a timestamped file inside target
// when it is a directory.
func writeCSVFile(target string, hits []search.SearchHit, now time.Time) (string, error) {
	path := target
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		path = filepath.Join(target, export.Filename(now))
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create CSV: %w", err)
	}
	if err := export.WriteCSV(f, hits); err != nil {
		f.Close()
		return "", fmt.Errorf("write CSV: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write CSV: %w", err)
	}
	return path, nil
}

// newCLIReporter draws a progress bar on terminals and prints plain status
// lines otherwise. finish must be called once the batch returns.
func newCLIReporter(stderr io.Writer) (search.Reporter, func()) {
	if !isTerminal(stderr) {
		return search.ReporterFuncs{
			OnProgress: func(p search.Progress) {
				if p.Fraction < 1 {
					fmt.Fprintln(stderr, p.Status)
				}
			},
			OnSkipped: func(rec search.SkipRecord) {
				fmt.Fprintf(stderr, "skipped %s: %s\n", rec.Reference, rec.Reason)
			},
		}, func() {}
	}
	return newBarReporter(stderr)
}

// newBarReporter keeps one progress bar on w. Skip lines are printed above
// it as they happen.
func newBarReporter(w io.Writer) (search.Reporter, func()) {
	var bar *progressbar.ProgressBar
	reporter := search.ReporterFuncs{
		OnProgress: func(p search.Progress) {
			if bar == nil {
				bar = progressbar.NewOptions(p.Total,
					progressbar.OptionSetWriter(w),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(30),
					progressbar.OptionClearOnFinish(),
				)
			}
			bar.Describe(p.Status)
			bar.Set(p.Processed)
		},
		OnSkipped: func(rec search.SkipRecord) {
			if bar != nil {
				bar.Clear()
			}
			fmt.Fprintf(w, "skipped %s: %s\n", rec.Reference, rec.Reason)
			if bar != nil {
				bar.RenderBlank()
			}
		},
	}
	return reporter, func() {
		if bar != nil {
			bar.Finish()
		}
	}
}
