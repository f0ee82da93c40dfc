package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/aidmatch/internal/worker"
)

var (
	batchWorkers   int
	batchOutputDir string
	batchRegistry  string
	batchTimeout   time.Duration
	batchFailFast  bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <subjects-file>",
	Short: "Verify many submissions in parallel",
	Long: `Batch verifies every submission in a YAML or JSON list:
- Subjects run in parallel with a configurable worker count
- Calls per entity are rate limited
- Results are reported in input order
- One JSON verdict per subject is written when --output-dir is set

Example:
  aidmatch batch subjects.yaml
  aidmatch batch subjects.json --workers 8 --registry registry.yaml --output-dir ./verdicts`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "", "write one JSON verdict per subject here (optional)")
	batchCmd.Flags().StringVar(&batchRegistry, "registry", "", "identity registry for duplicate checks")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchFailFast, "fail-on-error", false, "exit non-zero when any subject fails")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := contextWithTimeout(cmd, batchTimeout)
	defer cancel()

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	if err := a.loadSnapshot(ctx, "", batchRegistry); err != nil {
		return err
	}

	workers := batchWorkers
	if workers <= 0 {
		workers = a.config.Concurrency.Workers
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  aidmatch batch verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if name := a.pipeline.ReviewerName(); name != "" {
		fmt.Fprintf(os.Stderr, "  Reviewer:     %s\n", name)
	}
	fmt.Fprintf(os.Stderr, "\n")

	subjects, err := a.loader.Subjects(file)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d subjects\n\n", len(subjects))

	if batchOutputDir != "" {
		if err := os.MkdirAll(batchOutputDir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	var limiter *worker.Limiter
	if a.config.RateLimiting.RequestsPerSecond > 0 {
		limiter = worker.NewLimiter(a.config.RateLimiting.RequestsPerSecond, a.config.RateLimiting.BurstSize)
	}
	processor := worker.NewBatchProcessor(a.pipeline, workers, limiter)

	r := a.pipeline.Renderer()
	results := processor.ProcessSubjects(ctx, subjects)
	for _, res := range results {
		if res.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ #%d %s: %v\n", res.Index+1, subjectLabel(res), res.Error)
			continue
		}
		r.RenderSummary(os.Stderr, *res.Result)

		if batchOutputDir != "" {
			path := filepath.Join(batchOutputDir, fmt.Sprintf("%03d-%s.json", res.Index+1, sanitizeFilename(subjectLabel(res))))
			if err := r.WriteJSONFile(path, res.Result); err != nil {
				fmt.Fprintf(os.Stderr, "✗ #%d: failed to write JSON: %v\n", res.Index+1, err)
			}
		}
	}

	if batchOutputDir == "" {
		if err := r.RenderJSON(cmd.OutOrStdout(), batchOutput(results)); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}

	summary := worker.Summarize(results)
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d subjects\n", summary.Total)
	fmt.Fprintf(os.Stderr, "  Verified:  %d\n", summary.Verified)
	fmt.Fprintf(os.Stderr, "  Pending:   %d\n", summary.Pending)
	fmt.Fprintf(os.Stderr, "  Rejected:  %d\n", summary.Rejected)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", summary.Failed)
	if batchOutputDir != "" {
		fmt.Fprintf(os.Stderr, "  Output:    %s\n", batchOutputDir)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if batchFailFast && summary.Failed > 0 {
		return fmt.Errorf("%d of %d subjects failed", summary.Failed, summary.Total)
	}
	return nil
}

type batchEntry struct {
	Index  int         `json:"index"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func batchOutput(results []*worker.VerifyResult) []batchEntry {
	out := make([]batchEntry, len(results))
	for i, res := range results {
		out[i] = batchEntry{Index: res.Index}
		if res.Error != nil {
			out[i].Error = res.Error.Error()
		} else {
			out[i].Result = res.Result
		}
	}
	return out
}

func subjectLabel(res *worker.VerifyResult) string {
	if res.Subject.EntityID != "" {
		return res.Subject.EntityID
	}
	return string(res.Subject.Kind)
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		s = "subject"
	}
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
