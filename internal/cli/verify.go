package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	verifyJSON     string
	verifyMD       string
	verifyRegistry string
	verifyTimeout  time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <subject-file>",
	Short: "Verify a single submission",
	Long: `Verify scores one submission (identity document, distribution photo,
cost line item or crisis claim) and prints its verdict:
- Confidence score, status and risk level
- Fraud alerts with severity and evidence
- The signals behind the score

Example:
  aidmatch verify subject.yaml
  aidmatch verify nid.json --registry registry.yaml --json verdict.json --md verdict.md`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyJSON, "json", "", "output JSON path (default: stdout)")
	verifyCmd.Flags().StringVar(&verifyMD, "md", "", "output Markdown path (optional)")
	verifyCmd.Flags().StringVar(&verifyRegistry, "registry", "", "identity registry for duplicate checks")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 30*time.Second, "overall timeout (bounds reviewer drafting)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := contextWithTimeout(cmd, verifyTimeout)
	defer cancel()

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	if err := a.loadSnapshot(ctx, "", verifyRegistry); err != nil {
		return err
	}

	subject, err := a.loader.Subject(args[0])
	if err != nil {
		return err
	}

	result, err := a.pipeline.Verify(ctx, subject)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	r := a.pipeline.Renderer()
	r.RenderSummary(os.Stderr, result)
	if a.config.Output.Verbose {
		for _, s := range result.Signals {
			fmt.Fprintf(os.Stderr, "    %-20s %3d  %s\n", s.Check, s.Score, s.Description)
		}
	}

	return writeReport(cmd, r, result, verifyJSON, verifyMD, func(w io.Writer) error {
		return r.RenderVerificationMarkdown(w, result)
	})
}
