package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	statusJSON string
	statusMD   string
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <fields-file>",
	Short: "Project a beneficiary's application status",
	Long: `Status derives the beneficiary-facing view of an application: progress,
label, five-stage timeline, next action and whether the provider can be rated.

Example:
  aidmatch status application.yaml
  aidmatch status application.json --md status.md`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusJSON, "json", "", "output JSON path (default: stdout)")
	statusCmd.Flags().StringVar(&statusMD, "md", "", "output Markdown path (optional)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}

	fields, err := a.loader.StatusFields(args[0])
	if err != nil {
		return err
	}

	projection := a.pipeline.ProjectStatus(fields)
	fmt.Fprintf(os.Stderr, "%s (%d%%) - %s\n", projection.Label, projection.Progress, projection.NextAction)

	r := a.pipeline.Renderer()
	return writeReport(cmd, r, projection, statusJSON, statusMD, func(w io.Writer) error {
		return r.RenderStatusMarkdown(w, projection)
	})
}
