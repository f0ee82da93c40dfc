package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/aidmatch/internal/pipeline"
)

// writeReport writes v as JSON to jsonPath, or to stdout when jsonPath is
// empty, and renders Markdown to mdPath when one is given
func writeReport(cmd *cobra.Command, r *pipeline.Renderer, v interface{}, jsonPath, mdPath string, markdown func(io.Writer) error) error {
	if jsonPath != "" {
		if err := r.WriteJSONFile(jsonPath, v); err != nil {
			return fmt.Errorf("write JSON report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", jsonPath)
	} else if err := r.RenderJSON(cmd.OutOrStdout(), v); err != nil {
		return fmt.Errorf("render JSON: %w", err)
	}

	if mdPath != "" {
		if err := writeMarkdownFile(mdPath, markdown); err != nil {
			return fmt.Errorf("write Markdown report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", mdPath)
	}
	return nil
}

func writeMarkdownFile(path string, render func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return render(f)
}
