package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	matchProviders string
	matchJSON      string
	matchMD        string
	matchTop       int
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match <request-file>",
	Short: "Rank providers for a need",
	Long: `Match ranks every provider against a need by specialization, geography,
trust and capacity. Providers the requester excluded never appear.

Example:
  aidmatch match need.yaml --providers providers.yaml
  aidmatch match need.json --providers providers.json --top 5 --md matches.md`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVar(&matchProviders, "providers", "", "provider list (default: server.providers_file)")
	matchCmd.Flags().StringVar(&matchJSON, "json", "", "output JSON path (default: stdout)")
	matchCmd.Flags().StringVar(&matchMD, "md", "", "output Markdown path (optional)")
	matchCmd.Flags().IntVar(&matchTop, "top", 0, "keep only the best N suggestions (0 keeps all)")
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := contextWithTimeout(cmd, time.Minute)
	defer cancel()

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	if err := a.loadSnapshot(ctx, matchProviders, ""); err != nil {
		return err
	}
	if len(a.pipeline.Snapshot().Providers) == 0 {
		fmt.Fprintln(os.Stderr, "No providers loaded; pass --providers or set server.providers_file")
	}

	req, err := a.loader.MatchRequest(args[0])
	if err != nil {
		return err
	}

	suggestions, err := a.pipeline.Suggest(ctx, req, nil)
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}
	if matchTop > 0 && len(suggestions) > matchTop {
		suggestions = suggestions[:matchTop]
	}

	for i, s := range suggestions {
		fmt.Fprintf(os.Stderr, "%2d. %-20s %3d  %s\n", i+1, s.ProviderID, s.MatchScore, s.QualityLabel)
	}

	r := a.pipeline.Renderer()
	return writeReport(cmd, r, suggestions, matchJSON, matchMD, func(w io.Writer) error {
		return r.RenderSuggestionsMarkdown(w, req, suggestions)
	})
}
