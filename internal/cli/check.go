package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	checkKey      string
	checkID       string
	checkName     string
	checkRegistry string
	checkAmount   float64
	checkCategory string
)

// checkCmd groups the standalone fraud checks
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single fraud check",
}

var checkDuplicateCmd = &cobra.Command{
	Use:   "duplicate",
	Short: "Look for an identity already in the registry",
	Long: `Duplicate compares an identity number and name against a registry.
Records sharing the number with a similar name are duplicates; records sharing
the number under a different name are reported as conflicts.

Example:
  aidmatch check duplicate --id 1990123456 --name "Rahima Begum" --registry registry.yaml
  aidmatch check duplicate --key ben-1 --id 1990123456 --name "Rahima Begum"`,
	Args: cobra.NoArgs,
	RunE: runCheckDuplicate,
}

var checkCostCmd = &cobra.Command{
	Use:   "cost",
	Short: "Compare a cost to its regional average",
	Long: `Cost reports how far an amount deviates from the configured regional
average for its category.

Example:
  aidmatch check cost --amount 12750 --category shelter`,
	Args: cobra.NoArgs,
	RunE: runCheckCost,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.AddCommand(checkDuplicateCmd)
	checkCmd.AddCommand(checkCostCmd)

	checkDuplicateCmd.Flags().StringVar(&checkKey, "key", "", "the subject's own registry key, excluded from the check")
	checkDuplicateCmd.Flags().StringVar(&checkID, "id", "", "identity number")
	checkDuplicateCmd.Flags().StringVar(&checkName, "name", "", "full name")
	checkDuplicateCmd.Flags().StringVar(&checkRegistry, "registry", "", "identity registry (default: server.registry_file)")
	_ = checkDuplicateCmd.MarkFlagRequired("id")

	checkCostCmd.Flags().Float64Var(&checkAmount, "amount", 0, "cost amount")
	checkCostCmd.Flags().StringVar(&checkCategory, "category", "", "cost category")
	_ = checkCostCmd.MarkFlagRequired("amount")
	_ = checkCostCmd.MarkFlagRequired("category")
}

func runCheckDuplicate(cmd *cobra.Command, args []string) error {
	ctx, cancel := contextWithTimeout(cmd, 30*time.Second)
	defer cancel()

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	if err := a.loadSnapshot(ctx, "", checkRegistry); err != nil {
		return err
	}

	result := a.pipeline.CheckDuplicateIdentity(checkKey, checkID, checkName, nil)
	if result.IsDuplicate {
		fmt.Fprintf(os.Stderr, "✗ Duplicate of %d registry record(s)\n", len(result.RelatedRecords))
	} else {
		fmt.Fprintln(os.Stderr, "✓ No duplicate found")
	}
	if len(result.Conflicts) > 0 {
		fmt.Fprintf(os.Stderr, "! %d record(s) share the number under a different name\n", len(result.Conflicts))
	}

	return a.pipeline.Renderer().RenderJSON(cmd.OutOrStdout(), result)
}

func runCheckCost(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}

	result, err := a.pipeline.CheckCostOutlier(checkAmount, checkCategory, nil)
	if err != nil {
		return fmt.Errorf("cost check failed: %w", err)
	}

	mark := "✓"
	if result.IsOutlier {
		mark = "✗"
	}
	fmt.Fprintf(os.Stderr, "%s %s %.2f deviates %+.1f%% from %.2f (%s)\n",
		mark, checkCategory, checkAmount, result.DeviationPct, result.RegionalAverage, result.Severity)

	return a.pipeline.Renderer().RenderJSON(cmd.OutOrStdout(), result)
}

// contextWithTimeout derives a bounded context from the command's context
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, d)
}
