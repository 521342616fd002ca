package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqtrace/internal/core/ports/driving"
)

var (
	runOutput     string
	runFrameworks []string
)

var runCmd = &cobra.Command{
	Use:   "run <workflow> [inputs...]",
	Short: "Run a named workflow",
	Long: `Run an end-to-end workflow by name.

Workflows:
  import           Import the input documents
  stories          Regenerate user stories
  uat              Regenerate UAT cases
  trace            Recompute the traceability matrix
  validate         Run the compliance frameworks
  export-markdown  Write markdown to --out
  export-xlsx      Write an Excel workbook to --out
  publish-github   Publish requirements as GitHub issues
  publish-notion   Publish pages to a Notion database
  publish-sheets   Publish the workbook to Google Sheets
  full             import, stories, uat, trace, validate, and both
                   exports into the --out directory when given

Inputs may be doublestar patterns such as 'docs/**/*.xlsx'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWorkflow,
}

func init() {
	runCmd.Flags().StringVarP(&runOutput, "out", "o", "", "output file, or directory for the full workflow")
	runCmd.Flags().StringSliceVarP(&runFrameworks, "framework", "f", nil, "frameworks to validate (default from settings)")
	rootCmd.AddCommand(runCmd)
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	name := args[0]
	return withSession(cmd, func(ctx context.Context, s *Session) error {
		report, err := s.Workflows.Run(ctx, name, driving.WorkflowRequest{
			Inputs:     args[1:],
			Output:     runOutput,
			Frameworks: runFrameworks,
		})
		if report != nil {
			printWorkflowReport(cmd, report)
		}
		if err != nil {
			return fmt.Errorf("workflow %s: %w", name, err)
		}
		return nil
	})
}

func printWorkflowReport(cmd *cobra.Command, r *driving.WorkflowReport) {
	if r.Import != nil {
		printImportResult(cmd, r.Import)
	}
	if r.Stories != nil {
		cmd.Printf("Stories: %d generated, %d mapping errors\n", r.Stories.Generated, len(r.Stories.Errors))
	}
	if r.UAT != nil {
		cmd.Printf("UAT cases: %d generated, %d kept their status\n", r.UAT.Generated, r.UAT.Preserved)
	}
	if r.Matrix != nil {
		printCoverage(cmd, r.Matrix.Coverage)
	}
	for _, run := range r.Runs {
		printRun(cmd, run)
	}
	for _, out := range r.Outputs {
		cmd.Printf("Wrote %s\n", out)
	}
	if r.Publishing != nil {
		printPublishReport(cmd, r.Publishing)
	}
	if len(r.Steps) > 0 {
		cmd.Printf("Steps: %s\n", strings.Join(r.Steps, " -> "))
	}
}
