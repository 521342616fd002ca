package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Render the record set",
	Long: `Render requirements, stories, UAT cases, traceability and findings.

Formats:
  markdown   Grouped markdown document
  xlsx       Excel workbook, one tab per record type
  workspace  Notion-style page outline

Without --out the rendering is written to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var publishCmd = &cobra.Command{
	Use:   "publish <destination>",
	Short: "Push the record set to a remote destination",
	Long: `Publish to a configured destination.

Destinations:
  github  One issue per requirement (settings: github.owner, github.repo, github.token)
  notion  One page per section (settings: notion.token, notion.database)
  sheets  One tab per record type (settings: sheets.id, sheets.credentials)`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(publishCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format := args[0]
	return withSession(cmd, func(ctx context.Context, s *Session) error {
		if exportOutput == "" {
			return s.Export.Export(ctx, format, cmd.OutOrStdout())
		}
		if err := s.Export.ExportFile(ctx, format, exportOutput); err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", exportOutput)
		return nil
	})
}

func runPublish(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, s *Session) error {
		report, err := s.Export.Publish(ctx, args[0])
		if err != nil {
			return fmt.Errorf("publishing to %s: %w (available: %s)",
				args[0], err, strings.Join(s.Export.Destinations(), ", "))
		}
		printPublishReport(cmd, report)
		return nil
	})
}

func printPublishReport(cmd *cobra.Command, r *driven.PublishReport) {
	cmd.Printf("Published to %s: %d created, %d updated\n", r.Destination, r.Created, r.Updated)
	for _, u := range r.URLs {
		cmd.Printf("  %s\n", u)
	}
}
