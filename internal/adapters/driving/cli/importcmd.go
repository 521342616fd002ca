package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/services"
)

var importGlobs []string

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Import requirement documents",
	Long: `Import requirements from .xlsx, .csv, .docx, .drawio and .xml files.

Each document is imported on its own: a document that cannot be read is
reported as failed and the rest of the batch continues. The command fails
only when every document failed.

Use --glob for recursive patterns, e.g. --glob 'specs/**/*.docx'.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringSliceVarP(&importGlobs, "glob", "g", nil, "doublestar pattern of files to import (repeatable)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	paths, err := services.ExpandInputs(append(append([]string{}, args...), importGlobs...))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no input files: pass paths or --glob")
	}

	return withSession(cmd, func(ctx context.Context, s *Session) error {
		result, err := s.Import.ImportFiles(ctx, paths)
		if err != nil {
			return err
		}
		printImportResult(cmd, result)
		if result.AllFailed() {
			return services.ErrImportFailed
		}
		return nil
	})
}

func printImportResult(cmd *cobra.Command, result *domain.ImportResult) {
	for _, doc := range result.Documents {
		if doc.Failed() {
			cmd.Printf("FAILED   %s: %v\n", doc.Document, doc.Err)
			continue
		}
		cmd.Printf("OK       %s: %d imported, %d unchanged, %d skipped",
			doc.Document, doc.Imported, doc.Unchanged, doc.Skipped)
		if doc.Nodes > 0 || doc.Edges > 0 {
			cmd.Printf(", %d nodes, %d edges", doc.Nodes, doc.Edges)
		}
		cmd.Println()
		for _, w := range doc.Warnings {
			cmd.Printf("  warning: %v\n", w)
		}
	}
	cmd.Printf("Documents: %d, imported: %d, skipped: %d, failed: %d\n",
		len(result.Documents), result.Imported(), result.Skipped(), result.Failed())
}
