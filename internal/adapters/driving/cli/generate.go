package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Derive stories, UAT cases and traceability",
}

var generateStoriesCmd = &cobra.Command{
	Use:   "stories",
	Short: "Regenerate user stories from all requirements",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd, func(ctx context.Context, s *Session) error {
			res, err := s.Generation.GenerateStories(ctx)
			if err != nil {
				return fmt.Errorf("generating stories: %w", err)
			}
			cmd.Printf("Stories: %d generated\n", res.Generated)
			printMappingErrors(cmd, res)
			return nil
		})
	},
}

var generateUATCmd = &cobra.Command{
	Use:   "uat",
	Short: "Regenerate UAT cases from all stories",
	Long: `Regenerate one UAT case per acceptance criterion of every story.

Cases whose content did not change keep their recorded status.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd, func(ctx context.Context, s *Session) error {
			res, err := s.Generation.GenerateUAT(ctx)
			if err != nil {
				return fmt.Errorf("generating UAT cases: %w", err)
			}
			cmd.Printf("UAT cases: %d generated, %d kept their status\n", res.Generated, res.Preserved)
			printMappingErrors(cmd, res)
			return nil
		})
	},
}

var generateTraceCmd = &cobra.Command{
	Use:     "trace",
	Aliases: []string{"traceability"},
	Short:   "Recompute the traceability matrix",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd, func(ctx context.Context, s *Session) error {
			matrix, err := s.Generation.Traceability(ctx)
			if err != nil {
				return fmt.Errorf("building traceability: %w", err)
			}
			printCoverage(cmd, matrix.Coverage)
			return nil
		})
	},
}

func init() {
	generateCmd.AddCommand(generateStoriesCmd)
	generateCmd.AddCommand(generateUATCmd)
	generateCmd.AddCommand(generateTraceCmd)
	rootCmd.AddCommand(generateCmd)
}

func printMappingErrors(cmd *cobra.Command, res *domain.GenerationResult) {
	for _, e := range res.Errors {
		cmd.Printf("  skipped: %v\n", e)
	}
}

func printCoverage(cmd *cobra.Command, c domain.Coverage) {
	cmd.Printf("Traceability: %d requirements, %d with stories, %d with UAT cases, %d verified\n",
		c.Requirements, c.WithStories, c.WithCases, c.Verified)
}
