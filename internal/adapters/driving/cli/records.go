package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

var requirementsJSON bool

var requirementsCmd = &cobra.Command{
	Use:     "requirements",
	Aliases: []string{"req"},
	Short:   "List and update requirements",
}

var requirementsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List imported requirements",
	Args:  cobra.NoArgs,
	RunE:  runRequirementsList,
}

var requirementsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a requirement with its stories and UAT cases",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequirementsShow,
}

var requirementsStatusCmd = &cobra.Command{
	Use:   "set-status <id> <status>",
	Short: "Change a requirement's status",
	Long: `Change the status of an imported requirement. Status is the only field
that may change after import.

Statuses: imported, approved, implemented, verified, rejected`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *Session) error {
			status := domain.RequirementStatus(strings.ToLower(args[1]))
			if err := s.Records.SetRequirementStatus(ctx, args[0], status); err != nil {
				return err
			}
			cmd.Printf("%s is now %s\n", args[0], status)
			return nil
		})
	},
}

var uatCmd = &cobra.Command{
	Use:   "uat",
	Short: "Record UAT results",
}

var uatStatusCmd = &cobra.Command{
	Use:   "set-status <case-id> <status>",
	Short: "Record a UAT case result",
	Long:  `Record the execution result of a UAT case: pending, passed or failed.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *Session) error {
			status := domain.UATStatus(strings.ToLower(args[1]))
			if err := s.Records.SetCaseStatus(ctx, args[0], status); err != nil {
				return err
			}
			cmd.Printf("%s is now %s\n", args[0], status)
			return nil
		})
	},
}

func init() {
	requirementsListCmd.Flags().BoolVar(&requirementsJSON, "json", false, "print as JSON")
	requirementsCmd.AddCommand(requirementsListCmd)
	requirementsCmd.AddCommand(requirementsShowCmd)
	requirementsCmd.AddCommand(requirementsStatusCmd)
	rootCmd.AddCommand(requirementsCmd)

	uatCmd.AddCommand(uatStatusCmd)
	rootCmd.AddCommand(uatCmd)
}

type requirementJSON struct {
	ID                 string   `json:"id"`
	Source             string   `json:"source"`
	Description        string   `json:"description"`
	Category           string   `json:"category,omitempty"`
	Priority           string   `json:"priority"`
	Feature            string   `json:"feature,omitempty"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
	Rationale          string   `json:"rationale,omitempty"`
	Status             string   `json:"status"`
}

func runRequirementsList(cmd *cobra.Command, _ []string) error {
	return withSession(cmd, func(ctx context.Context, s *Session) error {
		reqs, err := s.Records.Requirements(ctx)
		if err != nil {
			return err
		}

		if requirementsJSON {
			out := make([]requirementJSON, 0, len(reqs))
			for _, r := range reqs {
				out = append(out, requirementJSON{
					ID:                 r.ID,
					Source:             r.SourceRef,
					Description:        r.Description,
					Category:           r.Category,
					Priority:           r.Priority.String(),
					Feature:            r.FeatureTag,
					AcceptanceCriteria: r.AcceptanceCriteria,
					Rationale:          r.Rationale,
					Status:             string(r.Status),
				})
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		if len(reqs) == 0 {
			cmd.Println("No requirements. Run 'reqtrace import' first.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPRIORITY\tSTATUS\tDESCRIPTION")
		for _, r := range reqs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Priority, r.Status, r.Description)
		}
		return w.Flush()
	})
}

func runRequirementsShow(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, s *Session) error {
		target, err := s.Records.Requirement(ctx, args[0])
		if err != nil {
			return err
		}
		r := target.Requirement
		cmd.Printf("%s  %s\n", r.ID, r.Description)
		cmd.Printf("  Source:   %s\n", r.SourceRef)
		cmd.Printf("  Priority: %s\n", r.Priority)
		cmd.Printf("  Status:   %s\n", r.Status)
		if r.Category != "" {
			cmd.Printf("  Category: %s\n", r.Category)
		}
		if r.FeatureTag != "" {
			cmd.Printf("  Feature:  %s\n", r.FeatureTag)
		}
		for _, c := range r.AcceptanceCriteria {
			cmd.Printf("  - %s\n", c)
		}
		for _, story := range target.Stories {
			cmd.Printf("\n%s  %s\n", story.ID, story.Text())
			for _, c := range target.Cases {
				if c.StoryID == story.ID {
					cmd.Printf("  %s [%s] %s\n", c.ID, c.Status, c.Criterion)
				}
			}
		}
		return nil
	})
}
