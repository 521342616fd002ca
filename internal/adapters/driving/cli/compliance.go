package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

var (
	validateFrameworks []string
	findingsFramework  string
	findingsJSON       bool
	findingsFailed     bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run compliance frameworks over all requirements",
	Long: `Run compliance validators over every requirement with its stories and
UAT cases. Each framework run is recorded; earlier runs stay in history.

Without --framework the configured frameworks run.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

var complianceCmd = &cobra.Command{
	Use:   "compliance",
	Short: "Inspect compliance frameworks",
}

var complianceFrameworksCmd = &cobra.Command{
	Use:   "frameworks",
	Short: "List registered frameworks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd, func(_ context.Context, s *Session) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FRAMEWORK\tRULES")
			for _, f := range s.Compliance.Frameworks() {
				fmt.Fprintf(w, "%s\t%d\n", f.Name, f.Rules)
			}
			return w.Flush()
		})
	},
}

var complianceTestsCmd = &cobra.Command{
	Use:   "tests <framework>",
	Short: "Print the test scenarios of a framework",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(_ context.Context, s *Session) error {
			plan, err := s.Compliance.TestPlan(args[0])
			if err != nil {
				return err
			}
			cmd.Print(plan)
			return nil
		})
	},
}

var findingsCmd = &cobra.Command{
	Use:   "findings",
	Short: "Show compliance findings",
}

var findingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the newest findings",
	Args:  cobra.NoArgs,
	RunE:  runFindingsList,
}

func init() {
	validateCmd.Flags().StringSliceVarP(&validateFrameworks, "framework", "f", nil, "frameworks to run (default from settings)")
	rootCmd.AddCommand(validateCmd)

	complianceCmd.AddCommand(complianceFrameworksCmd)
	complianceCmd.AddCommand(complianceTestsCmd)
	rootCmd.AddCommand(complianceCmd)

	findingsListCmd.Flags().StringVarP(&findingsFramework, "framework", "f", "", "only this framework")
	findingsListCmd.Flags().BoolVar(&findingsFailed, "failed", false, "only failing findings")
	findingsListCmd.Flags().BoolVar(&findingsJSON, "json", false, "print as JSON")
	findingsCmd.AddCommand(findingsListCmd)
	rootCmd.AddCommand(findingsCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	frameworks := validateFrameworks
	if len(frameworks) == 0 {
		s, err := settingsService()
		if err != nil {
			return err
		}
		settings, err := s.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		frameworks = settings.Compliance.Frameworks
	}

	return withSession(cmd, func(ctx context.Context, s *Session) error {
		runs, err := s.Compliance.ValidateAll(ctx, frameworks)
		for _, run := range runs {
			printRun(cmd, run)
		}
		return err
	})
}

func printRun(cmd *cobra.Command, run domain.ComplianceRun) {
	cmd.Printf("%s: %d rules over %d requirements: %d pass, %d fail, %d not applicable\n",
		run.Framework, run.RuleCount, run.Targets,
		run.Summary.Pass, run.Summary.Fail, run.Summary.NotApplicable)
}

func runFindingsList(cmd *cobra.Command, _ []string) error {
	return withSession(cmd, func(ctx context.Context, s *Session) error {
		findings, err := s.Compliance.Findings(ctx, findingsFramework)
		if err != nil {
			return err
		}
		if findingsFailed {
			failed := findings[:0]
			for _, f := range findings {
				if f.Status == domain.FindingFail {
					failed = append(failed, f)
				}
			}
			findings = failed
		}

		if findingsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(findingsView(findings))
		}

		if len(findings) == 0 {
			cmd.Println("No findings. Run 'reqtrace validate' first.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FRAMEWORK\tRULE\tTARGET\tSTATUS\tDETAIL")
		for _, f := range findings {
			detail := f.Evidence
			if f.Reason != "" {
				detail = f.Reason
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.Framework, f.RuleID, f.TargetID, f.Status, detail)
		}
		return w.Flush()
	})
}

type findingJSON struct {
	Framework   string `json:"framework"`
	Rule        string `json:"rule"`
	Target      string `json:"target"`
	Status      string `json:"status"`
	Evidence    string `json:"evidence,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Run         string `json:"run"`
	EvaluatedAt string `json:"evaluated_at"`
}

func findingsView(findings []domain.ComplianceFinding) []findingJSON {
	out := make([]findingJSON, 0, len(findings))
	for _, f := range findings {
		out = append(out, findingJSON{
			Framework:   f.Framework,
			Rule:        f.RuleID,
			Target:      f.TargetID,
			Status:      string(f.Status),
			Evidence:    f.Evidence,
			Reason:      f.Reason,
			Run:         f.RunID,
			EvaluatedAt: f.EvaluatedAt.Format(time.RFC3339),
		})
	}
	return out
}
