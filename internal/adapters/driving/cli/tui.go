package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqtrace/internal/adapters/driving/tui"
)

// tuiOptions are passed to the bubbletea program. Tests replace them to
// run without a terminal.
var tuiOptions = []tea.ProgramOption{tea.WithAltScreen()}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse compliance findings interactively",
	Long: `Launch the terminal findings browser.

Shows the newest findings of every framework with a detail pane for the
selected finding.

Controls:
  ↑/k, ↓/j - Navigate findings
  tab      - Cycle the framework filter
  f        - Toggle failed only
  r        - Reload findings
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	return withSession(cmd, func(ctx context.Context, s *Session) error {
		app, err := tui.NewApp(&tui.Ports{Compliance: s.Compliance})
		if err != nil {
			return fmt.Errorf("failed to create TUI: %w", err)
		}
		app.WithContext(ctx)

		opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, tuiOptions...)
		if _, err := tea.NewProgram(app, opts...).Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})
}
