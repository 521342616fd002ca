package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driving"
	"github.com/custodia-labs/reqtrace/internal/core/services"
)

// stdin is where interactive prompts read from.
var stdin = bufio.NewReader(os.Stdin)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure story generation, export style, compliance
frameworks and publishing destinations.

Settings are stored in config.toml in the configuration directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one setting",
	Long: `Set one setting by key. Lists are comma separated.

Run 'reqtrace settings show' for the recognised keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsTokenCmd = &cobra.Command{
	Use:       "token <github|notion>",
	Short:     "Store an API token without echoing it",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"github", "notion"},
	RunE:      runSettingsToken,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure frameworks and a publishing destination.`,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsTokenCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	s, err := settingsService()
	if err != nil {
		return err
	}
	settings, err := s.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")

	section := ""
	for _, key := range s.Keys() {
		group, _, _ := strings.Cut(key, ".")
		if group != section {
			cmd.Println()
			cmd.Printf("[%s]\n", group)
			section = group
		}
		value, err := s.Lookup(key)
		if err != nil {
			return err
		}
		if value == "" {
			value = "(not set)"
		}
		cmd.Printf("  %s = %s\n", key, value)
	}
	cmd.Println()

	cmd.Println("[destinations]")
	cmd.Printf("  github: %s\n", configuredLabel(settings.GitHub.IsConfigured()))
	cmd.Printf("  notion: %s\n", configuredLabel(settings.Notion.IsConfigured()))
	cmd.Printf("  sheets: %s\n", configuredLabel(settings.Sheets.IsConfigured()))
	return nil
}

func configuredLabel(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	s, err := settingsService()
	if err != nil {
		return err
	}
	if err := s.Set(args[0], args[1]); err != nil {
		return err
	}
	value, err := s.Lookup(args[0])
	if err != nil {
		return err
	}
	cmd.Printf("%s = %s\n", args[0], value)
	return nil
}

func runSettingsToken(cmd *cobra.Command, args []string) error {
	var key string
	switch args[0] {
	case "github":
		key = services.KeyGitHubToken
	case "notion":
		key = services.KeyNotionToken
	default:
		return fmt.Errorf("%w: no token for %q", domain.ErrInvalidInput, args[0])
	}

	s, err := settingsService()
	if err != nil {
		return err
	}
	cmd.Printf("%s token: ", args[0])
	token := readPassword()
	cmd.Println()
	if token == "" {
		return errors.New("no token entered")
	}
	if err := s.Set(key, token); err != nil {
		return err
	}
	cmd.Printf("Saved %s token %s\n", args[0], maskAPIKey(token))
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	s, err := settingsService()
	if err != nil {
		return err
	}

	cmd.Println("reqtrace setup")
	cmd.Println("==============")
	cmd.Println("Press Enter to keep the current value.")
	cmd.Println()

	for _, key := range []string{
		services.KeyFrameworks,
		services.KeyRulePacks,
		services.KeyDefaultRole,
		services.KeyGroupByFeature,
		services.KeyHeadingLevel,
	} {
		if err := promptSetting(cmd, s, key); err != nil {
			return err
		}
	}

	cmd.Println()
	cmd.Println("Publishing destination:")
	cmd.Println("  1. GitHub issues")
	cmd.Println("  2. Notion database")
	cmd.Println("  3. Google Sheets")
	cmd.Println("  4. None")
	cmd.Print("Choice [4]: ")

	var keys []string
	switch parseChoice(readLine(stdin), 4, 4) {
	case 1:
		keys = []string{services.KeyGitHubOwner, services.KeyGitHubRepo, services.KeyGitHubLabels, services.KeyGitHubToken}
	case 2:
		keys = []string{services.KeyNotionDatabase, services.KeyNotionToken}
	case 3:
		keys = []string{services.KeySheetsID, services.KeySheetsCredentials}
	}
	for _, key := range keys {
		if err := promptSetting(cmd, s, key); err != nil {
			return err
		}
	}

	cmd.Println()
	cmd.Println("Settings saved.")
	return nil
}

func promptSetting(cmd *cobra.Command, s driving.SettingsService, key string) error {
	current, err := s.Lookup(key)
	if err != nil {
		return err
	}
	cmd.Printf("%s [%s]: ", key, current)

	var input string
	if services.IsSecretKey(key) {
		input = readPassword()
		cmd.Println()
	} else {
		input = readLine(stdin)
	}
	if input == "" {
		return nil
	}
	if err := s.Set(key, input); err != nil {
		cmd.Printf("  %v\n", err)
	}
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(stdin)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
