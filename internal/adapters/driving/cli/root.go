// Package cli implements the reqtrace command line.
//
// Commands are package-level cobra commands registered on rootCmd in init
// functions. Services come from a Runtime built per invocation by the
// factory main installs with SetRuntimeFactory; every command that touches
// records opens a Session, runs and closes it again.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqtrace/internal/core/ports/driving"
	"github.com/custodia-labs/reqtrace/internal/logger"
)

// version is set by main from build flags.
var version = "dev"

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Session holds the services bound to one open store.
type Session struct {
	Import     driving.ImportService
	Generation driving.GenerationService
	Compliance driving.ComplianceService
	Export     driving.ExportService
	Records    driving.RecordService
	Workflows  driving.WorkflowRunner

	// Close releases the store. May be nil.
	Close func() error
}

func (s *Session) close() {
	if s.Close == nil {
		return
	}
	if err := s.Close(); err != nil {
		logger.Warn("closing store: %v", err)
	}
}

// Options are the global flags a runtime is built from.
type Options struct {
	// ConfigDir overrides the configuration directory.
	ConfigDir string

	// DryRun keeps every record in memory for the invocation.
	DryRun bool
}

// Runtime provides settings and opens sessions.
type Runtime interface {
	Settings() driving.SettingsService
	Open(ctx context.Context) (*Session, error)
}

// RuntimeFactory builds the runtime for one invocation.
type RuntimeFactory func(opts Options) (Runtime, error)

var (
	runtimeFactory RuntimeFactory
	active         Runtime

	globalOpts Options
	verbose    bool
	jsonLog    bool
)

// SetRuntimeFactory installs the runtime factory.
func SetRuntimeFactory(f RuntimeFactory) {
	runtimeFactory = f
}

var rootCmd = &cobra.Command{
	Use:   "reqtrace",
	Short: "Requirements traceability and compliance toolkit",
	Long: `reqtrace imports requirements from spreadsheets, Word documents and
draw.io diagrams, derives user stories, UAT cases and a traceability
matrix, validates them against compliance frameworks and exports the
result to markdown, Excel workbooks, GitHub, Notion and Google Sheets.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		active = nil
		logger.SetJSON(jsonLog)
		logger.SetVerbose(verbose)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globalOpts.ConfigDir, "config-dir", "", "configuration directory (default ~/.reqtrace)")
	flags.BoolVar(&globalOpts.DryRun, "dry-run", false, "keep records in memory; nothing is written to the store")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&jsonLog, "log-json", false, "log as JSON")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// currentRuntime builds the runtime on first use and applies the logging
// settings it carries.
func currentRuntime() (Runtime, error) {
	if active != nil {
		return active, nil
	}
	if runtimeFactory == nil {
		return nil, errors.New("runtime not configured")
	}
	rt, err := runtimeFactory(globalOpts)
	if err != nil {
		return nil, err
	}

	if s := rt.Settings(); s != nil {
		if settings, err := s.Get(); err == nil {
			if settings.Log.Verbose && !verbose {
				logger.SetVerbose(true)
			}
			if settings.Log.JSON && !jsonLog {
				logger.SetJSON(true)
			}
		}
	}
	active = rt
	return rt, nil
}

func settingsService() (driving.SettingsService, error) {
	rt, err := currentRuntime()
	if err != nil {
		return nil, err
	}
	s := rt.Settings()
	if s == nil {
		return nil, errors.New("settings service not configured")
	}
	return s, nil
}

// withSession opens a session, runs fn and closes the session.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *Session) error) error {
	rt, err := currentRuntime()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	session, err := rt.Open(ctx)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer session.close()
	return fn(ctx, session)
}
