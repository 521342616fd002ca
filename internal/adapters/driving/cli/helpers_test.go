package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqtrace/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/reqtrace/internal/compliance"
	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driving"
	"github.com/custodia-labs/reqtrace/internal/core/services"
	"github.com/custodia-labs/reqtrace/internal/formatters/markdown"
	"github.com/custodia-labs/reqtrace/internal/formatters/spreadsheet"
	"github.com/custodia-labs/reqtrace/internal/formatters/workspace"
	"github.com/custodia-labs/reqtrace/internal/parsers"
)

const requirementsCSV = "ID,Description,Priority,Acceptance Criteria\n" +
	"REQ-1,User can reset password,high,\n" +
	"REQ-2,Admin can export audit logs,medium,CSV download; Includes timestamps\n"

// testRuntime keeps one memory store across command invocations.
type testRuntime struct {
	settings   *services.SettingsService
	store      *memory.Store
	publishers []driven.Publisher
	opened     int
	closed     int
}

func (r *testRuntime) Settings() driving.SettingsService {
	if r.settings == nil {
		return nil
	}
	return r.settings
}

func (r *testRuntime) Open(_ context.Context) (*Session, error) {
	settings, err := r.settings.Get()
	if err != nil {
		return nil, err
	}
	r.opened++
	return NewSession(SessionDeps{
		Stores: services.Stores{
			Requirements: r.store.RequirementStore(),
			Stories:      r.store.StoryStore(),
			Cases:        r.store.UATStore(),
			Traceability: r.store.TraceabilityStore(),
			Findings:     r.store.FindingStore(),
			Diagrams:     r.store.DiagramStore(),
		},
		Settings:   *settings,
		Parsers:    parsers.NewDefaultRegistry(),
		Catalog:    compliance.DefaultCatalog(),
		Exporters:  []driven.Exporter{markdown.New(markdown.DefaultStyle()), spreadsheet.New(), workspace.New("")},
		Publishers: r.publishers,
		Close: func() error {
			r.closed++
			return nil
		},
	}), nil
}

// setupCLI installs a memory-backed runtime for the test.
func setupCLI(t *testing.T) *testRuntime {
	t.Helper()
	rt := &testRuntime{
		settings: services.NewSettingsService(memory.NewConfigStore()),
		store:    memory.NewStore(),
	}
	prev := runtimeFactory
	SetRuntimeFactory(func(Options) (Runtime, error) { return rt, nil })
	t.Cleanup(func() {
		runtimeFactory = prev
		active = nil
	})
	return rt
}

// execute runs the root command with args and returns everything it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// importSample imports requirementsCSV and derives stories and cases.
func importSample(t *testing.T) {
	t.Helper()
	path := writeFile(t, t.TempDir(), "reqs.csv", requirementsCSV)
	_, err := execute(t, "import", path)
	require.NoError(t, err)
	_, err = execute(t, "generate", "stories")
	require.NoError(t, err)
	_, err = execute(t, "generate", "uat")
	require.NoError(t, err)
}

// fakePublisher records the bundles it was handed.
type fakePublisher struct {
	name    string
	err     error
	bundles []*domain.ExportBundle
}

func (p *fakePublisher) Name() string { return p.name }

func (p *fakePublisher) Publish(_ context.Context, b *domain.ExportBundle) (*driven.PublishReport, error) {
	p.bundles = append(p.bundles, b)
	if p.err != nil {
		return nil, p.err
	}
	return &driven.PublishReport{
		Destination: p.name,
		Created:     len(b.Requirements),
		URLs:        []string{"https://example.test/" + p.name},
	}, nil
}
