package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/reqtrace/internal/adapters/driven/config/file"
	"github.com/custodia-labs/reqtrace/internal/adapters/driven/github"
	"github.com/custodia-labs/reqtrace/internal/adapters/driven/notion"
	"github.com/custodia-labs/reqtrace/internal/adapters/driven/sheets"
	"github.com/custodia-labs/reqtrace/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/reqtrace/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/reqtrace/internal/adapters/driving/cli"
	"github.com/custodia-labs/reqtrace/internal/compliance"
	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driving"
	"github.com/custodia-labs/reqtrace/internal/core/services"
	"github.com/custodia-labs/reqtrace/internal/formatters/markdown"
	"github.com/custodia-labs/reqtrace/internal/formatters/spreadsheet"
	"github.com/custodia-labs/reqtrace/internal/formatters/workspace"
	"github.com/custodia-labs/reqtrace/internal/logger"
	"github.com/custodia-labs/reqtrace/internal/parsers"
	"github.com/custodia-labs/reqtrace/internal/retry"
)

// runtime builds sessions from the settings in one configuration directory.
type runtime struct {
	opts      cli.Options
	configDir string
	settings  *services.SettingsService
}

func newRuntime(opts cli.Options) (cli.Runtime, error) {
	dir := opts.ConfigDir
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	cfg, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var store driven.ConfigStore = cfg
	if opts.DryRun {
		// Settings changes last for this invocation only.
		store = memory.NewConfigOverlay(cfg)
	}

	return &runtime{
		opts:      opts,
		configDir: dir,
		settings:  services.NewSettingsService(store),
	}, nil
}

func (r *runtime) Settings() driving.SettingsService {
	return r.settings
}

func (r *runtime) Open(_ context.Context) (*cli.Session, error) {
	settings, err := r.settings.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	stores, closeFn, err := r.openStores(settings)
	if err != nil {
		return nil, err
	}

	catalog := compliance.DefaultCatalog()
	if err := catalog.LoadRulePacks(settings.Compliance.RulePacks); err != nil {
		if closeFn != nil {
			closeFn() //nolint:errcheck // already failing
		}
		return nil, err
	}

	style := markdown.Style{
		HeadingLevel: settings.Export.HeadingLevel,
		TaskLists:    settings.Export.TaskLists,
	}
	policy := retry.NewPolicy(settings.RetryAttempts)

	return cli.NewSession(cli.SessionDeps{
		Stores:   stores,
		Settings: *settings,
		Parsers:  parsers.NewDefaultRegistry(),
		Catalog:  catalog,
		Exporters: []driven.Exporter{
			markdown.New(style),
			spreadsheet.New(),
			workspace.New(""),
		},
		Publishers: []driven.Publisher{
			github.NewPublisher(settings.GitHub, github.WithStyle(style)),
			notion.NewPublisher(settings.Notion, notion.WithRetryPolicy(policy)),
			sheets.NewPublisher(settings.Sheets, sheets.WithRetryPolicy(policy)),
		},
		Close: closeFn,
	}), nil
}

// openStores opens sqlite, or memory for a dry run.
func (r *runtime) openStores(settings *domain.AppSettings) (services.Stores, func() error, error) {
	if r.opts.DryRun {
		logger.Info("dry run: records are kept in memory")
		m := memory.NewStore()
		return services.Stores{
			Requirements: m.RequirementStore(),
			Stories:      m.StoryStore(),
			Cases:        m.UATStore(),
			Traceability: m.TraceabilityStore(),
			Findings:     m.FindingStore(),
			Diagrams:     m.DiagramStore(),
		}, nil, nil
	}

	dataDir := settings.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(r.configDir, "data")
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return services.Stores{}, nil, err
	}
	logger.Debug("opened store %s", store.Path())

	return services.Stores{
		Requirements: store.RequirementStore(),
		Stories:      store.StoryStore(),
		Cases:        store.UATStore(),
		Traceability: store.TraceabilityStore(),
		Findings:     store.FindingStore(),
		Diagrams:     store.DiagramStore(),
	}, store.Close, nil
}
