package domain

// Built-in compliance framework names.
const (
	FrameworkPrivacy  = "privacy"
	FrameworkAudit    = "audit"
	FrameworkERecords = "erecords"
)

// DefaultFrameworks lists the frameworks run when none are configured.
func DefaultFrameworks() []string {
	return []string{FrameworkPrivacy, FrameworkAudit, FrameworkERecords}
}

// StorySettings controls user story generation.
type StorySettings struct {
	// GroupByFeature produces one story per feature tag instead of one
	// per requirement.
	GroupByFeature bool

	// DefaultRole is used when a description names no actor.
	DefaultRole string
}

// ExportSettings is the fixed style configuration for formatters.
type ExportSettings struct {
	// HeadingLevel is the markdown heading level for requirement sections.
	HeadingLevel int

	// TaskLists renders acceptance criteria as "- [ ]" items.
	TaskLists bool
}

// ComplianceSettings selects frameworks and extra rule packs.
type ComplianceSettings struct {
	Frameworks []string
	RulePacks  []string
}

// GitHubSettings configures the issue publisher.
type GitHubSettings struct {
	Owner  string
	Repo   string
	Token  string
	Labels []string
}

// IsConfigured returns true when the publisher can run.
func (g GitHubSettings) IsConfigured() bool {
	return g.Owner != "" && g.Repo != "" && g.Token != ""
}

// NotionSettings configures the workspace publisher.
type NotionSettings struct {
	Token      string
	DatabaseID string
}

// IsConfigured returns true when the publisher can run.
func (n NotionSettings) IsConfigured() bool {
	return n.Token != "" && n.DatabaseID != ""
}

// SheetsSettings configures the Google Sheets publisher.
type SheetsSettings struct {
	SpreadsheetID   string
	CredentialsFile string
}

// IsConfigured returns true when the publisher can run.
func (s SheetsSettings) IsConfigured() bool {
	return s.SpreadsheetID != "" && s.CredentialsFile != ""
}

// LogSettings controls logging output.
type LogSettings struct {
	Verbose bool
	JSON    bool
}

// AppSettings holds all application settings.
type AppSettings struct {
	// DataDir is the sqlite directory. Empty means the default location.
	DataDir string

	Stories    StorySettings
	Export     ExportSettings
	Compliance ComplianceSettings

	// RetryAttempts bounds retries against remote destinations.
	RetryAttempts int

	GitHub GitHubSettings
	Notion NotionSettings
	Sheets SheetsSettings
	Log    LogSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Publishers are left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Stories: StorySettings{
			DefaultRole: "user",
		},
		Export: ExportSettings{
			HeadingLevel: 3,
			TaskLists:    true,
		},
		Compliance: ComplianceSettings{
			Frameworks: DefaultFrameworks(),
		},
		RetryAttempts: 3,
	}
}
