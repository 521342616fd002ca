package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyDataDir           = "storage.data_dir"
	KeyGroupByFeature    = "stories.group_by_feature"
	KeyDefaultRole       = "stories.default_role"
	KeyHeadingLevel      = "export.heading_level"
	KeyTaskLists         = "export.task_lists"
	KeyFrameworks        = "compliance.frameworks"
	KeyRulePacks         = "compliance.rule_packs"
	KeyRetryAttempts     = "retry.max_attempts"
	KeyGitHubOwner       = "github.owner"
	KeyGitHubRepo        = "github.repo"
	KeyGitHubToken       = "github.token"
	KeyGitHubLabels      = "github.labels"
	KeyNotionToken       = "notion.token"
	KeyNotionDatabase    = "notion.database_id"
	KeySheetsID          = "sheets.spreadsheet_id"
	KeySheetsCredentials = "sheets.credentials_file"
	KeyLogVerbose        = "log.verbose"
	KeyLogJSON           = "log.json"
)

type keyKind int

const (
	kindString keyKind = iota
	kindBool
	kindInt
	kindList
)

// settingKeys lists every recognised key and its value type.
var settingKeys = map[string]keyKind{
	KeyDataDir:           kindString,
	KeyGroupByFeature:    kindBool,
	KeyDefaultRole:       kindString,
	KeyHeadingLevel:      kindInt,
	KeyTaskLists:         kindBool,
	KeyFrameworks:        kindList,
	KeyRulePacks:         kindList,
	KeyRetryAttempts:     kindInt,
	KeyGitHubOwner:       kindString,
	KeyGitHubRepo:        kindString,
	KeyGitHubToken:       kindString,
	KeyGitHubLabels:      kindList,
	KeyNotionToken:       kindString,
	KeyNotionDatabase:    kindString,
	KeySheetsID:          kindString,
	KeySheetsCredentials: kindString,
	KeyLogVerbose:        kindBool,
	KeyLogJSON:           kindBool,
}

// IsSecretKey reports whether a key holds a credential.
func IsSecretKey(key string) bool {
	return key == KeyGitHubToken || key == KeyNotionToken
}

// MaskSecret hides all but the last four characters of a secret.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or out-of-range
// values fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		DataDir: s.configStore.GetString(KeyDataDir),
		Stories: domain.StorySettings{
			GroupByFeature: s.getBool(KeyGroupByFeature, defaults.Stories.GroupByFeature),
			DefaultRole:    s.getString(KeyDefaultRole, defaults.Stories.DefaultRole),
		},
		Export: domain.ExportSettings{
			HeadingLevel: s.getIntInRange(KeyHeadingLevel, defaults.Export.HeadingLevel, 2, 6),
			TaskLists:    s.getBool(KeyTaskLists, defaults.Export.TaskLists),
		},
		Compliance: domain.ComplianceSettings{
			Frameworks: s.getList(KeyFrameworks, defaults.Compliance.Frameworks),
			RulePacks:  s.configStore.GetStringSlice(KeyRulePacks),
		},
		RetryAttempts: s.getIntInRange(KeyRetryAttempts, defaults.RetryAttempts, 1, 10),
		GitHub: domain.GitHubSettings{
			Owner:  s.configStore.GetString(KeyGitHubOwner),
			Repo:   s.configStore.GetString(KeyGitHubRepo),
			Token:  s.configStore.GetString(KeyGitHubToken),
			Labels: s.configStore.GetStringSlice(KeyGitHubLabels),
		},
		Notion: domain.NotionSettings{
			Token:      s.configStore.GetString(KeyNotionToken),
			DatabaseID: s.configStore.GetString(KeyNotionDatabase),
		},
		Sheets: domain.SheetsSettings{
			SpreadsheetID:   s.configStore.GetString(KeySheetsID),
			CredentialsFile: s.configStore.GetString(KeySheetsCredentials),
		},
		Log: domain.LogSettings{
			Verbose: s.getBool(KeyLogVerbose, defaults.Log.Verbose),
			JSON:    s.getBool(KeyLogJSON, defaults.Log.JSON),
		},
	}

	return settings, nil
}

// Save persists application settings. Empty secrets are left untouched.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return domain.ErrInvalidInput
	}

	values := []struct {
		key   string
		value any
	}{
		{KeyDataDir, settings.DataDir},
		{KeyGroupByFeature, settings.Stories.GroupByFeature},
		{KeyDefaultRole, settings.Stories.DefaultRole},
		{KeyHeadingLevel, settings.Export.HeadingLevel},
		{KeyTaskLists, settings.Export.TaskLists},
		{KeyFrameworks, settings.Compliance.Frameworks},
		{KeyRulePacks, settings.Compliance.RulePacks},
		{KeyRetryAttempts, settings.RetryAttempts},
		{KeyGitHubOwner, settings.GitHub.Owner},
		{KeyGitHubRepo, settings.GitHub.Repo},
		{KeyGitHubToken, settings.GitHub.Token},
		{KeyGitHubLabels, settings.GitHub.Labels},
		{KeyNotionToken, settings.Notion.Token},
		{KeyNotionDatabase, settings.Notion.DatabaseID},
		{KeySheetsID, settings.Sheets.SpreadsheetID},
		{KeySheetsCredentials, settings.Sheets.CredentialsFile},
		{KeyLogVerbose, settings.Log.Verbose},
		{KeyLogJSON, settings.Log.JSON},
	}

	for _, v := range values {
		if IsSecretKey(v.key) && v.value == "" {
			continue
		}
		if list, ok := v.value.([]string); ok && list == nil {
			v.value = []string{}
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// Set parses value for key's type and persists it. Lists are comma
// separated.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s expects true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s expects a number", domain.ErrInvalidInput, key)
		}
		if err := checkRange(key, n); err != nil {
			return err
		}
		parsed = n
	case kindList:
		parsed = splitList(value)
	default:
		parsed = strings.TrimSpace(value)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists the recognised configuration keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Lookup returns the display value of a key, masking secrets.
func (s *SettingsService) Lookup(key string) (string, error) {
	if _, ok := settingKeys[key]; !ok {
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	settings, err := s.Get()
	if err != nil {
		return "", err
	}
	return displayValue(settings, key), nil
}

func displayValue(st *domain.AppSettings, key string) string {
	switch key {
	case KeyDataDir:
		return st.DataDir
	case KeyGroupByFeature:
		return strconv.FormatBool(st.Stories.GroupByFeature)
	case KeyDefaultRole:
		return st.Stories.DefaultRole
	case KeyHeadingLevel:
		return strconv.Itoa(st.Export.HeadingLevel)
	case KeyTaskLists:
		return strconv.FormatBool(st.Export.TaskLists)
	case KeyFrameworks:
		return strings.Join(st.Compliance.Frameworks, ",")
	case KeyRulePacks:
		return strings.Join(st.Compliance.RulePacks, ",")
	case KeyRetryAttempts:
		return strconv.Itoa(st.RetryAttempts)
	case KeyGitHubOwner:
		return st.GitHub.Owner
	case KeyGitHubRepo:
		return st.GitHub.Repo
	case KeyGitHubToken:
		return MaskSecret(st.GitHub.Token)
	case KeyGitHubLabels:
		return strings.Join(st.GitHub.Labels, ",")
	case KeyNotionToken:
		return MaskSecret(st.Notion.Token)
	case KeyNotionDatabase:
		return st.Notion.DatabaseID
	case KeySheetsID:
		return st.Sheets.SpreadsheetID
	case KeySheetsCredentials:
		return st.Sheets.CredentialsFile
	case KeyLogVerbose:
		return strconv.FormatBool(st.Log.Verbose)
	case KeyLogJSON:
		return strconv.FormatBool(st.Log.JSON)
	}
	return ""
}

func checkRange(key string, n int) error {
	switch key {
	case KeyHeadingLevel:
		if n < 2 || n > 6 {
			return fmt.Errorf("%w: %s must be between 2 and 6", domain.ErrInvalidInput, key)
		}
	case KeyRetryAttempts:
		if n < 1 || n > 10 {
			return fmt.Errorf("%w: %s must be between 1 and 10", domain.ErrInvalidInput, key)
		}
	}
	return nil
}

func splitList(value string) []string {
	out := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntInRange(key string, defaultVal, lo, hi int) int {
	val := s.configStore.GetInt(key)
	if val < lo || val > hi {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getList(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}
