// Package sheets publishes the export workbook to a Google Sheets
// spreadsheet, one tab per workbook sheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
	"github.com/custodia-labs/reqtrace/internal/formatters/spreadsheet"
	"github.com/custodia-labs/reqtrace/internal/logger"
	"github.com/custodia-labs/reqtrace/internal/retry"
)

// Name is the destination name.
const Name = "sheets"

// Ensure Publisher implements the interface.
var _ driven.Publisher = (*Publisher)(nil)

// Option configures a Publisher.
type Option func(*Publisher)

// WithClientOptions replaces the credentials-file authentication with the
// given API client options.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(p *Publisher) { p.clientOpts = opts }
}

// WithRetryPolicy replaces the retry policy for transient failures.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(p *Publisher) { p.policy = policy }
}

// Publisher rewrites spreadsheet tabs from an export bundle.
type Publisher struct {
	settings   domain.SheetsSettings
	clientOpts []option.ClientOption
	policy     retry.Policy
}

// NewPublisher creates a Google Sheets publisher.
func NewPublisher(settings domain.SheetsSettings, opts ...Option) *Publisher {
	p := &Publisher{
		settings: settings,
		policy:   retry.NewPolicy(retry.DefaultMaxAttempts),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the destination name.
func (p *Publisher) Name() string {
	return Name
}

// Publish clears and rewrites one tab per workbook sheet. Missing tabs are
// added first and counted as created; rewritten tabs count as updated.
func (p *Publisher) Publish(ctx context.Context, bundle *domain.ExportBundle) (*driven.PublishReport, error) {
	if !p.settings.IsConfigured() {
		return nil, fmt.Errorf("sheets needs spreadsheet_id and credentials_file: %w", domain.ErrPublisherNotConfigured)
	}
	if bundle == nil {
		return nil, domain.ErrInvalidInput
	}

	opts := p.clientOpts
	if len(opts) == 0 {
		opts = []option.ClientOption{
			option.WithCredentialsFile(p.settings.CredentialsFile),
			option.WithScopes(gsheets.SpreadsheetsScope),
		}
	}
	srv, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}

	id := p.settings.SpreadsheetID
	wb := spreadsheet.BuildWorkbook(bundle)

	existing, err := p.tabs(ctx, srv, id)
	if err != nil {
		return nil, err
	}

	report := &driven.PublishReport{Destination: Name}
	var missing []*gsheets.Request
	for _, sheet := range wb.Sheets {
		if !existing[sheet.Name] {
			missing = append(missing, &gsheets.Request{
				AddSheet: &gsheets.AddSheetRequest{
					Properties: &gsheets.SheetProperties{Title: sheet.Name},
				},
			})
		}
	}
	if len(missing) > 0 {
		err := p.call(ctx, "sheets: add tabs", func(ctx context.Context) error {
			_, err := srv.Spreadsheets.BatchUpdate(id, &gsheets.BatchUpdateSpreadsheetRequest{Requests: missing}).
				Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("adding tabs: %w", err)
		}
		report.Created = len(missing)
	}

	for _, sheet := range wb.Sheets {
		if err := p.writeSheet(ctx, srv, id, sheet); err != nil {
			return report, err
		}
		if existing[sheet.Name] {
			report.Updated++
		}
	}

	report.URLs = []string{SpreadsheetURL(id)}
	logger.Info("sheets: wrote %d tabs to %s", len(wb.Sheets), id)
	return report, nil
}

// SpreadsheetURL returns the browser URL of a spreadsheet.
func SpreadsheetURL(id string) string {
	return "https://docs.google.com/spreadsheets/d/" + id + "/edit"
}

func (p *Publisher) tabs(ctx context.Context, srv *gsheets.Service, id string) (map[string]bool, error) {
	var ss *gsheets.Spreadsheet
	err := p.call(ctx, "sheets: get spreadsheet", func(ctx context.Context) error {
		var err error
		ss, err = srv.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reading spreadsheet %s: %w", id, err)
	}

	tabs := make(map[string]bool, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			tabs[s.Properties.Title] = true
		}
	}
	return tabs, nil
}

func (p *Publisher) writeSheet(ctx context.Context, srv *gsheets.Service, id string, sheet spreadsheet.Sheet) error {
	tab := quoteTab(sheet.Name)
	err := p.call(ctx, "sheets: clear "+sheet.Name, func(ctx context.Context) error {
		_, err := srv.Spreadsheets.Values.Clear(id, tab, &gsheets.ClearValuesRequest{}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("clearing %s: %w", sheet.Name, err)
	}

	values := sheet.Values()
	grid := make([][]interface{}, len(values))
	for i, row := range values {
		grid[i] = make([]interface{}, len(row))
		for j, cell := range row {
			grid[i][j] = cell
		}
	}

	err = p.call(ctx, "sheets: update "+sheet.Name, func(ctx context.Context) error {
		_, err := srv.Spreadsheets.Values.Update(id, tab+"!A1", &gsheets.ValueRange{Values: grid}).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", sheet.Name, err)
	}
	logger.Debug("sheets: %s has %d rows", sheet.Name, len(sheet.Rows))
	return nil
}

func (p *Publisher) call(ctx context.Context, name string, op func(context.Context) error) error {
	return p.policy.Do(ctx, name, func(ctx context.Context) error {
		err := op(ctx)
		if err != nil && !IsTransient(err) {
			return retry.Permanent(err)
		}
		return err
	})
}

// IsTransient reports whether err is a quota or server error.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return true
}

// quoteTab quotes a tab name for A1 notation.
func quoteTab(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
