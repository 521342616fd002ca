package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/reqtrace/internal/adapters/driving/tui/components/detail"
	"github.com/custodia-labs/reqtrace/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/reqtrace/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/reqtrace/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/reqtrace/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/reqtrace/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// App is the findings browser following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap

	list   *list.FindingList
	detail *detail.Pane
	bar    *status.Bar

	// all holds every loaded finding; the list shows the filtered subset.
	all []domain.ComplianceFinding

	// filters are the framework names the tab key cycles through.
	// Index 0 is the empty filter showing every framework.
	filters    []string
	filter     int
	failedOnly bool

	showHelp bool
	err      error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	filters := []string{""}
	for _, f := range ports.Compliance.Frameworks() {
		filters = append(filters, f.Name)
	}

	return &App{
		ports:   ports,
		ctx:     context.Background(),
		styles:  s,
		keys:    km,
		list:    list.NewFindingList(s),
		detail:  detail.NewPane(s),
		bar:     status.NewBar(s, km),
		filters: filters,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model. It starts loading findings.
func (a *App) Init() tea.Cmd {
	a.bar.SetState(status.StateLoading)
	return tea.Batch(
		tea.SetWindowTitle("reqtrace - Compliance Findings"),
		a.loadFindings(),
	)
}

// loadFindings fetches the newest findings of every framework.
func (a *App) loadFindings() tea.Cmd {
	return func() tea.Msg {
		findings, err := a.ports.Compliance.Findings(a.ctx, "")
		return messages.FindingsLoaded{Findings: findings, Err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.layout()
		return a, nil

	case messages.FindingsLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			a.bar.SetState(status.StateError)
			a.bar.SetMessage(msg.Err.Error())
			return a, nil
		}
		a.err = nil
		a.all = msg.Findings
		a.addFilters(msg.Findings)
		a.bar.SetState(status.StateReady)
		a.bar.SetMessage("")
		a.apply()
		return a, nil

	case messages.ReloadRequested:
		a.bar.SetState(status.StateLoading)
		return a, a.loadFindings()

	case messages.FilterChanged:
		a.setFilter(msg.Framework)
		a.apply()
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.bar.SetState(status.StateError)
		a.bar.SetMessage(msg.Error())
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()

	switch {
	case keymap.Matches(k, a.keys.Quit):
		return a, tea.Quit

	case keymap.Matches(k, a.keys.Help):
		a.showHelp = !a.showHelp
		if a.showHelp {
			a.bar.SetState(status.StateHelp)
		} else {
			a.bar.SetState(status.StateReady)
		}
		return a, nil

	case msg.Type == tea.KeyEsc && a.showHelp:
		a.showHelp = false
		a.bar.SetState(status.StateReady)
		return a, nil

	case keymap.Matches(k, a.keys.Reload):
		return a, func() tea.Msg { return messages.ReloadRequested{} }

	case keymap.Matches(k, a.keys.Filter):
		next := a.filters[(a.filter+1)%len(a.filters)]
		return a, func() tea.Msg { return messages.FilterChanged{Framework: next} }

	case keymap.Matches(k, a.keys.FailedOnly):
		a.failedOnly = !a.failedOnly
		a.apply()
		return a, nil
	}

	var cmd tea.Cmd
	a.list, cmd = a.list.Update(msg)
	a.detail.SetFinding(a.list.SelectedFinding())
	return a, cmd
}

// addFilters appends frameworks seen in findings but missing from the catalog.
func (a *App) addFilters(findings []domain.ComplianceFinding) {
	known := make(map[string]bool, len(a.filters))
	for _, f := range a.filters {
		known[f] = true
	}
	var extra []string
	for _, f := range findings {
		if !known[f.Framework] {
			known[f.Framework] = true
			extra = append(extra, f.Framework)
		}
	}
	sort.Strings(extra)
	a.filters = append(a.filters, extra...)
}

func (a *App) setFilter(framework string) {
	for i, f := range a.filters {
		if f == framework {
			a.filter = i
			return
		}
	}
	a.filter = 0
}

// apply refreshes the list from the loaded findings and current filters.
func (a *App) apply() {
	framework := a.filters[a.filter]
	shown := make([]domain.ComplianceFinding, 0, len(a.all))
	for _, f := range a.all {
		if framework != "" && f.Framework != framework {
			continue
		}
		if a.failedOnly && f.Status != domain.FindingFail {
			continue
		}
		shown = append(shown, f)
	}

	a.list.SetFindings(shown)
	a.detail.SetFinding(a.list.SelectedFinding())
	a.bar.SetCount(len(shown))
	label := framework
	if a.failedOnly {
		if label == "" {
			label = "all frameworks"
		}
		label += ", failed only"
	}
	a.bar.SetFilter(label)
}

func (a *App) layout() {
	bodyHeight := a.height - 3
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	listWidth := a.width * 55 / 100
	a.list.SetDimensions(listWidth, bodyHeight)
	a.detail.SetDimensions(a.width-listWidth-1, bodyHeight)
	a.bar.SetWidth(a.width)
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	header := a.styles.Title.Render("reqtrace findings")
	var body string
	if a.showHelp {
		body = a.helpView()
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, a.list.View(), " ", a.detail.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, a.bar.View())
}

func (a *App) helpView() string {
	var b strings.Builder
	b.WriteString(a.styles.Subtitle.Render("Keys") + "\n\n")
	for _, group := range a.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-8s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	return a.styles.Help.Render(b.String())
}

// Filter returns the current framework filter. Empty means all.
func (a *App) Filter() string {
	return a.filters[a.filter]
}

// Shown returns the findings currently listed.
func (a *App) Shown() []domain.ComplianceFinding {
	return a.list.Findings()
}

// Err returns the last load error.
func (a *App) Err() error {
	return a.err
}
