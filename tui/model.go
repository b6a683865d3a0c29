// Package tui provides an optional Bubble Tea live dashboard for rickbot,
// layered on top of the coordinator's CrawlEvent stream without replacing
// the bit-stable stdout log lines spec.md §6 mandates.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rickabrac/rickbot/crawler"
	"github.com/rickabrac/rickbot/output"
)

// Model is the Bubble Tea model for the crawl dashboard.
type Model struct {
	ctx         context.Context
	cancel      context.CancelFunc
	coordinator *crawler.Coordinator
	seedURL     string
	spinner     spinner.Model
	eventCh     <-chan crawler.CrawlEvent

	currentURL  string
	currentHost string
	currentErr  string
	workerCount int
	localRate   float64
	globalRate  float64
	pagesSeen   int

	quitting bool
	done     bool
	count    int
	err      error
	width    int
}

// NewModel creates a TUI model wired to the given coordinator and event
// channel. coordinator.SetEventChannel(eventCh) must already have been
// called by the caller.
func NewModel(ctx context.Context, cancel context.CancelFunc, coordinator *crawler.Coordinator, seedURL string, eventCh <-chan crawler.CrawlEvent) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		ctx:         ctx,
		cancel:      cancel,
		coordinator: coordinator,
		seedURL:     seedURL,
		spinner:     spin,
		eventCh:     eventCh,
	}
}

// Init starts the spinner, the crawl itself, and the event listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startCrawl(), waitForEvent(m.eventCh))
}

func (m Model) startCrawl() tea.Cmd {
	return func() tea.Msg {
		count, err := m.coordinator.Run(m.ctx, m.seedURL)
		return CrawlDoneMsg{Count: count, Err: err}
	}
}

// Update handles messages from the Bubble Tea runtime.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case crawler.CrawlEvent:
		m.currentURL = msg.URL
		m.currentHost = msg.Host
		m.currentErr = msg.Error
		m.workerCount = msg.WorkerCount
		if msg.Error == "" {
			m.localRate = msg.LocalRate
			m.globalRate = msg.GlobalRate
			m.pagesSeen = msg.GlobalCount
		}
		return m, waitForEvent(m.eventCh)

	case CrawlDoneMsg:
		m.done = true
		m.count = msg.Count
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current dashboard state.
func (m Model) View() string {
	if m.done && m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	if m.done {
		return successStyle.Render(fmt.Sprintf("%d pages crawled.", m.count)) + "\n"
	}
	status := dimStyle.Render("  " + m.currentHost + " " + m.currentURL)
	if m.currentErr != "" {
		status = errorStyle.Render("  " + m.currentHost + " " + m.currentURL + ": " + m.currentErr)
	}
	return fmt.Sprintf("%s %d pages · %d workers · %.1f/%.1f pages/s\n%s\n",
		m.spinner.View(), m.pagesSeen, m.workerCount, m.localRate, m.globalRate, status)
}

// Done reports whether the crawl has finished.
func (m Model) Done() bool {
	return m.done
}

// Err returns the fatal error from the run, if any.
func (m Model) Err() error {
	return m.err
}

// Count returns the final pages-crawled count.
func (m Model) Count() int {
	return m.count
}

// Result returns the structured per-page report for -o/--json/--csv output.
func (m Model) Result() *output.Result {
	return m.coordinator.Result()
}
