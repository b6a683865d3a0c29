package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rickabrac/rickbot/crawler"
)

// CrawlDoneMsg signals that Coordinator.Run has returned.
type CrawlDoneMsg struct {
	Count int
	Err   error
}

// waitForEvent returns a tea.Cmd that reads one CrawlEvent from ch. When the
// channel closes it returns nil, letting Update stop re-subscribing.
func waitForEvent(ch <-chan crawler.CrawlEvent) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return evt
	}
}
