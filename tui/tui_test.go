package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/rickabrac/rickbot/crawler"
	"github.com/rickabrac/rickbot/output"
)

func TestNewModel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventCh := make(chan crawler.CrawlEvent, 10)
	coord := crawler.NewCoordinator(crawler.DefaultConfig("https://example.com"), nil, output.NewWriterSink(nil))

	model := NewModel(ctx, cancel, coord, "https://example.com", eventCh)

	assert.Equal(t, ctx, model.ctx)
	assert.NotNil(t, model.cancel)
	assert.Same(t, coord, model.coordinator)
	assert.False(t, model.done)
}

func TestUpdateCrawlEvent(t *testing.T) {
	model := Model{eventCh: make(chan crawler.CrawlEvent, 10)}

	ev := crawler.CrawlEvent{URL: "https://example.com/page", Host: "example.com", WorkerCount: 2, LocalRate: 1.5, GlobalRate: 2.5, GlobalCount: 7}
	updatedModel, cmd := model.Update(ev)
	updated := updatedModel.(Model)

	assert.Equal(t, "https://example.com/page", updated.currentURL)
	assert.Equal(t, "example.com", updated.currentHost)
	assert.Equal(t, 2, updated.workerCount)
	assert.Equal(t, 7, updated.pagesSeen)
	assert.NotNil(t, cmd)
}

func TestUpdateCrawlEventError(t *testing.T) {
	model := Model{eventCh: make(chan crawler.CrawlEvent, 10), localRate: 4.0, pagesSeen: 5}

	ev := crawler.CrawlEvent{URL: "https://example.com/broken", Host: "example.com", StatusCode: 500, Error: "status 500"}
	updatedModel, _ := model.Update(ev)
	updated := updatedModel.(Model)

	assert.Equal(t, "https://example.com/broken", updated.currentURL)
	assert.Equal(t, "status 500", updated.currentErr)
	assert.Equal(t, 4.0, updated.localRate, "an error event must not clobber the last observed rate")
	assert.Equal(t, 5, updated.pagesSeen)

	out := updated.View()
	assert.Contains(t, out, "status 500")
}

func TestUpdateCrawlDoneMsg(t *testing.T) {
	model := Model{}
	updatedModel, _ := model.Update(CrawlDoneMsg{Count: 12})
	updated := updatedModel.(Model)

	assert.True(t, updated.done)
	assert.Equal(t, 12, updated.count)
}

func TestUpdateSpinnerTick(t *testing.T) {
	model := Model{}
	updatedModel, _ := model.Update(spinner.TickMsg{})
	_ = updatedModel.(Model)
}

func TestUpdateWindowSize(t *testing.T) {
	model := Model{}
	updatedModel, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	updated := updatedModel.(Model)
	assert.Equal(t, 120, updated.width)
}

func TestViewInProgress(t *testing.T) {
	model := Model{currentURL: "https://example.com/checking", workerCount: 3}
	out := model.View()
	assert.Contains(t, out, "workers")
}

func TestViewDoneWithCount(t *testing.T) {
	model := Model{done: true, count: 9}
	out := model.View()
	assert.Contains(t, out, "9 pages crawled")
}

func TestViewDoneWithError(t *testing.T) {
	model := Model{done: true, err: context.Canceled}
	out := model.View()
	assert.True(t, strings.Contains(out, "Error"))
}

func TestRenderSummaryNilResult(t *testing.T) {
	out := RenderSummary(nil)
	assert.NotEmpty(t, out)
}

func TestRenderSummaryNoErrors(t *testing.T) {
	res := &output.Result{Stats: output.Stats{PagesCrawled: 10, Duration: 2 * time.Second}}
	out := RenderSummary(res)
	assert.Contains(t, out, "No errors encountered")
}

func TestRenderSummaryWithErrors(t *testing.T) {
	res := &output.Result{
		Pages: []output.PageReport{
			{URL: "https://example.com/dead", StatusCode: 404, Category: output.Category4xx, Host: "example.com"},
			{URL: "https://example.com/err", Error: "connection refused", Category: output.CategoryConnectionRefused, Host: "example.com"},
		},
		Stats: output.Stats{PagesCrawled: 25, Duration: 3 * time.Second},
	}
	out := RenderSummary(res)
	assert.Contains(t, out, "example.com/dead")
	assert.Contains(t, out, "404")
	assert.Contains(t, out, "connection refused")
	assert.Contains(t, out, "2 with errors")
}
