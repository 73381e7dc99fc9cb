package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/magnet-finder/internal/config"
	"github.com/litescript/magnet-finder/internal/scraper"
)

const hash = "dd8255ecdc7ca55fb0bbf81323d87062db1f6d1c"

// fakeSearcher returns a canned outcome and records the last query.
type fakeSearcher struct {
	outcome scraper.Outcome
	last    scraper.Query
}

func (f *fakeSearcher) Trace(_ context.Context, q scraper.Query) scraper.Outcome {
	f.last = q
	out := f.outcome
	out.Query = q
	return out
}

func newTestModel(t *testing.T, s *fakeSearcher, copied *string) Model {
	t.Helper()
	cfg := config.Default()
	cfg.Search.Trackers = []string{"udp://t.example:1337"}
	return NewModel(cfg, nil,
		WithSearcher(s),
		WithClipboard(func(v string) error {
			*copied = v
			return nil
		}),
	)
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

func runSearch(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	require.True(t, m.searching)

	// run the search command directly rather than the batched spinner
	msg := m.doSearch()()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestSearchFlow(t *testing.T) {
	s := &fakeSearcher{outcome: scraper.Outcome{
		Status: scraper.StatusFound,
		Results: []scraper.Result{
			{Title: "Big Buck Bunny 1080p", InfoHash: hash, Seeders: 10, Tag: scraper.TagP1080},
			{Title: "Big Buck Bunny 720p", InfoHash: strings.Repeat("a", 40), Seeders: 2, Tag: scraper.TagOther},
		},
	}}
	var copied string
	m := newTestModel(t, s, &copied)

	m = typeText(m, "big buck bunny")
	m = runSearch(t, m)

	assert.False(t, m.searching)
	assert.Len(t, m.results, 2)
	assert.Equal(t, "big buck bunny", s.last.Text)
	assert.Equal(t, scraper.MoviesHD, s.last.Category)
	assert.Contains(t, m.statusMsg, "2 results")
	assert.False(t, m.searchInput.Focused(), "input blurs once results arrive")

	// move down then copy
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = next.(Model)
	assert.Equal(t, 1, m.cursor)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	m = next.(Model)
	require.NotNil(t, cmd)
	next, _ = m.Update(cmd())
	m = next.(Model)

	assert.True(t, strings.HasPrefix(copied, "magnet:?xt=urn:btih:"+strings.Repeat("a", 40)))
	assert.Contains(t, copied, "&tr=udp%3A%2F%2Ft.example%3A1337")
	assert.Contains(t, m.statusMsg, "Magnet copied")
}

func TestNoResultsStatus(t *testing.T) {
	s := &fakeSearcher{outcome: scraper.Outcome{Status: scraper.StatusNoResults, Results: []scraper.Result{}}}
	var copied string
	m := newTestModel(t, s, &copied)

	// 1080p out of the box
	assert.Equal(t, scraper.Res1080p, m.query.Resolution)

	m = typeText(m, "obscure")
	m = runSearch(t, m)

	assert.Equal(t, "No 1080p results. Try broader category or another filter.", m.statusMsg)
	assert.False(t, m.statusErr)
	assert.True(t, m.searchInput.Focused())
}

func TestUnreachableStatus(t *testing.T) {
	s := &fakeSearcher{outcome: scraper.Outcome{Status: scraper.StatusUnreachable}}
	var copied string
	m := newTestModel(t, s, &copied)

	m = typeText(m, "x")
	m = runSearch(t, m)

	assert.True(t, m.statusErr)
	assert.Contains(t, m.statusMsg, "unreachable")
}

func TestStaleResultsIgnored(t *testing.T) {
	s := &fakeSearcher{outcome: scraper.Outcome{Status: scraper.StatusFound, Results: []scraper.Result{{Title: "Old", InfoHash: hash}}}}
	var copied string
	m := newTestModel(t, s, &copied)

	m = typeText(m, "x")
	m, _ = press(m, tea.KeyEnter)
	stale := m.doSearch()()

	m, _ = press(m, tea.KeyEnter)
	next, _ := m.Update(stale.(searchResultMsg))
	m = next.(Model)
	assert.Empty(t, m.results)
}

func TestCategoryToggleCycles(t *testing.T) {
	var copied string
	m := newTestModel(t, &fakeSearcher{}, &copied)

	seen := []scraper.Category{m.query.Category}
	for i := 0; i < 3; i++ {
		m, _ = press(m, tea.KeyTab)
		seen = append(seen, m.query.Category)
	}
	assert.Equal(t, []scraper.Category{scraper.MoviesHD, scraper.TVHD, scraper.AllVideo, scraper.MoviesHD}, seen)
}

func TestResolutionToggleCycles(t *testing.T) {
	var copied string
	m := newTestModel(t, &fakeSearcher{}, &copied)

	seen := []scraper.Resolution{m.query.Resolution}
	for i := 0; i < 3; i++ {
		m, _ = press(m, tea.KeyShiftTab)
		seen = append(seen, m.query.Resolution)
	}
	assert.Equal(t, []scraper.Resolution{scraper.Res1080p, scraper.Res4K, scraper.ResAny, scraper.Res1080p}, seen)
}

func TestEmptyQueryDoesNotSearch(t *testing.T) {
	var copied string
	m := newTestModel(t, &fakeSearcher{}, &copied)

	m, cmd := press(m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.False(t, m.searching)
	assert.True(t, m.statusErr)
}

func TestSendToQbitDisabled(t *testing.T) {
	s := &fakeSearcher{outcome: scraper.Outcome{Status: scraper.StatusFound, Results: []scraper.Result{{Title: "A", InfoHash: hash}}}}
	var copied string
	m := newTestModel(t, s, &copied)
	m = typeText(m, "a")
	m = runSearch(t, m)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	m = next.(Model)
	require.NotNil(t, cmd)
	next, _ = m.Update(cmd())
	m = next.(Model)

	assert.True(t, m.statusErr)
	assert.Contains(t, m.statusMsg, "disabled")
}

func TestClipboardError(t *testing.T) {
	next, _ := Model{sent: map[string]bool{}}.Update(copiedMsg{err: errors.New("no display")})
	m := next.(Model)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.statusMsg, "no display")
}

func TestNewModelWithoutMetrics(t *testing.T) {
	m := NewModel(config.Default(), nil)
	defer m.cancel()

	p, ok := m.searcher.(*scraper.Pipeline)
	require.True(t, ok)
	assert.Nil(t, p.Metrics)

	next, _ := m.Update(ConfigReloadedMsg{Config: config.Default()})
	p, ok = next.(Model).searcher.(*scraper.Pipeline)
	require.True(t, ok)
	assert.Nil(t, p.Metrics)
}

func TestConfigReload(t *testing.T) {
	var copied string
	m := newTestModel(t, &fakeSearcher{}, &copied)

	cfg := config.Default()
	cfg.Search.Trackers = []string{"udp://new.example:1"}
	cfg.QBittorrent.Enabled = true

	next, _ := m.Update(ConfigReloadedMsg{Config: cfg})
	m = next.(Model)

	assert.Equal(t, []string{"udp://new.example:1"}, m.trackers)
	assert.NotNil(t, m.qbit)
	assert.Equal(t, "Config reloaded", m.statusMsg)
	_, custom := m.searcher.(*fakeSearcher)
	assert.True(t, custom, "custom searcher survives reload")
}

func TestViewRenders(t *testing.T) {
	s := &fakeSearcher{outcome: scraper.Outcome{Status: scraper.StatusFound, Results: []scraper.Result{
		{Title: "Sintel 2160p", InfoHash: hash, Seeders: 3, Size: 1 << 30, Tag: scraper.TagP4K, Relevance: 0.5},
	}}}
	var copied string
	m := newTestModel(t, s, &copied)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m = next.(Model)
	m = typeText(m, "sintel")
	m = runSearch(t, m)

	view := m.View()
	assert.Contains(t, view, "Sintel 2160p")
	assert.Contains(t, view, "1.0 GiB")
	assert.Contains(t, view, "4K")
	assert.Contains(t, view, "magnet:?xt=urn:btih:"+hash)
}
