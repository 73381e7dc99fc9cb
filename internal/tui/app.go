// Package tui implements the terminal user interface using Bubble Tea.
// It runs searches through the scraper pipeline, renders the result table
// and hands the selected magnet to the clipboard or to qBittorrent.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/magnet-finder/internal/config"
	"github.com/litescript/magnet-finder/internal/logging"
	"github.com/litescript/magnet-finder/internal/magnet"
	"github.com/litescript/magnet-finder/internal/metrics"
	"github.com/litescript/magnet-finder/internal/qbit"
	"github.com/litescript/magnet-finder/internal/scraper"
	"github.com/litescript/magnet-finder/internal/theme"
)

var (
	categories  = []scraper.Category{scraper.MoviesHD, scraper.TVHD, scraper.AllVideo}
	resolutions = []scraper.Resolution{scraper.ResAny, scraper.Res1080p, scraper.Res4K}
)

// Searcher runs one search. *scraper.Pipeline satisfies it.
type Searcher interface {
	Trace(ctx context.Context, q scraper.Query) scraper.Outcome
}

// Model is the main application state
type Model struct {
	cfg      config.Config
	searcher Searcher
	trackers []string
	qbit     *qbit.Client
	copyFn   func(string) error

	// Components
	searchInput textinput.Model
	spinner     spinner.Model

	// State
	query     scraper.Query
	results   []scraper.Result
	cursor    int
	searching bool
	searchSeq int
	statusMsg string
	statusErr bool
	sent      map[string]bool

	ctx    context.Context
	cancel context.CancelFunc

	// Dimensions
	width  int
	height int
}

// Messages
type searchResultMsg struct {
	seq     int
	outcome scraper.Outcome
}

type copiedMsg struct {
	title string
	err   error
}

type torrentAddedMsg struct {
	hash  string
	title string
	err   error
}

// ConfigReloadedMsg is sent by the config watcher when the file changes.
type ConfigReloadedMsg struct {
	Config config.Config
	Err    error
}

// Option customizes a Model.
type Option func(*Model)

// WithSearcher replaces the pipeline built from the config.
func WithSearcher(s Searcher) Option {
	return func(m *Model) { m.searcher = s }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) { m.copyFn = fn }
}

// NewModel creates the initial model
func NewModel(cfg config.Config, m *metrics.Metrics, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Search movies and shows..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.CurrentPalette().Accent))

	ctx, cancel := context.WithCancel(context.Background())

	model := Model{
		searchInput: ti,
		spinner:     sp,
		copyFn:      clipboard.WriteAll,
		sent:        make(map[string]bool),
		ctx:         ctx,
		cancel:      cancel,
		statusMsg:   "Type a title and press enter",
	}
	model.applyConfig(cfg, m)

	for _, opt := range opts {
		opt(&model)
	}
	return model
}

// applyConfig rebuilds everything derived from the config. On reload met is
// nil and the previous pipeline's metrics are kept. A custom searcher
// installed with WithSearcher is never replaced.
func (m *Model) applyConfig(cfg config.Config, met *metrics.Metrics) {
	initial := m.searcher == nil
	m.cfg = cfg
	m.trackers = cfg.Trackers()
	if initial {
		m.query = cfg.DefaultQuery()
	}

	if cfg.QBittorrent.Enabled {
		m.qbit = qbit.NewClient(cfg.QBittorrent.Host, cfg.QBittorrent.Port, cfg.QBittorrent.Username, cfg.QBittorrent.Password)
	} else {
		m.qbit = nil
	}

	old, isPipeline := m.searcher.(*scraper.Pipeline)
	if !initial && !isPipeline {
		return
	}
	if met == nil && old != nil {
		met = old.Metrics
	}

	reg, err := cfg.Registry()
	if err != nil {
		logging.Warn().Err(err).Msg("invalid endpoints in config")
		if !initial {
			return
		}
		reg = scraper.DefaultRegistry()
	}
	timeouts, err := cfg.Timeouts()
	if err != nil {
		logging.Warn().Err(err).Msg("using default timeouts")
		timeouts = scraper.DefaultTimeouts()
	}

	p := scraper.NewPipeline(reg, timeouts, met)
	if cfg.Search.MaxResults > 0 {
		p.MaxResults = cfg.Search.MaxResults
	}
	m.searcher = p
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.searchInput.Width = max(20, msg.Width-30)
		return m, nil

	case spinner.TickMsg:
		if !m.searching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case searchResultMsg:
		if msg.seq != m.searchSeq {
			// superseded by a newer search
			return m, nil
		}
		m.searching = false
		m.results = msg.outcome.Results
		m.cursor = 0
		m.statusMsg, m.statusErr = statusFor(msg.outcome)
		if len(m.results) > 0 {
			m.searchInput.Blur()
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Clipboard unavailable: %v", msg.err))
		} else {
			m.setStatus("Magnet copied: " + msg.title)
		}
		return m, nil

	case torrentAddedMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("qBittorrent: %v", msg.err))
		} else {
			m.sent[msg.hash] = true
			m.setStatus("Sent to qBittorrent: " + msg.title)
		}
		return m, nil

	case ConfigReloadedMsg:
		theme.Refresh()
		if msg.Err != nil {
			m.setError(fmt.Sprintf("Config not reloaded: %v", msg.Err))
			return m, nil
		}
		m.applyConfig(msg.Config, nil)
		m.setStatus("Config reloaded")
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global keys
	switch key {
	case "ctrl+c":
		return m.quit()
	case "tab":
		m.query.Category = next(categories, m.query.Category)
		return m, nil
	case "shift+tab":
		m.query.Resolution = next(resolutions, m.query.Resolution)
		return m, nil
	}

	if m.searchInput.Focused() {
		switch key {
		case "enter":
			return m.startSearch()
		case "esc":
			m.searchInput.Blur()
			return m, nil
		case "ctrl+u":
			m.searchInput.SetValue("")
			return m, nil
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	switch key {
	case "q":
		return m.quit()
	case "/", "i":
		m.searchInput.Focus()
		return m, textinput.Blink
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		if len(m.results) > 0 {
			m.cursor = len(m.results) - 1
		}
	case "r":
		return m.startSearch()
	case "c", "enter", "y":
		return m, m.copyMagnet()
	case "d":
		return m, m.sendToQbit()
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	return m, tea.Quit
}

func (m Model) startSearch() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.searchInput.Value())
	if text == "" {
		m.setError("Enter something to search for")
		return m, nil
	}
	m.query.Text = text
	m.searchSeq++
	m.searching = true
	m.statusErr = false
	m.statusMsg = fmt.Sprintf("Searching %s for %q...", m.query.Category.Label(), text)
	return m, tea.Batch(m.spinner.Tick, m.doSearch())
}

func (m *Model) setStatus(s string) {
	m.statusMsg = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.statusMsg = s
	m.statusErr = true
}

func next[T comparable](list []T, cur T) T {
	for i, v := range list {
		if v == cur {
			return list[(i+1)%len(list)]
		}
	}
	return list[0]
}

// statusFor words the outcome for the status bar.
func statusFor(o scraper.Outcome) (string, bool) {
	switch o.Status {
	case scraper.StatusFound:
		return fmt.Sprintf("%d results for %q (%s, %s)",
			len(o.Results), o.Query.Text, o.Query.Category.Label(), o.Query.Resolution.Label()), false
	case scraper.StatusUnreachable:
		return "All mirrors unreachable. Check your connection or the endpoint list.", true
	}
	return fmt.Sprintf("No %s results. Try broader category or another filter.", o.Query.Resolution.Label()), false
}

// Commands
func (m Model) doSearch() tea.Cmd {
	q := m.query
	seq := m.searchSeq
	s := m.searcher
	ctx := m.ctx

	return func() tea.Msg {
		return searchResultMsg{seq: seq, outcome: s.Trace(ctx, q)}
	}
}

func (m Model) selected() (scraper.Result, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return scraper.Result{}, false
	}
	return m.results[m.cursor], true
}

func (m Model) magnetFor(r scraper.Result) string {
	return magnet.Build(r.InfoHash, r.Title, m.trackers)
}

func (m Model) copyMagnet() tea.Cmd {
	r, ok := m.selected()
	if !ok {
		return nil
	}
	uri := m.magnetFor(r)
	copyFn := m.copyFn

	return func() tea.Msg {
		return copiedMsg{title: r.Title, err: copyFn(uri)}
	}
}

func (m Model) sendToQbit() tea.Cmd {
	r, ok := m.selected()
	if !ok {
		return nil
	}
	client := m.qbit
	if client == nil {
		return func() tea.Msg {
			return torrentAddedMsg{err: fmt.Errorf("disabled; set [qbittorrent] enabled = true in %s", config.ConfigPath())}
		}
	}
	uri := m.magnetFor(r)
	savePath := m.cfg.QBittorrent.SavePath
	ctx := m.ctx

	return func() tea.Msg {
		err := client.AddMagnet(ctx, uri, savePath)
		return torrentAddedMsg{hash: r.InfoHash, title: r.Title, err: err}
	}
}

// View renders the UI
func (m Model) View() string {
	styles := GetStyles()

	var b strings.Builder

	b.WriteString(styles.Title.Render("magnet-finder"))
	b.WriteString("\n\n")

	prompt := styles.SearchPrompt.Render("> ")
	b.WriteString(prompt + m.searchInput.View())
	if m.searching {
		b.WriteString("  " + m.spinner.View())
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderToggles())
	b.WriteString("\n\n")

	// title, input, toggles, magnet line and status take ~10 rows
	tableHeight := m.height - 10
	if tableHeight < 5 {
		tableHeight = 5
	}
	b.WriteString(m.renderResults(tableHeight))
	b.WriteString("\n")

	if r, ok := m.selected(); ok {
		b.WriteString(styles.Magnet.Render(TruncateString(m.magnetFor(r), max(20, m.width-2))))
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderToggles() string {
	styles := GetStyles()

	var parts []string
	for _, c := range categories {
		if c == m.query.Category {
			parts = append(parts, styles.ToggleActive.Render(c.Label()))
		} else {
			parts = append(parts, styles.Toggle.Render(c.Label()))
		}
	}
	parts = append(parts, styles.Muted.Render("│"))
	for _, r := range resolutions {
		label := r.Label()
		if r == scraper.ResAny {
			label = "Any"
		}
		if r == m.query.Resolution {
			parts = append(parts, styles.ToggleActive.Render(label))
		} else {
			parts = append(parts, styles.Toggle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) renderResults(height int) string {
	styles := GetStyles()

	if len(m.results) == 0 {
		return styles.Muted.Render("  No results")
	}

	const (
		sizeW  = 10
		seedW  = 6
		leechW = 6
		tagW   = 6
		matchW = 5
	)
	width := m.width
	if width == 0 {
		width = 100
	}
	nameW := width - 2 - sizeW - seedW - leechW - tagW - matchW - 5 - 2
	if nameW < 20 {
		nameW = 20
	}

	var b strings.Builder
	header := "  " + strings.Join([]string{
		PadRight("NAME", nameW),
		PadLeft("SIZE", sizeW),
		PadLeft("SEED", seedW),
		PadLeft("LEECH", leechW),
		PadLeft("TAG", tagW),
		PadRight("MATCH", matchW),
	}, " ")
	b.WriteString(styles.TableHeader.Render(header))
	b.WriteString("\n")

	visibleRows := height - 3
	if visibleRows < 1 {
		visibleRows = 1
	}
	startIdx := 0
	if m.cursor >= visibleRows {
		startIdx = m.cursor - visibleRows + 1
	}
	endIdx := min(startIdx+visibleRows, len(m.results))

	for i := startIdx; i < endIdx; i++ {
		r := m.results[i]
		row := strings.Join([]string{
			PadRight(r.Title, nameW),
			PadLeft(scraper.HumanSize(r.Size), sizeW),
			PadLeft(fmt.Sprintf("%d", r.Seeders), seedW),
			PadLeft(fmt.Sprintf("%d", r.Leechers), leechW),
			tagStyle(r.Tag).Render(PadLeft(r.Tag.String(), tagW)),
			relevanceBar(r.Relevance, matchW),
		}, " ")

		prefix := "  "
		if m.sent[r.InfoHash] {
			prefix = styles.Success.Render("✓ ")
		}
		if i == m.cursor {
			b.WriteString(prefix + styles.TableSelected.Render(row))
		} else {
			b.WriteString(prefix + styles.TableRow.Render(row))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderStatusBar() string {
	styles := GetStyles()

	var modeStr string
	if m.searchInput.Focused() {
		modeStr = styles.Success.Render("INPUT")
	} else {
		modeStr = styles.Tag1080.Render("CMD")
	}

	status := m.statusMsg
	if m.statusErr {
		status = styles.Error.Render(status)
	}

	var help string
	if m.searchInput.Focused() {
		help = "[enter]Search [tab]Category [shift+tab]Resolution [esc]CMD"
	} else {
		help = "[/]Search [j/k]Move [c]Copy magnet [d]qBittorrent [r]Retry [q]Quit"
	}

	qb := styles.Muted.Render("qBit off")
	if m.qbit != nil {
		qb = styles.Success.Render("qBit on")
	}

	left := modeStr + "  " + status
	padding := m.width - lipgloss.Width(left) - lipgloss.Width(qb) - 4
	if padding < 1 {
		padding = 1
	}
	line1 := left + strings.Repeat(" ", padding) + qb
	return styles.StatusBar.Render(line1) + "\n" + styles.HelpKey.Render(" "+help)
}
