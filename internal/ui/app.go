package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/dizquetv/internal/prefs"
	"github.com/five82/dizquetv/internal/state"
	"github.com/five82/dizquetv/pkg/dizquetv"
)

// ChannelLoader fetches a full channel for the detail pane.
type ChannelLoader interface {
	Channel(ctx context.Context, number int) (*dizquetv.Channel, error)
}

// Options configures the browser.
type Options struct {
	Context context.Context
	Client  ChannelLoader
	Store   *state.Store
	// Refresh polls the server once; r triggers it.
	Refresh     func(context.Context) error
	PollTick    time.Duration
	ThemeName   string
	PrefsPath   string
	LastChannel int
}

type pane int

const (
	paneChannels pane = iota
	paneDetail
)

// Model is the root browser state for Bubble Tea.
type Model struct {
	ctx       context.Context
	client    ChannelLoader
	store     *state.Store
	refresh   func(context.Context) error
	prefsPath string
	pollTick  time.Duration

	keys  keyMap
	help  help.Model
	theme Theme

	width  int
	height int
	ready  bool
	focus  pane

	snapshot    state.Snapshot
	selected    int
	offset      int
	lastChannel int

	detail       viewport.Model
	detailFor    int
	detailErr    error
	loading      int
	refreshing   bool
	notice       string
	showFullHelp bool
	quitting     bool
}

type (
	tickMsg     time.Time
	snapshotMsg state.Snapshot
	detailMsg   struct {
		number  int
		channel *dizquetv.Channel
		err     error
	}
	refreshMsg    struct{ err error }
	prefsSavedMsg struct{ err error }
)

// New creates the browser model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Defaults().Theme
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return Model{
		ctx:         ctx,
		client:      opts.Client,
		store:       opts.Store,
		refresh:     opts.Refresh,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		theme:       GetTheme(themeName),
		lastChannel: opts.LastChannel,
		detail:      viewport.New(0, 0),
	}
}

// Run starts the browser and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	if opts.Store == nil {
		return errors.New("ui requires a data store")
	}
	if opts.Context == nil {
		opts.Context = ctx
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.resizeDetail()
		return m, nil

	case tickMsg:
		var cmd tea.Cmd
		if m.store != nil {
			cmd = fetchSnapshotCmd(m.store)
		}
		return m, tea.Batch(cmd, tickCmd(m.pollTick))

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case detailMsg:
		// Ignore responses for a channel the user has moved away from.
		if msg.number != m.loading {
			return m, nil
		}
		m.loading = 0
		m.detailFor = msg.number
		m.detailErr = msg.err
		if msg.err == nil {
			m.detail.SetContent(renderChannelDetail(msg.channel, m.theme.Styles()))
		} else {
			m.detail.SetContent("")
		}
		m.detail.GotoTop()
		return m, nil

	case refreshMsg:
		m.refreshing = false
		if msg.err != nil {
			m.notice = "refresh failed: " + msg.err.Error()
		} else {
			m.notice = ""
		}
		if m.store == nil {
			return m, nil
		}
		return m, fetchSnapshotCmd(m.store)

	case prefsSavedMsg:
		if msg.err != nil {
			m.notice = "save prefs: " + msg.err.Error()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Sequence(m.savePrefsCmd(), tea.Quit)

	case key.Matches(msg, m.keys.Help):
		m.showFullHelp = !m.showFullHelp
		m.help.ShowAll = m.showFullHelp
		m.resizeDetail()
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if m.detailFor != 0 && m.detailErr == nil && m.client != nil {
			// Detail content embeds theme colors.
			m.loading = m.detailFor
			return m, tea.Batch(m.savePrefsCmd(), loadChannelCmd(m.ctx, m.client, m.detailFor))
		}
		return m, m.savePrefsCmd()

	case key.Matches(msg, m.keys.Refresh):
		if m.refresh == nil || m.refreshing {
			return m, nil
		}
		m.refreshing = true
		m.notice = "refreshing..."
		return m, refreshCmd(m.ctx, m.refresh)

	case key.Matches(msg, m.keys.Open):
		number := m.selectedNumber()
		if number == 0 || m.client == nil {
			return m, nil
		}
		m.loading = number
		m.focus = paneDetail
		return m, loadChannelCmd(m.ctx, m.client, number)

	case key.Matches(msg, m.keys.Back):
		m.focus = paneChannels
		return m, nil

	case key.Matches(msg, m.keys.SwitchPane):
		if m.focus == paneChannels {
			m.focus = paneDetail
		} else {
			m.focus = paneChannels
		}
		return m, nil
	}

	if m.focus == paneDetail {
		m.scrollDetail(msg)
		return m, nil
	}
	m.moveSelection(msg)
	return m, nil
}

func (m *Model) scrollDetail(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.detail.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.detail.ScrollDown(1)
	case key.Matches(msg, m.keys.Top):
		m.detail.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.detail.GotoBottom()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.detail.HalfPageUp()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.detail.HalfPageDown()
	}
}

func (m *Model) moveSelection(msg tea.KeyMsg) {
	count := len(m.snapshot.Channels)
	if count == 0 {
		return
	}
	half := max(m.listHeight()/2, 1)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.selected--
	case key.Matches(msg, m.keys.Down):
		m.selected++
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = count - 1
	case key.Matches(msg, m.keys.HalfPageUp):
		m.selected -= half
	case key.Matches(msg, m.keys.HalfPageDown):
		m.selected += half
	default:
		return
	}
	m.selected = min(max(m.selected, 0), count-1)
	m.ensureVisible()
}

// applySnapshot swaps in new data while keeping the selected channel.
func (m *Model) applySnapshot(snap state.Snapshot) {
	current := m.selectedNumber()
	if current == 0 && m.lastChannel > 0 {
		current = m.lastChannel
	}
	m.snapshot = snap

	m.selected = 0
	for i, ch := range snap.Channels {
		if ch.Number == current {
			m.selected = i
			break
		}
	}
	if len(snap.Channels) > 0 {
		m.lastChannel = 0
	}
	m.ensureVisible()
}

func (m Model) selectedNumber() int {
	if m.selected < 0 || m.selected >= len(m.snapshot.Channels) {
		return 0
	}
	return m.snapshot.Channels[m.selected].Number
}

func (m *Model) ensureVisible() {
	rows := m.listHeight()
	if rows <= 0 {
		m.offset = 0
		return
	}
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+rows {
		m.offset = m.selected - rows + 1
	}
}

func (m Model) savePrefsCmd() tea.Cmd {
	p := prefs.Prefs{Theme: m.theme.Name, LastChannel: m.selectedNumber()}
	path := m.prefsPath
	return func() tea.Msg {
		return prefsSavedMsg{err: prefs.Save(path, p)}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg { return snapshotMsg(store.Snapshot()) }
}

func loadChannelCmd(ctx context.Context, client ChannelLoader, number int) tea.Cmd {
	return func() tea.Msg {
		ch, err := client.Channel(ctx, number)
		return detailMsg{number: number, channel: ch, err: err}
	}
}

func refreshCmd(ctx context.Context, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg { return refreshMsg{err: fn(ctx)} }
}
