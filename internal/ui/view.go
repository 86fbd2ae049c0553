package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/dizquetv/internal/state"
	"github.com/five82/dizquetv/pkg/dizquetv"
)

const (
	minListWidth = 34
	headerHeight = 1
	// Pane chrome: two border rows plus the title line.
	paneChrome = 3
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderChannels(), m.renderDetailPane())
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m Model) listWidth() int {
	w := max(m.width*2/5, minListWidth)
	return min(w, m.width)
}

func (m Model) bodyHeight() int {
	footer := lipgloss.Height(m.help.View(m.keys))
	return max(m.height-headerHeight-footer, paneChrome)
}

func (m Model) listHeight() int {
	if !m.ready {
		return 0
	}
	return m.bodyHeight() - paneChrome
}

func (m *Model) resizeDetail() {
	if !m.ready {
		return
	}
	m.detail.Width = max(m.width-m.listWidth()-2, 0)
	m.detail.Height = m.bodyHeight() - paneChrome
	m.ensureVisible()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	surface := lipgloss.NewStyle().Background(lipgloss.Color(m.theme.Surface))
	on := func(s lipgloss.Style, text string) string {
		return s.Background(lipgloss.Color(m.theme.Surface)).Render(text)
	}
	snap := m.snapshot

	parts := []string{on(styles.Logo, "dizqueTV")}
	switch {
	case snap.IsOffline():
		parts = append(parts,
			on(styles.DangerText, classifyConnectionError(snap.LastError)),
			on(styles.WarningText, "retrying..."))
	case !snap.HasServer && snap.LastError == nil:
		parts = append(parts, on(styles.WarningText.Bold(true), "Connecting..."))
	default:
		parts = append(parts, on(styles.SuccessText, "● ONLINE"))
		if snap.HasServer {
			parts = append(parts, on(styles.MutedText, serverVersions(snap.Server)))
		}
		if snap.LastError != nil {
			parts = append(parts, on(styles.WarningText, "poll error: "+truncate(snap.LastError.Error(), 40)))
		}
	}

	parts = append(parts, on(styles.Text, fmt.Sprintf("%d channels", len(snap.Channels))))
	if snap.HasGuide {
		parts = append(parts, on(styles.MutedText, "guide "+guideAge(snap.Guide)))
	}
	if !snap.LastUpdated.IsZero() {
		parts = append(parts, on(styles.FaintText, snap.LastUpdated.Format("15:04:05")))
	}
	if m.notice != "" {
		parts = append(parts, on(styles.InfoText, truncate(m.notice, 50)))
	}

	sep := surface.Render("  ")
	return styles.Header.Width(m.width).MaxHeight(headerHeight).Render(strings.Join(parts, sep))
}

func serverVersions(s dizquetv.ServerDetails) string {
	var out []string
	if s.DizqueTV != "" {
		out = append(out, "v"+strings.TrimPrefix(s.DizqueTV, "v"))
	}
	if s.FFMPEG != "" {
		out = append(out, "ffmpeg "+s.FFMPEG)
	}
	if s.NodeJS != "" {
		out = append(out, "node "+strings.TrimPrefix(s.NodeJS, "v"))
	}
	return strings.Join(out, " · ")
}

func guideAge(g dizquetv.GuideStatus) string {
	if g.LastUpdate == "" {
		return "never built"
	}
	at, err := dizquetv.ParseTimestamp(g.LastUpdate)
	if err != nil {
		return g.LastUpdate
	}
	return at.Local().Format("15:04")
}

func (m Model) renderChannels() string {
	styles := m.theme.Styles()
	width := m.listWidth()
	inner := max(width-2, 0)
	rows := m.listHeight()

	lines := []string{styles.AccentText.Bold(true).Render(truncate("Channels", inner))}
	channels := m.snapshot.Channels
	if len(channels) == 0 {
		lines = append(lines, styles.MutedText.Render("no channels"))
	}
	end := min(m.offset+rows, len(channels))
	for i := m.offset; i < end; i++ {
		line := formatChannelRow(channels[i], inner)
		if i == m.selected {
			line = styles.Selected.Width(inner).Render(line)
		} else if channels[i].Stealth {
			line = styles.FaintText.Render(line)
		}
		lines = append(lines, line)
	}

	pane := styles.Pane
	if m.focus == paneChannels {
		pane = styles.Focused
	}
	return pane.Width(inner).Height(rows + 1).Render(strings.Join(lines, "\n"))
}

// formatChannelRow lays out number, name, item count and length in width
// columns.
func formatChannelRow(ch state.ChannelSummary, width int) string {
	tail := fmt.Sprintf(" %5d %7s", ch.Programs, formatDuration(ch.Duration))
	number := fmt.Sprintf("%4d ", ch.Number)
	nameWidth := max(width-len(number)-len(tail), 1)
	name := ch.Name
	if ch.Stealth {
		name += " (hidden)"
	}
	name = truncate(name, nameWidth)
	return number + name + strings.Repeat(" ", nameWidth-lipgloss.Width(name)) + tail
}

func (m Model) renderDetailPane() string {
	styles := m.theme.Styles()
	inner := max(m.width-m.listWidth()-2, 0)

	var title string
	switch {
	case m.loading != 0:
		title = styles.WarningText.Render(fmt.Sprintf("Loading channel %d...", m.loading))
	case m.detailErr != nil:
		title = styles.DangerText.Render(truncate(m.detailErr.Error(), inner))
	case m.detailFor == 0:
		title = styles.MutedText.Render("Select a channel and press enter")
	default:
		title = styles.AccentText.Bold(true).Render(fmt.Sprintf("Channel %d", m.detailFor))
	}

	pane := styles.Pane
	if m.focus == paneDetail {
		pane = styles.Focused
	}
	content := title + "\n" + m.detail.View()
	return pane.Width(inner).Height(m.listHeight() + 1).Render(content)
}

func (m Model) renderFooter() string {
	return m.theme.Styles().Footer.Render(m.help.View(m.keys))
}

func classifyConnectionError(err error) string {
	if err == nil {
		return "OFFLINE"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// formatDuration renders lineup lengths compactly: 45m, 3h05m, 2d04h.
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	minutes := int(d.Round(time.Minute).Minutes())
	days, hours, mins := minutes/(24*60), (minutes/60)%24, minutes%60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd%02dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh%02dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
