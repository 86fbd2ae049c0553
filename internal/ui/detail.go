package ui

import (
	"fmt"
	"strings"

	"github.com/five82/dizquetv/pkg/dizquetv"
)

// renderChannelDetail lists a channel's settings, programs, filler lists
// and the schedule its lineup came from.
func renderChannelDetail(ch *dizquetv.Channel, styles Styles) string {
	if ch == nil {
		return styles.MutedText.Render("channel not found")
	}
	var b strings.Builder
	section := func(title string) {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Bold(true).Render(title))
		b.WriteString("\n")
	}
	field := func(label, value string) {
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(styles.Text.Render(value))
		b.WriteString("\n")
	}

	b.WriteString(styles.Text.Bold(true).Render(fmt.Sprintf("#%d %s", ch.Number, ch.Name)))
	b.WriteString("\n")
	if ch.GroupTitle != "" {
		field("Group", ch.GroupTitle)
	}
	field("Length", dizquetv.DurationString(ch.Duration))
	if ch.StartTime != "" {
		field("Start", ch.StartTime)
	}
	if ch.Stealth {
		field("Stealth", "hidden from guide and M3U")
	}

	section(fmt.Sprintf("Programs (%d)", len(ch.Programs)))
	if len(ch.Programs) == 0 {
		b.WriteString(styles.MutedText.Render("empty lineup"))
		b.WriteString("\n")
	}
	width := len(fmt.Sprint(len(ch.Programs)))
	for i, p := range ch.Programs {
		name := p.FullName()
		style := styles.Text
		if p.IsOffline {
			style = styles.FaintText
		}
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("%*d ", width, i+1)))
		b.WriteString(styles.MutedText.Render(dizquetv.DurationString(p.Duration)))
		b.WriteString(" ")
		b.WriteString(style.Render(name))
		b.WriteString("\n")
	}

	section(fmt.Sprintf("Filler lists (%d)", len(ch.FillerCollections)))
	if len(ch.FillerCollections) == 0 {
		b.WriteString(styles.MutedText.Render("none"))
		b.WriteString("\n")
	}
	for _, f := range ch.FillerCollections {
		b.WriteString(styles.Text.Render(f.ID))
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("  weight %d  cooldown %s", f.Weight, dizquetv.DurationString(f.Cooldown))))
		b.WriteString("\n")
	}

	section("Schedule")
	b.WriteString(renderSchedule(ch.ScheduleBackup, styles))
	return strings.TrimRight(b.String(), "\n")
}

func renderSchedule(s *dizquetv.Schedule, styles Styles) string {
	if s == nil || len(s.Slots) == 0 {
		return styles.MutedText.Render("none") + "\n"
	}
	var b strings.Builder
	random := s.RandomDistribution != ""
	kind := "time slots"
	if random {
		kind = "random slots (" + s.RandomDistribution + ")"
	}
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("%s, %d days, flex %s", kind, s.MaxDays, s.FlexPreference)))
	b.WriteString("\n")
	for _, slot := range s.Slots {
		show := slot.ShowID
		if show == "" {
			show = "flex"
		}
		var when string
		if random {
			when = fmt.Sprintf("%s w%d", dizquetv.DurationString(slot.Duration), slot.Weight)
		} else {
			when = clock(slot.Time)
		}
		b.WriteString(styles.InfoText.Render(when))
		b.WriteString(" ")
		b.WriteString(styles.Text.Render(show))
		if slot.Order != "" {
			b.WriteString(styles.FaintText.Render(" " + slot.Order))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// clock formats milliseconds past midnight as HH:MM.
func clock(ms int64) string {
	minutes := ms / 60000
	return fmt.Sprintf("%02d:%02d", (minutes/60)%24, minutes%60)
}
