// Package ui implements the dizquetv terminal browser on Bubble Tea.
//
// # Overview
//
// The browser lists the server's channels on the left and the selected
// channel's lineup, filler lists and schedule on the right. A header shows
// server versions, connection state and guide freshness; the footer shows
// key hints from bubbles/help.
//
// # Data Flow
//
// Channel summaries come from state.Store, which the app poller refreshes in
// the background. The model reads a snapshot on every tick. Full channels
// are fetched on demand when the user presses enter, since a lineup can
// hold thousands of programs and the poller should stay cheap.
//
// # Keys
//
//	j/k, arrows   move (or scroll the detail pane when focused)
//	g/G           top/bottom
//	ctrl+d/u      half page down/up
//	enter         load the selected channel
//	tab, esc      switch pane, back to the channel list
//	r             poll the server now
//	t             cycle theme (saved to prefs)
//	?             toggle full help
//	q, ctrl+c     quit
//
// # Themes
//
// Dracula (default) and Slate. The chosen theme and the selected channel are
// written to the prefs file on change and on exit.
package ui
