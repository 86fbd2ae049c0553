// Package app wires the dizquetv terminal browser together.
//
// # Overview
//
// Run is the composition root for the browse command. It takes an already
// configured dizquetv.Client and logger from the CLI, loads browser prefs,
// polls the server once, starts the background poller and hands control to
// the Bubble Tea program in package ui.
//
// # Polling
//
// Each poll fetches server versions, all channels and the guide status
// concurrently. Channels are reduced to state.ChannelSummary rows before
// they reach the store; the browser loads a full channel only when asked.
// A guide status failure is tolerated, the other two fail the poll.
//
// After a failed poll the next one waits twice as long, up to 30 seconds,
// so an offline server is not hammered. The first success restores the
// normal interval.
//
// # Shutdown
//
// Cancelling the context passed to Run stops both the poller and the UI.
package app
