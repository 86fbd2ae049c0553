// Package logtail reads the tail of the dizquetv CLI log.
//
// # Overview
//
// The CLI writes logrus text entries to a rotating file. The logs command
// shows the most recent of them, optionally filtered by level and with the
// level field highlighted for the terminal.
//
// # Reading
//
// Read keeps a ring buffer of maxLines entries while scanning the file once,
// so memory stays proportional to the requested tail and not the file size.
// A missing file returns nil, nil: nothing has been logged yet.
//
//	lines, err := logtail.Read(cfg.LogPath(), 200)
//
// # Filtering
//
// Filter parses the level=<name> field logrus writes and keeps entries at
// or above the requested severity. Lines without a level field belong to
// the entry above them.
//
// # Colorization
//
// ColorizeLine styles only the level field with lipgloss. When stdout is not
// a terminal lipgloss renders plain text, so piped output stays clean.
package logtail
