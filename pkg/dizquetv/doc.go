// Package dizquetv provides an HTTP client for the dizqueTV REST API.
//
// # Overview
//
// dizqueTV builds live TV channels out of Plex media. This package reads and
// edits everything the web UI can: channels and their lineups, filler lists,
// custom shows, time slot schedules, registered Plex servers and the
// FFMPEG, Plex, XMLTV and HDHR settings. It also exposes the guide, the
// generated XMLTV and M3U files and the stream addresses of each channel.
//
// # Client Usage
//
//	client, err := dizquetv.New("http://192.168.1.20:8000",
//		dizquetv.WithTimeout(10*time.Second),
//		dizquetv.WithLogger(logger),
//	)
//	if err != nil {
//		log.Fatalf("create client: %v", err)
//	}
//
//	ch, err := client.Channel(ctx, 3)
//	if err != nil {
//		log.Fatalf("fetch channel: %v", err)
//	}
//	if err := ch.SortBySeasonOrder(ctx); err != nil {
//		log.Printf("sort failed: %v", err)
//	}
//
// The base URL defaults to http://127.0.0.1:8000 and may carry a path prefix
// when dizqueTV sits behind a reverse proxy.
//
// # Remote Objects
//
// Channels, filler lists, custom shows and Plex servers returned by the
// client remember it. Their editing methods fetch nothing implicitly: each
// one clones the receiver, applies the change, posts the whole document and
// replaces the receiver with the copy the server stored. Values built by
// hand are not bound and return ErrNotRemoteObject.
//
// Unknown JSON keys are kept in each type's Extra map and written back on
// save, so fields added by newer servers survive a round trip.
//
// # Lineup Helpers
//
// The sorting, shuffling, padding and deduplication helpers in lineup.go are
// pure functions over []Program. Channel methods with the same names apply
// them to the channel and save the result. Shuffles draw from the Rand given
// to WithRand, which tests replace with a fixed sequence.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and User-Agent: dizquetv-go/0.1
//   - Carry a fresh X-Request-ID header
//   - Are logged through logrus at debug level, failures at error level
//   - Are counted by the optional Prometheus collectors from NewMetrics
//
// # Error Handling
//
// Transport failures are wrapped with the step that failed:
//   - "execute request: dial tcp: connection refused"
//   - "decode response: unexpected end of JSON input"
//
// Responses with a 4xx or 5xx status become *APIError, which matches
// ErrUnexpectedStatus with errors.Is. Invalid input is reported through the
// Err* sentinels before anything is sent.
//
// # Thread Safety
//
// The Client is safe for concurrent use. Remote objects are not: share a
// channel between goroutines only behind your own lock.
package dizquetv
