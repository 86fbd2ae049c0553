// Package state shares the latest server poll between the poller and the
// terminal browser.
//
// # Overview
//
// The poller fetches version details, a summary of every channel and the
// guide status, then hands them to Store.Update. The browser reads
// Store.Snapshot on every tick. The two run on separate goroutines; the
// store's RWMutex is the only point where they meet.
//
// # Failure Tracking
//
// A failed poll keeps the previous data, records the error and increments
// ConsecutiveFailures. IsOffline reports true from the second failure in a
// row, so a single slow response does not flip the header to offline. The
// next successful poll clears both.
//
// # Copies
//
// Snapshot clones the channel slice, the guide channel numbers and the
// error value. Callers may modify what they receive.
package state
