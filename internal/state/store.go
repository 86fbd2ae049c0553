package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/dizquetv/pkg/dizquetv"
)

// ChannelSummary is the per-channel row the browser lists.
type ChannelSummary struct {
	Number   int
	Name     string
	Group    string
	Programs int
	Duration time.Duration
	Stealth  bool
}

// Summarize reduces a full channel to its browser row.
func Summarize(ch *dizquetv.Channel) ChannelSummary {
	return ChannelSummary{
		Number:   ch.Number,
		Name:     ch.Name,
		Group:    ch.GroupTitle,
		Programs: len(ch.Programs),
		Duration: time.Duration(ch.Duration) * time.Millisecond,
		Stealth:  ch.Stealth,
	}
}

// Data is one successful poll.
type Data struct {
	Server   *dizquetv.ServerDetails
	Channels []ChannelSummary
	Guide    *dizquetv.GuideStatus
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Server              dizquetv.ServerDetails
	HasServer           bool
	Channels            []ChannelSummary
	Guide               dizquetv.GuideStatus
	HasGuide            bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the server has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Channel returns the summary for number.
func (s Snapshot) Channel(number int) (ChannelSummary, bool) {
	for _, ch := range s.Channels {
		if ch.Number == number {
			return ch, true
		}
	}
	return ChannelSummary{}, false
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	now      func() time.Time
}

// Update replaces the stored snapshot. When err is non-nil the previous data
// is kept and the error recorded. A nil Guide keeps the last guide status,
// since the guide endpoint can lag behind channel edits.
func (s *Store) Update(data *Data, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = s.clock()
	if err != nil || data == nil {
		if err == nil {
			err = fmt.Errorf("empty poll result")
		}
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Channels = cloneChannels(data.Channels)
	if data.Server != nil {
		s.snapshot.Server = *data.Server
		s.snapshot.HasServer = true
	} else {
		s.snapshot.Server = dizquetv.ServerDetails{}
		s.snapshot.HasServer = false
	}
	if data.Guide != nil {
		s.snapshot.Guide = cloneGuide(*data.Guide)
		s.snapshot.HasGuide = true
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Channels = cloneChannels(s.snapshot.Channels)
	snap.Guide = cloneGuide(s.snapshot.Guide)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func cloneChannels(items []ChannelSummary) []ChannelSummary {
	if len(items) == 0 {
		return nil
	}
	dup := make([]ChannelSummary, len(items))
	copy(dup, items)
	return dup
}

func cloneGuide(g dizquetv.GuideStatus) dizquetv.GuideStatus {
	if g.ChannelNumbers != nil {
		g.ChannelNumbers = append([]string(nil), g.ChannelNumbers...)
	}
	return g
}
