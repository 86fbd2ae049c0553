package dizquetv

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the format dizqueTV uses for channel start times and
// guide queries.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	msPerSecond = int64(1000)
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a dizqueTV timestamp. Fractional seconds and the
// trailing Z are optional.
func ParseTimestamp(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalidArgument("unparseable timestamp %q", s)
}

// NearestHalfHour truncates now to the previous :00 or :30 mark in UTC and
// formats it as a timestamp.
func NearestHalfHour(now time.Time) string {
	return FormatTimestamp(now.UTC().Truncate(30 * time.Minute))
}

// NeededFlexTime returns the milliseconds of flex needed after a program of
// durationMs so the next program starts on an everyMinutes boundary. When the
// current time is past the half hour the frame is offset by 30 minutes.
func NeededFlexTime(durationMs int64, everyMinutes int, now time.Time) int64 {
	if everyMinutes <= 0 {
		return 0
	}
	minuteStart := 0
	if now.UTC().Minute() >= 30 {
		minuteStart = 30
	}
	frame := int64(everyMinutes+minuteStart%everyMinutes) * msPerMinute
	remaining := frame - durationMs%frame
	if remaining == frame {
		return 0
	}
	return remaining
}

// DurationString renders milliseconds as HH:MM:SS.m.
func DurationString(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	hours := int64(d / time.Hour)
	minutes := int64(d/time.Minute) % 60
	seconds := int64(d/time.Second) % 60
	tenths := (ms % 1000) / 100
	return fmt.Sprintf("%02d:%02d:%02d.%01d", hours, minutes, seconds, tenths)
}

// ParseTimeOfDay converts "HH:MM" or "HH:MM:SS" into milliseconds past
// midnight.
func ParseTimeOfDay(s string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, invalidArgument("time of day %q must be HH:MM or HH:MM:SS", s)
	}
	if len(parts) == 2 {
		parts = append(parts, "00")
	}
	limits := []int64{23, 59, 59}
	units := []int64{msPerHour, msPerMinute, msPerSecond}
	var total int64
	for i, part := range parts {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n < 0 || n > limits[i] {
			return 0, invalidArgument("time of day %q is out of range", s)
		}
		total += n * units[i]
	}
	return total, nil
}

// MillisecondsBetweenHours returns the span from startHour to endHour,
// wrapping past midnight when endHour is earlier.
func MillisecondsBetweenHours(startHour, endHour int) int64 {
	span := int64(endHour-startHour) * msPerHour
	if span < 0 {
		span += msPerDay
	}
	return span
}

// Shift is a relative offset applied to a channel's start time. Months are 30
// days and years 365 days.
type Shift struct {
	Seconds int
	Minutes int
	Hours   int
	Days    int
	Months  int
	Years   int
}

// Duration converts the shift into a time.Duration.
func (s Shift) Duration() time.Duration {
	days := s.Days + 30*s.Months + 365*s.Years
	return time.Duration(s.Seconds)*time.Second +
		time.Duration(s.Minutes)*time.Minute +
		time.Duration(s.Hours)*time.Hour +
		time.Duration(days)*24*time.Hour
}

// IsZero reports whether the shift moves nothing.
func (s Shift) IsZero() bool { return s.Duration() == 0 }
