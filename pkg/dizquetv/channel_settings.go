package dizquetv

import "strings"

// Watermark is the per-channel logo overlay.
type Watermark struct {
	Enabled          bool    `json:"enabled"`
	Width            float64 `json:"width"`
	VerticalMargin   float64 `json:"verticalMargin"`
	HorizontalMargin float64 `json:"horizontalMargin"`
	Duration         int     `json:"duration"`
	FixedSize        bool    `json:"fixedSize"`
	Position         string  `json:"position"`
	URL              string  `json:"url"`
	Animated         bool    `json:"animated"`
}

// DefaultWatermark mirrors the server's disabled bottom-right overlay.
func DefaultWatermark() Watermark {
	return Watermark{
		Width:            6.25,
		VerticalMargin:   1.8518518518518519,
		HorizontalMargin: 1.0416666666666667,
		Duration:         60,
		Position:         "bottom-right",
	}
}

// withDefaults fills zero-valued numeric and string fields from DefaultWatermark.
func (w Watermark) withDefaults() Watermark {
	d := DefaultWatermark()
	if w.Width == 0 {
		w.Width = d.Width
	}
	if w.VerticalMargin == 0 {
		w.VerticalMargin = d.VerticalMargin
	}
	if w.HorizontalMargin == 0 {
		w.HorizontalMargin = d.HorizontalMargin
	}
	if w.Duration == 0 {
		w.Duration = d.Duration
	}
	if w.Position == "" {
		w.Position = d.Position
	}
	return w
}

// Validate rejects an enabled watermark the server could not render.
func (w Watermark) Validate() error {
	if !w.Enabled {
		return nil
	}
	if w.Width <= 0 || w.Width > 100 {
		return invalidArgument("watermark width must be greater than 0 and at most 100")
	}
	if w.Width+w.HorizontalMargin > 100 {
		return invalidArgument("watermark width + horizontalMargin must not be greater than 100")
	}
	if w.VerticalMargin > 100 {
		return invalidArgument("watermark verticalMargin must not be greater than 100")
	}
	if w.Duration <= 0 {
		return invalidArgument("watermark duration must be greater than 0")
	}
	return nil
}

// ChannelTranscoding overrides global FFMPEG settings for one channel. Nil
// bitrates defer to the global values.
type ChannelTranscoding struct {
	TargetResolution string `json:"targetResolution"`
	VideoBitrate     *int   `json:"videoBitrate"`
	VideoBufSize     *int   `json:"videoBufSize"`
}

// OnDemand controls on-demand playback for a channel.
type OnDemand struct {
	IsOnDemand         bool  `json:"isOnDemand"`
	Modulo             int64 `json:"modulo"`
	Paused             bool  `json:"paused"`
	FirstProgramModulo int64 `json:"firstProgramModulo"`
	PlayedOffset       int64 `json:"playedOffset"`
}

// DefaultOnDemand is the server's default: always live.
func DefaultOnDemand() OnDemand {
	return OnDemand{Modulo: 1, FirstProgramModulo: 1}
}

// IconPosition converts a readable position such as "top-left" into the
// numeric code the server stores.
func IconPosition(text string) string {
	text = strings.ToLower(text)
	top := strings.Contains(text, "top")
	left := strings.Contains(text, "left")
	switch {
	case top && left:
		return "0"
	case top && strings.Contains(text, "right"):
		return "1"
	case left && strings.Contains(text, "bottom"):
		return "2"
	default:
		return "3"
	}
}
