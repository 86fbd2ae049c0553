package dizquetv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const channelFetchWorkers = 8

// ChannelInfo is the short description returned by /channel/description.
type ChannelInfo struct {
	Number     int    `json:"number"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	Stealth    bool   `json:"stealth"`
	GroupTitle string `json:"groupTitle,omitempty"`
}

// ChannelOptions describes a channel to create. Zero values take the server's
// defaults; Number 0 picks the next free number after the highest one.
type ChannelOptions struct {
	Number            int
	Name              string
	Programs          []Program
	StartTime         time.Time
	Icon              string
	IconPosition      string
	OfflinePicture    string
	OfflineSoundtrack string
	OfflineMode       string
	GroupTitle        string
	Stealth           bool
	Disabled          bool
	Watermark         *Watermark
	Transcoding       *ChannelTranscoding
	FillerCollections []FillerReference
	// HandleErrors repairs a request instead of failing: an empty lineup
	// gets a block of flex time and a taken number is replaced.
	HandleErrors bool
}

// ChannelNumbers lists the numbers of every channel.
func (c *Client) ChannelNumbers(ctx context.Context) ([]int, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var numbers []int
	if err := c.do(ctx, http.MethodGet, "/channelNumbers", nil, &numbers); err != nil {
		return nil, err
	}
	slices.Sort(numbers)
	return numbers, nil
}

// Channel fetches a channel by number.
func (c *Client) Channel(ctx context.Context, number int) (*Channel, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var ch Channel
	if err := c.do(ctx, http.MethodGet, "/channel/"+strconv.Itoa(number), nil, &ch); err != nil {
		return nil, channelLookupError(number, err)
	}
	if ch.Number == 0 {
		return nil, fmt.Errorf("%w: #%d", ErrChannelNotFound, number)
	}
	ch.client = c
	return &ch, nil
}

func channelLookupError(number int, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: #%d", ErrChannelNotFound, number)
	}
	return err
}

// ChannelByName returns the first channel called name.
func (c *Client) ChannelByName(ctx context.Context, name string) (*Channel, error) {
	channels, err := c.Channels(ctx)
	if err != nil {
		return nil, err
	}
	for _, ch := range channels {
		if ch.Name == name {
			return ch, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrChannelNotFound, name)
}

// FindChannel looks a channel up by number, or by name when number is 0.
func (c *Client) FindChannel(ctx context.Context, number int, name string) (*Channel, error) {
	switch {
	case number > 0:
		return c.Channel(ctx, number)
	case strings.TrimSpace(name) != "":
		return c.ChannelByName(ctx, name)
	default:
		return nil, fmt.Errorf("%w: channel number or name", ErrMissingParameters)
	}
}

// ChannelInfo fetches the short description of a channel.
func (c *Client) ChannelInfo(ctx context.Context, number int) (*ChannelInfo, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var info ChannelInfo
	if err := c.do(ctx, http.MethodGet, "/channel/description/"+strconv.Itoa(number), nil, &info); err != nil {
		return nil, channelLookupError(number, err)
	}
	return &info, nil
}

// ChannelWithoutPrograms fetches a channel without its lineup, which is much
// smaller for long channels.
func (c *Client) ChannelWithoutPrograms(ctx context.Context, number int) (*Channel, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var ch Channel
	if err := c.do(ctx, http.MethodGet, "/channel/programless/"+strconv.Itoa(number), nil, &ch); err != nil {
		return nil, channelLookupError(number, err)
	}
	ch.client = c
	return &ch, nil
}

// ChannelPrograms fetches only the lineup of a channel.
func (c *Client) ChannelPrograms(ctx context.Context, number int) ([]Program, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var programs []Program
	if err := c.do(ctx, http.MethodGet, "/channel/programs/"+strconv.Itoa(number), nil, &programs); err != nil {
		return nil, channelLookupError(number, err)
	}
	return programs, nil
}

// Channels fetches every channel, ordered by number. Channels are requested
// concurrently.
func (c *Client) Channels(ctx context.Context) ([]*Channel, error) {
	numbers, err := c.ChannelNumbers(ctx)
	if err != nil {
		return nil, err
	}
	channels := make([]*Channel, len(numbers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(channelFetchWorkers)
	for i, number := range numbers {
		g.Go(func() error {
			ch, err := c.Channel(gctx, number)
			if err != nil {
				return fmt.Errorf("fetch channel %d: %w", number, err)
			}
			channels[i] = ch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return channels, nil
}

// ChannelCount returns the number of channels.
func (c *Client) ChannelCount(ctx context.Context) (int, error) {
	numbers, err := c.ChannelNumbers(ctx)
	if err != nil {
		return 0, err
	}
	return len(numbers), nil
}

// HighestChannelNumber returns the largest channel number, or 0 when there
// are no channels.
func (c *Client) HighestChannelNumber(ctx context.Context) (int, error) {
	numbers, err := c.ChannelNumbers(ctx)
	if err != nil || len(numbers) == 0 {
		return 0, err
	}
	return numbers[len(numbers)-1], nil
}

// LowestChannelNumber returns the smallest channel number, or 0 when there
// are no channels.
func (c *Client) LowestChannelNumber(ctx context.Context) (int, error) {
	numbers, err := c.ChannelNumbers(ctx)
	if err != nil || len(numbers) == 0 {
		return 0, err
	}
	return numbers[0], nil
}

// LowestAvailableChannelNumber returns the smallest positive number not in
// use.
func (c *Client) LowestAvailableChannelNumber(ctx context.Context) (int, error) {
	numbers, err := c.ChannelNumbers(ctx)
	if err != nil {
		return 0, err
	}
	return lowestFree(numbers), nil
}

func lowestFree(sorted []int) int {
	next := 1
	for _, n := range sorted {
		if n == next {
			next++
		} else if n > next {
			break
		}
	}
	return next
}

// AddChannel creates a channel and returns it as stored by the server.
func (c *Client) AddChannel(ctx context.Context, opts ChannelOptions) (*Channel, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	programs := clonePrograms(opts.Programs)
	if len(programs) == 0 {
		if !opts.HandleErrors {
			return nil, fmt.Errorf("%w: a channel needs at least one program", ErrChannelCreation)
		}
		programs = []Program{OfflineProgram(DefaultOfflineDuration)}
	}
	for _, p := range programs {
		if err := ValidateProgram(p); err != nil {
			return nil, err
		}
	}

	numbers, err := c.ChannelNumbers(ctx)
	if err != nil {
		return nil, err
	}
	number := opts.Number
	if number != 0 && slices.Contains(numbers, number) {
		if !opts.HandleErrors {
			return nil, fmt.Errorf("%w: channel #%d already exists", ErrChannelCreation, number)
		}
		number = 0
	}
	if number <= 0 {
		number = 1
		if len(numbers) > 0 {
			number = numbers[len(numbers)-1] + 1
		}
	}

	ch := c.defaultChannel()
	ch.Number = number
	ch.Name = opts.Name
	if strings.TrimSpace(ch.Name) == "" {
		ch.Name = fmt.Sprintf("Channel %d", number)
	}
	ch.Programs = programs
	ch.Duration = TotalDuration(programs)
	if !opts.StartTime.IsZero() {
		ch.StartTime = FormatTimestamp(opts.StartTime)
	}
	if opts.Icon != "" {
		ch.Icon = opts.Icon
	}
	if opts.IconPosition != "" {
		ch.IconPosition = IconPosition(opts.IconPosition)
	}
	if opts.OfflinePicture != "" {
		ch.OfflinePicture = opts.OfflinePicture
	}
	if opts.OfflineMode != "" {
		ch.OfflineMode = opts.OfflineMode
	}
	ch.OfflineSoundtrack = opts.OfflineSoundtrack
	if opts.GroupTitle != "" {
		ch.GroupTitle = opts.GroupTitle
	}
	ch.Stealth = opts.Stealth
	ch.Enabled = !opts.Disabled
	if opts.Watermark != nil {
		wm := opts.Watermark.withDefaults()
		if err := wm.Validate(); err != nil {
			return nil, err
		}
		ch.Watermark = &wm
	}
	if opts.Transcoding != nil {
		tc := *opts.Transcoding
		ch.Transcoding = &tc
	}
	if opts.FillerCollections != nil {
		ch.FillerCollections = slices.Clone(opts.FillerCollections)
	}

	if err := c.do(ctx, http.MethodPut, "/channel", ch, nil); err != nil {
		return nil, err
	}
	c.logger.WithField("channel", number).Info("dizquetv channel created")
	return c.Channel(ctx, number)
}

// defaultChannel returns a channel carrying every server default.
func (c *Client) defaultChannel() *Channel {
	wm := DefaultWatermark()
	return &Channel{
		Programs:                    []Program{},
		FillerCollections:           []FillerReference{},
		FillerRepeatCooldown:        1800000,
		Fallback:                    []Program{},
		Icon:                        c.URL() + "/images/dizquetv.png",
		DisableFillerOverlay:        true,
		StartTime:                   NearestHalfHour(c.now()),
		OfflinePicture:              c.URL() + "/images/generic-offline-screen.png",
		OfflineMode:                 "pic",
		Watermark:                   &wm,
		Transcoding:                 &ChannelTranscoding{},
		GuideMinimumDurationSeconds: 300,
		Enabled:                     true,
		GroupTitle:                  "dizqueTV",
	}
}

// SaveChannel posts the whole channel document and returns the stored copy.
func (c *Client) SaveChannel(ctx context.Context, ch *Channel) (*Channel, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if ch == nil || ch.Number <= 0 {
		return nil, fmt.Errorf("%w: channel number", ErrMissingParameters)
	}
	if ch.Watermark != nil {
		if err := ch.Watermark.Validate(); err != nil {
			return nil, err
		}
	}
	if err := c.do(ctx, http.MethodPost, "/channel", ch, nil); err != nil {
		return nil, err
	}
	return c.Channel(ctx, ch.Number)
}

// UpdateChannel applies fn to the current state of a channel and saves it.
func (c *Client) UpdateChannel(ctx context.Context, number int, fn func(*Channel) error) (*Channel, error) {
	current, err := c.Channel(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := fn(current); err != nil {
		return nil, err
	}
	current.Number = number
	current.Duration = TotalDuration(current.Programs)
	return c.SaveChannel(ctx, current)
}

// DeleteChannel removes a channel.
func (c *Client) DeleteChannel(ctx context.Context, number int) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if number <= 0 {
		return fmt.Errorf("%w: channel number", ErrMissingParameters)
	}
	body := struct {
		Number int `json:"number"`
	}{Number: number}
	return c.do(ctx, http.MethodDelete, "/channel", body, nil)
}
