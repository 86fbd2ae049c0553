package dizquetv

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 12, 10, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestAddChannel_UsesNextNumberAndDefaults(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.addChannel(4, "Four", movie("Alien", 117))
	f.addChannel(2, "Two", movie("Heat", 170))
	c := f.client(WithClock(fixedClock))

	ch, err := c.AddChannel(testContext(t), ChannelOptions{
		Programs:     []Program{movie("Ran", 160)},
		IconPosition: "top-right",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, ch.Number)
	assert.Equal(t, "Channel 5", ch.Name)
	assert.Equal(t, "2024-03-10T12:00:00.000Z", ch.StartTime)
	assert.Equal(t, "1", ch.IconPosition)
	assert.Equal(t, int64(160*msPerMinute), ch.Duration)
	assert.True(t, ch.Enabled)
	assert.Equal(t, "dizqueTV", ch.GroupTitle)
	assert.Equal(t, c.URL()+"/images/dizquetv.png", ch.Icon)
	require.NotNil(t, ch.Watermark)
	assert.False(t, ch.Watermark.Enabled)
	assert.Nil(t, ch.ScheduleBackup)

	req, ok := f.lastRequest(http.MethodPut, "/api/channel")
	require.True(t, ok)
	var sent document
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	assert.Equal(t, document{}, sent["scheduleBackup"])
}

func TestAddChannel_FirstChannelIsOne(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	c := f.client()
	ch, err := c.AddChannel(testContext(t), ChannelOptions{Name: "Movies", Programs: []Program{movie("Ran", 160)}})
	require.NoError(t, err)
	assert.Equal(t, 1, ch.Number)
	assert.Equal(t, "Movies", ch.Name)
}

func TestAddChannel_HandlesErrors(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.addChannel(1, "One", movie("Alien", 117))
	c := f.client()
	ctx := testContext(t)

	_, err := c.AddChannel(ctx, ChannelOptions{Number: 3})
	require.ErrorIs(t, err, ErrChannelCreation)

	_, err = c.AddChannel(ctx, ChannelOptions{Number: 1, Programs: []Program{movie("Ran", 160)}})
	require.ErrorIs(t, err, ErrChannelCreation)

	ch, err := c.AddChannel(ctx, ChannelOptions{Number: 1, HandleErrors: true})
	require.NoError(t, err)
	assert.Equal(t, 2, ch.Number)
	require.Len(t, ch.Programs, 1)
	assert.True(t, ch.Programs[0].IsFlex())
	assert.Equal(t, DefaultOfflineDuration, ch.Programs[0].Duration)

	_, err = c.AddChannel(ctx, ChannelOptions{Programs: []Program{{Type: ProgramTypeMovie, Title: "No key"}}})
	require.ErrorIs(t, err, ErrItemCreation)

	bad := DefaultWatermark()
	bad.Enabled = true
	bad.Width = 150
	_, err = c.AddChannel(ctx, ChannelOptions{Programs: []Program{movie("Ran", 160)}, Watermark: &bad})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAddChannel_PartialWatermarkKeepsDefaults(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	c := f.client()
	ch, err := c.AddChannel(testContext(t), ChannelOptions{
		Programs:  []Program{movie("Ran", 160)},
		Watermark: &Watermark{Enabled: true, URL: "http://logo/x.png"},
	})
	require.NoError(t, err)

	require.NotNil(t, ch.Watermark)
	want := DefaultWatermark()
	want.Enabled = true
	want.URL = "http://logo/x.png"
	assert.Equal(t, want, *ch.Watermark)
}

func TestChannelLookups(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.addChannel(3, "Three", movie("Alien", 117))
	f.addChannel(1, "One", movie("Heat", 170))
	f.addChannel(7, "Seven", movie("Ran", 160))
	c := f.client()
	ctx := testContext(t)

	numbers, err := c.ChannelNumbers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 7}, numbers)

	channels, err := c.Channels(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 3)
	assert.Equal(t, "One", channels[0].Name)
	assert.Equal(t, "Seven", channels[2].Name)

	ch, err := c.ChannelByName(ctx, "Three")
	require.NoError(t, err)
	assert.Equal(t, 3, ch.Number)

	_, err = c.ChannelByName(ctx, "Nope")
	require.ErrorIs(t, err, ErrChannelNotFound)

	_, err = c.Channel(ctx, 42)
	require.ErrorIs(t, err, ErrChannelNotFound)

	_, err = c.FindChannel(ctx, 0, "")
	require.ErrorIs(t, err, ErrMissingParameters)

	found, err := c.FindChannel(ctx, 0, "Seven")
	require.NoError(t, err)
	assert.Equal(t, 7, found.Number)

	info, err := c.ChannelInfo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "One", info.Name)

	bare, err := c.ChannelWithoutPrograms(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, bare.Programs)

	programs, err := c.ChannelPrograms(ctx, 1)
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, "Heat", programs[0].Title)

	count, err := c.ChannelCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	highest, err := c.HighestChannelNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, highest)

	lowest, err := c.LowestChannelNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, lowest)

	free, err := c.LowestAvailableChannelNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, free)
}

func TestLowestFree(t *testing.T) {
	assert.Equal(t, 1, lowestFree(nil))
	assert.Equal(t, 1, lowestFree([]int{2, 3}))
	assert.Equal(t, 4, lowestFree([]int{1, 2, 3}))
	assert.Equal(t, 3, lowestFree([]int{1, 2, 5}))
}

func TestChannelEdit_PreservesUnknownFields(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.addChannel(1, "One", movie("Alien", 117))
	f.mu.Lock()
	f.channels[1]["futureSetting"] = "keep me"
	f.mu.Unlock()

	c := f.client()
	ctx := testContext(t)
	ch, err := c.Channel(ctx, 1)
	require.NoError(t, err)
	require.Contains(t, ch.Extra, "futureSetting")

	require.NoError(t, ch.AddPrograms(ctx, movie("Heat", 170)))
	assert.Len(t, ch.Programs, 2)
	assert.Equal(t, int64(287*msPerMinute), ch.Duration)

	stored := f.channel(1)
	assert.Equal(t, "keep me", stored["futureSetting"])
	assert.Equal(t, float64(287*msPerMinute), stored["duration"])
}

func TestChannelEdit_ProgramOperations(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.addChannel(1, "One",
		episode("Lost", 1, 2, 42),
		episode("Lost", 1, 1, 42),
		episode("Lost", 2, 1, 42),
		movie("Alien", 117),
		RedirectProgram(2, 30*msPerMinute),
	)
	c := f.client()
	ctx := testContext(t)
	ch, err := c.Channel(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, ch.UpdateProgram(ctx, movie("Alien", 0), func(p *Program) { p.Summary = "in space" }))
	p, err := ch.Program("Alien", 0)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "in space", p.Summary)

	redirect, err := ch.Program("", 2)
	require.NoError(t, err)
	require.NotNil(t, redirect)
	assert.True(t, redirect.IsRedirect())

	err = ch.UpdateProgram(ctx, movie("Missing", 1), func(*Program) {})
	require.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, ch.DeleteShow(ctx, "Lost", 2))
	assert.Len(t, ch.Programs, 4)

	require.NoError(t, ch.SortBySeasonOrder(ctx))
	assert.Equal(t, "Lost-s1e1", ch.Programs[0].Title)
	assert.Equal(t, "Lost-s1e2", ch.Programs[1].Title)

	require.NoError(t, ch.DeleteProgram(ctx, RedirectProgram(2, 1)))
	assert.Len(t, ch.Programs, 3)

	require.NoError(t, ch.DeleteShow(ctx, "Lost", 0))
	require.Len(t, ch.Programs, 1)
	assert.Equal(t, "Alien", ch.Programs[0].Title)

	require.NoError(t, ch.DeleteAllPrograms(ctx))
	assert.Empty(t, ch.Programs)
	assert.Equal(t, int64(0), ch.Duration)
}

func TestChannelEdit_FillerLists(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.addChannel(1, "One", movie("Alien", 117))
	c := f.client()
	ctx := testContext(t)
	ch, err := c.Channel(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, ch.AddFillerList(ctx, "abc", 0, 10*time.Minute))
	require.NoError(t, ch.AddFillerList(ctx, "def", 50, 0))
	refs := ch.FillerLists()
	require.Len(t, refs, 2)
	assert.Equal(t, FillerReference{ID: "abc", Weight: defaultFillerWeight, Cooldown: 600000}, refs[0])

	require.NoError(t, ch.DeleteFillerList(ctx, "abc"))
	require.Len(t, ch.FillerLists(), 1)
	assert.Equal(t, "def", ch.FillerLists()[0].ID)

	require.NoError(t, ch.DeleteAllFillerLists(ctx))
	assert.Empty(t, ch.FillerLists())

	require.ErrorIs(t, ch.AddFillerList(ctx, "", 1, 0), ErrMissingParameters)
}

func TestChannel_AddChannelAtNight(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.addChannel(1, "Day",
		movie("A", 600),
		movie("B", 300),
		OfflineProgram(5*msPerMinute),
		movie("C", 240),
	)
	f.addChannel(2, "Night", movie("Z", 60))
	c := f.client(WithClock(fixedClock))
	ctx := testContext(t)
	ch, err := c.Channel(ctx, 1)
	require.NoError(t, err)

	require.ErrorIs(t, ch.AddChannelAtNight(ctx, 9, 22, 6), ErrChannelNotFound)
	require.ErrorIs(t, ch.AddChannelAtNight(ctx, 2, 6, 6), ErrInvalidArgument)

	require.NoError(t, ch.AddChannelAtNight(ctx, 2, 22, 6))
	require.Len(t, ch.Programs, 7)
	assert.Equal(t, "A", ch.Programs[0].Title)
	assert.Equal(t, "B", ch.Programs[1].Title)
	assert.True(t, ch.Programs[2].IsFlex())
	assert.Equal(t, msPerHour, ch.Programs[2].Duration)
	assert.True(t, ch.Programs[3].IsRedirect())
	assert.Equal(t, 2, ch.Programs[3].Channel)
	assert.Equal(t, 8*msPerHour, ch.Programs[3].Duration)
	assert.Equal(t, "C", ch.Programs[4].Title)
	assert.Equal(t, 12*msPerHour, ch.Programs[5].Duration)
	assert.Equal(t, "2024-03-10T06:00:00.000Z", ch.StartTime)
	assert.Equal(t, 2*msPerDay, ch.Duration)
}

func TestChannel_AddChannelAtNightRejectsLongPrograms(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.addChannel(1, "Day", movie("Epic", 20*60))
	f.addChannel(2, "Night", movie("Z", 60))
	c := f.client(WithClock(fixedClock))
	ctx := testContext(t)
	ch, err := c.Channel(ctx, 1)
	require.NoError(t, err)

	require.ErrorIs(t, ch.AddChannelAtNight(ctx, 2, 20, 8), ErrInvalidArgument)
}

func TestChannel_StartTimeShifts(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.addChannel(1, "One", movie("Alien", 117))
	c := f.client()
	ctx := testContext(t)
	ch, err := c.Channel(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, ch.FastForward(ctx, Shift{Hours: 1}))
	assert.Equal(t, "2023-12-31T23:00:00.000Z", ch.StartTime)

	require.NoError(t, ch.Rewind(ctx, Shift{Days: 1, Minutes: 30}))
	assert.Equal(t, "2024-01-01T23:30:00.000Z", ch.StartTime)

	require.ErrorIs(t, ch.FastForward(ctx, Shift{}), ErrInvalidArgument)
}

func TestChannel_AddReruns(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.addChannel(1, "One", movie("A", 60), movie("A", 60), movie("B", 40), movie("C", 90))
	c := f.client(WithClock(fixedClock))
	ctx := testContext(t)
	ch, err := c.Channel(ctx, 1)
	require.NoError(t, err)

	err = ch.AddReruns(ctx, fixedNow.Add(time.Hour), 2, 3)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorIs(t, ch.AddReruns(ctx, fixedNow, 0, 3), ErrInvalidArgument)
	assert.Zero(t, f.count("POST", "/api/channel"))

	start := fixedNow.Add(-time.Hour)
	require.NoError(t, ch.AddReruns(ctx, start, 2, 3))

	// A and B fit in two hours; C does not, so 20 minutes of flex fill the block.
	require.Len(t, ch.Programs, 9)
	for i := 0; i < 3; i++ {
		block := ch.Programs[i*3 : i*3+3]
		assert.Equal(t, "A", block[0].Title)
		assert.Equal(t, "B", block[1].Title)
		assert.True(t, block[2].IsFlex())
		assert.Equal(t, 20*msPerMinute, block[2].Duration)
	}
	assert.Equal(t, int64(3*2)*msPerHour, ch.Duration)
	assert.Equal(t, FormatTimestamp(start), ch.StartTime)
	assert.Equal(t, FormatTimestamp(start), f.channel(1)["startTime"])
}

func TestChannel_SettingsUpdates(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.addChannel(1, "One", movie("Alien", 117))
	c := f.client()
	ctx := testContext(t)
	ch, err := c.Channel(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, ch.UpdateWatermark(ctx, func(w *Watermark) {
		w.Enabled = true
		w.URL = "http://example.com/logo.png"
	}))
	require.NotNil(t, ch.Watermark)
	assert.True(t, ch.Watermark.Enabled)
	assert.Equal(t, 6.25, ch.Watermark.Width)

	err = ch.UpdateWatermark(ctx, func(w *Watermark) { w.Width = 99; w.HorizontalMargin = 5 })
	require.ErrorIs(t, err, ErrInvalidArgument)

	bitrate := 4000
	require.NoError(t, ch.UpdateTranscoding(ctx, func(tc *ChannelTranscoding) {
		tc.TargetResolution = "1280x720"
		tc.VideoBitrate = &bitrate
	}, false))
	require.NotNil(t, ch.Transcoding.VideoBitrate)
	assert.Equal(t, 4000, *ch.Transcoding.VideoBitrate)

	require.NoError(t, ch.UpdateTranscoding(ctx, nil, true))
	assert.Equal(t, ChannelTranscoding{}, *ch.Transcoding)

	require.NoError(t, ch.UpdateOnDemand(ctx, func(od *OnDemand) {
		od.IsOnDemand = true
		od.Modulo = 7
	}))
	require.NotNil(t, ch.OnDemand)
	start, err := ParseTimestamp(ch.StartTime)
	require.NoError(t, err)
	assert.Equal(t, start.UnixMilli()%7, ch.OnDemand.FirstProgramModulo)

	require.ErrorIs(t, ch.UpdateOnDemand(ctx, func(od *OnDemand) { od.Modulo = 0 }), ErrInvalidArgument)
}

func TestChannel_DeleteAndRefresh(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.addChannel(1, "One", movie("Alien", 117))
	c := f.client()
	ctx := testContext(t)
	ch, err := c.Channel(ctx, 1)
	require.NoError(t, err)

	updated, err := c.UpdateChannel(ctx, 1, func(next *Channel) error {
		next.Name = "Renamed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	require.NoError(t, ch.Refresh(ctx))
	assert.Equal(t, "Renamed", ch.Name)

	require.NoError(t, ch.Delete(ctx))
	_, err = c.Channel(ctx, 1)
	require.ErrorIs(t, err, ErrChannelNotFound)
	require.ErrorIs(t, c.DeleteChannel(ctx, 0), ErrMissingParameters)
}

func TestChannel_UnboundObjects(t *testing.T) {
	ch := &Channel{Number: 1}
	err := ch.AddProgram(testContext(t), movie("Alien", 117))
	require.ErrorIs(t, err, ErrNotRemoteObject)

	var target *NotRemoteObjectError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "channel", target.Kind)
}

func TestChannel_SchedulableItems(t *testing.T) {
	ch := &Channel{Programs: []Program{
		movie("Alien", 117),
		episode("Lost", 1, 1, 42),
		RedirectProgram(4, 10),
		OfflineProgram(10),
		{Type: ProgramTypeMovie, Title: "Bonus", CustomShowID: "cs"},
		episode("Lost", 1, 2, 42),
		movie("Heat", 170),
	}}
	assert.Equal(t, []string{"redirect.4", "movie.", "tv.Lost"}, ch.SchedulableItems())
}

func TestAddProgramsToChannels(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.addChannel(1, "One", movie("Alien", 117))
	f.addChannel(2, "Two", movie("Heat", 170))
	c := f.client()
	ctx := testContext(t)

	require.ErrorIs(t, c.AddProgramsToChannels(ctx, nil, []Program{movie("Ran", 160)}), ErrMissingParameters)
	require.NoError(t, c.AddProgramsToChannels(ctx, []int{1, 2}, []Program{movie("Ran", 160)}))
	for _, number := range []int{1, 2} {
		programs, err := c.ChannelPrograms(ctx, number)
		require.NoError(t, err)
		require.Len(t, programs, 2)
		assert.Equal(t, "Ran", programs[1].Title)
	}

	require.NoError(t, c.AddFillerListsToChannels(ctx, []int{2}, []FillerAssignment{{ID: "f1", Weight: 10}}))
	ch, err := c.Channel(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []FillerReference{{ID: "f1", Weight: 10}}, ch.FillerLists())

	err = c.AddProgramsToChannels(ctx, []int{1, 9}, []Program{movie("Ran", 160)})
	require.ErrorIs(t, err, ErrChannelNotFound)
}

func TestAddProgramsToChannels_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	for n := 2; n <= 8; n++ {
		f.addChannel(n, fmt.Sprintf("Ch%d", n), movie("Alien", 117))
	}
	c := f.client()
	ctx := testContext(t)

	err := c.AddProgramsToChannels(ctx, []int{2, 99, 3, 4, 5, 6, 7, 8}, []Program{movie("Ran", 160)})
	require.ErrorIs(t, err, ErrChannelNotFound)

	programs, err := c.ChannelPrograms(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, programs, 2)
	for n := 3; n <= 8; n++ {
		programs, err := c.ChannelPrograms(ctx, n)
		require.NoError(t, err)
		assert.Len(t, programs, 1, "channel %d was modified after the failure", n)
	}
}
