package dizquetv

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduledChannel(t *testing.T) (*fakeServer, *Channel) {
	t.Helper()
	f := newFakeServer(t)
	f.addChannel(1, "Slots",
		episode("Lost", 1, 1, 42),
		movie("Alien", 117),
		RedirectProgram(4, 30*msPerMinute),
		OfflineProgram(5*msPerMinute),
	)
	ch, err := f.client(WithRand(&seqRand{})).Channel(testContext(t), 1)
	require.NoError(t, err)
	return f, ch
}

func TestTimeSlotAt(t *testing.T) {
	slot, err := TimeSlotAt(episode("Lost", 1, 1, 42), "20:30", "")
	require.NoError(t, err)
	assert.Equal(t, TimeSlot{Time: 20*msPerHour + 30*msPerMinute, ShowID: "tv.Lost", Order: SlotOrderNext}, slot)

	slot, err = TimeSlotAt(movie("Alien", 117), "06:00:15", SlotOrderShuffle)
	require.NoError(t, err)
	assert.Equal(t, "movie.", slot.ShowID)
	assert.Equal(t, 6*msPerHour+15*msPerSecond, slot.Time)

	slot, err = TimeSlotAt(RedirectProgram(7, 1), "00:00", "")
	require.NoError(t, err)
	assert.Equal(t, "redirect.7", slot.ShowID)

	_, err = TimeSlotAt(OfflineProgram(1), "01:00", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = TimeSlotAt(movie("Alien", 117), "25:00", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAddSchedule_StoresBackup(t *testing.T) {
	t.Parallel()

	f, ch := scheduledChannel(t)
	ctx := testContext(t)

	slot, err := TimeSlotAt(ch.Programs[0], "20:00", "")
	require.NoError(t, err)
	s := DefaultSchedule()
	s.Slots = []TimeSlot{slot}
	require.NoError(t, ch.AddSchedule(ctx, s))

	req, ok := f.lastRequest("POST", "/api/channel-tools/time-slots")
	require.True(t, ok)
	var sent struct {
		Schedule Schedule  `json:"schedule"`
		Programs []Program `json:"programs"`
	}
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	assert.Len(t, sent.Programs, 4)
	assert.Equal(t, "tv.Lost", sent.Schedule.Slots[0].ShowID)
	assert.Equal(t, int64(-1), sent.Schedule.Fake.Time)

	assert.Equal(t, "2024-03-01T00:00:00.000Z", ch.StartTime)
	assert.Len(t, ch.Programs, 4)
	require.NotNil(t, ch.ScheduleBackup)
	assert.False(t, ch.ScheduleBackup.IsRandom())
	assert.Equal(t, 365, ch.ScheduleBackup.MaxDays)

	stored, _ := f.channel(1)["scheduleBackup"].(map[string]any)
	require.NotNil(t, stored)
	assert.Len(t, stored["slots"], 1)
}

func TestAddSchedule_SkipsCustomShowItems(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	item := movie("CS", 20)
	item.CustomShowID = "show-1"
	item.CustomShowName = "Marathon"
	f.addChannel(1, "Mixed", movie("A", 30), item, OfflineProgram(5*msPerMinute))
	ch, err := f.client().Channel(testContext(t), 1)
	require.NoError(t, err)

	require.NoError(t, ch.AddSchedule(testContext(t), DefaultSchedule()))

	req, ok := f.lastRequest("POST", "/api/channel-tools/time-slots")
	require.True(t, ok)
	var sent struct {
		Programs []Program `json:"programs"`
	}
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	require.Len(t, sent.Programs, 2)
	assert.Equal(t, "A", sent.Programs[0].Title)
	assert.True(t, sent.Programs[1].IsFlex())
	for _, p := range sent.Programs {
		assert.Empty(t, p.CustomShowID)
	}
}

func TestAddSchedule_RejectsUnknownShows(t *testing.T) {
	t.Parallel()

	f, ch := scheduledChannel(t)
	s := DefaultSchedule()
	s.Slots = []TimeSlot{{Time: 0, ShowID: "tv.Frasier", Order: SlotOrderNext}}
	err := ch.AddSchedule(testContext(t), s)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, f.count("POST", "/api/channel-tools/time-slots"))
}

func TestAddSchedule_EmptyResult(t *testing.T) {
	t.Parallel()

	f, ch := scheduledChannel(t)
	f.mu.Lock()
	f.slotResult = document{"programs": []any{}}
	f.mu.Unlock()

	err := ch.AddSchedule(testContext(t), DefaultSchedule())
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Nil(t, ch.ScheduleBackup)
}

func TestAddRandomSchedule(t *testing.T) {
	t.Parallel()

	f, ch := scheduledChannel(t)
	s := DefaultSchedule()
	s.Slots = []TimeSlot{{ShowID: "movie.", Order: SlotOrderShuffle, Duration: msPerHour, Weight: 1}}
	require.NoError(t, ch.AddRandomSchedule(testContext(t), s))

	assert.Equal(t, 1, f.count("POST", "/api/channel-tools/random-slots"))
	require.NotNil(t, ch.ScheduleBackup)
	assert.True(t, ch.ScheduleBackup.IsRandom())
	assert.Equal(t, "slot", ch.ScheduleBackup.PadStyle)
	assert.Equal(t, "uniform", ch.ScheduleBackup.RandomDistribution)
}

func TestTimeSlotEditing(t *testing.T) {
	t.Parallel()

	f, ch := scheduledChannel(t)
	ctx := testContext(t)

	eight := 20 * msPerHour
	nine := 21 * msPerHour
	require.NoError(t, ch.AddTimeSlot(ctx, TimeSlot{Time: eight, ShowID: "tv.Lost"}))
	require.NotNil(t, ch.ScheduleBackup)
	assert.Equal(t, SlotOrderNext, ch.ScheduleBackup.Slots[0].Order)

	err := ch.AddTimeSlot(ctx, TimeSlot{Time: eight, ShowID: "movie."})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, ch.AddTimeSlot(ctx, TimeSlot{Time: nine, ShowID: "redirect.4"}))
	assert.Len(t, ch.ScheduleBackup.Slots, 2)

	require.NoError(t, ch.EditTimeSlot(ctx, nine, func(s *TimeSlot) {
		s.ShowID = "movie."
		s.Order = SlotOrderShuffle
	}))
	assert.Equal(t, TimeSlot{Time: nine, ShowID: "movie.", Order: SlotOrderShuffle}, ch.ScheduleBackup.Slots[1])

	assert.ErrorIs(t, ch.EditTimeSlot(ctx, 1, func(*TimeSlot) {}), ErrInvalidArgument)
	assert.ErrorIs(t, ch.DeleteTimeSlot(ctx, 1), ErrInvalidArgument)

	require.NoError(t, ch.DeleteTimeSlot(ctx, eight))
	require.Len(t, ch.ScheduleBackup.Slots, 1)
	assert.Equal(t, nine, ch.ScheduleBackup.Slots[0].Time)
	assert.Equal(t, 4, f.count("POST", "/api/channel-tools/time-slots"))
}

func TestDeleteSchedule(t *testing.T) {
	t.Parallel()

	f, ch := scheduledChannel(t)
	ctx := testContext(t)

	require.NoError(t, ch.AddTimeSlot(ctx, TimeSlot{Time: 0, ShowID: "movie."}))
	require.NoError(t, ch.AddPrograms(ctx, OfflineProgram(msPerMinute), movie("Alien", 117)))

	require.NoError(t, ch.DeleteSchedule(ctx))
	assert.Nil(t, ch.ScheduleBackup)
	assert.Equal(t, []string{"Lost - s01e01 - Lost-s1e1", "Alien"}, titles(ch.Programs))
	assert.Equal(t, document{}, f.channel(1)["scheduleBackup"])
}
