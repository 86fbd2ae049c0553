package dizquetv

import (
	"context"
	"fmt"
	"net/http"
	"slices"
)

// Time slot orders.
const (
	SlotOrderNext    = "next"
	SlotOrderShuffle = "shuffle"
)

// Schedule is the input to the server's time slot and random slot tools.
// Random schedules set PadStyle and RandomDistribution.
type Schedule struct {
	Lateness           int64      `json:"lateness"`
	MaxDays            int        `json:"maxDays"`
	FlexPreference     string     `json:"flexPreference"`
	Slots              []TimeSlot `json:"slots"`
	Pad                int64      `json:"pad"`
	PadStyle           string     `json:"padStyle,omitempty"`
	RandomDistribution string     `json:"randomDistribution,omitempty"`
	TimeZoneOffset     int        `json:"timeZoneOffset"`
	Fake               FakeTime   `json:"fake"`
}

// FakeTime lets the server preview a schedule at a fixed time. -1 disables it.
type FakeTime struct {
	Time int64 `json:"time"`
}

// TimeSlot plays ShowID at Time (milliseconds past midnight). Random slots
// use Duration, Cooldown and Weight instead of Time.
type TimeSlot struct {
	Time     int64  `json:"time"`
	ShowID   string `json:"showId"`
	Order    string `json:"order"`
	Duration int64  `json:"duration,omitempty"`
	Cooldown int64  `json:"cooldown,omitempty"`
	Weight   int    `json:"weight,omitempty"`
}

// DefaultSchedule returns the server defaults for a time slot schedule.
func DefaultSchedule() Schedule {
	return Schedule{
		MaxDays:        365,
		FlexPreference: "distribute",
		Slots:          []TimeSlot{},
		Pad:            1,
		Fake:           FakeTime{Time: -1},
	}
}

// DefaultRandomSchedule returns the server defaults for a random slot schedule.
func DefaultRandomSchedule() Schedule {
	s := DefaultSchedule()
	s.PadStyle = "slot"
	s.RandomDistribution = "uniform"
	return s
}

// IsRandom reports whether the schedule targets the random slot tool.
func (s Schedule) IsRandom() bool {
	return s.PadStyle != "" || s.RandomDistribution != ""
}

func (s Schedule) clone() Schedule {
	s.Slots = slices.Clone(s.Slots)
	return s
}

// TimeSlotAt builds a time slot playing the show p belongs to at the given
// "HH:MM[:SS]" time.
func TimeSlotAt(p Program, timeOfDay, order string) (TimeSlot, error) {
	ms, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return TimeSlot{}, err
	}
	var showID string
	switch {
	case p.IsRedirect():
		showID = fmt.Sprintf("redirect.%d", p.Channel)
	case p.IsEpisode() && p.ShowTitle != "":
		showID = "tv." + p.ShowTitle
	case p.IsFlex():
		return TimeSlot{}, invalidArgument("flex time cannot be scheduled")
	default:
		showID = "movie."
	}
	if order == "" {
		order = SlotOrderNext
	}
	return TimeSlot{Time: ms, ShowID: showID, Order: order}, nil
}

type scheduleRequest struct {
	Schedule Schedule  `json:"schedule"`
	Programs []Program `json:"programs"`
}

type scheduleResult struct {
	Programs  []Program `json:"programs"`
	StartTime string    `json:"startTime"`
}

// AddSchedule generates the lineup from a time slot schedule.
func (ch *Channel) AddSchedule(ctx context.Context, s Schedule) error {
	s.PadStyle = ""
	s.RandomDistribution = ""
	return ch.applySchedule(ctx, s)
}

// AddRandomSchedule generates the lineup from a random slot schedule.
// Missing random settings take the server defaults.
func (ch *Channel) AddRandomSchedule(ctx context.Context, s Schedule) error {
	defaults := DefaultRandomSchedule()
	if s.PadStyle == "" {
		s.PadStyle = defaults.PadStyle
	}
	if s.RandomDistribution == "" {
		s.RandomDistribution = defaults.RandomDistribution
	}
	return ch.applySchedule(ctx, s)
}

// UpdateSchedule applies fn to the current schedule, or to the default time
// slot schedule when there is none, and regenerates the lineup.
func (ch *Channel) UpdateSchedule(ctx context.Context, fn func(*Schedule) error) error {
	s := DefaultSchedule()
	if ch.ScheduleBackup != nil {
		s = ch.ScheduleBackup.clone()
	}
	if err := fn(&s); err != nil {
		return err
	}
	return ch.applySchedule(ctx, s)
}

func (ch *Channel) applySchedule(ctx context.Context, s Schedule) error {
	if err := ch.bound(); err != nil {
		return err
	}
	if s.Slots == nil {
		s.Slots = []TimeSlot{}
	}
	allowed := ch.SchedulableItems()
	for _, slot := range s.Slots {
		if !slices.Contains(allowed, slot.ShowID) {
			return invalidArgument("program %s cannot be added to a time slot; add it to the channel first", slot.ShowID)
		}
	}

	endpoint := "/channel-tools/time-slots"
	if s.IsRandom() {
		endpoint = "/channel-tools/random-slots"
	}
	req := scheduleRequest{Schedule: s, Programs: slotToolPrograms(ch.Programs)}
	var result scheduleResult
	if err := ch.client.do(ctx, http.MethodPost, endpoint, req, &result); err != nil {
		return err
	}
	if len(result.Programs) == 0 {
		return fmt.Errorf("%w: schedule produced no programs", ErrInvalidArgument)
	}
	return ch.edit(ctx, func(next *Channel) error {
		next.Programs = result.Programs
		if result.StartTime != "" {
			next.StartTime = result.StartTime
		}
		backup := s.clone()
		next.ScheduleBackup = &backup
		return nil
	})
}

// slotToolPrograms returns the programs the slot tools accept: plain
// programs, flex time and redirects. Custom show items are left out.
func slotToolPrograms(programs []Program) []Program {
	out := make([]Program, 0, len(programs))
	for _, p := range programs {
		if !p.IsCustomShowItem() {
			out = append(out, p)
		}
	}
	return out
}

// DeleteSchedule drops the schedule and turns the lineup back into a plain
// shuffled list without flex time or duplicates.
func (ch *Channel) DeleteSchedule(ctx context.Context) error {
	if err := ch.bound(); err != nil {
		return err
	}
	r := ch.client.rand
	return ch.edit(ctx, func(next *Channel) error {
		next.Programs = SortRandomly(RemoveDuplicates(RemoveOffline(next.Programs)), r)
		next.ScheduleBackup = nil
		return nil
	})
}

// AddTimeSlot adds slot to the current schedule. Each time may hold one slot.
func (ch *Channel) AddTimeSlot(ctx context.Context, slot TimeSlot) error {
	return ch.UpdateSchedule(ctx, func(s *Schedule) error {
		for _, existing := range s.Slots {
			if !s.IsRandom() && existing.Time == slot.Time {
				return invalidArgument("time slot %d is already filled", slot.Time)
			}
		}
		if slot.Order == "" {
			slot.Order = SlotOrderNext
		}
		s.Slots = append(s.Slots, slot)
		return nil
	})
}

// EditTimeSlot applies fn to the slot at the given time.
func (ch *Channel) EditTimeSlot(ctx context.Context, at int64, fn func(*TimeSlot)) error {
	return ch.UpdateSchedule(ctx, func(s *Schedule) error {
		for i := range s.Slots {
			if s.Slots[i].Time == at {
				fn(&s.Slots[i])
				return nil
			}
		}
		return invalidArgument("no time slot at %d", at)
	})
}

// DeleteTimeSlot removes the slot at the given time.
func (ch *Channel) DeleteTimeSlot(ctx context.Context, at int64) error {
	return ch.UpdateSchedule(ctx, func(s *Schedule) error {
		before := len(s.Slots)
		s.Slots = slices.DeleteFunc(s.Slots, func(slot TimeSlot) bool { return slot.Time == at })
		if len(s.Slots) == before {
			return invalidArgument("no time slot at %d", at)
		}
		return nil
	})
}
