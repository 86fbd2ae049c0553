package dizquetv

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"time"
)

// Channel mirrors a dizqueTV channel document. A Channel returned by the
// Client is bound to it: mutating methods save the change on the server and
// reload the receiver in place.
type Channel struct {
	ID                          string              `json:"_id,omitempty"`
	Number                      int                 `json:"number"`
	Name                        string              `json:"name"`
	Programs                    []Program           `json:"programs"`
	FillerCollections           []FillerReference   `json:"fillerCollections"`
	FillerRepeatCooldown        int64               `json:"fillerRepeatCooldown"`
	Fallback                    []Program           `json:"fallback"`
	Icon                        string              `json:"icon"`
	IconWidth                   int                 `json:"iconWidth,omitempty"`
	IconDuration                int                 `json:"iconDuration,omitempty"`
	IconPosition                string              `json:"iconPosition,omitempty"`
	DisableFillerOverlay        bool                `json:"disableFillerOverlay"`
	StartTime                   string              `json:"startTime"`
	OfflinePicture              string              `json:"offlinePicture"`
	OfflineSoundtrack           string              `json:"offlineSoundtrack"`
	OfflineMode                 string              `json:"offlineMode"`
	Duration                    int64               `json:"duration"`
	Stealth                     bool                `json:"stealth"`
	Enabled                     bool                `json:"enabled"`
	GroupTitle                  string              `json:"groupTitle"`
	GuideMinimumDurationSeconds int                 `json:"guideMinimumDurationSeconds"`
	GuideFlexPlaceholder        string              `json:"guideFlexPlaceholder"`
	Watermark                   *Watermark          `json:"watermark,omitempty"`
	Transcoding                 *ChannelTranscoding `json:"transcoding,omitempty"`
	OnDemand                    *OnDemand           `json:"onDemand,omitempty"`

	// ScheduleBackup holds the time slot or random slot schedule the
	// lineup was generated from. The server stores {} when there is none.
	ScheduleBackup *Schedule `json:"-"`

	Extra map[string]json.RawMessage `json:"-"`

	client *Client
}

// FillerReference attaches a filler list to a channel.
type FillerReference struct {
	ID       string `json:"id"`
	Weight   int    `json:"weight"`
	Cooldown int64  `json:"cooldown"`
}

const (
	defaultFillerWeight = 300
	scheduleBackupKey   = "scheduleBackup"
)

type plainChannel Channel

// UnmarshalJSON decodes a channel, keeping unmodelled keys in Extra.
func (ch *Channel) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*plainChannel)(ch)); err != nil {
		return err
	}
	extra, err := splitExtra(data, reflect.TypeFor[plainChannel]())
	if err != nil {
		return err
	}
	ch.ScheduleBackup = nil
	if raw, ok := extra[scheduleBackupKey]; ok {
		delete(extra, scheduleBackupKey)
		var probe map[string]json.RawMessage
		if json.Unmarshal(raw, &probe) == nil {
			if _, hasSlots := probe["slots"]; hasSlots {
				var schedule Schedule
				if err := json.Unmarshal(raw, &schedule); err != nil {
					return fmt.Errorf("decode schedule backup: %w", err)
				}
				ch.ScheduleBackup = &schedule
			}
		}
	}
	if len(extra) == 0 {
		extra = nil
	}
	ch.Extra = extra
	return nil
}

// MarshalJSON encodes the channel with its Extra keys and schedule backup.
func (ch Channel) MarshalJSON() ([]byte, error) {
	extra := cloneExtra(ch.Extra)
	if extra == nil {
		extra = make(map[string]json.RawMessage, 1)
	}
	backup := json.RawMessage("{}")
	if ch.ScheduleBackup != nil {
		encoded, err := json.Marshal(ch.ScheduleBackup)
		if err != nil {
			return nil, err
		}
		backup = encoded
	}
	extra[scheduleBackupKey] = backup
	return mergeExtra(plainChannel(ch), extra)
}

func (ch *Channel) clone() *Channel {
	cp := *ch
	cp.Programs = clonePrograms(ch.Programs)
	cp.Fallback = clonePrograms(ch.Fallback)
	cp.FillerCollections = slices.Clone(ch.FillerCollections)
	cp.Extra = cloneExtra(ch.Extra)
	if ch.Watermark != nil {
		wm := *ch.Watermark
		cp.Watermark = &wm
	}
	if ch.Transcoding != nil {
		tc := *ch.Transcoding
		cp.Transcoding = &tc
	}
	if ch.OnDemand != nil {
		od := *ch.OnDemand
		cp.OnDemand = &od
	}
	if ch.ScheduleBackup != nil {
		sb := ch.ScheduleBackup.clone()
		cp.ScheduleBackup = &sb
	}
	return &cp
}

func (ch *Channel) bound() error {
	if ch == nil || ch.client == nil {
		return &NotRemoteObjectError{Kind: "channel"}
	}
	return nil
}

// edit applies fn to a copy of the cached channel, saves it and reloads the
// receiver from the server.
func (ch *Channel) edit(ctx context.Context, fn func(*Channel) error) error {
	if err := ch.bound(); err != nil {
		return err
	}
	next := ch.clone()
	if err := fn(next); err != nil {
		return err
	}
	next.Duration = TotalDuration(next.Programs)
	saved, err := ch.client.SaveChannel(ctx, next)
	if err != nil {
		return err
	}
	*ch = *saved
	return nil
}

func (ch *Channel) editPrograms(ctx context.Context, fn func([]Program) ([]Program, error)) error {
	return ch.edit(ctx, func(next *Channel) error {
		programs, err := fn(next.Programs)
		if err != nil {
			return err
		}
		next.Programs = programs
		return nil
	})
}

// Refresh reloads the channel in place.
func (ch *Channel) Refresh(ctx context.Context) error {
	if err := ch.bound(); err != nil {
		return err
	}
	fresh, err := ch.client.Channel(ctx, ch.Number)
	if err != nil {
		return err
	}
	*ch = *fresh
	return nil
}

// Update applies fn to the channel and saves it.
func (ch *Channel) Update(ctx context.Context, fn func(*Channel) error) error {
	return ch.edit(ctx, fn)
}

// Delete removes the channel from the server.
func (ch *Channel) Delete(ctx context.Context) error {
	if err := ch.bound(); err != nil {
		return err
	}
	return ch.client.DeleteChannel(ctx, ch.Number)
}

// Program returns the first program titled title, or the first redirect to
// redirectChannel when title is empty.
func (ch *Channel) Program(title string, redirectChannel int) (*Program, error) {
	if title == "" && redirectChannel == 0 {
		return nil, fmt.Errorf("%w: program title or redirect channel", ErrMissingParameters)
	}
	for i := range ch.Programs {
		p := &ch.Programs[i]
		if title != "" && p.Title == title {
			return p, nil
		}
		if title == "" && p.IsRedirect() && p.Channel == redirectChannel {
			return p, nil
		}
	}
	return nil, nil
}

// Items groups the lineup into standalone programs and custom show runs.
func (ch *Channel) Items() []LineupItem {
	return ParseLineup(ch.Programs)
}

// SchedulableItems returns the show ids a time slot can reference, in the
// form the server uses: redirect.N, tv.<show> and movie. Custom show
// content is not schedulable.
func (ch *Channel) SchedulableItems() []string {
	var redirects, shows []string
	seen := make(map[string]struct{})
	add := func(list *[]string, id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		*list = append(*list, id)
	}
	for _, p := range ch.Programs {
		switch {
		case p.IsRedirect():
			add(&redirects, fmt.Sprintf("redirect.%d", p.Channel))
		case p.IsFlex(), p.IsCustomShowItem():
		case p.IsEpisode() && p.ShowTitle != "":
			add(&shows, "tv."+p.ShowTitle)
		default:
			add(&shows, "movie.")
		}
	}
	return append(redirects, shows...)
}

// AddProgram appends a program to the lineup.
func (ch *Channel) AddProgram(ctx context.Context, p Program) error {
	return ch.AddPrograms(ctx, p)
}

// AddPrograms appends programs to the lineup.
func (ch *Channel) AddPrograms(ctx context.Context, programs ...Program) error {
	if len(programs) == 0 {
		return invalidArgument("no programs to add")
	}
	for _, p := range programs {
		if err := ValidateProgram(p); err != nil {
			return err
		}
	}
	return ch.editPrograms(ctx, func(current []Program) ([]Program, error) {
		return append(current, clonePrograms(programs)...), nil
	})
}

// AddCustomShow appends a custom show as one tagged run of programs.
func (ch *Channel) AddCustomShow(ctx context.Context, show *CustomShow) error {
	if err := ch.bound(); err != nil {
		return err
	}
	programs, err := ch.client.ExpandCustomShow(ctx, show)
	if err != nil {
		return err
	}
	return ch.AddPrograms(ctx, programs...)
}

func matchesProgram(target, p Program) bool {
	if target.IsRedirect() {
		return p.IsRedirect() && p.Channel == target.Channel
	}
	return p.Title == target.Title
}

// UpdateProgram applies fn to every program matching target: by channel for
// redirects and by title otherwise.
func (ch *Channel) UpdateProgram(ctx context.Context, target Program, fn func(*Program)) error {
	return ch.editPrograms(ctx, func(programs []Program) ([]Program, error) {
		found := false
		for i := range programs {
			if matchesProgram(target, programs[i]) {
				fn(&programs[i])
				found = true
			}
		}
		if !found {
			return nil, invalidArgument("program %q is not on channel %d", target.FullName(), ch.Number)
		}
		return programs, nil
	})
}

// DeleteProgram removes every program matching target.
func (ch *Channel) DeleteProgram(ctx context.Context, target Program) error {
	return ch.editPrograms(ctx, func(programs []Program) ([]Program, error) {
		return filterPrograms(programs, func(p Program) bool { return !matchesProgram(target, p) }), nil
	})
}

// DeleteShow removes the episodes of show. A season of 0 removes every
// season, otherwise only that season goes.
func (ch *Channel) DeleteShow(ctx context.Context, show string, season int) error {
	return ch.editPrograms(ctx, func(programs []Program) ([]Program, error) {
		return filterPrograms(programs, func(p Program) bool {
			if !p.IsEpisode() || p.ShowTitle != show {
				return true
			}
			return season != 0 && p.Season != season
		}), nil
	})
}

func (ch *Channel) DeleteAllPrograms(ctx context.Context) error {
	return ch.editPrograms(ctx, func([]Program) ([]Program, error) { return []Program{}, nil })
}

// AddEpisodes appends the first n programs of list.
func (ch *Channel) AddEpisodes(ctx context.Context, n int, list []Program) error {
	if n < 1 || n > len(list) {
		return invalidArgument("cannot add %d of %d programs", n, len(list))
	}
	return ch.AddPrograms(ctx, list[:n]...)
}

// AddEpisodesForDuration appends programs from list until their total
// reaches ms. A program that would run past ms is only added when
// allowOvertime is set.
func (ch *Channel) AddEpisodesForDuration(ctx context.Context, ms int64, list []Program, allowOvertime bool) error {
	var picked []Program
	var total int64
	for _, p := range list {
		if total >= ms {
			break
		}
		if total+p.Duration <= ms || allowOvertime {
			picked = append(picked, p)
		}
		total += p.Duration
	}
	if len(picked) == 0 {
		return invalidArgument("no program fits in %d ms", ms)
	}
	return ch.AddPrograms(ctx, picked...)
}

// FillerLists returns the filler lists attached to the channel.
func (ch *Channel) FillerLists() []FillerReference {
	return slices.Clone(ch.FillerCollections)
}

// AddFillerList attaches a filler list. Zero weight takes the server default.
func (ch *Channel) AddFillerList(ctx context.Context, id string, weight int, cooldown time.Duration) error {
	if id == "" {
		return fmt.Errorf("%w: filler list id", ErrMissingParameters)
	}
	if weight <= 0 {
		weight = defaultFillerWeight
	}
	return ch.edit(ctx, func(next *Channel) error {
		next.FillerCollections = append(next.FillerCollections, FillerReference{
			ID:       id,
			Weight:   weight,
			Cooldown: cooldown.Milliseconds(),
		})
		return nil
	})
}

// DeleteFillerList detaches a filler list.
func (ch *Channel) DeleteFillerList(ctx context.Context, id string) error {
	return ch.edit(ctx, func(next *Channel) error {
		next.FillerCollections = slices.DeleteFunc(next.FillerCollections, func(ref FillerReference) bool {
			return ref.ID == id
		})
		return nil
	})
}

func (ch *Channel) DeleteAllFillerLists(ctx context.Context) error {
	return ch.edit(ctx, func(next *Channel) error {
		next.FillerCollections = []FillerReference{}
		return nil
	})
}

func (ch *Channel) SortByReleaseDate(ctx context.Context) error {
	return ch.editPrograms(ctx, func(p []Program) ([]Program, error) { return SortByReleaseDate(p), nil })
}

func (ch *Channel) SortBySeasonOrder(ctx context.Context) error {
	return ch.editPrograms(ctx, func(p []Program) ([]Program, error) { return SortBySeasonOrder(p), nil })
}

func (ch *Channel) SortAlphabetically(ctx context.Context) error {
	return ch.editPrograms(ctx, func(p []Program) ([]Program, error) { return SortAlphabetically(p), nil })
}

func (ch *Channel) SortByDuration(ctx context.Context) error {
	return ch.editPrograms(ctx, func(p []Program) ([]Program, error) { return SortByDuration(p), nil })
}

func (ch *Channel) SortRandomly(ctx context.Context) error {
	if err := ch.bound(); err != nil {
		return err
	}
	r := ch.client.rand
	return ch.editPrograms(ctx, func(p []Program) ([]Program, error) { return SortRandomly(p, r), nil })
}

func (ch *Channel) CyclicalShuffle(ctx context.Context) error {
	if err := ch.bound(); err != nil {
		return err
	}
	r := ch.client.rand
	return ch.editPrograms(ctx, func(p []Program) ([]Program, error) { return CyclicalShuffle(p, r), nil })
}

func (ch *Channel) BlockShuffle(ctx context.Context, blockLen int, randomize bool) error {
	if err := ch.bound(); err != nil {
		return err
	}
	r := ch.client.rand
	return ch.editPrograms(ctx, func(p []Program) ([]Program, error) {
		return BlockShuffle(p, blockLen, randomize, r), nil
	})
}

// Replicate repeats the lineup so it appears times times in total.
func (ch *Channel) Replicate(ctx context.Context, times int) error {
	if times < 1 {
		return invalidArgument("replicate count must be at least 1")
	}
	return ch.editPrograms(ctx, func(p []Program) ([]Program, error) { return Repeat(p, times), nil })
}

// ReplicateAndShuffle is Replicate with every copy shuffled.
func (ch *Channel) ReplicateAndShuffle(ctx context.Context, times int) error {
	if times < 1 {
		return invalidArgument("replicate count must be at least 1")
	}
	if err := ch.bound(); err != nil {
		return err
	}
	r := ch.client.rand
	return ch.editPrograms(ctx, func(p []Program) ([]Program, error) { return RepeatAndShuffle(p, times, r), nil })
}

func (ch *Channel) RemoveDuplicatePrograms(ctx context.Context) error {
	return ch.editPrograms(ctx, func(p []Program) ([]Program, error) { return RemoveDuplicates(p), nil })
}

func (ch *Channel) RemoveDuplicateRedirects(ctx context.Context) error {
	return ch.editPrograms(ctx, func(p []Program) ([]Program, error) { return RemoveDuplicatesByChannel(p), nil })
}

func (ch *Channel) RemoveRedirects(ctx context.Context) error {
	return ch.editPrograms(ctx, func(p []Program) ([]Program, error) { return RemoveRedirects(p), nil })
}

func (ch *Channel) RemoveSpecials(ctx context.Context) error {
	return ch.editPrograms(ctx, func(p []Program) ([]Program, error) { return RemoveSpecials(p), nil })
}

// PadTimes replaces existing flex time with padding that makes every
// program start on an everyMinutes boundary.
func (ch *Channel) PadTimes(ctx context.Context, everyMinutes int) error {
	if everyMinutes <= 0 {
		return invalidArgument("padding interval must be positive")
	}
	if err := ch.bound(); err != nil {
		return err
	}
	now := ch.client.now()
	return ch.editPrograms(ctx, func(p []Program) ([]Program, error) {
		return PadToGrid(p, everyMinutes, now), nil
	})
}

// BalancePrograms trims shows to within margin of the shortest show.
func (ch *Channel) BalancePrograms(ctx context.Context, margin float64) error {
	if margin < 0 {
		return invalidArgument("margin must not be negative")
	}
	return ch.editPrograms(ctx, func(p []Program) ([]Program, error) { return BalanceShows(p, margin), nil })
}

// AddReruns turns the first hours of the lineup into a block that repeats
// times times starting at start. The block is padded with flex time to a
// full number of hours.
func (ch *Channel) AddReruns(ctx context.Context, start time.Time, hours, times int) error {
	if err := ch.bound(); err != nil {
		return err
	}
	if start.After(ch.client.now()) {
		return invalidArgument("rerun start time must not be in the future")
	}
	if hours < 1 || times < 1 {
		return invalidArgument("hours and repeat count must be at least 1")
	}
	blockMs := int64(hours) * msPerHour
	return ch.edit(ctx, func(next *Channel) error {
		block, total := FirstMinutes(RemoveDuplicates(next.Programs), hours*60)
		if len(block) == 0 {
			return invalidArgument("no program fits in %d hours", hours)
		}
		if total < blockMs {
			block = append(block, OfflineProgram(blockMs-total))
		}
		next.Programs = Repeat(block, times)
		next.StartTime = FormatTimestamp(start)
		return nil
	})
}

// AddChannelAtNight redirects to nightChannel from startHour to endHour
// every day and fills the remaining hours with this channel's lineup.
func (ch *Channel) AddChannelAtNight(ctx context.Context, nightChannel, startHour, endHour int) error {
	if err := ch.bound(); err != nil {
		return err
	}
	if startHour < 0 || startHour > 23 {
		return invalidArgument("start hour must be between 0 and 23")
	}
	if endHour < 0 || endHour > 23 {
		return invalidArgument("end hour must be between 0 and 23")
	}
	if startHour == endHour {
		return invalidArgument("cannot add a 24-hour channel at night")
	}
	numbers, err := ch.client.ChannelNumbers(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(numbers, nightChannel) {
		return fmt.Errorf("%w: #%d", ErrChannelNotFound, nightChannel)
	}

	nightMs := MillisecondsBetweenHours(startHour, endHour)
	regularMs := msPerDay - nightMs
	regularMinutes := int(regularMs / msPerMinute)

	now := ch.client.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), endHour, 0, 0, 0, now.Location())
	if endHour > now.Hour() {
		start = start.AddDate(0, 0, -1)
	}

	return ch.edit(ctx, func(next *Channel) error {
		left := RemoveOffline(next.Programs)
		var lineup []Program
		for len(left) > 0 {
			block, rest, total := FirstMinutesWithRemainder(left, regularMinutes)
			if len(block) == 0 {
				return invalidArgument("program %q is longer than the %d minute daytime block", left[0].FullName(), regularMinutes)
			}
			lineup = append(lineup, block...)
			if total < regularMs {
				lineup = append(lineup, OfflineProgram(regularMs-total))
			}
			lineup = append(lineup, RedirectProgram(nightChannel, nightMs))
			left = rest
		}
		if len(lineup) == 0 {
			return invalidArgument("channel %d has no programs", next.Number)
		}
		next.Programs = lineup
		next.StartTime = FormatTimestamp(start)
		return nil
	})
}

// FastForward moves the channel's start time earlier, so playback jumps
// ahead by shift.
func (ch *Channel) FastForward(ctx context.Context, shift Shift) error {
	return ch.moveStart(ctx, -shift.Duration())
}

// Rewind moves the channel's start time later, so playback goes back by
// shift.
func (ch *Channel) Rewind(ctx context.Context, shift Shift) error {
	return ch.moveStart(ctx, shift.Duration())
}

func (ch *Channel) moveStart(ctx context.Context, by time.Duration) error {
	if by == 0 {
		return invalidArgument("shift must not be zero")
	}
	return ch.edit(ctx, func(next *Channel) error {
		start, err := ParseTimestamp(next.StartTime)
		if err != nil {
			return err
		}
		next.StartTime = FormatTimestamp(start.Add(by))
		return nil
	})
}

// UpdateWatermark applies fn to the channel's watermark and validates the
// result before saving.
func (ch *Channel) UpdateWatermark(ctx context.Context, fn func(*Watermark)) error {
	return ch.edit(ctx, func(next *Channel) error {
		wm := DefaultWatermark()
		if next.Watermark != nil {
			wm = *next.Watermark
		}
		fn(&wm)
		if err := wm.Validate(); err != nil {
			return err
		}
		next.Watermark = &wm
		return nil
	})
}

// UpdateTranscoding applies fn to the channel's transcoding overrides. With
// useGlobal the overrides are cleared and fn is ignored.
func (ch *Channel) UpdateTranscoding(ctx context.Context, fn func(*ChannelTranscoding), useGlobal bool) error {
	return ch.edit(ctx, func(next *Channel) error {
		tc := ChannelTranscoding{}
		if !useGlobal {
			if next.Transcoding != nil {
				tc = *next.Transcoding
			}
			if fn != nil {
				fn(&tc)
			}
		}
		next.Transcoding = &tc
		return nil
	})
}

// UpdateOnDemand applies fn to the channel's on-demand settings. The first
// program offset is recomputed from the start time and modulo.
func (ch *Channel) UpdateOnDemand(ctx context.Context, fn func(*OnDemand)) error {
	return ch.edit(ctx, func(next *Channel) error {
		od := DefaultOnDemand()
		if next.OnDemand != nil {
			od = *next.OnDemand
		}
		fn(&od)
		if od.Modulo <= 0 {
			return invalidArgument("on-demand modulo must be positive")
		}
		start, err := ParseTimestamp(next.StartTime)
		if err != nil {
			return err
		}
		od.FirstProgramModulo = start.UnixMilli() % od.Modulo
		next.OnDemand = &od
		return nil
	})
}
