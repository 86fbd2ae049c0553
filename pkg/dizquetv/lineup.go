package dizquetv

import (
	"cmp"
	"slices"
	"time"
)

// The helpers in this file operate on fetched lineups and never talk to the
// server. Each returns a new slice: a permutation of its input, or a subset
// when the helper's name says it removes something.

// SortAlphabetically orders programs by show title for episodes and by title
// otherwise. Untitled entries such as flex time keep their relative order at
// the end.
func SortAlphabetically(programs []Program) []Program {
	titled := make([]Program, 0, len(programs))
	var untitled []Program
	for _, p := range programs {
		if p.Title == "" {
			untitled = append(untitled, p)
			continue
		}
		titled = append(titled, p)
	}
	slices.SortStableFunc(titled, func(a, b Program) int {
		return cmp.Compare(alphabeticalKey(a), alphabeticalKey(b))
	})
	return append(titled, untitled...)
}

func alphabeticalKey(p Program) string {
	if p.IsEpisode() && p.ShowTitle != "" {
		return p.ShowTitle
	}
	return p.Title
}

// SortByReleaseDate orders programs by their release date. Programs without
// a parseable date are appended in alphabetical order.
func SortByReleaseDate(programs []Program) []Program {
	dated := make([]Program, 0, len(programs))
	var undated []Program
	for _, p := range programs {
		if _, ok := p.ReleaseDate(); ok {
			dated = append(dated, p)
			continue
		}
		undated = append(undated, p)
	}
	slices.SortStableFunc(dated, func(a, b Program) int {
		da, _ := a.ReleaseDate()
		db, _ := b.ReleaseDate()
		return da.Compare(db)
	})
	return append(dated, SortAlphabetically(undated)...)
}

// SortBySeasonOrder groups episodes by show, alphabetically, and orders each
// show by season then episode. Everything else, specials included, follows
// in alphabetical order.
func SortBySeasonOrder(programs []Program) []Program {
	groups, others := groupShows(programs)
	out := make([]Program, 0, len(programs))
	for _, g := range groups {
		out = append(out, g.episodes...)
	}
	return append(out, SortAlphabetically(others)...)
}

// SortByDuration orders programs shortest first. Redirects are dropped since
// their length is set by the schedule, not the media.
func SortByDuration(programs []Program) []Program {
	out := RemoveRedirects(programs)
	slices.SortStableFunc(out, func(a, b Program) int {
		return cmp.Compare(a.Duration, b.Duration)
	})
	return out
}

// SortRandomly returns a shuffled copy of programs.
func SortRandomly(programs []Program, r Rand) []Program {
	out := slices.Clone(programs)
	orDefault(r).Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// CyclicalShuffle interleaves shows and standalone items at random while
// keeping each show's episodes in season order. Every show starts at a random
// episode and wraps around.
func CyclicalShuffle(programs []Program, r Rand) []Program {
	r = orDefault(r)
	groups, others := groupShows(programs)
	others = SortRandomly(others, r)

	queues := make([][]Program, 0, len(groups))
	showCount := 0
	for _, g := range groups {
		shift := r.IntN(len(g.episodes))
		rotated := append(slices.Clone(g.episodes[shift:]), g.episodes[:shift]...)
		queues = append(queues, rotated)
		showCount += len(rotated)
	}

	out := make([]Program, 0, len(programs))
	for showCount+len(others) > 0 {
		if r.IntN(showCount+len(others)) < showCount {
			idx := r.IntN(len(queues))
			out = append(out, queues[idx][0])
			queues[idx] = queues[idx][1:]
			if len(queues[idx]) == 0 {
				queues = slices.Delete(queues, idx, idx+1)
			}
			showCount--
			continue
		}
		out = append(out, others[0])
		others = others[1:]
	}
	return out
}

// BlockShuffle plays shows in blocks of up to blockLen consecutive episodes.
// Without randomize the shows rotate alphabetically and every block is full
// length. With randomize the next show and the block length (1..blockLen)
// are drawn at random. Standalone items are appended in their original order.
func BlockShuffle(programs []Program, blockLen int, randomize bool, r Rand) []Program {
	if blockLen < 1 {
		blockLen = 1
	}
	r = orDefault(r)
	groups, others := groupShows(programs)
	queues := make([][]Program, len(groups))
	for i, g := range groups {
		queues[i] = g.episodes
	}

	out := make([]Program, 0, len(programs))
	take := func(idx, n int) {
		n = min(n, len(queues[idx]))
		out = append(out, queues[idx][:n]...)
		queues[idx] = queues[idx][n:]
	}

	if randomize {
		for len(queues) > 0 {
			idx := r.IntN(len(queues))
			take(idx, 1+r.IntN(blockLen))
			if len(queues[idx]) == 0 {
				queues = slices.Delete(queues, idx, idx+1)
			}
		}
	} else {
		for len(queues) > 0 {
			for i := 0; i < len(queues); {
				take(i, blockLen)
				if len(queues[i]) == 0 {
					queues = slices.Delete(queues, i, i+1)
					continue
				}
				i++
			}
		}
	}
	return append(out, others...)
}

// Repeat concatenates times copies of programs.
func Repeat(programs []Program, times int) []Program {
	if times < 1 {
		return []Program{}
	}
	out := make([]Program, 0, len(programs)*times)
	for range times {
		out = append(out, clonePrograms(programs)...)
	}
	return out
}

// RepeatAndShuffle concatenates times copies of programs, each shuffled
// independently.
func RepeatAndShuffle(programs []Program, times int, r Rand) []Program {
	if times < 1 {
		return []Program{}
	}
	out := make([]Program, 0, len(programs)*times)
	for range times {
		out = append(out, SortRandomly(clonePrograms(programs), r)...)
	}
	return out
}

// RemoveDuplicates drops redirects and repeated media, compared by rating
// key. Entries without a rating key are kept.
func RemoveDuplicates(programs []Program) []Program {
	seen := make(map[string]struct{})
	out := make([]Program, 0, len(programs))
	for _, p := range programs {
		if p.IsRedirect() {
			continue
		}
		if p.RatingKey != "" {
			if _, ok := seen[p.RatingKey]; ok {
				continue
			}
			seen[p.RatingKey] = struct{}{}
		}
		out = append(out, p)
	}
	return out
}

// RemoveDuplicatesByChannel keeps the first redirect to each channel.
func RemoveDuplicatesByChannel(programs []Program) []Program {
	seen := make(map[int]struct{})
	out := make([]Program, 0, len(programs))
	for _, p := range programs {
		if p.IsRedirect() {
			if _, ok := seen[p.Channel]; ok {
				continue
			}
			seen[p.Channel] = struct{}{}
		}
		out = append(out, p)
	}
	return out
}

func RemoveRedirects(programs []Program) []Program {
	return filterPrograms(programs, func(p Program) bool { return !p.IsRedirect() })
}

// RemoveSpecials drops redirects and season 0 episodes.
func RemoveSpecials(programs []Program) []Program {
	return filterPrograms(programs, func(p Program) bool {
		return !p.IsRedirect() && !(p.IsEpisode() && p.Season == 0)
	})
}

// RemoveOffline drops flex time. Redirects are kept.
func RemoveOffline(programs []Program) []Program {
	return filterPrograms(programs, func(p Program) bool { return !p.IsFlex() })
}

func filterPrograms(programs []Program, keep func(Program) bool) []Program {
	out := make([]Program, 0, len(programs))
	for _, p := range programs {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// BalanceShows trims every show so its airtime is within margin of the
// shortest show's total airtime. Episodes are taken in season order and the
// first one that would break the limit ends that show. Standalone items are
// appended alphabetically.
func BalanceShows(programs []Program, margin float64) []Program {
	groups, others := groupShows(programs)
	if len(groups) == 0 {
		return SortAlphabetically(others)
	}
	shortest := TotalDuration(groups[0].episodes)
	for _, g := range groups[1:] {
		shortest = min(shortest, TotalDuration(g.episodes))
	}
	limit := float64(shortest) * (1 + margin)

	out := make([]Program, 0, len(programs))
	for _, g := range groups {
		var running int64
		for _, ep := range g.episodes {
			if float64(running+ep.Duration) > limit {
				break
			}
			running += ep.Duration
			out = append(out, ep)
		}
	}
	return append(out, SortAlphabetically(others)...)
}

// FirstMinutes returns the leading programs that fit in minutes, stopping at
// the first one that does not, along with their total duration.
func FirstMinutes(programs []Program, minutes int) ([]Program, int64) {
	taken, _, total := FirstMinutesWithRemainder(programs, minutes)
	return taken, total
}

// FirstMinutesWithRemainder is FirstMinutes that also returns the programs
// left over.
func FirstMinutesWithRemainder(programs []Program, minutes int) (taken, rest []Program, total int64) {
	limit := int64(minutes) * 60 * 1000
	for i, p := range programs {
		if total+p.Duration > limit {
			return slices.Clone(programs[:i]), slices.Clone(programs[i:]), total
		}
		total += p.Duration
	}
	return slices.Clone(programs), []Program{}, total
}

// PadToGrid appends flex time after every program so the next one starts on
// an everyMinutes boundary. Existing flex time is removed first.
func PadToGrid(programs []Program, everyMinutes int, now time.Time) []Program {
	out := make([]Program, 0, len(programs)*2)
	for _, p := range RemoveOffline(programs) {
		out = append(out, p)
		if need := NeededFlexTime(p.Duration, everyMinutes, now); need > 0 {
			out = append(out, OfflineProgram(need))
		}
	}
	return out
}

type showGroup struct {
	title    string
	episodes []Program
}

// groupShows splits episodes with a season into per-show groups sorted by
// title, each ordered by season and episode. The rest keeps input order.
func groupShows(programs []Program) ([]showGroup, []Program) {
	byTitle := make(map[string][]Program)
	var others []Program
	for _, p := range programs {
		if !p.IsEpisode() || p.Season == 0 {
			others = append(others, p)
			continue
		}
		byTitle[p.ShowTitle] = append(byTitle[p.ShowTitle], p)
	}
	groups := make([]showGroup, 0, len(byTitle))
	for title, episodes := range byTitle {
		slices.SortStableFunc(episodes, func(a, b Program) int {
			if c := cmp.Compare(a.Season, b.Season); c != 0 {
				return c
			}
			return cmp.Compare(a.Episode, b.Episode)
		})
		groups = append(groups, showGroup{title: title, episodes: episodes})
	}
	slices.SortFunc(groups, func(a, b showGroup) int { return cmp.Compare(a.title, b.title) })
	return groups, others
}
