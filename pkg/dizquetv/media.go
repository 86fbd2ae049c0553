package dizquetv

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Program types understood by dizqueTV.
const (
	ProgramTypeMovie    = "movie"
	ProgramTypeEpisode  = "episode"
	ProgramTypeTrack    = "track"
	ProgramTypeRedirect = "redirect"
)

// DefaultOfflineDuration is the placeholder length used when a channel or
// filler list would otherwise be created empty.
const DefaultOfflineDuration int64 = 600000

const releaseDateLayout = "2006-01-02"

// Program is an entry of a channel lineup, filler list or custom show. It
// also models offline time (IsOffline without a type) and redirects to other
// channels.
type Program struct {
	Title       string `json:"title,omitempty"`
	Key         string `json:"key,omitempty"`
	RatingKey   string `json:"ratingKey,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Type        string `json:"type,omitempty"`
	Duration    int64  `json:"duration"`
	Summary     string `json:"summary,omitempty"`
	Rating      string `json:"rating,omitempty"`
	Date        string `json:"date,omitempty"`
	Year        Year   `json:"year,omitempty"`
	PlexFile    string `json:"plexFile,omitempty"`
	File        string `json:"file,omitempty"`
	ShowTitle   string `json:"showTitle,omitempty"`
	Episode     int    `json:"episode"`
	Season      int    `json:"season"`
	ServerKey   string `json:"serverKey,omitempty"`
	ShowIcon    string `json:"showIcon,omitempty"`
	SeasonIcon  string `json:"seasonIcon,omitempty"`
	EpisodeIcon string `json:"episodeIcon,omitempty"`
	IsOffline   bool   `json:"isOffline,omitempty"`
	Channel     int    `json:"channel,omitempty"`

	CustomShowID   string `json:"customShowId,omitempty"`
	CustomShowName string `json:"customShowName,omitempty"`
	CustomOrder    int    `json:"customOrder,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type plainProgram Program

// Year is a release year. Older clients stored it as a string, so both forms
// decode.
type Year int

func (y *Year) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	if text == "" || text == "null" {
		*y = 0
		return nil
	}
	// "1900-01-01" was written by some converters in place of a year.
	if len(text) > 4 && text[4] == '-' {
		text = text[:4]
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return fmt.Errorf("parse year %s: %w", data, err)
	}
	*y = Year(n)
	return nil
}

// UnmarshalJSON decodes a program and keeps unmodelled keys in Extra.
func (p *Program) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*plainProgram)(p)); err != nil {
		return err
	}
	extra, err := splitExtra(data, reflect.TypeFor[plainProgram]())
	if err != nil {
		return err
	}
	p.Extra = extra
	return nil
}

// MarshalJSON encodes the program together with its Extra keys.
func (p Program) MarshalJSON() ([]byte, error) {
	return mergeExtra(plainProgram(p), p.Extra)
}

// OfflineProgram returns a block of flex time lasting duration milliseconds.
func OfflineProgram(duration int64) Program {
	return Program{Duration: duration, IsOffline: true}
}

// RedirectProgram returns a redirect to channel lasting duration milliseconds.
func RedirectProgram(channel int, duration int64) Program {
	return Program{
		Type:      ProgramTypeRedirect,
		IsOffline: true,
		Channel:   channel,
		Duration:  duration,
	}
}

func (p Program) IsRedirect() bool { return p.Type == ProgramTypeRedirect }

func (p Program) IsEpisode() bool { return p.Type == ProgramTypeEpisode }

// IsFlex reports offline time that is not a redirect.
func (p Program) IsFlex() bool { return p.IsOffline && !p.IsRedirect() }

// IsCustomShowItem reports whether the program was added as part of a custom show.
func (p Program) IsCustomShowItem() bool { return p.CustomShowID != "" }

// FullName renders episodes as "Show - s01e02 - Title" and everything else
// by title.
func (p Program) FullName() string {
	if p.IsRedirect() {
		return fmt.Sprintf("Redirect to channel %d", p.Channel)
	}
	if p.IsFlex() {
		return "Flex"
	}
	if p.IsEpisode() {
		return fmt.Sprintf("%s - s%02de%02d - %s", p.ShowTitle, p.Season, p.Episode, p.Title)
	}
	return p.Title
}

// ReleaseDate parses the YYYY-MM-DD date of the program.
func (p Program) ReleaseDate() (time.Time, bool) {
	if strings.TrimSpace(p.Date) == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(releaseDateLayout, p.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (p Program) clone() Program {
	p.Extra = cloneExtra(p.Extra)
	return p
}

func clonePrograms(programs []Program) []Program {
	if programs == nil {
		return nil
	}
	out := make([]Program, len(programs))
	for i, p := range programs {
		out[i] = p.clone()
	}
	return out
}

// TotalDuration sums program durations in milliseconds.
func TotalDuration(programs []Program) int64 {
	var total int64
	for _, p := range programs {
		total += p.Duration
	}
	return total
}

// ValidateProgram checks that p carries the fields its type requires before
// it is sent to the server.
func ValidateProgram(p Program) error {
	var required map[string]bool
	switch p.Type {
	case ProgramTypeMovie:
		required = map[string]bool{
			"title":     p.Title != "",
			"key":       p.Key != "",
			"ratingKey": p.RatingKey != "",
			"duration":  p.Duration > 0,
		}
	case ProgramTypeEpisode:
		required = map[string]bool{
			"title":     p.Title != "",
			"key":       p.Key != "",
			"ratingKey": p.RatingKey != "",
			"duration":  p.Duration > 0,
			"showTitle": p.ShowTitle != "",
		}
	case ProgramTypeTrack:
		required = map[string]bool{
			"title":     p.Title != "",
			"key":       p.Key != "",
			"ratingKey": p.RatingKey != "",
		}
	case ProgramTypeRedirect:
		required = map[string]bool{
			"channel":  p.Channel > 0,
			"duration": p.Duration > 0,
		}
	case "":
		if !p.IsOffline {
			return fmt.Errorf("%w: program type is empty", ErrItemCreation)
		}
		required = map[string]bool{"duration": p.Duration > 0}
	default:
		return fmt.Errorf("%w: unsupported program type %q", ErrItemCreation, p.Type)
	}
	for _, name := range []string{"title", "key", "ratingKey", "showTitle", "channel", "duration"} {
		if ok, checked := required[name]; checked && !ok {
			return fmt.Errorf("%w: %s program missing %s", ErrItemCreation, typeLabel(p), name)
		}
	}
	return nil
}

// ValidateFiller checks a filler list item. Fillers must be playable media.
func ValidateFiller(p Program) error {
	if p.IsOffline && p.Type == "" {
		return ValidateProgram(p)
	}
	if p.IsRedirect() {
		return fmt.Errorf("%w: redirects cannot be used as filler", ErrItemCreation)
	}
	return ValidateProgram(p)
}

func typeLabel(p Program) string {
	if p.Type == "" {
		return "offline"
	}
	return p.Type
}
