package dizquetv

import (
	"fmt"
	"strings"
	"time"
)

const defaultReleaseDate = "1900-01-01"

// PlexItem is the subset of a Plex library item needed to build a program.
// Callers fill it from whichever Plex client they use.
type PlexItem struct {
	Type                  string
	Title                 string
	Key                   string
	RatingKey             string
	Thumb                 string
	ParentThumb           string
	GrandparentThumb      string
	GrandparentTitle      string
	Duration              int64
	Summary               string
	ContentRating         string
	OriginallyAvailableAt time.Time
	// Index and ParentIndex are the episode and season numbers.
	Index       int
	ParentIndex int
	// PartKey and PartFile describe the first media part.
	PartKey  string
	PartFile string
}

// ProgramFromPlex converts a Plex movie, episode or track into a program
// served by server.
func ProgramFromPlex(item PlexItem, server *PlexServer) (Program, error) {
	p, err := programFromPlex(item, server)
	if err != nil {
		return Program{}, err
	}
	p.Icon = plexImage(server, item.Thumb)
	if item.Type == ProgramTypeTrack {
		p.Rating = ""
	}
	if item.Type == ProgramTypeEpisode {
		seasonThumb := item.ParentThumb
		if seasonThumb == "" {
			seasonThumb = item.GrandparentThumb
		}
		p.EpisodeIcon = plexImage(server, item.Thumb)
		p.SeasonIcon = plexImage(server, seasonThumb)
		p.ShowIcon = plexImage(server, item.GrandparentThumb)
		p.Icon = p.ShowIcon
	}
	return p, ValidateProgram(p)
}

// FillerFromPlex converts a Plex item into a filler list entry. Filler icons
// keep the bare Plex thumb path.
func FillerFromPlex(item PlexItem, server *PlexServer) (Program, error) {
	p, err := programFromPlex(item, server)
	if err != nil {
		return Program{}, err
	}
	p.Icon = item.Thumb
	p.Rating = ""
	return p, ValidateFiller(p)
}

func programFromPlex(item PlexItem, server *PlexServer) (Program, error) {
	if server == nil {
		return Program{}, fmt.Errorf("%w: plex server", ErrMissingParameters)
	}
	switch item.Type {
	case ProgramTypeMovie, ProgramTypeEpisode, ProgramTypeTrack:
	default:
		return Program{}, fmt.Errorf("%w: plex item type %q cannot be played", ErrItemCreation, item.Type)
	}
	p := Program{
		Title:     item.Title,
		Key:       item.Key,
		RatingKey: item.RatingKey,
		Type:      item.Type,
		Duration:  max(item.Duration, 0),
		Summary:   item.Summary,
		Rating:    item.ContentRating,
		Date:      defaultReleaseDate,
		Year:      1900,
		PlexFile:  item.PartKey,
		File:      item.PartFile,
		ServerKey: server.Name,
	}
	if !item.OriginallyAvailableAt.IsZero() {
		p.Date = item.OriginallyAvailableAt.Format(releaseDateLayout)
		p.Year = Year(item.OriginallyAvailableAt.Year())
	}
	if item.Type == ProgramTypeMovie {
		p.ShowTitle = item.Title
		p.Episode = 1
		p.Season = 1
	} else {
		p.ShowTitle = item.GrandparentTitle
		p.Episode = item.Index
		p.Season = item.ParentIndex
	}
	return p, nil
}

func plexImage(server *PlexServer, thumb string) string {
	if thumb == "" {
		return ""
	}
	return strings.TrimRight(server.URI, "/") + thumb + "?X-Plex-Token=" + server.AccessToken
}
