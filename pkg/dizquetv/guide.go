package dizquetv

import (
	"cmp"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"
)

// GuideProgram is one entry of the generated guide.
type GuideProgram struct {
	Start   string `json:"start"`
	Stop    string `json:"stop"`
	Summary string `json:"summary"`
	Date    string `json:"date"`
	Rating  string `json:"rating"`
	Icon    string `json:"icon"`
	Title   string `json:"title"`
}

// StartTime parses Start.
func (p GuideProgram) StartTime() (time.Time, error) { return ParseTimestamp(p.Start) }

// StopTime parses Stop.
func (p GuideProgram) StopTime() (time.Time, error) { return ParseTimestamp(p.Stop) }

// GuideChannel is a channel as it appears in the guide.
type GuideChannel struct {
	Number   int            `json:"number"`
	Name     string         `json:"name"`
	Icon     string         `json:"icon"`
	Programs []GuideProgram `json:"-"`

	client *Client
}

// Guide is the server's current guide, one entry per channel.
type Guide struct {
	Channels []*GuideChannel
}

// Channel returns the guide entry for number, or nil.
func (g *Guide) Channel(number int) *GuideChannel {
	if g == nil {
		return nil
	}
	for _, ch := range g.Channels {
		if ch.Number == number {
			return ch
		}
	}
	return nil
}

type guideEntry struct {
	Channel  GuideChannel   `json:"channel"`
	Programs []GuideProgram `json:"programs"`
}

// Guide fetches the guide for every channel, ordered by channel number.
func (c *Client) Guide(ctx context.Context) (*Guide, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var raw map[string]guideEntry
	if err := c.do(ctx, http.MethodGet, "/guide/debug", nil, &raw); err != nil {
		return nil, err
	}
	guide := &Guide{Channels: make([]*GuideChannel, 0, len(raw))}
	for key, entry := range raw {
		ch := entry.Channel
		if ch.Number == 0 {
			// Older servers omit the number inside the channel object.
			ch.Number, _ = strconv.Atoi(key)
		}
		ch.Programs = entry.Programs
		ch.client = c
		guide.Channels = append(guide.Channels, &ch)
	}
	slices.SortFunc(guide.Channels, func(a, b *GuideChannel) int { return cmp.Compare(a.Number, b.Number) })
	return guide, nil
}

// GuideLineup fetches the guide entries of one channel between from and to.
func (c *Client) GuideLineup(ctx context.Context, number int, from, to time.Time) ([]GuideProgram, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if to.Before(from) {
		return nil, invalidArgument("lineup window ends before it starts")
	}
	query := url.Values{}
	query.Set("dateFrom", FormatTimestamp(from))
	query.Set("dateTo", FormatTimestamp(to))
	var payload struct {
		Programs []GuideProgram `json:"programs"`
	}
	rel := c.apiURL("/guide/channels/"+strconv.Itoa(number), query)
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, channelLookupError(number, err)
	}
	if payload.Programs == nil {
		return []GuideProgram{}, nil
	}
	return payload.Programs, nil
}

// Lineup fetches this channel's guide entries between from and to.
func (g *GuideChannel) Lineup(ctx context.Context, from, to time.Time) ([]GuideProgram, error) {
	if g == nil || g.client == nil {
		return nil, &NotRemoteObjectError{Kind: "guide channel"}
	}
	return g.client.GuideLineup(ctx, g.Number, from, to)
}

// GuideStatus is the state of the guide generator.
type GuideStatus struct {
	LastUpdate     string   `json:"lastUpdate"`
	ChannelNumbers []string `json:"channelNumbers"`
}

// GuideStatus fetches the guide generator status.
func (c *Client) GuideStatus(ctx context.Context) (*GuideStatus, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var status GuideStatus
	if err := c.do(ctx, http.MethodGet, "/guide/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// LastGuideUpdate returns when the guide was last generated. The zero time
// means it never was.
func (c *Client) LastGuideUpdate(ctx context.Context) (time.Time, error) {
	status, err := c.GuideStatus(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if status.LastUpdate == "" {
		return time.Time{}, nil
	}
	return ParseTimestamp(status.LastUpdate)
}

// GuideChannelNumbers lists the channels the guide covers. The server reports
// them as strings.
func (c *Client) GuideChannelNumbers(ctx context.Context) ([]string, error) {
	status, err := c.GuideStatus(ctx)
	if err != nil {
		return nil, err
	}
	if status.ChannelNumbers == nil {
		return []string{}, nil
	}
	return status.ChannelNumbers, nil
}

// LastXMLTVRefresh returns the raw timestamp of the last XMLTV refresh.
func (c *Client) LastXMLTVRefresh(ctx context.Context) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	var last string
	if err := c.do(ctx, http.MethodGet, "/xmltv-last-refresh", nil, &last); err != nil {
		return "", err
	}
	return last, nil
}

// RefreshXMLTV makes the server rebuild xmltv.xml. Saving the XMLTV settings
// unchanged triggers the rebuild.
func (c *Client) RefreshXMLTV(ctx context.Context) error {
	_, err := c.UpdateXMLTVSettings(ctx, func(*XMLTVSettings) {})
	return err
}

// XMLTV is a decoded xmltv.xml document.
type XMLTV struct {
	XMLName    xml.Name         `xml:"tv"`
	Generator  string           `xml:"generator-info-name,attr"`
	Channels   []XMLTVChannel   `xml:"channel"`
	Programmes []XMLTVProgramme `xml:"programme"`
}

// XMLTVChannel is a <channel> element.
type XMLTVChannel struct {
	ID          string    `xml:"id,attr"`
	DisplayName []string  `xml:"display-name"`
	Icon        XMLTVIcon `xml:"icon"`
}

// XMLTVIcon is an <icon> element.
type XMLTVIcon struct {
	Src string `xml:"src,attr"`
}

// XMLTVProgramme is a <programme> element.
type XMLTVProgramme struct {
	Channel     string    `xml:"channel,attr"`
	Start       string    `xml:"start,attr"`
	Stop        string    `xml:"stop,attr"`
	Title       string    `xml:"title"`
	SubTitle    string    `xml:"sub-title"`
	Description string    `xml:"desc"`
	Date        string    `xml:"date"`
	Category    []string  `xml:"category"`
	Icon        XMLTVIcon `xml:"icon"`
	EpisodeNum  []string  `xml:"episode-num"`
	Rating      string    `xml:"rating>value"`
}

const xmltvTimeLayout = "20060102150405 -0700"

// StartTime parses the programme start.
func (p XMLTVProgramme) StartTime() (time.Time, error) { return time.Parse(xmltvTimeLayout, p.Start) }

// StopTime parses the programme stop.
func (p XMLTVProgramme) StopTime() (time.Time, error) { return time.Parse(xmltvTimeLayout, p.Stop) }

// ProgrammesFor returns the programmes of one channel id.
func (tv *XMLTV) ProgrammesFor(channelID string) []XMLTVProgramme {
	if tv == nil {
		return nil
	}
	var out []XMLTVProgramme
	for _, p := range tv.Programmes {
		if p.Channel == channelID {
			out = append(out, p)
		}
	}
	return out
}

// XMLTV refreshes the guide file and returns it decoded.
func (c *Client) XMLTV(ctx context.Context) (*XMLTV, error) {
	if err := c.RefreshXMLTV(ctx); err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, http.MethodGet, c.apiURL("/xmltv.xml", nil), nil, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var tv XMLTV
	if err := xml.NewDecoder(resp.Body).Decode(&tv); err != nil {
		return nil, fmt.Errorf("decode xmltv: %w", err)
	}
	return &tv, nil
}
