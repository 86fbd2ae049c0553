package dizquetv

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrIncompleteEntry is returned when an #EXTINF line has no URL before the
	// end of the playlist.
	ErrIncompleteEntry = errors.New("found #EXTINF without URL at end of playlist")
	// ErrOrphanedEntry is returned when an #EXTINF follows another one that has
	// no URL yet.
	ErrOrphanedEntry = errors.New("found #EXTINF without URL for previous entry")
)

var m3uAttr = regexp.MustCompile(`([A-Za-z0-9-]+)="([^"]*)"`)

// Playlist is a parsed M3U playlist.
type Playlist struct {
	// Attributes of the #EXTM3U header, e.g. url-tvg.
	Header  map[string]string
	Entries []PlaylistEntry
}

// PlaylistEntry is one #EXTINF entry.
type PlaylistEntry struct {
	Name       string
	URL        string
	Duration   float64
	TVGID      string
	TVGName    string
	TVGLogo    string
	TVGChno    string
	Group      string
	Attributes map[string]string
}

// ChannelNumber returns the tvg-chno attribute as a number, or 0.
func (e PlaylistEntry) ChannelNumber() int {
	n, _ := strconv.Atoi(e.TVGChno)
	return n
}

// ParseM3U parses an extended M3U playlist. Plain URLs without an #EXTINF
// line are kept as unnamed entries.
func ParseM3U(data string) (*Playlist, error) {
	playlist := &Playlist{Header: map[string]string{}}
	scanner := bufio.NewScanner(strings.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current *PlaylistEntry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#EXTM3U"):
			maps.Copy(playlist.Header, parseM3UAttributes(line))
		case strings.HasPrefix(line, "#EXTINF:"):
			if current != nil {
				return nil, ErrOrphanedEntry
			}
			current = parseExtinf(line)
		case strings.HasPrefix(line, "#"):
			continue
		default:
			if current == nil {
				current = &PlaylistEntry{Duration: -1, Attributes: map[string]string{}}
			}
			current.URL = line
			playlist.Entries = append(playlist.Entries, *current)
			current = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan playlist: %w", err)
	}
	if current != nil {
		return nil, ErrIncompleteEntry
	}
	return playlist, nil
}

func parseExtinf(line string) *PlaylistEntry {
	info := strings.TrimPrefix(line, "#EXTINF:")
	meta, name, _ := cutOutsideQuotes(info, ',')
	entry := &PlaylistEntry{
		Name:       strings.TrimSpace(name),
		Duration:   -1,
		Attributes: parseM3UAttributes(meta),
	}
	if fields := strings.Fields(meta); len(fields) > 0 {
		if d, err := strconv.ParseFloat(fields[0], 64); err == nil {
			entry.Duration = d
		}
	}
	entry.TVGID = entry.Attributes["tvg-id"]
	entry.TVGName = entry.Attributes["tvg-name"]
	entry.TVGLogo = entry.Attributes["tvg-logo"]
	entry.TVGChno = entry.Attributes["tvg-chno"]
	entry.Group = entry.Attributes["group-title"]
	return entry
}

// cutOutsideQuotes splits s at the first sep that is not inside a quoted
// attribute value.
func cutOutsideQuotes(s string, sep byte) (before, after string, found bool) {
	quoted := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			quoted = !quoted
		case sep:
			if !quoted {
				return s[:i], s[i+1:], true
			}
		}
	}
	return s, "", false
}

func parseM3UAttributes(s string) map[string]string {
	attrs := map[string]string{}
	for _, m := range m3uAttr.FindAllStringSubmatch(s, -1) {
		attrs[m[1]] = m[2]
	}
	return attrs
}

func (c *Client) fetchPlaylist(ctx context.Context, rel *url.URL) (*Playlist, error) {
	text, err := c.fetchText(ctx, rel)
	if err != nil {
		return nil, err
	}
	return ParseM3U(text)
}

// M3U fetches the playlist of every channel.
func (c *Client) M3U(ctx context.Context) (*Playlist, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	return c.fetchPlaylist(ctx, c.apiURL("/channels.m3u", nil))
}

// HLSM3U fetches the HLS playlist of every channel.
func (c *Client) HLSM3U(ctx context.Context) (*Playlist, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	return c.fetchPlaylist(ctx, c.apiURL("/hls.m3u", nil))
}

// ChannelM3U fetches the media player playlist of one channel.
func (c *Client) ChannelM3U(ctx context.Context, number int) (*Playlist, error) {
	if err := c.requireChannel(ctx, number); err != nil {
		return nil, err
	}
	return c.fetchPlaylist(ctx, c.rootURL("/media-player/"+strconv.Itoa(number)+".m3u", nil))
}

func (c *Client) requireChannel(ctx context.Context, number int) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	numbers, err := c.ChannelNumbers(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(numbers, number) {
		return fmt.Errorf("%w: #%d", ErrChannelNotFound, number)
	}
	return nil
}

func (c *Client) channelURL(path string, number int, extra url.Values) string {
	query := url.Values{}
	query.Set("channel", strconv.Itoa(number))
	maps.Copy(query, extra)
	return c.baseURL.ResolveReference(c.rootURL(path, query)).String()
}

// StreamURL returns the MPEG-TS stream address of a channel, for players
// such as VLC.
func (c *Client) StreamURL(ctx context.Context, number int, audioOnly bool) (string, error) {
	if err := c.requireChannel(ctx, number); err != nil {
		return "", err
	}
	var extra url.Values
	if audioOnly {
		extra = url.Values{"audioOnly": {"true"}}
	}
	return c.channelURL("/stream", number, extra), nil
}

// VideoURL returns the video stream address of a channel.
func (c *Client) VideoURL(ctx context.Context, number int) (string, error) {
	if err := c.requireChannel(ctx, number); err != nil {
		return "", err
	}
	return c.channelURL("/video", number, nil), nil
}

// RadioURL returns the audio-only stream address of a channel.
func (c *Client) RadioURL(ctx context.Context, number int) (string, error) {
	if err := c.requireChannel(ctx, number); err != nil {
		return "", err
	}
	return c.channelURL("/radio", number, nil), nil
}

// FFMPEGPlaylist returns the raw ffconcat playlist the server feeds FFMPEG
// for a channel.
func (c *Client) FFMPEGPlaylist(ctx context.Context, number int) (string, error) {
	if err := c.requireChannel(ctx, number); err != nil {
		return "", err
	}
	query := url.Values{"channel": {strconv.Itoa(number)}}
	return c.fetchText(ctx, c.rootURL("/playlist", query))
}

// FFMPEGURLs returns the stream addresses listed in a channel's FFMPEG
// playlist, without the ffconcat header.
func (c *Client) FFMPEGURLs(ctx context.Context, number int) ([]string, error) {
	raw, err := c.FFMPEGPlaylist(ctx, number)
	if err != nil {
		return nil, err
	}
	return parseFFConcat(raw), nil
}

// FFMPEGURL returns the first stream address of a channel's FFMPEG playlist.
func (c *Client) FFMPEGURL(ctx context.Context, number int) (string, error) {
	urls, err := c.FFMPEGURLs(ctx, number)
	if err != nil {
		return "", err
	}
	if len(urls) == 0 {
		return "", fmt.Errorf("%w: channel #%d has an empty ffmpeg playlist", ErrInvalidArgument, number)
	}
	return urls[0], nil
}

// parseFFConcat extracts the quoted target of each "file '...'" line.
func parseFFConcat(raw string) []string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	urls := []string{}
	if len(lines) < 2 {
		return urls
	}
	for _, line := range lines[1:] {
		_, target, ok := strings.Cut(strings.TrimSpace(line), " ")
		if !ok {
			continue
		}
		urls = append(urls, strings.ReplaceAll(strings.TrimSpace(target), "'", ""))
	}
	return urls
}
