package dizquetv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
)

const (
	ffmpegSettingsPath = "/ffmpeg-settings"
	plexSettingsPath   = "/plex-settings"
	xmltvSettingsPath  = "/xmltv-settings"
	hdhrSettingsPath   = "/hdhr-settings"
)

// FFMPEGSettings are the server-wide transcoding settings.
type FFMPEGSettings struct {
	ID                      string `json:"_id,omitempty"`
	ConfigVersion           int    `json:"configVersion"`
	FFMPEGPath              string `json:"ffmpegPath"`
	Threads                 int    `json:"threads"`
	ConcatMuxDelay          string `json:"concatMuxDelay"`
	LogFFMPEG               bool   `json:"logFfmpeg"`
	EnableFFMPEGTranscoding bool   `json:"enableFFMPEGTranscoding"`
	AudioVolumePercent      int    `json:"audioVolumePercent"`
	VideoEncoder            string `json:"videoEncoder"`
	AudioEncoder            string `json:"audioEncoder"`
	TargetResolution        string `json:"targetResolution"`
	VideoBitrate            int    `json:"videoBitrate"`
	VideoBufSize            int    `json:"videoBufSize"`
	AudioBitrate            int    `json:"audioBitrate"`
	AudioBufSize            int    `json:"audioBufSize"`
	AudioSampleRate         int    `json:"audioSampleRate"`
	AudioChannels           int    `json:"audioChannels"`
	ErrorScreen             string `json:"errorScreen"`
	ErrorAudio              string `json:"errorAudio"`
	NormalizeVideoCodec     bool   `json:"normalizeVideoCodec"`
	NormalizeAudioCodec     bool   `json:"normalizeAudioCodec"`
	NormalizeResolution     bool   `json:"normalizeResolution"`
	NormalizeAudio          bool   `json:"normalizeAudio"`
	MaxFPS                  int    `json:"maxFPS"`
	ScalingAlgorithm        string `json:"scalingAlgorithm"`
	DisablePreludes         bool   `json:"disablePreludes"`

	Extra map[string]json.RawMessage `json:"-"`
}

// PlexSettings control how dizqueTV plays media from Plex.
type PlexSettings struct {
	ID                       string `json:"_id,omitempty"`
	StreamPath               string `json:"streamPath"`
	DebugLogging             bool   `json:"debugLogging"`
	DirectStreamBitrate      string `json:"directStreamBitrate"`
	TranscodeBitrate         string `json:"transcodeBitrate"`
	MediaBufferSize          int    `json:"mediaBufferSize"`
	TranscodeMediaBufferSize int    `json:"transcodeMediaBufferSize"`
	MaxPlayableResolution    string `json:"maxPlayableResolution"`
	MaxTranscodeResolution   string `json:"maxTranscodeResolution"`
	VideoCodecs              string `json:"videoCodecs"`
	AudioCodecs              string `json:"audioCodecs"`
	MaxAudioChannels         string `json:"maxAudioChannels"`
	AudioBoost               string `json:"audioBoost"`
	EnableSubtitles          bool   `json:"enableSubtitles"`
	SubtitleSize             string `json:"subtitleSize"`
	UpdatePlayStatus         bool   `json:"updatePlayStatus"`
	StreamProtocol           string `json:"streamProtocol"`
	ForceDirectPlay          bool   `json:"forceDirectPlay"`
	PathReplace              string `json:"pathReplace"`
	PathReplaceWith          string `json:"pathReplaceWith"`

	Extra map[string]json.RawMessage `json:"-"`
}

// XMLTVSettings control guide generation. Cache and Refresh are in hours.
type XMLTVSettings struct {
	ID      string `json:"_id,omitempty"`
	Cache   int    `json:"cache"`
	Refresh int    `json:"refresh"`
	File    string `json:"file"`

	Extra map[string]json.RawMessage `json:"-"`
}

// HDHRSettings control HDHomeRun emulation.
type HDHRSettings struct {
	ID            string `json:"_id,omitempty"`
	TunerCount    int    `json:"tunerCount"`
	AutoDiscovery bool   `json:"autoDiscovery"`

	Extra map[string]json.RawMessage `json:"-"`
}

type (
	plainFFMPEGSettings FFMPEGSettings
	plainPlexSettings   PlexSettings
	plainXMLTVSettings  XMLTVSettings
	plainHDHRSettings   HDHRSettings
)

func (s *FFMPEGSettings) UnmarshalJSON(data []byte) error {
	return decodeWithExtra(data, (*plainFFMPEGSettings)(s), &s.Extra)
}

func (s FFMPEGSettings) MarshalJSON() ([]byte, error) {
	return mergeExtra(plainFFMPEGSettings(s), s.Extra)
}

func (s *PlexSettings) UnmarshalJSON(data []byte) error {
	return decodeWithExtra(data, (*plainPlexSettings)(s), &s.Extra)
}

func (s PlexSettings) MarshalJSON() ([]byte, error) {
	return mergeExtra(plainPlexSettings(s), s.Extra)
}

func (s *XMLTVSettings) UnmarshalJSON(data []byte) error {
	return decodeWithExtra(data, (*plainXMLTVSettings)(s), &s.Extra)
}

func (s XMLTVSettings) MarshalJSON() ([]byte, error) {
	return mergeExtra(plainXMLTVSettings(s), s.Extra)
}

func (s *HDHRSettings) UnmarshalJSON(data []byte) error {
	return decodeWithExtra(data, (*plainHDHRSettings)(s), &s.Extra)
}

func (s HDHRSettings) MarshalJSON() ([]byte, error) {
	return mergeExtra(plainHDHRSettings(s), s.Extra)
}

func decodeWithExtra(data []byte, plain any, extra *map[string]json.RawMessage) error {
	if err := json.Unmarshal(data, plain); err != nil {
		return err
	}
	rest, err := splitExtra(data, reflect.TypeOf(plain).Elem())
	if err != nil {
		return err
	}
	*extra = rest
	return nil
}

func (s *FFMPEGSettings) settingsID() string { return s.ID }
func (s *PlexSettings) settingsID() string { return s.ID }
func (s *XMLTVSettings) settingsID() string { return s.ID }
func (s *HDHRSettings) settingsID() string { return s.ID }

type settingsPtr[T any] interface {
	*T
	settingsID() string
}

func getSettings[T any](ctx context.Context, c *Client, path string) (*T, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var settings T
	if err := c.do(ctx, http.MethodGet, path, nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func updateSettings[T any](ctx context.Context, c *Client, path string, fn func(*T)) (*T, error) {
	current, err := getSettings[T](ctx, c, path)
	if err != nil {
		return nil, err
	}
	fn(current)
	if err := c.do(ctx, http.MethodPut, path, current, nil); err != nil {
		return nil, err
	}
	return getSettings[T](ctx, c, path)
}

func resetSettings[T any, P settingsPtr[T]](ctx context.Context, c *Client, path string) (*T, error) {
	current, err := getSettings[T](ctx, c, path)
	if err != nil {
		return nil, err
	}
	body := struct {
		ID string `json:"_id"`
	}{ID: P(current).settingsID()}
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return nil, err
	}
	return getSettings[T](ctx, c, path)
}

func (c *Client) FFMPEGSettings(ctx context.Context) (*FFMPEGSettings, error) {
	return getSettings[FFMPEGSettings](ctx, c, ffmpegSettingsPath)
}

// UpdateFFMPEGSettings applies fn to the current settings and saves them.
func (c *Client) UpdateFFMPEGSettings(ctx context.Context, fn func(*FFMPEGSettings)) (*FFMPEGSettings, error) {
	return updateSettings(ctx, c, ffmpegSettingsPath, fn)
}

// ResetFFMPEGSettings restores the server defaults.
func (c *Client) ResetFFMPEGSettings(ctx context.Context) (*FFMPEGSettings, error) {
	return resetSettings[FFMPEGSettings](ctx, c, ffmpegSettingsPath)
}

func (c *Client) PlexSettings(ctx context.Context) (*PlexSettings, error) {
	return getSettings[PlexSettings](ctx, c, plexSettingsPath)
}

// UpdatePlexSettings applies fn to the current settings and saves them.
func (c *Client) UpdatePlexSettings(ctx context.Context, fn func(*PlexSettings)) (*PlexSettings, error) {
	return updateSettings(ctx, c, plexSettingsPath, fn)
}

// ResetPlexSettings restores the server defaults.
func (c *Client) ResetPlexSettings(ctx context.Context) (*PlexSettings, error) {
	return resetSettings[PlexSettings](ctx, c, plexSettingsPath)
}

func (c *Client) XMLTVSettings(ctx context.Context) (*XMLTVSettings, error) {
	return getSettings[XMLTVSettings](ctx, c, xmltvSettingsPath)
}

// UpdateXMLTVSettings applies fn to the current settings and saves them.
func (c *Client) UpdateXMLTVSettings(ctx context.Context, fn func(*XMLTVSettings)) (*XMLTVSettings, error) {
	return updateSettings(ctx, c, xmltvSettingsPath, fn)
}

// ResetXMLTVSettings restores the server defaults.
func (c *Client) ResetXMLTVSettings(ctx context.Context) (*XMLTVSettings, error) {
	return resetSettings[XMLTVSettings](ctx, c, xmltvSettingsPath)
}

func (c *Client) HDHRSettings(ctx context.Context) (*HDHRSettings, error) {
	return getSettings[HDHRSettings](ctx, c, hdhrSettingsPath)
}

// UpdateHDHRSettings applies fn to the current settings and saves them.
func (c *Client) UpdateHDHRSettings(ctx context.Context, fn func(*HDHRSettings)) (*HDHRSettings, error) {
	return updateSettings(ctx, c, hdhrSettingsPath, fn)
}

// ResetHDHRSettings restores the server defaults.
func (c *Client) ResetHDHRSettings(ctx context.Context) (*HDHRSettings, error) {
	return resetSettings[HDHRSettings](ctx, c, hdhrSettingsPath)
}
