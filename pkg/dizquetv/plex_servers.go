package dizquetv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// PlexServer is a Plex server registered with dizqueTV.
type PlexServer struct {
	ID          string `json:"_id,omitempty"`
	Name        string `json:"name"`
	URI         string `json:"uri"`
	AccessToken string `json:"accessToken"`
	Index       int    `json:"index"`
	ARChannels  bool   `json:"arChannels"`
	ARGuide     bool   `json:"arGuide"`

	client *Client
}

// PlexConnection identifies a reachable Plex server to register.
type PlexConnection struct {
	FriendlyName string
	URL          string
	Token        string
}

type plexServerName struct {
	Name string `json:"name"`
}

// PlexServers lists registered Plex servers.
func (c *Client) PlexServers(ctx context.Context) ([]*PlexServer, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var servers []*PlexServer
	if err := c.do(ctx, http.MethodGet, "/plex-servers", nil, &servers); err != nil {
		return nil, err
	}
	for _, s := range servers {
		s.client = c
	}
	return servers, nil
}

// PlexServer returns the registered server called name, or nil.
func (c *Client) PlexServer(ctx context.Context, name string) (*PlexServer, error) {
	servers, err := c.PlexServers(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range servers {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, nil
}

// PlexServerStatus reports whether dizqueTV can reach the server.
func (c *Client) PlexServerStatus(ctx context.Context, name string) (bool, error) {
	return c.plexStatus(ctx, "/plex-servers/status", name)
}

// PlexServerForeignStatus reports whether the server can reach dizqueTV.
func (c *Client) PlexServerForeignStatus(ctx context.Context, name string) (bool, error) {
	return c.plexStatus(ctx, "/plex-servers/foreignstatus", name)
}

func (c *Client) plexStatus(ctx context.Context, path, name string) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("client is nil")
	}
	var status struct {
		Status int `json:"status"`
	}
	err := c.do(ctx, http.MethodPost, path, plexServerName{Name: name}, &status)
	if err != nil {
		if errors.Is(err, ErrUnexpectedStatus) {
			return false, nil
		}
		return false, err
	}
	return status.Status == 0 || status.Status == 1, nil
}

// NextPlexServerIndex returns the lowest index no registered server uses.
func (c *Client) NextPlexServerIndex(ctx context.Context) (int, error) {
	servers, err := c.PlexServers(ctx)
	if err != nil {
		return 0, err
	}
	used := make(map[int]bool, len(servers))
	for _, s := range servers {
		used[s.Index] = true
	}
	index := 0
	for used[index] {
		index++
	}
	return index, nil
}

// AddPlexServer registers a Plex server and returns it as stored.
func (c *Client) AddPlexServer(ctx context.Context, server PlexServer) (*PlexServer, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	switch {
	case strings.TrimSpace(server.Name) == "":
		return nil, missingSetting("name")
	case strings.TrimSpace(server.URI) == "":
		return nil, missingSetting("uri")
	case strings.TrimSpace(server.AccessToken) == "":
		return nil, missingSetting("accessToken")
	}
	if err := c.do(ctx, http.MethodPut, "/plex-servers", server, nil); err != nil {
		return nil, err
	}
	return c.PlexServer(ctx, server.Name)
}

// AddPlexServerFromConnection registers conn at the lowest free index with
// channel and guide auto-refresh enabled.
func (c *Client) AddPlexServerFromConnection(ctx context.Context, conn PlexConnection) (*PlexServer, error) {
	index, err := c.NextPlexServerIndex(ctx)
	if err != nil {
		return nil, err
	}
	return c.AddPlexServer(ctx, PlexServer{
		Name:        conn.FriendlyName,
		URI:         strings.TrimRight(conn.URL, "/"),
		AccessToken: conn.Token,
		Index:       index,
		ARChannels:  true,
		ARGuide:     true,
	})
}

// UpdatePlexServer applies fn to the registration called name and saves it.
func (c *Client) UpdatePlexServer(ctx context.Context, name string, fn func(*PlexServer)) (*PlexServer, error) {
	current, err := c.PlexServer(ctx, name)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, invalidArgument("plex server %q is not registered", name)
	}
	fn(current)
	if err := c.do(ctx, http.MethodPost, "/plex-servers", current, nil); err != nil {
		return nil, err
	}
	return c.PlexServer(ctx, current.Name)
}

// DeletePlexServer removes the registration called name.
func (c *Client) DeletePlexServer(ctx context.Context, name string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: plex server name", ErrMissingParameters)
	}
	return c.do(ctx, http.MethodDelete, "/plex-servers", plexServerName{Name: name}, nil)
}

func (s *PlexServer) bound() error {
	if s == nil || s.client == nil {
		return &NotRemoteObjectError{Kind: "plex server"}
	}
	return nil
}

func (s *PlexServer) Status(ctx context.Context) (bool, error) {
	if err := s.bound(); err != nil {
		return false, err
	}
	return s.client.PlexServerStatus(ctx, s.Name)
}

func (s *PlexServer) ForeignStatus(ctx context.Context) (bool, error) {
	if err := s.bound(); err != nil {
		return false, err
	}
	return s.client.PlexServerForeignStatus(ctx, s.Name)
}

// Refresh reloads the registration in place.
func (s *PlexServer) Refresh(ctx context.Context) error {
	if err := s.bound(); err != nil {
		return err
	}
	fresh, err := s.client.PlexServer(ctx, s.Name)
	if err != nil {
		return err
	}
	if fresh == nil {
		return &NotRemoteObjectError{Kind: "plex server"}
	}
	*s = *fresh
	return nil
}

// Update applies fn and saves the registration.
func (s *PlexServer) Update(ctx context.Context, fn func(*PlexServer)) error {
	if err := s.bound(); err != nil {
		return err
	}
	updated, err := s.client.UpdatePlexServer(ctx, s.Name, fn)
	if err != nil {
		return err
	}
	*s = *updated
	return nil
}

func (s *PlexServer) Delete(ctx context.Context) error {
	if err := s.bound(); err != nil {
		return err
	}
	return s.client.DeletePlexServer(ctx, s.Name)
}
