package dizquetv

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPlexServerFromConnection_AssignsFreeIndex(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	c := f.client()
	ctx := testContext(t)

	first, err := c.AddPlexServerFromConnection(ctx, PlexConnection{
		FriendlyName: "Basement",
		URL:          "http://10.0.0.5:32400/",
		Token:        "tok-a",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, "http://10.0.0.5:32400", first.URI)
	assert.True(t, first.ARChannels)
	assert.True(t, first.ARGuide)
	assert.NotEmpty(t, first.ID)

	second, err := c.AddPlexServerFromConnection(ctx, PlexConnection{FriendlyName: "Attic", URL: "http://10.0.0.6:32400", Token: "tok-b"})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Index)

	require.NoError(t, first.Delete(ctx))
	req, ok := f.lastRequest("DELETE", "/api/plex-servers")
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"Basement"}`, string(req.Body))

	next, err := c.NextPlexServerIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	servers, err := c.PlexServers(ctx)
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "Attic", servers[0].Name)
}

func TestAddPlexServer_RequiresSettings(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	c := f.client()
	ctx := testContext(t)

	cases := []PlexServer{
		{URI: "http://plex", AccessToken: "t"},
		{Name: "n", AccessToken: "t"},
		{Name: "n", URI: "http://plex"},
	}
	for _, server := range cases {
		_, err := c.AddPlexServer(ctx, server)
		assert.ErrorIs(t, err, ErrMissingSettings)
	}
	assert.Zero(t, f.count("PUT", "/api/plex-servers"))
}

func TestPlexServer_StatusAndUpdate(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	c := f.client()
	ctx := testContext(t)

	server, err := c.AddPlexServer(ctx, PlexServer{Name: "Main", URI: "http://plex:32400", AccessToken: "tok"})
	require.NoError(t, err)

	up, err := server.Status(ctx)
	require.NoError(t, err)
	assert.True(t, up)

	foreign, err := server.ForeignStatus(ctx)
	require.NoError(t, err)
	assert.False(t, foreign)

	down, err := c.PlexServerStatus(ctx, "offline")
	require.NoError(t, err)
	assert.False(t, down)

	require.NoError(t, server.Update(ctx, func(s *PlexServer) { s.ARGuide = true }))
	assert.True(t, server.ARGuide)
	req, ok := f.lastRequest("POST", "/api/plex-servers")
	require.True(t, ok)
	var sent document
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	assert.Equal(t, server.ID, sent["_id"])

	_, err = c.UpdatePlexServer(ctx, "Nope", func(*PlexServer) {})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	missing, err := c.PlexServer(ctx, "Nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	var local PlexServer
	_, err = local.Status(ctx)
	assert.ErrorIs(t, err, ErrNotRemoteObject)
	assert.ErrorIs(t, c.DeletePlexServer(ctx, ""), ErrMissingParameters)
}
