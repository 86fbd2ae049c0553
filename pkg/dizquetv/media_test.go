package dizquetv

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgram_KeepsUnknownKeys(t *testing.T) {
	in := `{"title":"Alien","type":"movie","duration":7020000,"year":"1979","commercials":[{"id":1}],"serverKey":"Main"}`
	var p Program
	require.NoError(t, json.Unmarshal([]byte(in), &p))
	assert.Equal(t, Year(1979), p.Year)
	assert.Equal(t, "Main", p.ServerKey)
	require.Contains(t, p.Extra, "commercials")
	assert.NotContains(t, p.Extra, "title")

	p.Title = "Aliens"
	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Aliens","type":"movie","duration":7020000,"year":1979,"episode":0,"season":0,"commercials":[{"id":1}],"serverKey":"Main"}`, string(out))
}

func TestProgram_EncodesSpecialsSeason(t *testing.T) {
	special := episode("Doctor Who", 0, 3, 60)
	out, err := json.Marshal(special)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.JSONEq(t, "0", string(fields["season"]))
	assert.JSONEq(t, "3", string(fields["episode"]))
}

func TestYear_Decoding(t *testing.T) {
	cases := map[string]Year{
		`1999`:         1999,
		`"2004"`:       2004,
		`"1900-01-01"`: 1900,
		`null`:         0,
		`""`:           0,
	}
	for in, want := range cases {
		var y Year
		require.NoError(t, json.Unmarshal([]byte(in), &y), in)
		assert.Equal(t, want, y, in)
	}
	var y Year
	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &y))
}

func TestValidateProgram(t *testing.T) {
	ok := []Program{
		movie("Alien", 117),
		episode("Lost", 1, 1, 42),
		{Type: ProgramTypeTrack, Title: "Song", Key: "/k", RatingKey: "1"},
		RedirectProgram(3, 1000),
		OfflineProgram(1000),
	}
	for _, p := range ok {
		assert.NoError(t, ValidateProgram(p), p.FullName())
	}

	noShow := episode("Lost", 1, 1, 42)
	noShow.ShowTitle = ""
	bad := []Program{
		{Type: ProgramTypeMovie, Title: "Alien", Key: "/k", RatingKey: "1"},
		noShow,
		RedirectProgram(0, 1000),
		OfflineProgram(0),
		{Title: "typeless"},
		{Type: "show", Title: "Lost"},
	}
	for _, p := range bad {
		assert.ErrorIs(t, ValidateProgram(p), ErrItemCreation, p.FullName())
	}

	assert.NoError(t, ValidateFiller(OfflineProgram(1000)))
	assert.ErrorIs(t, ValidateFiller(RedirectProgram(3, 1000)), ErrItemCreation)
}

func TestProgramNaming(t *testing.T) {
	assert.Equal(t, "Lost - s01e02 - Lost-s1e2", episode("Lost", 1, 2, 42).FullName())
	assert.Equal(t, "Redirect to channel 4", RedirectProgram(4, 1).FullName())
	assert.Equal(t, "Flex", OfflineProgram(1).FullName())
	assert.Equal(t, "Alien", movie("Alien", 1).FullName())

	assert.True(t, RedirectProgram(4, 1).IsOffline)
	assert.False(t, RedirectProgram(4, 1).IsFlex())

	date, ok := movie("Alien", 1).ReleaseDate()
	require.True(t, ok)
	assert.Equal(t, 2001, date.Year())
	_, ok = Program{Date: "01/02/2001"}.ReleaseDate()
	assert.False(t, ok)

	assert.Equal(t, int64(3*msPerMinute), TotalDuration([]Program{movie("A", 1), movie("B", 2)}))
}
