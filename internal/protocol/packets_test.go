package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTypedPackets(t *testing.T) {
	pkt, err := Decode([]byte(`{"type":"authorize","username":"ann","password":"pw","major":1,"minor":2,"patch":3}`))
	require.NoError(t, err)
	auth, ok := pkt.(*Authorize)
	require.True(t, ok)
	assert.Equal(t, "ann", auth.Username)
	assert.Equal(t, 1, auth.Major)

	pkt, err = Decode([]byte(`{"type":"menu","menu_id":"turn","selection":2}`))
	require.NoError(t, err)
	act, ok := pkt.(*MenuActivate)
	require.True(t, ok)
	assert.Equal(t, "turn", act.MenuID)
	assert.Equal(t, 2, act.Selection)

	pkt, err = Decode([]byte(`{"type":"keybind","key":"C","control":false,"shift":true}`))
	require.NoError(t, err)
	kb, ok := pkt.(*Keybind)
	require.True(t, ok)
	assert.Equal(t, "C", kb.Key)
	assert.True(t, kb.Shift)

	pkt, err = Decode([]byte(`{"type":"chat","convo":"global","language":"en","message":"hi"}`))
	require.NoError(t, err)
	chat, ok := pkt.(*Chat)
	require.True(t, ok)
	assert.Equal(t, "global", chat.Convo)

	pkt, err = Decode([]byte(`{"type":"playlist_duration_response","playlist_id":"lobby","request_id":7,"duration":83.5}`))
	require.NoError(t, err)
	dur, ok := pkt.(*PlaylistDurationResponse)
	require.True(t, ok)
	assert.Equal(t, "lobby", dur.PlaylistID)
	assert.Equal(t, 7, dur.RequestID)
	assert.Equal(t, 83.5, dur.Duration)
}

func TestAuthorizeAcceptsTokenInPlaceOfPassword(t *testing.T) {
	pkt, err := Decode([]byte(`{"type":"authorize","username":"ann","token":"jwt-here","major":1,"minor":0,"patch":0}`))
	require.NoError(t, err)
	auth, ok := pkt.(*Authorize)
	require.True(t, ok)
	assert.Empty(t, auth.Password)
	assert.Equal(t, "jwt-here", auth.Token)
}

func TestDecodeRejectsUnknownAndMalformed(t *testing.T) {
	_, err := Decode([]byte(`{"type":"no_such_packet"}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"type":"keybind","key":5}`))
	assert.Error(t, err, "field types are enforced")
}

func TestMenuUpdateOmitsEmptySelection(t *testing.T) {
	data, err := json.Marshal(MenuUpdate{Type: TypeMenuUpdate, MenuID: "turn"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "selection_id")
	assert.NotContains(t, string(data), "position")

	pos := 3
	data, err = json.Marshal(MenuUpdate{Type: TypeMenuUpdate, MenuID: "turn", Position: &pos})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"position":3`)
}

func TestConstructorsStampTypes(t *testing.T) {
	assert.Equal(t, TypeSpeak, NewSpeak("hello", "").Type)
	assert.Equal(t, TypePlaySound, NewPlaySound("dice.ogg", 1, 0, 1).Type)
	assert.Equal(t, TypeDisconnect, NewDisconnect("bye", false).Type)
	assert.Equal(t, TypePong, NewPong().Type)
	assert.Equal(t, TypeChatOut, NewChat("ann", "local", "en", "hi").Type)
	assert.Equal(t, TypeRemoveInput, NewRemoveInput("input_rename").Type)
	assert.Equal(t, TypeOpenClientOptions, NewOpenClientOptions().Type)
	assert.Equal(t, TypeOpenServerOptions, NewOpenServerOptions(nil).Type)

	success := NewAuthorizeSuccess("1.0.0", "jwt-here")
	assert.Equal(t, TypeAuthorizeSuccess, success.Type)
	assert.Equal(t, "jwt-here", success.Token)
}

func TestPlaylistConstructors(t *testing.T) {
	add := NewAddPlaylist("lobby", []string{"a.ogg", "b.ogg"}, "music", true, -1, false, true)
	assert.Equal(t, TypeAddPlaylist, add.Type)
	assert.Equal(t, "lobby", add.PlaylistID)
	assert.Equal(t, -1, add.Repeats)
	assert.True(t, add.ShuffleTracks)
	assert.True(t, add.AutoRemove)

	assert.Equal(t, TypeStartPlaylist, NewStartPlaylist("lobby").Type)
	assert.Equal(t, TypeRemovePlaylist, NewRemovePlaylist("lobby").Type)

	q := NewGetPlaylistDuration("lobby", "remaining", 4)
	assert.Equal(t, TypeGetPlaylistDur, q.Type)
	assert.Equal(t, "remaining", q.DurationType)
	assert.Equal(t, 4, q.RequestID)
}
