package protocol

import (
	"encoding/json"
	"fmt"
)

// Every message on the wire is a JSON object with a mandatory "type".
// Inbound packets are decoded through Decode; outbound packets are plain
// structs whose Type field is filled by their constructor.

// Inbound packet types (client -> server)
const (
	TypeAuthorize        = "authorize"
	TypeMenu             = "menu"
	TypeKeybind          = "keybind"
	TypeEditbox          = "editbox"
	TypeEscape           = "escape"
	TypeChat             = "chat"
	TypePing             = "ping"
	TypeClientOptions    = "client_options"
	TypePlaylistDuration = "playlist_duration_response"
)

// Outbound packet types (server -> client)
const (
	TypeAuthorizeSuccess   = "authorize_success"
	TypeSpeak              = "speak"
	TypePlaySound          = "play_sound"
	TypePlayMusic          = "play_music"
	TypePlayAmbience       = "play_ambience"
	TypeStopAmbience       = "stop_ambience"
	TypeAddPlaylist        = "add_playlist"
	TypeStartPlaylist      = "start_playlist"
	TypeRemovePlaylist     = "remove_playlist"
	TypeGetPlaylistDur     = "get_playlist_duration"
	TypeMenuShow           = "menu"
	TypeMenuUpdate         = "update_menu"
	TypeRequestInput       = "request_input"
	TypeRemoveInput        = "remove_input"
	TypeClearUI            = "clear_ui"
	TypeGameList           = "game_list"
	TypeDisconnect         = "disconnect"
	TypeUpdateOptionsLists = "update_options_lists"
	TypeOpenClientOptions  = "open_client_options"
	TypeOpenServerOptions  = "open_server_options"
	TypeTableCreate        = "table_create"
	TypeChatOut            = "chat"
	TypePong               = "pong"
)

// Envelope is the minimal shape used to sniff the packet type.
type Envelope struct {
	Type string `json:"type"`
}

// Authorize is the initial handshake packet. A client holding a session
// token from a previous connection may present it in place of the
// password.
type Authorize struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
	Major    int    `json:"major"`
	Minor    int    `json:"minor"`
	Patch    int    `json:"patch"`
}

// MenuActivate activates a menu item. Selection is 1-based.
type MenuActivate struct {
	Type        string `json:"type"`
	MenuID      string `json:"menu_id"`
	Selection   int    `json:"selection"`
	SelectionID string `json:"selection_id,omitempty"`
}

// Keybind reports a key chord pressed at a given menu focus.
type Keybind struct {
	Type       string `json:"type"`
	Key        string `json:"key"`
	Control    bool   `json:"control"`
	Alt        bool   `json:"alt"`
	Shift      bool   `json:"shift"`
	MenuID     string `json:"menu_id"`
	MenuIndex  int    `json:"menu_index"`
	MenuItemID string `json:"menu_item_id"`
}

// Editbox submits text for a pending editbox.
type Editbox struct {
	Type    string `json:"type"`
	InputID string `json:"input_id,omitempty"`
	Text    string `json:"text"`
}

// Escape is the explicit escape packet for menus with escape_behavior
// "escape_event".
type Escape struct {
	Type   string `json:"type"`
	MenuID string `json:"menu_id"`
}

// Chat carries a chat message in either direction.
type Chat struct {
	Type     string `json:"type"`
	Sender   string `json:"sender,omitempty"`
	Convo    string `json:"convo"` // "local" or "global"
	Language string `json:"language"`
	Message  string `json:"message"`
}

// Ping is a latency probe.
type Ping struct {
	Type string `json:"type"`
}

// ClientOptions is a snapshot of client-side preferences.
type ClientOptions struct {
	Type    string          `json:"type"`
	Options json.RawMessage `json:"options"`
}

// PlaylistDurationResponse is the client's answer to a
// get_playlist_duration query.
type PlaylistDurationResponse struct {
	Type       string  `json:"type"`
	PlaylistID string  `json:"playlist_id"`
	RequestID  int     `json:"request_id"`
	Duration   float64 `json:"duration"`
}

// Decode parses an inbound frame into its typed packet.
func Decode(data []byte) (interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed packet: %w", err)
	}

	var pkt interface{}
	switch env.Type {
	case TypeAuthorize:
		pkt = &Authorize{}
	case TypeMenu:
		pkt = &MenuActivate{}
	case TypeKeybind:
		pkt = &Keybind{}
	case TypeEditbox:
		pkt = &Editbox{}
	case TypeEscape:
		pkt = &Escape{}
	case TypeChat:
		pkt = &Chat{}
	case TypePing:
		pkt = &Ping{}
	case TypeClientOptions:
		pkt = &ClientOptions{}
	case TypePlaylistDuration:
		pkt = &PlaylistDurationResponse{}
	default:
		return nil, fmt.Errorf("unknown packet type %q", env.Type)
	}

	if err := json.Unmarshal(data, pkt); err != nil {
		return nil, fmt.Errorf("malformed %s packet: %w", env.Type, err)
	}
	return pkt, nil
}

// Outbound packets

// AuthorizeSuccess confirms the handshake. Token is a session JWT the
// client can present instead of the password on its next connection.
type AuthorizeSuccess struct {
	Type    string `json:"type"`
	Version string `json:"version"`
	Token   string `json:"token,omitempty"`
}

func NewAuthorizeSuccess(version, token string) AuthorizeSuccess {
	return AuthorizeSuccess{Type: TypeAuthorizeSuccess, Version: version, Token: token}
}

type Speak struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Buffer string `json:"buffer,omitempty"`
	Muted  bool   `json:"muted,omitempty"`
}

func NewSpeak(text, buffer string) Speak {
	return Speak{Type: TypeSpeak, Text: text, Buffer: buffer}
}

type PlaySound struct {
	Type   string  `json:"type"`
	Name   string  `json:"name"`
	Volume float64 `json:"volume"`
	Pan    float64 `json:"pan"`
	Pitch  float64 `json:"pitch"`
}

func NewPlaySound(name string, volume, pan, pitch float64) PlaySound {
	return PlaySound{Type: TypePlaySound, Name: name, Volume: volume, Pan: pan, Pitch: pitch}
}

type PlayMusic struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Looping bool   `json:"looping"`
}

func NewPlayMusic(name string, looping bool) PlayMusic {
	return PlayMusic{Type: TypePlayMusic, Name: name, Looping: looping}
}

type PlayAmbience struct {
	Type  string `json:"type"`
	Intro string `json:"intro,omitempty"`
	Loop  string `json:"loop"`
	Outro string `json:"outro,omitempty"`
}

func NewPlayAmbience(intro, loop, outro string) PlayAmbience {
	return PlayAmbience{Type: TypePlayAmbience, Intro: intro, Loop: loop, Outro: outro}
}

type StopAmbience struct {
	Type string `json:"type"`
}

func NewStopAmbience() StopAmbience {
	return StopAmbience{Type: TypeStopAmbience}
}

// AddPlaylist hands the client a named track list to manage. Repeats of
// -1 means loop forever.
type AddPlaylist struct {
	Type          string   `json:"type"`
	PlaylistID    string   `json:"playlist_id"`
	Tracks        []string `json:"tracks"`
	AudioType     string   `json:"audio_type"`
	ShuffleTracks bool     `json:"shuffle_tracks"`
	Repeats       int      `json:"repeats"`
	AutoStart     bool     `json:"auto_start"`
	AutoRemove    bool     `json:"auto_remove"`
}

func NewAddPlaylist(id string, tracks []string, audioType string, shuffle bool, repeats int, autoStart, autoRemove bool) AddPlaylist {
	return AddPlaylist{
		Type:          TypeAddPlaylist,
		PlaylistID:    id,
		Tracks:        tracks,
		AudioType:     audioType,
		ShuffleTracks: shuffle,
		Repeats:       repeats,
		AutoStart:     autoStart,
		AutoRemove:    autoRemove,
	}
}

type StartPlaylist struct {
	Type       string `json:"type"`
	PlaylistID string `json:"playlist_id"`
}

func NewStartPlaylist(id string) StartPlaylist {
	return StartPlaylist{Type: TypeStartPlaylist, PlaylistID: id}
}

type RemovePlaylist struct {
	Type       string `json:"type"`
	PlaylistID string `json:"playlist_id"`
}

func NewRemovePlaylist(id string) RemovePlaylist {
	return RemovePlaylist{Type: TypeRemovePlaylist, PlaylistID: id}
}

// GetPlaylistDuration asks the client how much of a playlist remains;
// it answers with a playlist_duration_response carrying the same
// request id.
type GetPlaylistDuration struct {
	Type         string `json:"type"`
	PlaylistID   string `json:"playlist_id"`
	DurationType string `json:"duration_type"`
	RequestID    int    `json:"request_id"`
}

func NewGetPlaylistDuration(id, durationType string, requestID int) GetPlaylistDuration {
	return GetPlaylistDuration{Type: TypeGetPlaylistDur, PlaylistID: id, DurationType: durationType, RequestID: requestID}
}

// MenuItem is either a plain string on the wire or {text, id} when the
// item carries a stable id.
type MenuItem struct {
	Text string `json:"text"`
	ID   string `json:"id,omitempty"`
}

// Menu replaces a client menu wholesale.
type Menu struct {
	Type               string     `json:"type"`
	MenuID             string     `json:"menu_id"`
	Items              []MenuItem `json:"items"`
	MultiletterEnabled bool       `json:"multiletter_enabled"`
	EscapeBehavior     string     `json:"escape_behavior"`
	GridEnabled        bool       `json:"grid_enabled,omitempty"`
	GridWidth          int        `json:"grid_width,omitempty"`
	Position           *int       `json:"position,omitempty"`
	SelectionID        string     `json:"selection_id,omitempty"`
}

// MenuOp is one minimal operation against an existing client menu.
type MenuOp struct {
	Op    string   `json:"op"` // "insert", "delete" or "update"
	Index int      `json:"index"`
	Item  MenuItem `json:"item,omitempty"`
}

// MenuUpdate applies a diff to an existing client menu.
type MenuUpdate struct {
	Type        string   `json:"type"`
	MenuID      string   `json:"menu_id"`
	Ops         []MenuOp `json:"ops"`
	Position    *int     `json:"position,omitempty"`
	SelectionID string   `json:"selection_id,omitempty"`
}

type RequestInput struct {
	Type         string `json:"type"`
	InputID      string `json:"input_id"`
	Prompt       string `json:"prompt"`
	DefaultValue string `json:"default_value,omitempty"`
	Multiline    bool   `json:"multiline"`
	ReadOnly     bool   `json:"read_only"`
}

func NewRequestInput(inputID, prompt, defaultValue string) RequestInput {
	return RequestInput{Type: TypeRequestInput, InputID: inputID, Prompt: prompt, DefaultValue: defaultValue}
}

type RemoveInput struct {
	Type    string `json:"type"`
	InputID string `json:"input_id"`
}

func NewRemoveInput(inputID string) RemoveInput {
	return RemoveInput{Type: TypeRemoveInput, InputID: inputID}
}

type ClearUI struct {
	Type string `json:"type"`
}

func NewClearUI() ClearUI {
	return ClearUI{Type: TypeClearUI}
}

// GameInfo describes one registered game type for discovery.
type GameInfo struct {
	TypeID     string `json:"type_id"`
	Name       string `json:"name"`
	MinPlayers int    `json:"min_players"`
	MaxPlayers int    `json:"max_players"`
}

type GameList struct {
	Type  string     `json:"type"`
	Games []GameInfo `json:"games"`
}

func NewGameList(games []GameInfo) GameList {
	return GameList{Type: TypeGameList, Games: games}
}

type Disconnect struct {
	Type      string `json:"type"`
	Reason    string `json:"reason,omitempty"`
	Reconnect bool   `json:"reconnect,omitempty"`
}

func NewDisconnect(reason string, reconnect bool) Disconnect {
	return Disconnect{Type: TypeDisconnect, Reason: reason, Reconnect: reconnect}
}

type UpdateOptionsLists struct {
	Type      string   `json:"type"`
	Games     []string `json:"games"`
	Languages []string `json:"languages"`
}

func NewUpdateOptionsLists(games, languages []string) UpdateOptionsLists {
	return UpdateOptionsLists{Type: TypeUpdateOptionsLists, Games: games, Languages: languages}
}

// OpenClientOptions tells the client to open its local options screen.
type OpenClientOptions struct {
	Type string `json:"type"`
}

func NewOpenClientOptions() OpenClientOptions {
	return OpenClientOptions{Type: TypeOpenClientOptions}
}

// OpenServerOptions shows the table's server-side option values.
type OpenServerOptions struct {
	Type    string            `json:"type"`
	Options map[string]string `json:"options"`
}

func NewOpenServerOptions(options map[string]string) OpenServerOptions {
	return OpenServerOptions{Type: TypeOpenServerOptions, Options: options}
}

type TableCreate struct {
	Type string `json:"type"`
	Host string `json:"host"`
	Game string `json:"game"`
}

func NewTableCreate(host, game string) TableCreate {
	return TableCreate{Type: TypeTableCreate, Host: host, Game: game}
}

func NewChat(sender, convo, language, message string) Chat {
	return Chat{Type: TypeChatOut, Sender: sender, Convo: convo, Language: language, Message: message}
}

type Pong struct {
	Type string `json:"type"`
}

func NewPong() Pong {
	return Pong{Type: TypePong}
}

// Escape behaviors a menu may declare.
const (
	EscapeKeybind          = "keybind"
	EscapeSelectLastOption = "select_last_option"
	EscapeEvent            = "escape_event"
)
