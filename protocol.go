package main

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Client -> Server message types
const (
	MsgJoinGame          = "join_game"
	MsgInput             = "input"
	MsgTogglePause       = "toggle_pause"
	MsgQuitGame          = "quit_game"
	MsgRequestHighScores = "request_highscores"
	MsgRequestRooms      = "request_rooms"
)

// Server -> Client message types
const (
	MsgState      = "state"
	MsgMapUpdate  = "map_update"
	MsgSound      = "sound"
	MsgHighScores = "highscores"
	MsgRoomList   = "room_list"
	MsgJoinError  = "join_error"
	MsgGameOver   = "game_over"
	MsgWelcome    = "welcome"
)

// Sound event names
const (
	SoundJump    = "JUMP"
	SoundShoot   = "SHOOT"
	SoundPop     = "POP"
	SoundCollect = "COLLECT"
	SoundBossHit = "BOSS_HIT"
	SoundBossDie = "BOSS_DIE"
)

const (
	maxNameLen     = 16
	maxRoomNameLen = 30
	defaultName    = "Player"
	defaultRoom    = "Lobby"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t" msgpack:"t"`
	Data interface{} `json:"d,omitempty" msgpack:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinGameMsg is the raw join payload. Older clients send only the name as a
// bare JSON string.
type JoinGameMsg struct {
	Name      string `json:"name"`
	Room      string `json:"room"`
	Speed     string `json:"speed"`
	Mode      string `json:"mode"`
	IsPrivate bool   `json:"isPrivate"`
	Enc       string `json:"enc"`
}

// UnmarshalJSON accepts either the object form or a bare name string
func (m *JoinGameMsg) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*m = JoinGameMsg{Name: name}
		return nil
	}
	type plain JoinGameMsg
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = JoinGameMsg(p)
	return nil
}

// JoinRequest is a validated join: the only form the rooms ever see
type JoinRequest struct {
	Name   string
	Room   string
	Config RoomConfig
	Binary bool // client wants msgpack state frames
}

// Normalize validates the raw payload once at ingress
func (m JoinGameMsg) Normalize() JoinRequest {
	name := truncate(strings.TrimSpace(m.Name), maxNameLen)
	if name == "" {
		name = defaultName
	}
	room := truncate(strings.TrimSpace(m.Room), maxRoomNameLen)
	if room == "" {
		room = defaultRoom
	}
	return JoinRequest{
		Name:   name,
		Room:   room,
		Config: DefaultConfig(ParseMode(m.Mode), ParseSpeed(m.Speed), m.IsPrivate),
		Binary: strings.EqualFold(m.Enc, "msgpack"),
	}
}

// ParseJoin decodes a join_game payload; an empty payload joins with defaults
func ParseJoin(raw json.RawMessage) (JoinRequest, error) {
	var msg JoinGameMsg
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &msg); err != nil {
			return JoinRequest{}, err
		}
	}
	return msg.Normalize(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

// PlayerState is broadcast per player each tick
type PlayerState struct {
	ID         string  `json:"id" msgpack:"id"`
	Name       string  `json:"name" msgpack:"name"`
	X          float64 `json:"x" msgpack:"x"`
	Y          float64 `json:"y" msgpack:"y"`
	DX         float64 `json:"dx" msgpack:"dx"`
	DY         float64 `json:"dy" msgpack:"dy"`
	Width      float64 `json:"width" msgpack:"width"`
	Height     float64 `json:"height" msgpack:"height"`
	Direction  int     `json:"direction" msgpack:"direction"`
	Grounded   bool    `json:"grounded" msgpack:"grounded"`
	Invincible int     `json:"invincible" msgpack:"invincible"`
	Lives      int     `json:"lives" msgpack:"lives"`
	Score      int     `json:"score" msgpack:"score"`
	MaxScore   int     `json:"maxScore" msgpack:"maxScore"`
	SpeedBuff  int     `json:"speedBuff" msgpack:"speedBuff"`
	FireBuff   int     `json:"fireBuff" msgpack:"fireBuff"`
	Shield     int     `json:"shield" msgpack:"shield"`
	State      string  `json:"state" msgpack:"state"`
	Color      string  `json:"color" msgpack:"color"`
	Character  int     `json:"characterId" msgpack:"characterId"`
}

// EnemyState is broadcast per enemy
type EnemyState struct {
	ID        string  `json:"id" msgpack:"id"`
	X         float64 `json:"x" msgpack:"x"`
	Y         float64 `json:"y" msgpack:"y"`
	DX        float64 `json:"dx" msgpack:"dx"`
	DY        float64 `json:"dy" msgpack:"dy"`
	Width     float64 `json:"width" msgpack:"width"`
	Height    float64 `json:"height" msgpack:"height"`
	Direction int     `json:"direction" msgpack:"direction"`
	State     string  `json:"state" msgpack:"state"`
	AIState   string  `json:"aiState" msgpack:"aiState"`
	Type      string  `json:"type" msgpack:"type"`
	HP        int     `json:"hp" msgpack:"hp"`
	MaxHP     int     `json:"maxHp" msgpack:"maxHp"`
}

// BubbleState is broadcast per bubble
type BubbleState struct {
	ID     string  `json:"id" msgpack:"id"`
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	DX     float64 `json:"dx" msgpack:"dx"`
	DY     float64 `json:"dy" msgpack:"dy"`
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
	Life   int     `json:"life" msgpack:"life"`
	Owner  string  `json:"owner" msgpack:"owner"`
}

// ItemState is broadcast per item
type ItemState struct {
	ID     string  `json:"id" msgpack:"id"`
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
	Type   string  `json:"type" msgpack:"type"`
}

// GameState is the per-room snapshot
type GameState struct {
	Players    map[string]PlayerState `json:"players" msgpack:"players"`
	Bubbles    []BubbleState          `json:"bubbles" msgpack:"bubbles"`
	Enemies    []EnemyState           `json:"enemies" msgpack:"enemies"`
	Items      []ItemState            `json:"items" msgpack:"items"`
	GamePaused bool                   `json:"gamePaused" msgpack:"gamePaused"`
	Wave       int                    `json:"wave" msgpack:"wave"`
	Tick       int                    `json:"tick" msgpack:"tick"`
}

// MapUpdateMsg carries the active platform layout
type MapUpdateMsg struct {
	Name      string     `json:"name"`
	Index     int        `json:"index"`
	Platforms []Platform `json:"platforms"`
}

// SoundMsg is a fire-and-forget audio cue
type SoundMsg struct {
	Type string `json:"type"`
}

// GameOverMsg reports the final score; ID is null when nothing was recorded
type GameOverMsg struct {
	Score int     `json:"score"`
	ID    *string `json:"id"`
}

// WelcomeMsg tells a joined client its player id and room
type WelcomeMsg struct {
	ID       string `json:"id"`
	Room     string `json:"room"`
	Mode     string `json:"mode"`
	TickRate int    `json:"tickRate"`
	Color    string `json:"color"`
}

// RoomInfo is used in the room list
type RoomInfo struct {
	Name    string `json:"name"`
	Mode    string `json:"mode"`
	Players int    `json:"players"`
	Max     int    `json:"max"`
	Private bool   `json:"private,omitempty"`
	Wave    int    `json:"wave,omitempty"`
	Speed   int    `json:"tickRate,omitempty"`
}

// JoinErrorMsg is the generic rejection sent for a failed join
type JoinErrorMsg struct {
	Message string `json:"message"`
}
