package ws

import "pong-arena/internal/game"

const (
	MsgInput     = "input"
	MsgInputBoth = "inputBoth"
	MsgStart     = "start"
	MsgPause     = "pause"
	MsgResume    = "resume"

	MsgConnected = "connected"
	MsgState     = "state"
	MsgError     = "error"
)

type Envelope struct {
	Type string `json:"type"`
}

type InputMessage struct {
	Type string `json:"type"`
	Up   bool   `json:"up"`
	Down bool   `json:"down"`
}

type InputBothMessage struct {
	Type string      `json:"type"`
	P1   *game.Input `json:"p1"`
	P2   *game.Input `json:"p2"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
