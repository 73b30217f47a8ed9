package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"pong-arena/internal/game"
	"pong-arena/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type botOptions struct {
	URL        string
	Mode       string
	Difficulty string
	PlayerID   string
	Matches    int
	DeadZone   float64
}

type serverEvent struct {
	Type      string     `json:"type"`
	PlayerID  string     `json:"playerId"`
	SessionID string     `json:"sessionId"`
	Side      game.Side  `json:"side"`
	Phase     game.Phase `json:"phase"`
	EndReason string     `json:"endReason"`
	Ball      game.Ball  `json:"ball"`
	Paddles   struct {
		Left  game.Paddle `json:"left"`
		Right game.Paddle `json:"right"`
	} `json:"paddles"`
	Score   game.Score `json:"score"`
	Message string     `json:"message"`
}

// bot holds the client-side view of one connection.
type bot struct {
	side     game.Side
	deadZone float64
	last     game.Input
	played   int
	matches  int
}

func dialURL(opts botOptions) (string, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if opts.Mode != "" {
		q.Set("mode", opts.Mode)
	}
	if opts.Difficulty != "" {
		q.Set("difficulty", opts.Difficulty)
	}
	if opts.PlayerID != "" {
		q.Set("player_id", opts.PlayerID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func runBot(ctx context.Context, opts botOptions) error {
	target, err := dialURL(opts)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	matches := opts.Matches
	if matches <= 0 {
		matches = 1
	}
	b := &bot{deadZone: opts.DeadZone, matches: matches}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		var ev serverEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Debug().Err(err).Msg("skip undecodable frame")
			continue
		}
		replies, done, err := b.handle(ev)
		if err != nil {
			return err
		}
		for _, r := range replies {
			if err := conn.WriteJSON(r); err != nil {
				return err
			}
		}
		if done {
			return nil
		}
	}
}

// handle reacts to one server event. It returns the frames to send and
// whether the bot is finished.
func (b *bot) handle(ev serverEvent) ([]any, bool, error) {
	switch ev.Type {
	case ws.MsgConnected:
		b.side = ev.Side
		log.Info().
			Str("session_id", ev.SessionID).
			Str("player_id", ev.PlayerID).
			Str("side", string(ev.Side)).
			Msg("connected")
		return nil, false, nil
	case ws.MsgError:
		if strings.HasPrefix(ev.Message, "invalid_phase") {
			return nil, false, nil
		}
		return nil, true, fmt.Errorf("server error: %s", ev.Message)
	case ws.MsgState:
	default:
		return nil, false, nil
	}

	switch ev.Phase {
	case game.PhaseReady:
		return []any{map[string]string{"type": ws.MsgStart}}, false, nil
	case game.PhaseEnded:
		b.played++
		log.Info().
			Int("left", ev.Score.Left).
			Int("right", ev.Score.Right).
			Str("reason", ev.EndReason).
			Int("played", b.played).
			Msg("match ended")
		if b.played >= b.matches {
			return nil, true, nil
		}
		b.last = game.Input{}
		return []any{map[string]string{"type": ws.MsgStart}}, false, nil
	case game.PhasePlaying:
		in := b.track(ev)
		if in == b.last {
			return nil, false, nil
		}
		b.last = in
		return []any{ws.InputMessage{Type: ws.MsgInput, Up: in.Up, Down: in.Down}}, false, nil
	}
	return nil, false, nil
}

// track steers the paddle center toward the ball.
func (b *bot) track(ev serverEvent) game.Input {
	paddle := ev.Paddles.Left
	if b.side == game.SideRight {
		paddle = ev.Paddles.Right
	}
	diff := ev.Ball.Y - paddle.CenterY()
	switch {
	case diff > b.deadZone:
		return game.Input{Down: true}
	case diff < -b.deadZone:
		return game.Input{Up: true}
	}
	return game.Input{}
}
