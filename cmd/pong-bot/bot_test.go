package main

import (
	"net/url"
	"testing"

	"pong-arena/internal/game"
	"pong-arena/internal/ws"
)

func playingEvent(ballY, rightPaddleY float64) serverEvent {
	ev := serverEvent{Type: ws.MsgState, Phase: game.PhasePlaying}
	ev.Ball = game.Ball{Y: ballY}
	ev.Paddles.Right = game.Paddle{Y: rightPaddleY, Height: 100}
	return ev
}

func TestDialURLAddsQuery(t *testing.T) {
	raw, err := dialURL(botOptions{URL: "ws://localhost:8080/ws", Mode: "solo", Difficulty: "hard", PlayerID: "bot-1"})
	if err != nil {
		t.Fatalf("dial url: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("mode") != "solo" || q.Get("difficulty") != "hard" || q.Get("player_id") != "bot-1" {
		t.Fatalf("unexpected query: %s", u.RawQuery)
	}
}

func TestBotTracksBallAndSendsOnlyChanges(t *testing.T) {
	b := &bot{deadZone: 8, matches: 1}
	if _, done, err := b.handle(serverEvent{Type: ws.MsgConnected, Side: game.SideRight}); err != nil || done {
		t.Fatalf("connected: done=%v err=%v", done, err)
	}

	out, _, _ := b.handle(playingEvent(400, 100))
	if len(out) != 1 {
		t.Fatalf("expected one input frame, got %d", len(out))
	}
	in, ok := out[0].(ws.InputMessage)
	if !ok || !in.Down || in.Up {
		t.Fatalf("expected down input, got %+v", out[0])
	}

	if out, _, _ := b.handle(playingEvent(410, 100)); len(out) != 0 {
		t.Fatalf("expected no frame for unchanged input, got %d", len(out))
	}

	out, _, _ = b.handle(playingEvent(153, 100))
	if in := out[0].(ws.InputMessage); in.Up || in.Down {
		t.Fatalf("expected release inside dead zone, got %+v", in)
	}

	out, _, _ = b.handle(playingEvent(20, 100))
	if in := out[0].(ws.InputMessage); !in.Up {
		t.Fatalf("expected up input, got %+v", in)
	}
}

func TestBotStartsWhenReadyAndStopsAfterMatches(t *testing.T) {
	b := &bot{matches: 2}
	out, done, _ := b.handle(serverEvent{Type: ws.MsgState, Phase: game.PhaseReady})
	if done || len(out) != 1 {
		t.Fatalf("expected start frame on ready, got %v done=%v", out, done)
	}

	out, done, _ = b.handle(serverEvent{Type: ws.MsgState, Phase: game.PhaseEnded})
	if done || len(out) != 1 {
		t.Fatalf("expected rematch after first match, got %v done=%v", out, done)
	}
	if _, done, _ = b.handle(serverEvent{Type: ws.MsgState, Phase: game.PhaseEnded}); !done {
		t.Fatalf("expected bot to finish after second match")
	}
}

func TestBotErrorHandling(t *testing.T) {
	b := &bot{matches: 1}
	if _, done, err := b.handle(serverEvent{Type: ws.MsgError, Message: "invalid_phase"}); done || err != nil {
		t.Fatalf("invalid_phase should be ignored, got done=%v err=%v", done, err)
	}
	if _, done, err := b.handle(serverEvent{Type: ws.MsgError, Message: "session_full"}); !done || err == nil {
		t.Fatalf("expected fatal error for session_full")
	}
}
