package tournament

import (
	"context"
	"strings"
	"sync"
	"time"

	"pong-arena/internal/game"
	"pong-arena/internal/match"

	"github.com/rs/zerolog/log"
)

const (
	eventMatchStarted = "match_started"
	eventScoreUpdated = "score_updated"
	eventMatchEnded   = "match_ended"
)

type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	DispatchBuffer int
}

type ScorePayload struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

type Notification struct {
	TournamentID string        `json:"tournament_id"`
	MatchID      string        `json:"match_id"`
	SessionID    string        `json:"session_id"`
	Player1ID    string        `json:"player1_id,omitempty"`
	Player2ID    string        `json:"player2_id,omitempty"`
	Score        *ScorePayload `json:"score,omitempty"`
	Reason       string        `json:"reason,omitempty"`
}

type job struct {
	event   string
	payload Notification
}

// Notifier forwards match lifecycle events to the tournament coordinator.
// Events are queued and sent by one worker at most once; a full queue or a
// failed request is logged and dropped.
type Notifier struct {
	cfg    Config
	client *HTTPClient

	dispatchCh chan job
	done       chan struct{}

	mu      sync.Mutex
	started bool
}

var _ match.Hooks = (*Notifier)(nil)

func NewNotifier(cfg Config) *Notifier {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = 256
	}
	return &Notifier{
		cfg:        cfg,
		client:     NewHTTPClient(cfg.RequestTimeout),
		dispatchCh: make(chan job, cfg.DispatchBuffer),
		done:       make(chan struct{}),
	}
}

func (n *Notifier) Enabled() bool {
	return n.cfg.BaseURL != ""
}

// Start runs the delivery worker until ctx is done.
func (n *Notifier) Start(ctx context.Context) {
	if !n.Enabled() {
		return
	}
	n.mu.Lock()
	if n.started {
		n.mu.Unlock()
		return
	}
	n.started = true
	n.mu.Unlock()

	go func() {
		defer close(n.done)
		for {
			select {
			case <-ctx.Done():
				return
			case j := <-n.dispatchCh:
				n.deliver(ctx, j)
			}
		}
	}()
}

// Done is closed once the worker has stopped.
func (n *Notifier) Done() <-chan struct{} {
	return n.done
}

func (n *Notifier) MatchStarted(meta match.MatchMeta) {
	n.enqueue(eventMatchStarted, notificationFor(meta))
}

func (n *Notifier) ScoreUpdated(meta match.MatchMeta, score game.Score) {
	p := notificationFor(meta)
	p.Score = &ScorePayload{Left: score.Left, Right: score.Right}
	n.enqueue(eventScoreUpdated, p)
}

func (n *Notifier) MatchEnded(meta match.MatchMeta, score game.Score, reason game.EndReason) {
	p := notificationFor(meta)
	p.Score = &ScorePayload{Left: score.Left, Right: score.Right}
	p.Reason = string(reason)
	n.enqueue(eventMatchEnded, p)
}

func notificationFor(meta match.MatchMeta) Notification {
	return Notification{
		TournamentID: meta.TournamentID,
		MatchID:      meta.MatchID,
		SessionID:    meta.SessionID,
		Player1ID:    meta.Player1ID,
		Player2ID:    meta.Player2ID,
	}
}

func (n *Notifier) enqueue(event string, p Notification) {
	if !n.Enabled() {
		return
	}
	select {
	case n.dispatchCh <- job{event: event, payload: p}:
		metricNotifyQueuedTotal.Add(1)
	default:
		metricNotifyDroppedTotal.Add(1)
		log.Warn().
			Str("event", event).
			Str("session_id", p.SessionID).
			Msg("tournament notify queue full; dropping")
	}
}

func (n *Notifier) deliver(ctx context.Context, j job) {
	endpoint := n.cfg.BaseURL + endpointPath(j.event)
	if err := n.client.PostJSON(ctx, endpoint, j.payload); err != nil {
		metricNotifyFailedTotal.Add(1)
		log.Error().
			Err(err).
			Str("event", j.event).
			Str("session_id", j.payload.SessionID).
			Str("tournament_id", j.payload.TournamentID).
			Str("match_id", j.payload.MatchID).
			Msg("tournament notify failed")
		return
	}
	metricNotifySentTotal.Add(1)
	log.Debug().
		Str("event", j.event).
		Str("session_id", j.payload.SessionID).
		Msg("tournament notified")
}

func endpointPath(event string) string {
	switch event {
	case eventMatchStarted:
		return "/matches/start"
	case eventScoreUpdated:
		return "/matches/score"
	default:
		return "/matches/end"
	}
}
