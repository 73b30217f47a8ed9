package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pong-arena/internal/game"
	"pong-arena/internal/match"
	"pong-arena/internal/store"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const defaultIdentityTimeout = 1500 * time.Millisecond

var errBadQuery = errors.New("invalid_query")

// IdentityLookup resolves a connection token to display attribution.
type IdentityLookup interface {
	GetPlayerByToken(ctx context.Context, token string) (*store.Player, error)
}

type Config struct {
	AllowedOrigins  []string
	ReadLimit       int64
	MessagesPerSec  int
	IdentityTimeout time.Duration
}

type Server struct {
	registry *match.Registry
	runtime  *match.Runtime
	identity IdentityLookup
	cfg      Config
	upgrader websocket.Upgrader
}

// joinRequest is the parsed connection query.
type joinRequest struct {
	mode         match.Mode
	difficulty   game.Difficulty
	tournamentID string
	matchID      string
	invitationID string
	sessionID    string
	playerID     string
	sideHint     game.Side
	token        string
}

func NewServer(reg *match.Registry, identity IdentityLookup, cfg Config) *Server {
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 1024
	}
	if cfg.IdentityTimeout <= 0 {
		cfg.IdentityTimeout = defaultIdentityTimeout
	}
	s := &Server{
		registry: reg,
		runtime:  reg.Runtime(),
		identity: identity,
		cfg:      cfg,
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	req, qerr := parseJoin(r.URL.Query())
	displayName := ""
	if qerr == nil {
		displayName = s.lookupIdentity(r.Context(), req.token)
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("ws upgrade failed")
		return
	}
	metricConnectionsTotal.Add(1)
	c := newClient(conn, s.cfg.MessagesPerSec)

	if qerr != nil {
		s.reject(c, qerr)
		return
	}
	sess, player, err := s.join(c, req, displayName)
	if err != nil {
		s.reject(c, err)
		return
	}

	metricConnectionsActive.Add(1)
	defer metricConnectionsActive.Add(-1)
	go c.writeLoop()
	s.readLoop(c, sess, player)
}

func (s *Server) reject(c *Client, err error) {
	metricJoinRejected.Add(1)
	log.Info().Err(err).Msg("ws join rejected")
	msg, _ := json.Marshal(ErrorMessage{Type: MsgError, Message: err.Error()})
	c.closeWith(msg)
}

// lookupIdentity resolves attribution for token. A slow or failing lookup
// only costs the display name.
func (s *Server) lookupIdentity(ctx context.Context, token string) string {
	if token == "" || s.identity == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.IdentityTimeout)
	defer cancel()
	p, err := s.identity.GetPlayerByToken(ctx, token)
	if err != nil {
		metricIdentityLookupFailed.Add(1)
		log.Warn().Err(err).Msg("identity lookup failed; continuing without attribution")
		return ""
	}
	return p.DisplayName
}

func (s *Server) join(c *Client, req joinRequest, displayName string) (*match.Session, *match.Player, error) {
	var sess *match.Session
	releasable := false
	switch req.mode {
	case match.ModeSolo:
		sess = s.registry.CreateSession(match.ModeSolo, true, req.difficulty)
		releasable = true
	case match.ModeLocal:
		sess = s.registry.CreateSession(match.ModeLocal, false, "")
		releasable = true
	case match.ModeQueue:
		if req.sessionID != "" {
			found, err := s.registry.RejoinQueueSession(req.sessionID)
			if err != nil {
				return nil, nil, err
			}
			sess = found
			break
		}
		sess = s.registry.FindOrCreateQueueSession()
		releasable = true
	case match.ModeTournament:
		sess = s.registry.CreateTournamentSession(req.tournamentID, req.matchID, req.playerID, req.sideHint != game.SideRight)
	case match.ModeInvitation:
		found, err := s.registry.InvitationSession(req.invitationID)
		if err != nil {
			return nil, nil, err
		}
		sess = found
	}

	p, err := s.registry.AddPlayer(sess, c, match.JoinOptions{
		PlayerID:    req.playerID,
		DisplayName: displayName,
		SideHint:    req.sideHint,
	})
	if err != nil {
		if releasable {
			s.registry.Release(sess)
		}
		return nil, nil, err
	}
	return sess, p, nil
}

func (s *Server) readLoop(c *Client, sess *match.Session, p *match.Player) {
	defer func() {
		s.registry.RemovePlayer(sess, p.ID)
		c.Close()
	}()

	c.conn.SetReadLimit(s.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("session_id", sess.ID).Str("player_id", p.ID).Msg("ws read ended")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if !c.allow() {
			metricMessagesRateLimited.Add(1)
			continue
		}
		s.handleMessage(c, sess, p, msg)
	}
}

func (s *Server) handleMessage(c *Client, sess *match.Session, p *match.Player, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		s.malformed(sess, p, "decode envelope", err)
		return
	}
	var err error
	switch env.Type {
	case MsgInput:
		var in InputMessage
		if err := json.Unmarshal(msg, &in); err != nil {
			s.malformed(sess, p, "decode input", err)
			return
		}
		s.runtime.SetInput(sess, p.Side, game.Input{Up: in.Up, Down: in.Down})
	case MsgInputBoth:
		var in InputBothMessage
		if err := json.Unmarshal(msg, &in); err != nil || in.P1 == nil || in.P2 == nil {
			s.malformed(sess, p, "decode inputBoth", err)
			return
		}
		err = s.runtime.SetBothInputs(sess, *in.P1, *in.P2)
	case MsgStart:
		err = s.runtime.Start(sess)
	case MsgPause:
		err = s.runtime.Pause(sess)
	case MsgResume:
		err = s.runtime.Resume(sess)
	default:
		s.malformed(sess, p, "unknown type "+env.Type, nil)
		return
	}
	if err != nil {
		log.Debug().
			Err(err).
			Str("session_id", sess.ID).
			Str("player_id", p.ID).
			Str("type", env.Type).
			Msg("ws command rejected")
		s.sendError(c, err.Error())
	}
}

func (s *Server) malformed(sess *match.Session, p *match.Player, what string, err error) {
	metricMessagesMalformed.Add(1)
	log.Debug().
		Err(err).
		Str("session_id", sess.ID).
		Str("player_id", p.ID).
		Msg("ws malformed message: " + what)
}

func (s *Server) sendError(c *Client, message string) {
	msg, _ := json.Marshal(ErrorMessage{Type: MsgError, Message: message})
	c.Send(msg)
}

func parseJoin(q url.Values) (joinRequest, error) {
	req := joinRequest{
		difficulty:   game.ParseDifficulty(q.Get("difficulty")),
		tournamentID: strings.TrimSpace(q.Get("tournament_id")),
		matchID:      strings.TrimSpace(q.Get("match_id")),
		invitationID: strings.TrimSpace(q.Get("invitation_id")),
		sessionID:    strings.TrimSpace(q.Get("session_id")),
		playerID:     strings.TrimSpace(q.Get("player_id")),
		token:        strings.TrimSpace(q.Get("token")),
	}
	switch strings.ToLower(strings.TrimSpace(q.Get("side"))) {
	case "left", "1", "p1":
		req.sideHint = game.SideLeft
	case "right", "2", "p2":
		req.sideHint = game.SideRight
	}

	rawMode := strings.ToLower(strings.TrimSpace(q.Get("mode")))
	if rawMode == "" {
		rawMode = string(match.ModeSolo)
	}
	mode, ok := match.ParseMode(rawMode)
	if !ok {
		return req, errBadQuery
	}
	req.mode = mode

	switch mode {
	case match.ModeTournament:
		if req.tournamentID == "" || req.matchID == "" || req.playerID == "" {
			return req, errBadQuery
		}
	case match.ModeInvitation:
		if req.invitationID == "" || req.playerID == "" {
			return req, errBadQuery
		}
	case match.ModeQueue:
		if req.sessionID != "" && req.playerID == "" {
			return req, errBadQuery
		}
	}
	return req, nil
}
