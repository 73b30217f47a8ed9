package game

import (
	"math"
	"math/rand"
	"time"
)

type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseReady   Phase = "ready"
	PhasePlaying Phase = "playing"
	PhasePaused  Phase = "paused"
	PhaseEnded   Phase = "ended"
)

type EndReason string

const (
	EndReasonNone    EndReason = ""
	EndReasonScore   EndReason = "score"
	EndReasonForfeit EndReason = "forfeit"
)

type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Opposite returns the other side of the table.
func (s Side) Opposite() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

func (s Side) Index() int {
	if s == SideRight {
		return 1
	}
	return 0
}

var phaseEdges = map[Phase][]Phase{
	PhaseWaiting: {PhaseReady},
	PhaseReady:   {PhasePlaying, PhaseWaiting},
	PhasePlaying: {PhasePaused, PhaseEnded},
	PhasePaused:  {PhasePlaying, PhaseEnded},
	PhaseEnded:   {PhasePlaying},
}

// CanTransition reports whether the lifecycle allows moving from p to next.
// ready may fall back to waiting when a slot empties before kickoff.
func (p Phase) CanTransition(next Phase) bool {
	for _, allowed := range phaseEdges[p] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Ball struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
}

func (b Ball) Speed() float64 {
	return math.Hypot(b.VX, b.VY)
}

type Paddle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (p Paddle) CenterY() float64 {
	return p.Y + p.Height/2
}

type Input struct {
	Up   bool `json:"up"`
	Down bool `json:"down"`
}

type Score struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

func (s Score) For(side Side) int {
	if side == SideRight {
		return s.Right
	}
	return s.Left
}

// State is the authoritative data for one match. It is owned by a single
// session and must only be touched while holding that session's lock.
type State struct {
	Width           float64
	Height          float64
	Phase           Phase
	EndReason       EndReason
	Ball            Ball
	Paddles         [2]Paddle
	Score           Score
	Inputs          [2]Input
	BallFrozenUntil time.Time
	LastScorer      Side

	tuning Tuning
	rng    *rand.Rand
}

func NewState(t Tuning, rng *rand.Rand) *State {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &State{
		Width:  t.Width,
		Height: t.Height,
		Phase:  PhaseWaiting,
		tuning: t,
		rng:    rng,
	}
	s.resetField()
	dir := 1.0
	if rng.Intn(2) == 0 {
		dir = -1
	}
	s.serve(dir)
	return s
}

func (s *State) Tuning() Tuning {
	return s.tuning
}

// SetPhase moves the state along the lifecycle. Illegal edges are ignored
// and reported as false.
func (s *State) SetPhase(next Phase) bool {
	if s.Phase == next {
		return true
	}
	if !s.Phase.CanTransition(next) {
		return false
	}
	s.Phase = next
	if next != PhaseEnded {
		s.EndReason = EndReasonNone
	}
	return true
}

// End finishes the match with the given reason.
func (s *State) End(reason EndReason) {
	s.Phase = PhaseEnded
	s.EndReason = reason
	s.Inputs = [2]Input{}
}

// SetInput replaces the whole input record of one side.
func (s *State) SetInput(side Side, in Input) {
	s.Inputs[side.Index()] = in
}

// Reset re-initializes score, ball, paddles and inputs for a rematch.
func (s *State) Reset() {
	s.Score = Score{}
	s.LastScorer = ""
	s.EndReason = EndReasonNone
	s.Inputs = [2]Input{}
	s.BallFrozenUntil = time.Time{}
	s.resetField()
	dir := 1.0
	if s.rng.Intn(2) == 0 {
		dir = -1
	}
	s.serve(dir)
}

// AwardForfeit gives the winning side the win score and ends the match.
func (s *State) AwardForfeit(winner Side) {
	win := s.tuning.WinScore
	if winner == SideRight {
		if s.Score.Right < win {
			s.Score.Right = win
		}
	} else if s.Score.Left < win {
		s.Score.Left = win
	}
	s.End(EndReasonForfeit)
}

func (s *State) resetField() {
	t := s.tuning
	y := (s.Height - t.PaddleHeight) / 2
	s.Paddles[0] = Paddle{X: t.PaddleOffset, Y: y, Width: t.PaddleWidth, Height: t.PaddleHeight}
	s.Paddles[1] = Paddle{X: s.Width - t.PaddleOffset - t.PaddleWidth, Y: y, Width: t.PaddleWidth, Height: t.PaddleHeight}
}

// serve centers the ball and launches it at the initial speed with a shallow
// random angle. dir is +1 for rightwards, -1 for leftwards.
func (s *State) serve(dir float64) {
	t := s.tuning
	angle := (s.rng.Float64()*2 - 1) * ServeAngle
	s.Ball = Ball{
		X:      s.Width / 2,
		Y:      s.Height / 2,
		Radius: math.Min(t.BallRadius, t.MaxBallRadius),
		VX:     dir * t.InitialSpeed * math.Cos(angle),
		VY:     t.InitialSpeed * math.Sin(angle),
	}
}
