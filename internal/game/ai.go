package game

import (
	"math"
	"math/rand"
	"time"
)

// AI drives one paddle from periodic, noisy samples of the ball trajectory.
// It never reads the state between perception ticks, which keeps it
// beatable.
type AI struct {
	Side    Side
	Profile AIProfile

	lastPerception time.Time
	target         *float64
	input          Input
	rng            *rand.Rand
}

func NewAI(side Side, profile AIProfile, rng *rand.Rand) *AI {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &AI{Side: side, Profile: profile, rng: rng}
}

// Target returns the current aim point and whether one is set.
func (a *AI) Target() (float64, bool) {
	if a.target == nil {
		return 0, false
	}
	return *a.target, true
}

func (a *AI) Input() Input {
	return a.input
}

// Perceive samples the ball when the perception interval has elapsed.
// Between samples the previous target is kept.
func (a *AI) Perceive(s *State, now time.Time) {
	if s.Phase != PhasePlaying {
		a.Reset()
		return
	}
	if !a.lastPerception.IsZero() && now.Sub(a.lastPerception) < a.Profile.PerceptionInterval {
		return
	}
	a.lastPerception = now

	y := s.Height / 2
	if predicted, ok := PredictInterceptY(s, a.Side); ok {
		y = predicted
		if r := a.Profile.ErrorRange; r > 0 {
			y += (a.rng.Float64()*2 - 1) * r
		}
	}
	a.target = &y
}

// Act converts the target into a directional input. Up and down are never
// both set.
func (a *AI) Act(s *State) Input {
	if s.Phase != PhasePlaying || a.target == nil {
		a.input = Input{}
		return a.input
	}
	center := s.Paddles[a.Side.Index()].CenterY()
	switch {
	case *a.target < center-a.Profile.DeadZone:
		a.input = Input{Up: true}
	case *a.target > center+a.Profile.DeadZone:
		a.input = Input{Down: true}
	default:
		a.input = Input{}
	}
	return a.input
}

// Reset drops the target and latches a neutral input.
func (a *AI) Reset() {
	a.target = nil
	a.input = Input{}
	a.lastPerception = time.Time{}
}

// PredictInterceptY returns the y coordinate at which the ball reaches the
// face of the paddle on side. Wall bounces are unfolded analytically. It
// reports false when the ball travels away from that side.
func PredictInterceptY(s *State, side Side) (float64, bool) {
	b := s.Ball
	p := s.Paddles[side.Index()]
	var faceX float64
	if side == SideRight {
		if b.VX <= 0 {
			return 0, false
		}
		faceX = p.X - b.Radius
	} else {
		if b.VX >= 0 {
			return 0, false
		}
		faceX = p.X + p.Width + b.Radius
	}
	t := (faceX - b.X) / b.VX
	if t < 0 {
		t = 0
	}
	return unfold(b.Y+b.VY*t, b.Radius, s.Height-b.Radius), true
}

// unfold reflects y across the nearest boundary until it lands inside
// [lo, hi]. The reflection is periodic with period 2*(hi-lo), so the
// overshoot is folded in one step instead of looping.
func unfold(y, lo, hi float64) float64 {
	span := hi - lo
	if span <= 0 {
		return lo
	}
	period := 2 * span
	m := math.Mod(y-lo, period)
	if m < 0 {
		m += period
	}
	if m > span {
		m = period - m
	}
	return lo + m
}
