package game

import (
	"math"
	"time"
)

// StepResult summarizes what happened during one physics step.
type StepResult struct {
	PaddleHit bool
	Scored    bool
	Scorer    Side
	Ended     bool
}

// Step advances s by dt. now is only used to gate the post-goal respawn
// delay. Nothing happens unless the match is playing.
func Step(s *State, dt time.Duration, now time.Time) StepResult {
	var res StepResult
	if s.Phase != PhasePlaying {
		return res
	}
	sec := dt.Seconds()
	if sec < 0 {
		sec = 0
	}

	enforceBounds(s)
	integrateBall(s, sec, now)
	bounceWalls(s)
	movePaddles(s, sec)
	res.PaddleHit = collidePaddles(s)
	detectGoal(s, now, &res)
	return res
}

func integrateBall(s *State, sec float64, now time.Time) {
	if !s.BallFrozenUntil.IsZero() {
		if now.Before(s.BallFrozenUntil) {
			return
		}
		s.BallFrozenUntil = time.Time{}
	}
	s.Ball.X += s.Ball.VX * sec
	s.Ball.Y += s.Ball.VY * sec
}

// enforceBounds pulls a state that drifted outside its invariants back in
// range instead of failing the match.
func enforceBounds(s *State) {
	b := &s.Ball
	if b.Radius > s.tuning.MaxBallRadius {
		b.Radius = s.tuning.MaxBallRadius
	}
	if speed := b.Speed(); speed > s.tuning.MaxSpeed && speed > 0 {
		k := s.tuning.MaxSpeed / speed
		b.VX *= k
		b.VY *= k
	}
	for i := range s.Paddles {
		p := &s.Paddles[i]
		p.Y = clamp(p.Y, 0, s.Height-p.Height)
	}
}

func bounceWalls(s *State) {
	b := &s.Ball
	if b.Y-b.Radius <= 0 && b.VY < 0 {
		b.Y = b.Radius
		b.VY = -b.VY
	} else if b.Y+b.Radius >= s.Height && b.VY > 0 {
		b.Y = s.Height - b.Radius
		b.VY = -b.VY
	}
}

func movePaddles(s *State, sec float64) {
	step := s.tuning.PaddleSpeed * sec
	for i := range s.Paddles {
		p := &s.Paddles[i]
		in := s.Inputs[i]
		if in.Up {
			p.Y -= step
		}
		if in.Down {
			p.Y += step
		}
		p.Y = clamp(p.Y, 0, s.Height-p.Height)
	}
}

func collidePaddles(s *State) bool {
	b := &s.Ball
	if b.VX < 0 && hits(*b, s.Paddles[0]) {
		p := s.Paddles[0]
		b.X = p.X + p.Width + b.Radius
		deflect(s, p, 1)
		return true
	}
	if b.VX > 0 && hits(*b, s.Paddles[1]) {
		p := s.Paddles[1]
		b.X = p.X - b.Radius
		deflect(s, p, -1)
		return true
	}
	return false
}

// hits is a circle versus axis-aligned rectangle test using the closest
// point on the rectangle to the circle center.
func hits(b Ball, p Paddle) bool {
	cx := clamp(b.X, p.X, p.X+p.Width)
	cy := clamp(b.Y, p.Y, p.Y+p.Height)
	dx := b.X - cx
	dy := b.Y - cy
	return dx*dx+dy*dy <= b.Radius*b.Radius
}

func deflect(s *State, p Paddle, dir float64) {
	b := &s.Ball
	half := p.Height / 2
	offset := clamp((b.Y-(p.Y+half))/half, -1, 1)
	angle := offset * MaxBounceAngle
	speed := math.Min(b.Speed()*s.tuning.Acceleration, s.tuning.MaxSpeed)
	b.VX = dir * speed * math.Cos(angle)
	b.VY = speed * math.Sin(angle)
}

func detectGoal(s *State, now time.Time, res *StepResult) {
	b := s.Ball
	var scorer Side
	switch {
	case b.X+b.Radius < 0:
		scorer = SideRight
	case b.X-b.Radius > s.Width:
		scorer = SideLeft
	default:
		return
	}
	if scorer == SideRight {
		s.Score.Right++
	} else {
		s.Score.Left++
	}
	s.LastScorer = scorer
	res.Scored = true
	res.Scorer = scorer

	if s.Score.For(scorer) >= s.tuning.WinScore {
		s.End(EndReasonScore)
		res.Ended = true
		return
	}
	resetAfterGoal(s, scorer, now)
}

// resetAfterGoal re-centers the ball, serves it toward the side that
// conceded and freezes it for the respawn delay.
func resetAfterGoal(s *State, scorer Side, now time.Time) {
	dir := 1.0
	if scorer == SideRight {
		dir = -1
	}
	s.serve(dir)
	s.BallFrozenUntil = now.Add(s.tuning.RespawnDelay)
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
