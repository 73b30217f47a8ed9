package game

import (
	"math"
	"strings"
	"time"
)

const (
	// MaxBounceAngle is the deflection at the very edge of a paddle.
	MaxBounceAngle = math.Pi / 4
	// ServeAngle bounds the serve so the ball does not open on a sideline.
	ServeAngle = math.Pi / 9
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps a client supplied name onto a known level, falling
// back to medium.
func ParseDifficulty(raw string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(raw))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

type AIProfile struct {
	PerceptionInterval time.Duration
	ErrorRange         float64
	DeadZone           float64
}

type Tuning struct {
	Width  float64
	Height float64

	BallRadius    float64
	MaxBallRadius float64
	InitialSpeed  float64
	MaxSpeed      float64
	Acceleration  float64

	PaddleWidth  float64
	PaddleHeight float64
	PaddleOffset float64
	PaddleSpeed  float64

	WinScore     int
	RespawnDelay time.Duration

	Profiles map[Difficulty]AIProfile
}

func DefaultTuning() Tuning {
	return Tuning{
		Width:         800,
		Height:        600,
		BallRadius:    10,
		MaxBallRadius: 20,
		InitialSpeed:  400,
		MaxSpeed:      1000,
		Acceleration:  1.05,
		PaddleWidth:   12,
		PaddleHeight:  100,
		PaddleOffset:  20,
		PaddleSpeed:   500,
		WinScore:      5,
		RespawnDelay:  time.Second,
		Profiles: map[Difficulty]AIProfile{
			DifficultyEasy:   {PerceptionInterval: 1200 * time.Millisecond, ErrorRange: 80, DeadZone: 24},
			DifficultyMedium: {PerceptionInterval: time.Second, ErrorRange: 40, DeadZone: 12},
			DifficultyHard:   {PerceptionInterval: 700 * time.Millisecond, ErrorRange: 15, DeadZone: 6},
		},
	}
}

// Profile returns the AI profile for d, falling back to the medium profile
// and then to built-in defaults.
func (t Tuning) Profile(d Difficulty) AIProfile {
	if p, ok := t.Profiles[d]; ok {
		return p
	}
	if p, ok := t.Profiles[DifficultyMedium]; ok {
		return p
	}
	return DefaultTuning().Profiles[DifficultyMedium]
}
