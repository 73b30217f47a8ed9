package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"pong-arena/internal/game"

	"gopkg.in/yaml.v3"
)

//go:embed tuning.yaml
var defaultTuningYAML []byte

type TuningFile struct {
	Viewport struct {
		Width  float64 `yaml:"width"`
		Height float64 `yaml:"height"`
	} `yaml:"viewport"`
	Ball struct {
		Radius       float64 `yaml:"radius"`
		MaxRadius    float64 `yaml:"max_radius"`
		InitialSpeed float64 `yaml:"initial_speed"`
		MaxSpeed     float64 `yaml:"max_speed"`
		Acceleration float64 `yaml:"acceleration"`
	} `yaml:"ball"`
	Paddle struct {
		Width  float64 `yaml:"width"`
		Height float64 `yaml:"height"`
		Offset float64 `yaml:"offset"`
		Speed  float64 `yaml:"speed"`
	} `yaml:"paddle"`
	Match struct {
		WinScore       int `yaml:"win_score"`
		RespawnDelayMS int `yaml:"respawn_delay_ms"`
	} `yaml:"match"`
	AI map[string]AIProfileFile `yaml:"ai"`
}

type AIProfileFile struct {
	PerceptionIntervalMS int     `yaml:"perception_interval_ms"`
	ErrorRange           float64 `yaml:"error_range"`
	DeadZone             float64 `yaml:"dead_zone"`
}

// LoadTuning reads physics and AI constants from path, or from the embedded
// defaults when path is empty. Fields missing from a custom file keep their
// default values.
func LoadTuning(path string) (game.Tuning, error) {
	var tf TuningFile
	if err := yaml.Unmarshal(defaultTuningYAML, &tf); err != nil {
		return game.Tuning{}, fmt.Errorf("parse default tuning: %w", err)
	}
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return game.Tuning{}, fmt.Errorf("read tuning path %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &tf); err != nil {
			return game.Tuning{}, fmt.Errorf("parse tuning %q: %w", path, err)
		}
	}
	t := tf.toTuning()
	if err := validateTuning(t); err != nil {
		return game.Tuning{}, err
	}
	return t, nil
}

func (tf TuningFile) toTuning() game.Tuning {
	t := game.Tuning{
		Width:         tf.Viewport.Width,
		Height:        tf.Viewport.Height,
		BallRadius:    tf.Ball.Radius,
		MaxBallRadius: tf.Ball.MaxRadius,
		InitialSpeed:  tf.Ball.InitialSpeed,
		MaxSpeed:      tf.Ball.MaxSpeed,
		Acceleration:  tf.Ball.Acceleration,
		PaddleWidth:   tf.Paddle.Width,
		PaddleHeight:  tf.Paddle.Height,
		PaddleOffset:  tf.Paddle.Offset,
		PaddleSpeed:   tf.Paddle.Speed,
		WinScore:      tf.Match.WinScore,
		RespawnDelay:  time.Duration(tf.Match.RespawnDelayMS) * time.Millisecond,
		Profiles:      make(map[game.Difficulty]game.AIProfile, len(tf.AI)),
	}
	for name, p := range tf.AI {
		t.Profiles[game.Difficulty(strings.ToLower(name))] = game.AIProfile{
			PerceptionInterval: time.Duration(p.PerceptionIntervalMS) * time.Millisecond,
			ErrorRange:         p.ErrorRange,
			DeadZone:           p.DeadZone,
		}
	}
	return t
}

func validateTuning(t game.Tuning) error {
	switch {
	case t.Width <= 0 || t.Height <= 0:
		return fmt.Errorf("tuning: viewport must be positive")
	case t.BallRadius <= 0 || t.MaxBallRadius < t.BallRadius:
		return fmt.Errorf("tuning: ball radius must be positive and within max_radius")
	case t.InitialSpeed <= 0 || t.MaxSpeed < t.InitialSpeed:
		return fmt.Errorf("tuning: initial_speed must be positive and within max_speed")
	case t.Acceleration < 1:
		return fmt.Errorf("tuning: acceleration must be >= 1")
	case t.PaddleHeight <= 0 || t.PaddleHeight > t.Height:
		return fmt.Errorf("tuning: paddle height must fit the viewport")
	case t.WinScore < 1:
		return fmt.Errorf("tuning: win_score must be >= 1")
	}
	if _, ok := t.Profiles[game.DifficultyMedium]; !ok {
		return fmt.Errorf("tuning: ai profile %q is required", game.DifficultyMedium)
	}
	return nil
}
