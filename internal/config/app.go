package config

import "pong-arena/internal/game"

type AppConfig struct {
	Server ServerConfig
	Log    LogConfig
	Tuning game.Tuning
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	tuning, err := LoadTuning(serverCfg.TuningPath)
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Log:    logCfg,
		Tuning: tuning,
	}, nil
}
