package config

import "github.com/caarlos0/env/v11"

type BotConfig struct {
	WSURL      string `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	Mode       string `env:"BOT_MODE" envDefault:"queue"`
	Difficulty string `env:"BOT_DIFFICULTY" envDefault:"medium"`
	PlayerID   string `env:"BOT_PLAYER_ID"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
