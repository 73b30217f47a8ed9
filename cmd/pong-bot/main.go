// pong-bot connects to a game server and plays by tracking the ball.
//
// Usage:
//
//	pong-bot                      - join the queue and play one match
//	pong-bot --mode solo --matches 3
//	pong-bot --url ws://host:8080/ws --player-id bot-1
//
// Flags default to the WS_URL, BOT_MODE, BOT_DIFFICULTY and BOT_PLAYER_ID
// environment variables.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pong-arena/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagURL        string
	flagMode       string
	flagDifficulty string
	flagPlayerID   string
	flagMatches    int
	flagDeadZone   float64
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults, err := config.LoadBot()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load bot config:", err)
	}
	cmd := &cobra.Command{
		Use:   "pong-bot",
		Short: "Scripted pong client for smoke and load testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBot(ctx, botOptions{
				URL:        flagURL,
				Mode:       flagMode,
				Difficulty: flagDifficulty,
				PlayerID:   flagPlayerID,
				Matches:    flagMatches,
				DeadZone:   flagDeadZone,
			})
		},
	}
	cmd.Flags().StringVar(&flagURL, "url", defaults.WSURL, "Websocket endpoint")
	cmd.Flags().StringVar(&flagMode, "mode", defaults.Mode, "Session mode: solo, queue, tournament, invitation")
	cmd.Flags().StringVar(&flagDifficulty, "difficulty", defaults.Difficulty, "AI difficulty for solo mode")
	cmd.Flags().StringVar(&flagPlayerID, "player-id", defaults.PlayerID, "Player id for correlated modes")
	cmd.Flags().IntVar(&flagMatches, "matches", 1, "Matches to play before exiting (solo restarts between them)")
	cmd.Flags().Float64Var(&flagDeadZone, "dead-zone", 8, "Pixels of slack before the paddle moves")
	return cmd
}
