package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"pong-arena/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	outputMu sync.RWMutex
	output   io.Writer = os.Stdout
	closer   io.Closer
)

// Init configures the global zerolog logger. The returned function closes
// the log file, if any.
func Init(cfg config.LogConfig) (func() error, error) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var console io.Writer = os.Stdout
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	out := console
	var fileCloser io.Closer
	if path := strings.TrimSpace(cfg.File); path != "" {
		fw, err := newSizeLimitedWriter(path, cfg.MaxMB)
		if err != nil {
			return nil, err
		}
		out = zerolog.MultiLevelWriter(console, fw)
		fileCloser = fw
	}

	zerolog.SetGlobalLevel(level)
	ctx := zerolog.New(out).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()
	if n := cfg.SampleEvery; n > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(n)})
	}
	log.Logger = logger

	outputMu.Lock()
	output = out
	closer = fileCloser
	outputMu.Unlock()
	return Close, nil
}

// Writer returns the destination the global logger writes to, for
// components that log through another library.
func Writer() io.Writer {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return output
}

func Close() error {
	outputMu.Lock()
	defer outputMu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	output = os.Stdout
	return err
}
