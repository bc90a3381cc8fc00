package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	config "github.com/thirdweb-dev/tracecollector/configs"
)

func InitLogger() {
	// overrides zerolog global logger
	log.Logger = NewLogger("tracecollector")
}

func NewLogger(name string) zerolog.Logger {
	return newLogger(os.Stderr, name, config.Cfg.Log)
}

func newLogger(out io.Writer, name string, cfg config.LogConfig) zerolog.Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(cfg.Level); err == nil && lvl != zerolog.NoLevel {
		level = lvl
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(out).With().Timestamp().Str("component", name).Logger()
	logger = logger.With().Caller().Logger()
	if cfg.Prettify {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out})
	}
	return logger
}
