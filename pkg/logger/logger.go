package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool `split_words:"true" default:"false"`
	PrettyFormat bool `split_words:"true" default:"false"`
	// Output is "stdout" or "stderr". The chat REPL logs to stderr so replies stay readable.
	Output string `split_words:"true" default:"stdout"`
}

var DefaultConfig = &Config{
	Debug:        false,
	PrettyFormat: false,
	Output:       "stdout",
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

func Init(opts ...Config) {
	conf := safe(opts...)
	out := writer(conf.Output)

	if conf.PrettyFormat {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	}

	if conf.Debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	log.Logger = log.Logger.With().Caller().Stack().Logger()
}

// Component returns a child of the global logger tagged with component.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

func writer(output string) io.Writer {
	if output == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}
