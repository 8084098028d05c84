// Package logging builds the zerolog.Logger used across connpool's
// binaries, matching the console-writer-plus-timestamp setup used
// elsewhere in this stack.
package logging

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/alfred-ai/connpool/config"
)

// New returns a configured zerolog.Logger. Development mode logs at debug
// level; anything else logs at info level.
func New(cfg *config.Config) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr}
	lvl := zerolog.InfoLevel
	if cfg.IsDevelopment() {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return zerolog.New(out).With().Timestamp().Logger()
}
