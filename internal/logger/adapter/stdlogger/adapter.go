// Package stdlogger adapts zerolog to printf style logger interfaces such as gorm's.
package stdlogger

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// Logger writes printf style messages to the global zerolog logger.
type Logger struct{}

// New returns a Logger.
func New() *Logger {
	return &Logger{}
}

// Printf implements gorm's logger.Writer. Messages are logged at info level.
func (l *Logger) Printf(format string, args ...any) {
	log.Info().Str("component", "gorm").Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	log.Debug().Msgf(format, args...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) {
	log.Info().Msgf(format, args...)
}

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, args ...any) {
	log.Warn().Msgf(format, args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) {
	log.Error().Msgf(format, args...)
}

// NewGormLogger returns a gorm logger writing through zerolog. level is one of
// silent, error, warn or info; anything else means warn.
func NewGormLogger(level string) gormlogger.Interface {
	return gormlogger.New(New(), gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  gormLevel(level),
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func gormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
