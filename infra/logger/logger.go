package logger

import corelogger "github.com/easycab-sim/central/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// New returns a Logger for the given component. The output format is
// selected through the APP_ENV environment variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}
