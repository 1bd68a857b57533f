package logging

import (
	"sync"

	"go.uber.org/zap"
)

// Debug controls whether debug logs are printed.
var Debug bool

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Init builds the process logger. Debug mode switches to a development
// console encoder at debug level.
func Init(debug bool) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	Set(l, debug)
	return l, nil
}

// Set installs l as the process logger.
func Set(l *zap.Logger, debug bool) {
	mu.Lock()
	logger = l
	Debug = debug
	mu.Unlock()
}

// L returns the process logger. It is a no-op logger until Init or Set runs.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debugf logs a formatted debug message when Debug is enabled.
func Debugf(format string, v ...any) {
	if Debug {
		L().Sugar().Debugf(format, v...)
	}
}
