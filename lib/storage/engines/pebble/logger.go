package pebbledb

import (
	"fmt"

	"github.com/lni/dragonboat/v4/logger"
)

// pebbleLogger routes pebble's internal logging into the tKV loggers
type pebbleLogger struct {
	log logger.ILogger
}

func (l pebbleLogger) Infof(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

func (l pebbleLogger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

func (l pebbleLogger) Fatalf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
	panic(fmt.Sprintf(format, args...))
}
