package logging

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	mu     sync.Mutex
)

// InitLogger configures the process logger. format is "json" or "text".
func InitLogger(level logrus.Level, format ...string) *logrus.Logger {
	l := GetLogger()

	mu.Lock()
	defer mu.Unlock()
	l.SetLevel(level)
	if len(format) > 0 && format[0] == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// GetLogger returns the process logger, creating it at info level on first use.
// Packages capture it at init time, so InitLogger reconfigures it in place.
func GetLogger() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// ParseLevel is logrus.ParseLevel falling back to info.
func ParseLevel(s string) logrus.Level {
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
