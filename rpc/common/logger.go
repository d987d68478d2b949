package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
	log "github.com/sirupsen/logrus"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// mkvLogger implements the ILogger interface on top of a logrus entry
type mkvLogger struct {
	level logger.LogLevel
	entry *log.Entry
}

func (l *mkvLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *mkvLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.entry.Debugf(format, args...)
	}
}

func (l *mkvLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.entry.Infof(format, args...)
	}
}

func (l *mkvLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.entry.Warnf(format, args...)
	}
}

func (l *mkvLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.entry.Errorf(format, args...)
	}
}

func (l *mkvLogger) Panicf(format string, args ...interface{}) {
	l.entry.Panicf(format, args...)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// base is the logrus instance shared by all package loggers.
// Level filtering happens per package in mkvLogger, so it logs everything.
var base = func() *log.Logger {
	l := log.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(log.DebugLevel)
	l.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}()

// CreateLogger implements the dragonboat logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	return &mkvLogger{
		level: logger.INFO,
		entry: base.WithField("pkg", pkgName),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info", "":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// loggerNames are all package loggers used by mkv
var loggerNames = []string{
	"rpc",
	"server",
	"client",
	"registry",
	"db",
	"transport/rpc",
}

// InitLoggers installs the logrus backed factory and applies level to all loggers
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)

	for _, name := range loggerNames {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
