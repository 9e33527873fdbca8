package utils

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// InitLogger configures the process logger. When file is non-empty, output is
// duplicated to a rotating log file.
func InitLogger(file string, maxSizeMB, maxBackups, maxAgeDays int, compress bool, level string) {
	var out io.Writer = os.Stderr
	if file != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   compress,
		})
	}
	logger = zerolog.New(out).With().Timestamp().Logger()
	SetLogLevel(level)
}

// SetLogLevel changes the minimum level. Unknown levels fall back to info.
func SetLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	logger = logger.Level(lvl)
}

// SetLoggerForTest replaces the package logger so tests can capture output.
func SetLoggerForTest(l zerolog.Logger) {
	logger = l
}

func logKV(ev *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}

// Debug logs at debug level with alternating key/value pairs.
func Debug(msg string, kv ...interface{}) { logKV(logger.Debug(), msg, kv) }

// Info logs at info level with alternating key/value pairs.
func Info(msg string, kv ...interface{}) { logKV(logger.Info(), msg, kv) }

// Warn logs at warn level with alternating key/value pairs.
func Warn(msg string, kv ...interface{}) { logKV(logger.Warn(), msg, kv) }

// Error logs at error level with alternating key/value pairs.
func Error(msg string, kv ...interface{}) { logKV(logger.Error(), msg, kv) }
