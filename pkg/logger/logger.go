package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger is the leveled key/value logger used across the service
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
}

type logLevel int

const (
	debugLevel logLevel = iota
	infoLevel
	warnLevel
	errorLevel
)

type levelLogger struct {
	out   *log.Logger
	err   *log.Logger
	level logLevel
}

// NewLogger creates a logger that writes at or above the given level
func NewLogger(level string) Logger {
	var l logLevel

	switch strings.ToLower(level) {
	case "debug":
		l = debugLevel
	case "info":
		l = infoLevel
	case "warn":
		l = warnLevel
	case "error":
		l = errorLevel
	default:
		l = infoLevel
	}

	return &levelLogger{
		out:   log.New(os.Stdout, "", log.Ldate|log.Ltime),
		err:   log.New(os.Stderr, "", log.Ldate|log.Ltime),
		level: l,
	}
}

func (l *levelLogger) Debug(msg string, keyvals ...interface{}) {
	if l.level <= debugLevel {
		l.out.Println("DEBUG: " + formatMsg(msg, keyvals...))
	}
}

func (l *levelLogger) Info(msg string, keyvals ...interface{}) {
	if l.level <= infoLevel {
		l.out.Println("INFO: " + formatMsg(msg, keyvals...))
	}
}

func (l *levelLogger) Warn(msg string, keyvals ...interface{}) {
	if l.level <= warnLevel {
		l.out.Println("WARN: " + formatMsg(msg, keyvals...))
	}
}

func (l *levelLogger) Error(msg string, keyvals ...interface{}) {
	if l.level <= errorLevel {
		l.err.Println("ERROR: " + formatMsg(msg, keyvals...))
	}
}

// formatMsg appends key=value pairs to the message
func formatMsg(msg string, keyvals ...interface{}) string {
	if len(keyvals) == 0 {
		return msg
	}

	var b strings.Builder
	b.WriteString(msg)

	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprintf("%v", keyvals[i])
		value := "missing"

		if i+1 < len(keyvals) {
			value = fmt.Sprintf("%v", keyvals[i+1])
		}

		b.WriteString(" " + key + "=" + value)
	}

	return b.String()
}

// NewNopLogger returns a logger that discards everything, for tests
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, keyvals ...interface{}) {}
func (nopLogger) Info(msg string, keyvals ...interface{})  {}
func (nopLogger) Warn(msg string, keyvals ...interface{})  {}
func (nopLogger) Error(msg string, keyvals ...interface{}) {}
