// Package logger wraps logrus with namespaced, key/value structured logging.
package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Formatter is the interface log formatters must implement.
type Formatter interface {
	Format(*logrus.Entry) ([]byte, error)
}

// Logger handles structured logging for a namespace.
type Logger struct {
	logrus *logrus.Logger
	ns     string
	fields logrus.Fields
}

// New returns a new Logger instance with the default config.
func New(ns string, args ...interface{}) *Logger {
	f := fields(args...)
	f["ns"] = ns

	l := &Logger{
		logrus: logrus.New(),
		ns:     ns,
		fields: f,
	}
	l.Configure(DefaultConfig())
	return l
}

// NewLogger returns a new Logger instance configured with the given config.
func NewLogger(ns string, conf Config) *Logger {
	l := New(ns)
	l.Configure(conf)
	return l
}

// Sub returns a child logger which shares output, level and formatter,
// but logs under a new namespace.
func (l *Logger) Sub(ns string, args ...interface{}) *Logger {
	f := logrus.Fields{}
	for k, v := range l.fields {
		f[k] = v
	}
	for k, v := range fields(args...) {
		f[k] = v
	}
	f["ns"] = ns
	return &Logger{logrus: l.logrus, ns: ns, fields: f}
}

// WithFields returns a new Logger instance with the given fields added to all log messages.
func (l *Logger) WithFields(args ...interface{}) *Logger {
	defer recoverLogErr()
	f := logrus.Fields{}
	for k, v := range l.fields {
		f[k] = v
	}
	for k, v := range fields(args...) {
		f[k] = v
	}
	return &Logger{logrus: l.logrus, ns: l.ns, fields: f}
}

// Debug logs a debug message.
//
// After the first argument, arguments are key-value pairs which are written as structured logs.
//
//	log.Debug("Some message here", "key1", value1, "key2", value2)
func (l *Logger) Debug(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.entry(args...).Debug(msg)
}

// Info logs an info message
//
// After the first argument, arguments are key-value pairs which are written as structured logs.
//
//	log.Info("Some message here", "key1", value1, "key2", value2)
func (l *Logger) Info(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.entry(args...).Info(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.entry(args...).Warn(msg)
}

// Error logs an error message
//
// After the first argument, arguments are key-value pairs which are written as structured logs.
//
//	log.Error("Some message here", "key1", value1, "key2", value2)
//
// Error has a two-argument version that can be used as a shortcut.
//
//	err := startServer()
//	log.Error("Couldn't start server", err)
func (l *Logger) Error(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.entry(args...).Error(msg)
}

// SetLevel sets the level of logging
func (l *Logger) SetLevel(lvl string) {
	switch strings.ToLower(lvl) {
	case "debug":
		l.logrus.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		l.logrus.SetLevel(logrus.WarnLevel)
	case "error":
		l.logrus.SetLevel(logrus.ErrorLevel)
	default:
		l.logrus.SetLevel(logrus.InfoLevel)
	}
}

// SetFormatter sets the formatter of the logger.
func (l *Logger) SetFormatter(f Formatter) {
	l.logrus.Formatter = f
}

// SetOutput sets the output of the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.logrus.Out = w
}

func (l *Logger) entry(args ...interface{}) *logrus.Entry {
	f := logrus.Fields{}
	for k, v := range l.fields {
		f[k] = v
	}
	for k, v := range fields(args...) {
		f[k] = v
	}
	return l.logrus.WithFields(f)
}

// recoverLogErr is used to recover from any panics during logging.
// Panics aren't expected of course, but logging should never crash
// a program, so this failsafe tries to prevent those crashes.
func recoverLogErr() {
	if r := recover(); r != nil {
		fmt.Println("Recovered from logging panic", r)
	}
}

// PrintSimpleError prints out an error message with a red "ERROR:" prefix.
func PrintSimpleError(err error) {
	fmt.Printf("\x1b[%dm%s\x1b[0m %s\n", red, "ERROR:", err.Error())
}

const red = 31

func fields(args ...interface{}) logrus.Fields {
	f := logrus.Fields{}
	if len(args) == 1 {
		if err, ok := args[0].(error); ok {
			f["error"] = err.Error()
		} else {
			f["unknown"] = args[0]
		}
		return f
	}
	for i := 0; i+1 < len(args); i += 2 {
		k, ok := args[i].(string)
		if !ok {
			k = fmt.Sprint(args[i])
		}
		v := args[i+1]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		f[k] = v
	}
	if len(args)%2 != 0 {
		f["unknown"] = args[len(args)-1]
	}
	return f
}
