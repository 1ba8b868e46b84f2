package logger

import (
	"DocQA/backend/go/internal/models"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry so every line carries the service name and
// whatever structured fields were attached with the With* helpers.
type Logger struct {
	entry *logrus.Entry
}

// Init configures the global logrus instance: JSON output on stdout with
// stable field names for log shipping.
func Init(level logrus.Level) {
	logrus.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(level)
}

// SetOutput redirects the global logger, e.g. to stderr when stdout carries a protocol.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// ParseLevel converts a config string into a logrus level, falling back to info.
func ParseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// New creates a Logger with the given preset fields.
func New(serviceName, traceID, userID string) *Logger {
	return &Logger{
		entry: logrus.WithFields(logrus.Fields{
			"service_name": serviceName,
			"trace_id":     traceID,
			"user_id":      userID,
		}),
	}
}

// NewWriter returns a standalone Logger writing JSON lines to w. Used by tests.
func NewWriter(w io.Writer) *Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(w)
	return &Logger{entry: logrus.NewEntry(l)}
}

// NewDiscard returns a Logger that writes nowhere. Used by tests.
func NewDiscard() *Logger {
	return NewWriter(io.Discard)
}

// WithRequest returns a child logger carrying request information.
func (l *Logger) WithRequest(req models.RequestInfo) *Logger {
	return &Logger{entry: l.entry.WithField("request_info", req)}
}

// WithError returns a child logger carrying structured error information.
func (l *Logger) WithError(err models.ErrorInfo) *Logger {
	return &Logger{entry: l.entry.WithField("error", err)}
}

// WithPayload returns a child logger carrying business data.
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithField("payload", payload)}
}

// Info logs at info level.
func (l *Logger) Info(message string) {
	l.entry.Info(message)
}

// Warn logs at warn level.
func (l *Logger) Warn(message string) {
	l.entry.Warn(message)
}

// Error logs at error level.
func (l *Logger) Error(message string) {
	l.entry.Error(message)
}

// Debug logs at debug level.
func (l *Logger) Debug(message string) {
	l.entry.Debug(message)
}

// Fatal logs and terminates the process.
func (l *Logger) Fatal(message string) {
	l.entry.Fatal(message)
}
