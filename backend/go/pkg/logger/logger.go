package logger

import (
	"Recall_1.0/backend/go/internal/models"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry with the structured fields used across the service.
// The With* methods return a derived Logger and never modify the receiver.
type Logger struct {
	entry *logrus.Entry
}

// Init configures the global logrus formatter, output and level.
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

// SetOutput redirects every logger.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// ParseLevel parses a level name and falls back to info.
func ParseLevel(name string) logrus.Level {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// New creates a Logger preset with service, trace and user fields.
func New(serviceName, traceID, userID string) *Logger {
	return &Logger{
		entry: logrus.WithFields(logrus.Fields{
			"service_name": serviceName,
			"trace_id":     traceID,
			"user_id":      userID,
		}),
	}
}

// Discard returns a Logger that drops everything. Useful in tests.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{entry: logrus.NewEntry(l)}
}

func (l *Logger) with(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithField attaches one arbitrary field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.with(key, value)
}

// WithTrace sets the trace id.
func (l *Logger) WithTrace(traceID string) *Logger {
	return l.with("trace_id", traceID)
}

// WithUser sets the user id.
func (l *Logger) WithUser(userID string) *Logger {
	return l.with("user_id", userID)
}

// WithRequest attaches request information.
func (l *Logger) WithRequest(req models.RequestInfo) *Logger {
	return l.with("request_info", req)
}

// WithError attaches structured error information.
func (l *Logger) WithError(err models.ErrorInfo) *Logger {
	return l.with("error", err)
}

// WithPayload attaches business data.
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return l.with("payload", payload)
}

func (l *Logger) Info(message string) {
	l.entry.Info(message)
}

func (l *Logger) Warn(message string) {
	l.entry.Warn(message)
}

func (l *Logger) Error(message string) {
	l.entry.Error(message)
}

func (l *Logger) Debug(message string) {
	l.entry.Debug(message)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(message string) {
	l.entry.Fatal(message)
}
