package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ContextKey is the type for context keys used in logging
type ContextKey string

const (
	// ConversationIDKey is the context key for conversation_id
	ConversationIDKey ContextKey = "conversation_id"
	// ExecutionIDKey is the context key for execution_id
	ExecutionIDKey ContextKey = "execution_id"
	// CorrelationIDKey is the context key for correlation_id
	CorrelationIDKey ContextKey = "correlation_id"
)

var contextKeys = []ContextKey{ConversationIDKey, ExecutionIDKey, CorrelationIDKey}

var defaultLogger = newLogger(os.Stdout, logrus.InfoLevel, "json")

// Init configures the global structured logger. Unknown levels fall back to info.
func Init(level, format string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	defaultLogger = newLogger(os.Stdout, lvl, format)
}

// SetOutput redirects log output
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

func newLogger(w io.Writer, level logrus.Level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	if format == "text" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}
	return l
}

// WithContext creates a log entry carrying the context values (conversation_id, execution_id, correlation_id)
func WithContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(defaultLogger)
	if ctx == nil {
		return entry
	}

	for _, key := range contextKeys {
		if value, ok := ctx.Value(key).(string); ok && value != "" {
			entry = entry.WithField(string(key), value)
		}
	}
	return entry
}

// fields converts alternating key/value arguments into logrus fields
func fields(args []any) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprint(args[i])
		if i+1 >= len(args) {
			f[key] = "(missing)"
			break
		}
		f[key] = args[i+1]
	}
	return f
}

// Info logs an info message with context
func Info(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).WithFields(fields(args)).Info(msg)
}

// Error logs an error message with context
func Error(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).WithFields(fields(args)).Error(msg)
}

// Warn logs a warning message with context
func Warn(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).WithFields(fields(args)).Warn(msg)
}

// Debug logs a debug message with context
func Debug(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).WithFields(fields(args)).Debug(msg)
}

// LogStageTransition logs a conversation stage change
func LogStageTransition(ctx context.Context, conversationID, oldStage, newStage string) {
	WithContext(ctx).WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"old_stage":       oldStage,
		"new_stage":       newStage,
		"timestamp":       time.Now().UTC(),
	}).Info("Conversation stage transition")
}

// LogExecution logs the outcome of a workflow execution
func LogExecution(ctx context.Context, executionID, ruleName, status string, actions int) {
	WithContext(ctx).WithFields(logrus.Fields{
		"execution_id": executionID,
		"rule_name":    ruleName,
		"status":       status,
		"action_count": actions,
	}).Info("Workflow execution recorded")
}

// LogSlowOperation logs operations that exceed the threshold
func LogSlowOperation(ctx context.Context, operation string, duration time.Duration) {
	if duration > time.Second {
		WithContext(ctx).WithFields(logrus.Fields{
			"operation":   operation,
			"duration_ms": duration.Milliseconds(),
		}).Warn("Slow operation detected")
	}
}

// LogError logs an error with additional key/value details
func LogError(ctx context.Context, msg string, err error, args ...any) {
	entry := WithContext(ctx).WithFields(fields(args))
	if err != nil {
		entry = entry.WithField("error", err.Error())
	}
	entry.Error(msg)
}
