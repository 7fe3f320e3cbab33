package natsclient

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevel(t *testing.T) {
	t.Run("string representation", func(t *testing.T) {
		assert.Equal(t, "DEBUG", LogLevelDebug.String())
		assert.Equal(t, "INFO", LogLevelInfo.String())
		assert.Equal(t, "WARN", LogLevelWarn.String())
		assert.Equal(t, "ERROR", LogLevelError.String())
		assert.Equal(t, "NONE", LogLevelNone.String())
		assert.Equal(t, "UNKNOWN", LogLevel(99).String())
	})

	t.Run("level ordering", func(t *testing.T) {
		assert.True(t, LogLevelDebug < LogLevelInfo)
		assert.True(t, LogLevelInfo < LogLevelWarn)
		assert.True(t, LogLevelWarn < LogLevelError)
		assert.True(t, LogLevelError < LogLevelNone)
	})
}

func TestNoOpLogger(t *testing.T) {
	logger := NewNoOpLogger()

	t.Run("all methods are no-ops", func(_ *testing.T) {
		logger.Debug("test", nil)
		logger.Info("test", nil)
		logger.Warn("test", nil)
		logger.Error("test", nil)
	})

	t.Run("with fields returns same logger", func(t *testing.T) {
		newLogger := logger.WithFields(LogFields{"key": "value"})
		assert.Equal(t, logger, newLogger)
	})

	t.Run("level operations", func(t *testing.T) {
		assert.Equal(t, LogLevelNone, logger.Level())

		logger.SetLevel(LogLevelDebug)
		assert.Equal(t, LogLevelDebug, logger.Level())
	})
}

func TestStdLogger(t *testing.T) {
	t.Run("debug level logs all", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewStdLogger(buf, LogLevelDebug)

		logger.Debug("debug message", nil)
		logger.Info("info message", nil)
		logger.Warn("warn message", nil)
		logger.Error("error message", nil)

		output := buf.String()
		assert.Contains(t, output, "[DEBUG] debug message")
		assert.Contains(t, output, "[INFO] info message")
		assert.Contains(t, output, "[WARN] warn message")
		assert.Contains(t, output, "[ERROR] error message")
	})

	t.Run("info level skips debug", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewStdLogger(buf, LogLevelInfo)

		logger.Debug("debug message", nil)
		logger.Info("info message", nil)

		output := buf.String()
		assert.NotContains(t, output, "debug message")
		assert.Contains(t, output, "info message")
	})

	t.Run("none level logs nothing", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewStdLogger(buf, LogLevelNone)

		logger.Debug("debug message", nil)
		logger.Info("info message", nil)
		logger.Warn("warn message", nil)
		logger.Error("error message", nil)

		assert.Empty(t, buf.String())
	})

	t.Run("logs with fields", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewStdLogger(buf, LogLevelDebug)

		logger.Info("message", LogFields{
			"key1": "value1",
			"key2": 42,
		})

		output := buf.String()
		assert.Contains(t, output, "message")
		assert.Contains(t, output, "key1")
		assert.Contains(t, output, "value1")
		assert.Contains(t, output, "key2")
	})

	t.Run("with fields creates new logger", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewStdLogger(buf, LogLevelDebug)

		childLogger := logger.WithFields(LogFields{LogFieldURL: "nats://localhost:4222"})

		childLogger.Info("child message", LogFields{"extra": "data"})

		output := buf.String()
		assert.Contains(t, output, "child message")
		assert.Contains(t, output, "nats://localhost:4222")
		assert.Contains(t, output, "extra")
	})

	t.Run("with fields preserves parent fields", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewStdLogger(buf, LogLevelDebug)

		parent := logger.WithFields(LogFields{"parent": "field"})
		child := parent.WithFields(LogFields{"child": "field"})

		child.Info("message", nil)

		output := buf.String()
		assert.Contains(t, output, "parent")
		assert.Contains(t, output, "child")
	})

	t.Run("level operations", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewStdLogger(buf, LogLevelInfo)

		assert.Equal(t, LogLevelInfo, logger.Level())

		logger.SetLevel(LogLevelDebug)
		assert.Equal(t, LogLevelDebug, logger.Level())
	})

	t.Run("nil writer defaults to stderr", func(t *testing.T) {
		logger := NewStdLogger(nil, LogLevelDebug)
		assert.NotNil(t, logger)
		assert.NotNil(t, logger.logger)
	})
}

func TestLogFieldConstants(t *testing.T) {
	assert.Equal(t, "subject", LogFieldSubject)
	assert.Equal(t, "sid", LogFieldSID)
	assert.Equal(t, "queue", LogFieldQueue)
	assert.Equal(t, "url", LogFieldURL)
	assert.Equal(t, "status", LogFieldStatus)
	assert.Equal(t, "error", LogFieldError)
	assert.Equal(t, "remote_addr", LogFieldRemoteAddr)
	assert.Equal(t, "bytes", LogFieldBytes)
}

func TestLoggerInterface(t *testing.T) {
	t.Run("NoOpLogger implements Logger", func(_ *testing.T) {
		var _ Logger = NewNoOpLogger()
	})

	t.Run("StdLogger implements Logger", func(_ *testing.T) {
		var _ Logger = NewStdLogger(nil, LogLevelDebug)
	})
}

func TestLoggerRealWorldUsage(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewStdLogger(buf, LogLevelDebug)

	connLogger := logger.WithFields(LogFields{
		LogFieldURL:        "nats://localhost:4222",
		LogFieldRemoteAddr: "127.0.0.1:4222",
	})

	connLogger.Info("connected", nil)
	connLogger.Debug("subscribed", LogFields{LogFieldSubject: "orders.>", LogFieldSID: uint64(1)})
	connLogger.Info("connection closed", nil)

	output := buf.String()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	assert.Len(t, lines, 3)

	assert.Contains(t, lines[0], "connected")
	assert.Contains(t, lines[1], "subscribed")
	assert.Contains(t, lines[2], "connection closed")
}

func BenchmarkNoOpLogger(b *testing.B) {
	logger := NewNoOpLogger()
	fields := LogFields{"key": "value"}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		logger.Info("test message", fields)
	}
}

func BenchmarkStdLoggerWithFields(b *testing.B) {
	buf := &bytes.Buffer{}
	logger := NewStdLogger(buf, LogLevelDebug)
	fields := LogFields{LogFieldSubject: "foo.bar", LogFieldSID: uint64(7)}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		logger.Info("test message", fields)
	}
}
