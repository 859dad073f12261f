package security

import (
	"errors"
	"testing"
	"time"

	"github.com/kevin07696/ixopay-gateway/internal/adapters/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (*ZapLoggerAdapter, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapLogger(zap.New(core)), logs
}

func TestZapLoggerAdapter_Levels(t *testing.T) {
	logger, logs := newObservedLogger(zapcore.DebugLevel)

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestZapLoggerAdapter_TypedFields(t *testing.T) {
	logger, logs := newObservedLogger(zapcore.InfoLevel)

	logger.Info("sent",
		ports.String("transaction_id", "txn-1"),
		ports.Int("status_code", 200),
		ports.Bool("success", true),
		ports.Duration("duration", 150*time.Millisecond),
		ports.Err(errors.New("boom")),
	)

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "txn-1", fields["transaction_id"])
	assert.Equal(t, int64(200), fields["status_code"])
	assert.Equal(t, true, fields["success"])
	assert.Equal(t, 150*time.Millisecond, fields["duration"])
	assert.Equal(t, "boom", fields["error"])
}

func TestZapLoggerAdapter_RedactsSensitiveKeys(t *testing.T) {
	logger, logs := newObservedLogger(zapcore.InfoLevel)

	logger.Info("config",
		ports.String("password", "hunter2"),
		ports.String("PAN", "4111111111111111"),
		ports.String("shared_secret", "s3cret"),
		ports.String("authorization", "ref|purchase"),
	)

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, redacted, fields["password"])
	assert.Equal(t, redacted, fields["PAN"])
	assert.Equal(t, redacted, fields["shared_secret"])
	assert.Equal(t, "ref|purchase", fields["authorization"])
}

func TestNewZapLoggerFromLevel(t *testing.T) {
	logger, err := NewZapLoggerFromLevel("warn", false)
	require.NoError(t, err)
	assert.False(t, logger.Zap().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Zap().Core().Enabled(zapcore.WarnLevel))

	_, err = NewZapLoggerFromLevel("loud", false)
	assert.Error(t, err)

	dev, err := NewZapLoggerFromLevel("", true)
	require.NoError(t, err)
	assert.True(t, dev.Zap().Core().Enabled(zapcore.DebugLevel))
}
