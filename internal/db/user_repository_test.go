package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWarnIfBatchTooLarge(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)

	assert.False(t, warnIfBatchTooLarge(logger, maxBatchWrites))
	assert.Zero(t, logs.Len())

	assert.True(t, warnIfBatchTooLarge(logger, maxBatchWrites+1))
	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, int64(maxBatchWrites+1), entries[0].ContextMap()["writes"])
	}
}
