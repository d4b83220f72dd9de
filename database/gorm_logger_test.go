package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func TestGormLogger_RoutesThroughZap(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	gl := newGormLogger(zap.New(core))

	gl.Error(context.Background(), "duplicated key not allowed")
	gl.Info(context.Background(), "migrating payments")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "duplicated key not allowed")
	assert.Equal(t, "gorm", entries[0].ContextMap()["component"])
}

func TestGormLogger_DropsRecordNotFound(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	gl := newGormLogger(zap.New(core))

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return `SELECT * FROM "payments" WHERE session_id = 'cs_missing'`, 0
	}, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.Len())

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return `INSERT INTO "payments" ...`, 0
	}, errors.New("connection reset"))
	assert.Equal(t, 1, logs.Len())
}
