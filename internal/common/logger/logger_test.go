package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapWrapper_FieldsAndScopes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"component": "routes"})

	log.Info("route issued", map[string]interface{}{"code": "ABCD"})
	log.WithError(errors.New("boom")).Warn("relay failed", nil)

	entries := logs.All()
	assert.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "routes", first["component"])
	assert.Equal(t, "ABCD", first["code"])

	second := entries[1].ContextMap()
	assert.Equal(t, "boom", second["error"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("anything"))
}

func TestMapToZapFields_Empty(t *testing.T) {
	assert.Nil(t, mapToZapFields(nil))
}
