package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_KeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", false)

	logger.Info("tenant created", "id", 7, "name", "Acme")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "info", event["level"])
	assert.Equal(t, "tenant created", event["message"])
	assert.Equal(t, float64(7), event["id"])
	assert.Equal(t, "Acme", event["name"])
}

func TestLogger_ErrorValuesAndDanglingKey(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", false)

	logger.Error("insert failed", "error", errors.New("boom"), "orphan")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "boom", event["error"])
	assert.Equal(t, "orphan", event["!BADKEY"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", false)

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "", false).With("component", "migrate")

	logger.Info("applied")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "migrate", event["component"])
}
