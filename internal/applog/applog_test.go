package applog

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T, fn func()) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	fn()

	var out map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out))
	return out
}

func TestLog_Levels(t *testing.T) {
	entry := captureLog(t, func() {
		Log(time.UTC, map[string]any{"event": "x", "status": "error"})
	})
	assert.Equal(t, "error", entry["level"])
	assert.NotEmpty(t, entry["ts"])

	entry = captureLog(t, func() {
		Log(nil, map[string]any{"event": "y"})
	})
	assert.Equal(t, "info", entry["level"])
}

func TestWarn(t *testing.T) {
	entry := captureLog(t, func() {
		Warn(time.UTC, "ner", "ner_unavailable", errors.New("dial tcp: refused"))
	})
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "ner", entry["component"])
	assert.Equal(t, "dial tcp: refused", entry["error_message"])
}
