package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/starkbank-ledger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		name              string
		logLevel          string
		expectedSlogLevel slog.Level
		expectAddSource   bool
	}{
		{"DebugLevel", "debug", slog.LevelDebug, true},
		{"InfoLevel", "info", slog.LevelInfo, false},
		{"WarnLevel", "WARN", slog.LevelWarn, false},
		{"ErrorLevel", "error", slog.LevelError, false},
		{"DefaultToInfo", "unknown", slog.LevelInfo, false},
		{"EmptyToInfo", "", slog.LevelInfo, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := &config.Config{
				Application: config.ApplicationConfig{Name: "ledger", Env: "test"},
				Logging:     config.LoggingConfig{Level: tc.logLevel},
			}

			logger := New(&buf, cfg)
			require.NotNil(t, logger)

			assert.True(t, logger.Enabled(context.Background(), tc.expectedSlogLevel))
			if tc.expectedSlogLevel > slog.LevelDebug {
				assert.False(t, logger.Enabled(context.Background(), tc.expectedSlogLevel-1))
			}

			logger.Error("probe")
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			var record map[string]any
			require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &record))

			assert.Equal(t, "probe", record["msg"])
			assert.Equal(t, "ledger", record["app"])
			assert.Equal(t, "test", record["env"])
			_, hasSource := record[slog.SourceKey]
			assert.Equal(t, tc.expectAddSource, hasSource)
		})
	}
}

func TestNew_WithoutAppName(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, &config.Config{})
	logger.Warn("probe")

	assert.NotContains(t, buf.String(), `"app"`)
}
