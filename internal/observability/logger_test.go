package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/couchcryptid/climate-grid-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		level     string
		format    string
		debugOn   bool
		warnOn    bool
		errorOnly bool
	}{
		{level: "debug", format: "json", debugOn: true, warnOn: true},
		{level: "info", format: "text", warnOn: true},
		{level: "warn", format: "json", warnOn: true},
		{level: "error", format: "text", errorOnly: true},
		{level: "bogus", format: "json", warnOn: true},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: tt.format})
			require.NotNil(t, logger)

			ctx := context.Background()
			assert.Equal(t, tt.debugOn, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.warnOn, logger.Enabled(ctx, slog.LevelWarn))
			assert.True(t, logger.Enabled(ctx, slog.LevelError))
			if tt.errorOnly {
				assert.False(t, logger.Enabled(ctx, slog.LevelWarn))
			}
			assert.Same(t, logger, slog.Default())
		})
	}
}
