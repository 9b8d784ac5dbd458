package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     logger.Config
		wantErr error
	}{
		{name: "defaults", cfg: logger.Config{}},
		{name: "console debug", cfg: logger.Config{Level: "debug", Format: "console"}},
		{name: "warning alias", cfg: logger.Config{Level: "warning"}},
		{name: "bad level", cfg: logger.Config{Level: "loud"}, wantErr: logger.ErrInvalidLevel},
		{name: "bad format", cfg: logger.Config{Format: "xml"}, wantErr: logger.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l, err := logger.New(tt.cfg)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestFieldsReachZap(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	l := logger.FromZap(zap.New(core)).With(logger.String("job", "players"))

	l.Warn("fetch failed", logger.URL("https://example.com/a"), logger.Int("attempt", 2))

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "players", ctx["job"])
	assert.Equal(t, "https://example.com/a", ctx["url"])
	assert.EqualValues(t, 2, ctx["attempt"])
}

func TestNopIsSilent(t *testing.T) {
	t.Parallel()

	l := logger.NewNop()
	l.Info("ignored")
	assert.Same(t, l, l.With(logger.String("k", "v")))
	assert.NoError(t, l.Sync())
}
