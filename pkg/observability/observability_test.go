package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDisabled(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, p)

	// Disabled provider must be safe to use everywhere a live one is.
	assert.NotNil(t, p.Tracer())
	assert.NotNil(t, p.Meter())

	p.ObserveBatch(context.Background(), "race", 5, 1, 120*time.Millisecond)

	ctx, done := p.TrackBatch(context.Background(), "plain")
	assert.NotNil(t, ctx)
	done(5, 0)

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "isl-chaoscore", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.True(t, cfg.Enabled)
}
