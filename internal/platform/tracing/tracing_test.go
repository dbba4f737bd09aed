package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	p, err := Init(context.Background(), Config{ServiceName: "riskcare-server"})
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_WithEndpoint(t *testing.T) {
	// The exporter connects lazily, so no collector is needed here.
	p, err := Init(context.Background(), Config{
		ServiceName:  "riskcare-server",
		Environment:  "test",
		OTLPEndpoint: "http://127.0.0.1:4318",
	})
	require.NoError(t, err)
	require.NotNil(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = p.Shutdown(ctx)
}
