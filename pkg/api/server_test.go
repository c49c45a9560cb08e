package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productinventor/filevault/pkg/config"
)

func TestServer_StartAndStop(t *testing.T) {
	s, cs, ts := newTestRouterDeps(t)
	server := NewServer(config.APIConfig{
		Addr:         "127.0.0.1:0",
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		IdleTimeout:  time.Second,
	}, s, cs, ts, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServer_Addr(t *testing.T) {
	s, cs, ts := newTestRouterDeps(t)
	server := NewServer(config.APIConfig{Addr: "127.0.0.1:9999"}, s, cs, ts, nil, nil, nil)
	assert.Equal(t, "127.0.0.1:9999", server.Addr())
}

func TestServer_StopIsIdempotent(t *testing.T) {
	s, cs, ts := newTestRouterDeps(t)
	server := NewServer(config.APIConfig{Addr: "127.0.0.1:0"}, s, cs, ts, nil, nil, nil)

	ctx := context.Background()
	require.NoError(t, server.Stop(ctx))
	require.NoError(t, server.Stop(ctx))
}
