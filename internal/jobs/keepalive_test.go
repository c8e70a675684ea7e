package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeepAlive_InvalidSchedule(t *testing.T) {
	_, err := NewKeepAlive("http://localhost", "every now and then")
	assert.Error(t, err)
}

func TestKeepAlive_Ping(t *testing.T) {
	var hits atomic.Int32
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	k, err := NewKeepAlive(srv.URL, "*/14 * * * *")
	require.NoError(t, err)

	assert.NoError(t, k.Ping(context.Background()))

	status.Store(http.StatusServiceUnavailable)
	assert.Error(t, k.Ping(context.Background()))
	assert.Equal(t, int32(2), hits.Load())
}

func TestKeepAlive_PingUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	k, err := NewKeepAlive(url, "@every 1h")
	require.NoError(t, err)
	assert.Error(t, k.Ping(context.Background()))
}

func TestKeepAlive_StartStop(t *testing.T) {
	k, err := NewKeepAlive("http://127.0.0.1:0", "@every 1h")
	require.NoError(t, err)

	k.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	k.Stop(ctx)
	assert.NoError(t, ctx.Err())
}
