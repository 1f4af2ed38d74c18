package utils

import (
	"context"
	"net"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestEndpointAddr(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"localhost:4317", "localhost:4317"},
		{"http://collector:4317", "collector:4317"},
		{"https://collector", "collector:443"},
		{"http://collector/v1", "collector:80"},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, EndpointAddr(tt.endpoint), tt.want)
		})
	}
}

func TestWaitForTCP(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NilError(t, err)
	addr := l.Addr().String()
	assert.NilError(t, WaitForTCP(context.Background(), addr, time.Second))

	l.Close()
	err = WaitForTCP(context.Background(), addr, 300*time.Millisecond)
	assert.ErrorContains(t, err, "could not be reached")
}
