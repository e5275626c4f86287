package redis

import (
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestConfig_Addr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr())

	cfg.Host, cfg.Port = "cache", 6380
	assert.Equal(t, "cache:6380", cfg.Addr())
}
