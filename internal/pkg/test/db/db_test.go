package testdb

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRedis_MapsPort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	addr, closer := StartRedis(t.Context())
	t.Cleanup(closer)

	port, err := strconv.Atoi(addr.Port)
	require.NoError(t, err)
	assert.Positive(t, port)

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(addr.Host, addr.Port), 5*time.Second)
	require.NoError(t, err)
	conn.Close()
}
