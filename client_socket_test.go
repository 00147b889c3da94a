package rnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestConnectRejectsInvalidEndpoint(t *testing.T) {
	r, err := NewReactor()
	require.NoError(t, err)

	_, err = Connect(r, Endpoint{Port: PortError}, func(*ClientSocket, NetState) {})
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestClientSocketRejectsWriteBeforeConnected(t *testing.T) {
	r, err := NewReactor()
	require.NoError(t, err)
	a, b := socketPair(t)
	defer unix.Close(b)

	c := &ClientSocket{Socket: *newSocket(r, a, 4096, 4096)}
	c.state = ClientConnecting

	err = c.Write([]byte("hi"), func(*Socket, int, NetState) {})
	assert.ErrorIs(t, err, ErrNotConnected)

	err = c.OnReadBy(func(*Socket, int, NetState) {})
	assert.ErrorIs(t, err, ErrNotConnected)
}
