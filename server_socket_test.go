package rnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerSocketAcceptRejectsDoubleArm(t *testing.T) {
	r, err := NewReactor()
	require.NoError(t, err)
	srv, err := NewServerSocket(r)
	require.NoError(t, err)
	require.NoError(t, srv.Bind(Endpoint{IPv4: 0x7f000001, Port: 0}))

	require.NoError(t, srv.Accept(newSocket(r, -1, 4096, 4096), func(*Socket, NetState) {}))
	err = srv.Accept(newSocket(r, -1, 4096, 4096), func(*Socket, NetState) {})
	assert.ErrorIs(t, err, ErrCallbackInFlight)
}

func TestServerSocketAcceptRejectsNilCallback(t *testing.T) {
	r, err := NewReactor()
	require.NoError(t, err)
	srv, err := NewServerSocket(r)
	require.NoError(t, err)
	require.NoError(t, srv.Bind(Endpoint{IPv4: 0x7f000001, Port: 0}))

	err = srv.Accept(newSocket(r, -1, 4096, 4096), nil)
	assert.ErrorIs(t, err, ErrNoAcceptCallback)
}

func TestServerSocketBindRejectsInvalidEndpoint(t *testing.T) {
	r, err := NewReactor()
	require.NoError(t, err)
	srv, err := NewServerSocket(r)
	require.NoError(t, err)

	err = srv.Bind(Endpoint{Port: PortError})
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestServerSocketBoundEndpointReportsLoopback(t *testing.T) {
	r, err := NewReactor()
	require.NoError(t, err)
	srv, err := NewServerSocket(r)
	require.NoError(t, err)
	require.NoError(t, srv.Bind(Endpoint{IPv4: 0x7f000001, Port: 0}))

	ep, state := srv.BoundEndpoint()
	assert.True(t, state.Ok())
	assert.Equal(t, uint32(0x7f000001), ep.IPv4)
	assert.NotEqual(t, int32(0), ep.Port, "expected the kernel to have assigned a concrete ephemeral port")
}
