package rnet

import "golang.org/x/sys/unix"

// clientState tracks the connect handshake layered on top of Socket.
type clientState int

const (
	// ClientDisconnected is the terminal state on connect failure.
	ClientDisconnected clientState = iota
	// ClientConnecting is between socket() and the first writable event.
	ClientConnecting
	// ClientConnected behaves exactly like a plain Socket.
	ClientConnected
)

// ClientSocket adds the CONNECTING -> CONNECTED transition on top of
// Socket; read/write notifications while CONNECTED simply delegate to the
// embedded Socket's behaviour.
type ClientSocket struct {
	Socket
	state     clientState
	connectCB ConnectCallback
}

const (
	defaultClientReadBuf  = 64 << 10
	defaultClientWriteBuf = 64 << 10
)

// Connect creates a non-blocking socket and begins connecting to ep,
// arming cb for the eventual CONNECTED/DISCONNECTED transition.
func Connect(r *Reactor, ep Endpoint, cb ConnectCallback) (*ClientSocket, error) {
	if !ep.Valid() {
		return nil, ErrInvalidEndpoint
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

	c := &ClientSocket{Socket: *newSocket(r, fd, defaultClientReadBuf, defaultClientWriteBuf)}
	c.connectCB = cb

	sa := &unix.SockaddrInet4{Port: int(ep.Port)}
	putIPv4(sa.Addr[:], ep.IPv4)

	err = unix.Connect(fd, sa)
	switch err {
	case nil:
		c.state = ClientConnected
		c.canWrite = true
		if err := r.register(c); err != nil {
			return nil, err
		}
		if cb != nil {
			cb(c, OK())
		}
		return c, nil
	case unix.EINPROGRESS:
		c.state = ClientConnecting
		if err := r.register(c); err != nil {
			return nil, err
		}
		if err := r.WatchWrite(&c.Pollable); err != nil {
			return nil, err
		}
		return c, nil
	default:
		_ = unix.Close(fd)
		return nil, err
	}
}

func putIPv4(dst []byte, v uint32) {
	dst[0] = byte(v >> 24)
	dst[1] = byte(v >> 16)
	dst[2] = byte(v >> 8)
	dst[3] = byte(v)
}

// ClientState reports the connect handshake's current state.
func (c *ClientSocket) ClientState() clientState { return c.state }

// OnReadBy arms the read callback, rejecting any arming attempted before
// the connect handshake has completed (or after the peer has gone away).
func (c *ClientSocket) OnReadBy(cb ReadCallback) error {
	if c.state != ClientConnected {
		return ErrNotConnected
	}
	return c.Socket.OnReadBy(cb)
}

// Write queues a send, rejecting any attempt made before the connect
// handshake has completed (or after the peer has gone away).
func (c *ClientSocket) Write(src []byte, cb WriteCallback) error {
	if c.state != ClientConnected {
		return ErrNotConnected
	}
	return c.Socket.Write(src, cb)
}

// OnReadNotify ignores notifications before CONNECTED, since a connecting
// or disconnected socket has nothing meaningful to read.
func (c *ClientSocket) OnReadNotify() {
	if c.state == ClientConnected {
		c.Socket.OnReadNotify()
	}
}

// OnWriteNotify completes the connect handshake on the first writable
// event while CONNECTING; once CONNECTED it delegates to Socket.
func (c *ClientSocket) OnWriteNotify() {
	if c.state == ClientConnected {
		c.Socket.OnWriteNotify()
		return
	}
	if c.state == ClientConnecting {
		c.canWrite = true
		c.state = ClientConnected
		cb := c.connectCB
		c.connectCB = nil
		if cb != nil {
			cb(c, OK())
		}
	}
}

// OnException while CONNECTING fails the handshake; while CONNECTED it
// delegates to Socket's read-then-write exception delivery.
func (c *ClientSocket) OnException(state NetState) {
	if c.state == ClientConnected {
		c.Socket.OnException(state)
		return
	}
	if c.state == ClientConnecting {
		c.state = ClientDisconnected
		cb := c.connectCB
		c.connectCB = nil
		if cb != nil {
			cb(c, state)
		}
	}
}
