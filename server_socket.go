package rnet

import "golang.org/x/sys/unix"

const (
	defaultAcceptReadBuf  = 64 << 10
	defaultAcceptWriteBuf = 64 << 10
)

// ServerSocket listens and accepts; it holds a reserved dummy FD on
// /dev/null so FD exhaustion can be recovered from without busy-looping
// an unproductive accept notification.
type ServerSocket struct {
	Pollable
	isBound         bool
	newAcceptSocket *Socket
	acceptCB        AcceptCallback
	dummyFD         int
}

// NewServerSocket returns an unbound ServerSocket with its FD-exhaustion
// reservation already open.
func NewServerSocket(r *Reactor) (*ServerSocket, error) {
	dummy, err := openDummyFD()
	if err != nil {
		return nil, err
	}
	return &ServerSocket{Pollable: Pollable{fd: -1, reactor: r}, dummyFD: dummy}, nil
}

func openDummyFD() (int, error) {
	return unix.Open("/dev/null", unix.O_RDONLY|unix.O_CLOEXEC, 0)
}

// Bind creates a non-blocking, SO_REUSEADDR, close-on-exec listening
// socket bound to ep and starts listening with a full SOMAXCONN backlog.
func (s *ServerSocket) Bind(ep Endpoint) error {
	if !ep.Valid() {
		return ErrInvalidEndpoint
	}
	if s.isBound {
		return ErrAlreadyBound
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return err
	}
	sa := &unix.SockaddrInet4{Port: int(ep.Port)}
	putIPv4(sa.Addr[:], ep.IPv4)
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return err
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		_ = unix.Close(fd)
		return err
	}
	s.fd = fd
	s.isBound = true
	if err := s.reactor.register(s); err != nil {
		return err
	}
	return nil
}

// BoundEndpoint reports the listening socket's local address.
func (s *ServerSocket) BoundEndpoint() (Endpoint, NetState) { return getsockEndpoint(s.fd, false) }

// Accept arms cb for the next completed accept, handing the resulting
// connection's FD to dst. A fresh dst must be supplied on every arming:
// there is no hidden re-use of a previous arming's destination.
func (s *ServerSocket) Accept(dst *Socket, cb AcceptCallback) error {
	if cb == nil {
		return ErrNoAcceptCallback
	}
	if s.acceptCB != nil {
		return ErrCallbackInFlight
	}
	s.newAcceptSocket = dst
	s.acceptCB = cb
	if err := s.reactor.WatchRead(&s.Pollable); err != nil {
		return err
	}
	// A listener already known readable gets no fresh edge for connections
	// still pending in the backlog, so try an accept right away.
	if s.canRead {
		s.OnReadNotify()
	}
	return nil
}

// handleFDExhaustion frees exactly one FD slot by closing the reserved
// dummy FD, accepting (and immediately closing, which sends the peer a
// graceful FIN) one pending connection, then reopening the dummy FD.
func (s *ServerSocket) handleFDExhaustion() {
	_ = unix.Close(s.dummyFD)
	if nfd, _, err := unix.Accept(s.fd); err == nil {
		_ = unix.Close(nfd)
	}
	dummy, err := openDummyFD()
	if err != nil {
		// Failing to reopen /dev/null means the exhaustion recovery loop
		// cannot make progress; that is an engineering-impossible case.
		defaultLog.Fatalf("rnet: reopen dummy fd after exhaustion recovery: %v", err)
	}
	s.dummyFD = dummy
}

// DoAccept accepts at most one pending connection per call, retrying on
// EINTR. EAGAIN clears canRead and returns -1 with OK; EMFILE/ENFILE are
// routed through handleFDExhaustion before being reported.
func (s *ServerSocket) DoAccept() (int, NetState) {
	for {
		nfd, _, err := unix.Accept4(s.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err == nil {
			return nfd, OK()
		}
		switch err {
		case unix.EAGAIN:
			s.canRead = false
			return -1, OK()
		case unix.EINTR:
			continue
		case unix.EMFILE, unix.ENFILE:
			s.handleFDExhaustion()
			return -1, SystemError(int(err.(unix.Errno)))
		default:
			return -1, SystemError(int(err.(unix.Errno)))
		}
	}
}

// OnReadNotify is called by the reactor on EPOLLIN. With no accept
// callback installed it just records readiness; resuming accepts after
// exhaustion is the caller's job (re-arm Accept from inside a callback).
// A completion is never fired straight out of this call stack: it is
// deferred to the top of the next Run iteration, so an Accept re-armed
// from inside the delivered callback starts from a clean dispatch pass
// rather than racing this one's remaining events.
func (s *ServerSocket) OnReadNotify() {
	s.canRead = true
	if s.acceptCB == nil {
		return
	}
	nfd, state := s.DoAccept()
	if nfd < 0 {
		if !state.Ok() {
			cb := s.acceptCB
			s.acceptCB = nil
			dst := s.newAcceptSocket
			s.newAcceptSocket = nil
			s.reactor.deferAccept(cb, dst, state)
		}
		return
	}
	dst := s.newAcceptSocket
	dst.fd = nfd
	dst.reactor = s.reactor
	if dst.readBuf == nil {
		dst.readBuf = NewBuffer(defaultAcceptReadBuf)
	}
	if dst.writeBuf == nil {
		dst.writeBuf = NewBuffer(defaultAcceptWriteBuf)
	}
	_ = s.reactor.register(dst)
	s.newAcceptSocket = nil
	cb := s.acceptCB
	s.acceptCB = nil
	s.reactor.deferAccept(cb, dst, OK())
}

// OnWriteNotify is a no-op: a listening socket never becomes writable.
func (s *ServerSocket) OnWriteNotify() {}

// OnException recovers from FD exhaustion signalled on the listener
// itself, then delivers the error to the accept callback if one is armed.
func (s *ServerSocket) OnException(state NetState) {
	s.handleFDExhaustion()
	if s.acceptCB != nil {
		cb := s.acceptCB
		s.acceptCB = nil
		dst := s.newAcceptSocket
		s.newAcceptSocket = nil
		s.reactor.deferAccept(cb, dst, state)
	}
}

// Close closes the listening FD and the reserved dummy FD.
func (s *ServerSocket) Close() error {
	if s.fd >= 0 {
		_ = s.reactor.unregister(s.fd)
		_ = unix.Close(s.fd)
		s.fd = -1
	}
	return unix.Close(s.dummyFD)
}
