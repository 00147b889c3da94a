package rnet

import "golang.org/x/sys/unix"

// socketState tracks a connected Socket's lifecycle, independent of the
// ClientSocket states layered on top for the connect handshake.
type socketState int

const (
	// SocketConnected is the normal steady state.
	SocketConnected socketState = iota
	// SocketClosing means a half-close/async-close has been requested;
	// read completions are rerouted to the close callback until EOF.
	SocketClosing
	// SocketClosed means the FD has been closed and the socket is dead.
	SocketClosed
)

// Socket is a connected TCP endpoint: it owns a read buffer, a write
// buffer, and at most one outstanding callback per slot (read, write,
// close). It embeds Pollable for the FD and readiness bookkeeping.
type Socket struct {
	Pollable

	readBuf  *Buffer
	writeBuf *Buffer

	eof           bool
	prevWriteSize int
	state         socketState

	readCB  ReadCallback
	writeCB WriteCallback
	closeCB *CloseCallback
}

// newSocket wires a bare FD into a Socket with freshly allocated buffers,
// used both directly and as the embedded base of ClientSocket and of the
// destination Socket handed to ServerSocket.Accept.
func newSocket(r *Reactor, fd int, readBufSize, writeBufSize int) *Socket {
	return &Socket{
		Pollable: Pollable{fd: fd, reactor: r},
		readBuf:  NewBuffer(readBufSize),
		writeBuf: NewBuffer(writeBufSize),
	}
}

// ReadBuffer exposes the socket's accumulated, unconsumed input.
func (s *Socket) ReadBuffer() *Buffer { return s.readBuf }

// WriteBuffer exposes the socket's pending, unflushed output.
func (s *Socket) WriteBuffer() *Buffer { return s.writeBuf }

// EOF reports whether the peer has half-closed its send side.
func (s *Socket) EOF() bool { return s.eof }

// State reports the socket's connected/closing/closed lifecycle state.
func (s *Socket) State() socketState { return s.state }

// OnReadBy arms the read callback for the next completed read; the slot
// must be empty. If readiness was already cached from a notification that
// arrived with no callback armed, WatchRead alone would be a no-op (the
// interest bit is already set) and the cached bytes would sit in the
// kernel forever, so a cached-readable socket is drained immediately
// rather than waiting for a fresh edge that will never come.
func (s *Socket) OnReadBy(cb ReadCallback) error {
	if s.readCB != nil {
		return ErrCallbackInFlight
	}
	s.readCB = cb
	if err := s.reactor.WatchRead(&s.Pollable); err != nil {
		return err
	}
	if s.canRead && !s.eof {
		s.OnReadNotify()
	}
	return nil
}

// OnWriteBy arms the write callback for the next completed write; the
// slot must be empty. Queued bytes should already be in WriteBuffer.
func (s *Socket) OnWriteBy(cb WriteCallback) error {
	if s.writeCB != nil {
		return ErrCallbackInFlight
	}
	s.writeCB = cb
	return s.reactor.WatchWrite(&s.Pollable)
}

// Write queues src for sending and arms cb for the eventual write
// completion; if the socket is already can-write, it attempts to drain
// immediately rather than waiting for the next readiness notification.
func (s *Socket) Write(src []byte, cb WriteCallback) error {
	if !s.writeBuf.Write(src) {
		return ErrBufferFull
	}
	if err := s.OnWriteBy(cb); err != nil {
		return err
	}
	if s.canWrite {
		s.OnWriteNotify()
	}
	return nil
}

// AsyncClose requests a half-close drain: further reads are routed to cc
// until EOF or an error is observed, at which point the FD is closed.
func (s *Socket) AsyncClose(cc *CloseCallback) {
	s.state = SocketClosing
	s.closeCB = cc
}

// closeFD closes the underlying FD and unregisters it from the reactor.
func (s *Socket) closeFD() {
	if s.fd < 0 {
		return
	}
	_ = s.reactor.unregister(s.fd)
	_ = unix.Close(s.fd)
	s.fd = -1
}

// DoRead performs a two-segment scatter read: the first iovec is the
// read buffer's current writable tail, the second is the reactor's
// shared swap buffer, so a single readv can drain more than the buffer
// currently has room for without an extra syscall.
func (s *Socket) DoRead() (int, NetState) {
	if s.eof {
		return 0, OK()
	}
	var total int
	swap := s.reactor.swap.mem
	for {
		wa := s.readBuf.GetWriteAccessor()
		tail := wa.Address()
		n, err := unix.Readv(s.fd, [][]byte{tail, swap})
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				s.canRead = false
				return total, OK()
			}
			if err == unix.EINTR {
				continue
			}
			return total, SystemError(int(err.(unix.Errno)))
		}
		if n == 0 {
			s.eof = true
			return total, OK()
		}
		tailLen := len(tail)
		if n <= tailLen {
			wa.SetCommittedSize(n)
			wa.Commit()
		} else {
			wa.SetCommittedSize(tailLen)
			wa.Commit()
			if !s.readBuf.Inject(swap[:n-tailLen]) {
				return total, SystemError(int(unix.ENOBUFS))
			}
		}
		total += n
		if n < tailLen+len(swap) {
			s.canRead = false
			return total, OK()
		}
		// Kernel may still have more buffered; loop back for another readv.
	}
}

// OnReadNotify is called by the reactor on EPOLLIN (and on EPOLLHUP,
// translated to a read notification). With no read callback installed it
// deliberately leaves the data in the kernel so TCP flow control keeps
// working; only an armed callback pulls bytes out.
func (s *Socket) OnReadNotify() {
	s.canRead = true
	if s.readCB == nil {
		return
	}
	n, state := s.DoRead()

	if s.state != SocketClosing {
		cb := s.readCB
		s.readCB = nil
		cb(s, n, state)
		return
	}

	// While CLOSING, keep reading after each Data delivery: a FIN that
	// arrived together with the last bytes raises no further edge, so EOF
	// is only observed by reading again.
	for state.Ok() && n > 0 {
		if s.closeCB != nil && s.closeCB.Data != nil {
			s.closeCB.Data(n)
		}
		n, state = s.DoRead()
	}
	switch {
	case state.Ok() && s.eof:
		s.finishClose(OK())
	case !state.Ok():
		s.finishClose(state)
	}
}

// finishClose fires the close callback's Done half exactly once and, only
// if the callback did not destroy the socket, closes the FD and marks the
// socket CLOSED.
func (s *Socket) finishClose(state NetState) {
	cb := s.closeCB
	s.closeCB = nil
	deleted := false
	s.deleted = &deleted
	if cb != nil && cb.Done != nil {
		cb.Done(state)
	}
	if !deleted {
		s.closeFD()
		s.state = SocketClosed
	}
}

// DoWrite issues a single write of the write buffer's full readable span
// per iteration, looping only on EINTR; the caller (OnWriteNotify)
// decides whether a full write warrants trying again immediately.
func (s *Socket) DoWrite() (int, NetState) {
	for {
		ra := s.writeBuf.GetReadAccessor()
		buf := ra.Address()
		n, err := unix.Write(s.fd, buf)
		if n <= 0 {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				s.canWrite = false
				return 0, OK()
			}
			if err == unix.EINTR {
				continue
			}
			return s.prevWriteSize, SystemError(int(err.(unix.Errno)))
		}
		ra.SetCommittedSize(n)
		ra.Commit()
		if n < len(buf) {
			s.canWrite = false
		}
		return n, OK()
	}
}

// OnWriteNotify is called by the reactor on EPOLLOUT. With an empty write
// buffer it simply records readiness and waits for bytes to be queued.
func (s *Socket) OnWriteNotify() {
	s.canWrite = true
	if s.writeBuf.ReadableSize() == 0 {
		return
	}
	n, state := s.DoWrite()
	if !state.Ok() {
		cb := s.writeCB
		s.writeCB = nil
		total := s.prevWriteSize
		s.prevWriteSize = 0
		if cb != nil {
			cb(s, total, state)
		}
		return
	}
	if s.writeBuf.ReadableSize() == 0 {
		cb := s.writeCB
		s.writeCB = nil
		total := s.prevWriteSize + n
		s.prevWriteSize = 0
		if cb != nil {
			cb(s, total, OK())
		}
		return
	}
	s.prevWriteSize += n
}

// OnException delivers a non-OK state to both installed callbacks, read
// first then write, consulting the deletion guard between them so a read
// callback that destroys the socket never causes a stale write callback
// to run afterwards.
func (s *Socket) OnException(state NetState) {
	deleted := false
	s.deleted = &deleted
	if s.readCB != nil {
		cb := s.readCB
		s.readCB = nil
		cb(s, 0, state)
	}
	if !deleted && s.writeCB != nil {
		cb := s.writeCB
		s.writeCB = nil
		cb(s, 0, state)
	}
}

// LocalEndpoint reports the socket's bound local address.
func (s *Socket) LocalEndpoint() (Endpoint, NetState) { return getsockEndpoint(s.fd, false) }

// PeerEndpoint reports the socket's connected peer address.
func (s *Socket) PeerEndpoint() (Endpoint, NetState) { return getsockEndpoint(s.fd, true) }

func getsockEndpoint(fd int, peer bool) (Endpoint, NetState) {
	var sa unix.Sockaddr
	var err error
	if peer {
		sa, err = unix.Getpeername(fd)
	} else {
		sa, err = unix.Getsockname(fd)
	}
	if err != nil {
		// getsockname/getpeername failing on an open FD is an invariant
		// violation, not a recoverable runtime condition.
		defaultLog.Fatalf("rnet: get%sname failed: %v", map[bool]string{true: "peer", false: "sock"}[peer], err)
	}
	v4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		defaultLog.Fatalf("rnet: non-IPv4 sockaddr on core socket")
	}
	ipv4 := uint32(v4.Addr[0])<<24 | uint32(v4.Addr[1])<<16 | uint32(v4.Addr[2])<<8 | uint32(v4.Addr[3])
	return Endpoint{IPv4: ipv4, Port: int32(v4.Port)}, OK()
}
