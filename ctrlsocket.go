package rnet

import (
	"time"

	"golang.org/x/sys/unix"
)

// ctrlSocket is the cross-thread wake-up mechanism: a UDP socket bound to
// an ephemeral loopback port that sends itself one datagram per
// Interrupt call, resolved via getsockname and addressed via sendto.
type ctrlSocket struct {
	Pollable
	self     unix.Sockaddr
	isWakeUp bool
}

// newCtrlSocket opens a non-blocking UDP socket bound to 127.0.0.1:0,
// resolves the kernel-assigned ephemeral port via getsockname, and wires
// both ends of the loopback so interrupt() can address itself.
func newCtrlSocket(r *Reactor) (*ctrlSocket, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	bindAddr := &unix.SockaddrInet4{Port: 0, Addr: [4]byte{127, 0, 0, 1}}
	if err := unix.Bind(fd, bindAddr); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	self, err := unix.Getsockname(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return &ctrlSocket{
		Pollable: Pollable{fd: fd, reactor: r},
		self:     self,
	}, nil
}

// interrupt sends a single one-byte datagram to the control socket's own
// address, observed by the reactor loop the next time it drains fd.
func (c *ctrlSocket) interrupt() error {
	return unix.Sendto(c.fd, []byte{0}, 0, c.self)
}

// OnReadNotify drains every pending wake-up datagram and latches
// isWakeUp; the reactor clears the flag once it has acted on it.
func (c *ctrlSocket) OnReadNotify() {
	c.canRead = true
	buf := make([]byte, 64)
	for {
		_, _, err := unix.Recvfrom(c.fd, buf, 0)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			break
		}
		c.isWakeUp = true
	}
}

// OnWriteNotify is unused: the control socket is never armed for write
// readiness.
func (c *ctrlSocket) OnWriteNotify() {}

// OnException is unused in practice: a loopback UDP socket that only
// ever talks to itself has no peer to report an asynchronous error from.
func (c *ctrlSocket) OnException(NetState) {}

// nowMS returns a millisecond timestamp suitable as a timer baseline.
func nowMS() int64 {
	return time.Now().UnixMilli()
}
