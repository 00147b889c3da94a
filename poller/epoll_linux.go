//go:build linux

// Package poller wraps the raw epoll(7) syscalls used by the reactor's
// readiness loop, with one method per interest-set transition
// (AddRead/AddWrite/ModRead/ModReadWrite/Delete) rather than a single
// generic Ctl call, so call sites read as state transitions instead of
// raw epoll_ctl invocations.
package poller

import "golang.org/x/sys/unix"

// Epoll is a thin, single-purpose wrapper around one epoll instance. It
// has no opinion about wake-up fds or event dispatch; the reactor owns
// those, since cross-thread wake-up is a UDP control socket registered
// like any other fd, not a poller-private mechanism.
type Epoll struct {
	fd int
}

// Open creates a new close-on-exec epoll instance.
func Open() (*Epoll, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Epoll{fd: fd}, nil
}

func (p *Epoll) ctl(op int, fd int, events uint32) error {
	return unix.EpollCtl(p.fd, op, fd, &unix.EpollEvent{Fd: int32(fd), Events: events})
}

// AddRead registers fd for edge-triggered read readiness only.
func (p *Epoll) AddRead(fd int) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, unix.EPOLLIN|unix.EPOLLET)
}

// AddWrite registers fd for edge-triggered write readiness only.
func (p *Epoll) AddWrite(fd int) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, unix.EPOLLOUT|unix.EPOLLET)
}

// AddReadWrite registers fd for both directions at once.
func (p *Epoll) AddReadWrite(fd int) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, unix.EPOLLIN|unix.EPOLLOUT|unix.EPOLLET)
}

// ModRead switches an already-registered fd to read-only interest.
func (p *Epoll) ModRead(fd int) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, unix.EPOLLIN|unix.EPOLLET)
}

// ModWrite switches an already-registered fd to write-only interest.
func (p *Epoll) ModWrite(fd int) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, unix.EPOLLOUT|unix.EPOLLET)
}

// ModReadWrite switches an already-registered fd to both directions.
func (p *Epoll) ModReadWrite(fd int) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, unix.EPOLLIN|unix.EPOLLOUT|unix.EPOLLET)
}

// Delete unregisters fd; the caller is responsible for closing it.
func (p *Epoll) Delete(fd int) error {
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Close closes the epoll instance itself.
func (p *Epoll) Close() error {
	return unix.Close(p.fd)
}

// Wait blocks for readiness and writes into events, returning the number
// of ready entries. timeoutMS of -1 blocks indefinitely.
func (p *Epoll) Wait(events []unix.EpollEvent, timeoutMS int) (int, error) {
	return unix.EpollWait(p.fd, events, timeoutMS)
}

// EventList is a growable epoll_event slice, doubling in place whenever a
// wait fills every slot, so a consistently busy reactor stops paying for
// EpollWait re-dispatch at a fixed batch size.
type EventList struct {
	Events []unix.EpollEvent
}

// NewEventList returns an EventList with the given initial capacity.
func NewEventList(size int) *EventList {
	return &EventList{Events: make([]unix.EpollEvent, size)}
}

// Increase doubles the event list's capacity.
func (el *EventList) Increase() {
	el.Events = make([]unix.EpollEvent, len(el.Events)*2)
}

// Len returns the current capacity of the event list.
func (el *EventList) Len() int { return len(el.Events) }
