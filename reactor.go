package rnet

import (
	"github.com/eapache/queue"
	"golang.org/x/sys/unix"

	"github.com/go-rnet/rnet/logging"
	"github.com/go-rnet/rnet/poller"
)

// defaultEventBatchSize is the fixed-size epoll_wait event batch.
const defaultEventBatchSize = 256

// pendingAccept is a deferred accept completion, fired at the top of the
// next Run iteration rather than from inside the previous one's dispatch.
type pendingAccept struct {
	cb    AcceptCallback
	sock  *Socket
	state NetState
}

// Reactor is the single-threaded readiness loop: it owns the epoll
// instance, the UDP loopback control socket used for cross-thread
// wake-up, the timer heap, and the shared swap buffer every Socket.DoRead
// borrows as its scatter-read overflow tail.
//
// A Reactor, and everything registered with it, must only be touched from
// the goroutine that calls Run; Interrupt is the sole exception.
type Reactor struct {
	ep   *poller.Epoll
	ctrl *ctrlSocket

	fds map[int]pollee

	timers timerQueue
	swap   *swapBuffer

	pending *queue.Queue

	closed bool

	log  logging.Logger
	opts *options
}

// NewReactor creates a Reactor: an epoll instance, a bound loopback UDP
// control socket registered for wake-up, and the shared swap buffer.
func NewReactor(opt ...Option) (*Reactor, error) {
	o := defaultOptions()
	for _, fn := range opt {
		fn(o)
	}

	ep, err := poller.Open()
	if err != nil {
		return nil, err
	}

	r := &Reactor{
		ep:      ep,
		fds:     make(map[int]pollee),
		timers:  timerQueue{jitterMS: o.timerJitterMS},
		swap:    newSwapBuffer(o.swapBufferSize),
		pending: queue.New(),
		log:     o.logger,
		opts:    o,
	}

	ctrl, err := newCtrlSocket(r)
	if err != nil {
		_ = ep.Close()
		return nil, err
	}
	r.ctrl = ctrl
	r.fds[ctrl.fd] = ctrl
	if err := ep.AddRead(ctrl.fd); err != nil {
		_ = ep.Close()
		_ = unix.Close(ctrl.fd)
		return nil, err
	}
	ctrl.watchRead = true
	return r, nil
}

// Close tears the reactor down: the control socket, the epoll instance,
// and every timer callback still queued is simply dropped without firing.
// Every subsequent registration/watch call returns ErrReactorClosed.
func (r *Reactor) Close() error {
	r.closed = true
	_ = unix.Close(r.ctrl.fd)
	return r.ep.Close()
}

// register makes p findable by its FD during dispatch. It does not touch
// epoll; WatchRead/WatchWrite do that.
func (r *Reactor) register(p pollee) error {
	if r.closed {
		return ErrReactorClosed
	}
	r.fds[p.FD()] = p
	return nil
}

// unregister removes fd from both the dispatch table and epoll. Double
// unregistration is harmless: epoll_ctl DEL on an already-removed fd
// simply errors and is ignored, since the caller is about to close the fd
// anyway and FDs are never double-closed by construction.
func (r *Reactor) unregister(fd int) error {
	delete(r.fds, fd)
	_ = r.ep.Delete(fd)
	return nil
}

// WatchRead idempotently arms edge-triggered read readiness for p,
// transitioning not-registered->read-only or write-only->both.
func (r *Reactor) WatchRead(p *Pollable) error {
	if r.closed {
		return ErrReactorClosed
	}
	if p.watchRead {
		return nil
	}
	var err error
	if p.watchWrite {
		err = r.ep.ModReadWrite(p.fd)
	} else {
		err = r.ep.AddRead(p.fd)
	}
	if err != nil {
		return err
	}
	p.watchRead = true
	return nil
}

// WatchWrite idempotently arms edge-triggered write readiness for p,
// transitioning not-registered->write-only or read-only->both.
func (r *Reactor) WatchWrite(p *Pollable) error {
	if r.closed {
		return ErrReactorClosed
	}
	if p.watchWrite {
		return nil
	}
	var err error
	if p.watchRead {
		err = r.ep.ModReadWrite(p.fd)
	} else {
		err = r.ep.AddWrite(p.fd)
	}
	if err != nil {
		return err
	}
	p.watchWrite = true
	return nil
}

// UnwatchRead idempotently disarms read readiness, leaving write armed if
// it was.
func (r *Reactor) UnwatchRead(p *Pollable) error {
	if !p.watchRead {
		return nil
	}
	var err error
	if p.watchWrite {
		err = r.ep.ModWrite(p.fd)
	} else {
		err = r.ep.Delete(p.fd)
	}
	if err != nil {
		return err
	}
	p.watchRead = false
	return nil
}

// UnwatchWrite idempotently disarms write readiness, leaving read armed
// if it was.
func (r *Reactor) UnwatchWrite(p *Pollable) error {
	if !p.watchWrite {
		return nil
	}
	var err error
	if p.watchRead {
		err = r.ep.ModRead(p.fd)
	} else {
		err = r.ep.Delete(p.fd)
	}
	if err != nil {
		return err
	}
	p.watchWrite = false
	return nil
}

// ScheduleTimer arms a one-shot timer cb to fire after relativeMS,
// measured from the moment this call returns.
func (r *Reactor) ScheduleTimer(relativeMS int64, cb TimerCallback) error {
	if r.closed {
		return ErrReactorClosed
	}
	r.timers.Schedule(relativeMS, cb)
	return nil
}

// deferAccept queues an accept completion to be fired at the top of the
// next Run iteration instead of from inside the current dispatch. Every
// ServerSocket completion, successful or not, goes through here rather
// than calling the accept callback directly, so a callback that re-arms
// Accept always starts from a fresh dispatch pass instead of the tail of
// the one that produced it.
func (r *Reactor) deferAccept(cb AcceptCallback, sock *Socket, state NetState) {
	r.pending.Add(pendingAccept{cb: cb, sock: sock, state: state})
}

func (r *Reactor) firePendingAccepts() {
	for r.pending.Length() > 0 {
		pa := r.pending.Peek().(pendingAccept)
		r.pending.Remove()
		if pa.cb != nil {
			pa.cb(pa.sock, pa.state)
		}
	}
}

// Interrupt is the only method safe to call from a goroutine other than
// the one running Run: it performs a single non-blocking sendto on the
// control socket, which Run observes on its next dispatch cycle and
// returns OK from.
func (r *Reactor) Interrupt() error {
	if r.closed {
		return ErrReactorClosed
	}
	return r.ctrl.interrupt()
}

// Run blocks demultiplexing readiness until Interrupt is called from
// another goroutine, or an unrecoverable poll error occurs.
func (r *Reactor) Run() NetState {
	events := poller.NewEventList(r.opts.eventBatchSize)
	baseline := nowMS()

	for {
		r.firePendingAccepts()

		timeout := -1
		if !r.timers.Empty() {
			timeout = int(r.timers.HeadRelativeMS())
			if timeout < 0 {
				timeout = 0
			}
		}

		n, err := r.ep.Wait(events.Events, timeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return SystemError(int(err.(unix.Errno)))
		}

		r.dispatch(events.Events[:n])
		baseline = r.timers.Update(n, baseline, nowMS())

		if r.ctrl.isWakeUp {
			r.ctrl.isWakeUp = false
			return OK()
		}

		if n == events.Len() {
			events.Increase()
		}
	}
}

// dispatch processes one batch of readiness events in delivery order: for
// each pollable, errors and hangups are handled first, then read, then
// write — consulting the deletion guard between read and write so a read
// callback that destroys its socket can never trigger a write callback
// on the same now-dead pollable in the same batch.
func (r *Reactor) dispatch(evs []unix.EpollEvent) {
	for _, ev := range evs {
		fd := int(ev.Fd)
		p, ok := r.fds[fd]
		if !ok {
			continue
		}

		const handled = unix.EPOLLERR | unix.EPOLLHUP | unix.EPOLLIN | unix.EPOLLOUT
		if rem := ev.Events &^ handled; rem != 0 {
			r.log.Fatalf("rnet: unrecognised epoll event bits 0x%x on fd %d", rem, fd)
		}

		if ev.Events&unix.EPOLLERR != 0 {
			errno, gerr := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
			if gerr != nil {
				// SO_ERROR itself failing on a registered fd should never
				// happen and cannot be recovered from.
				r.log.Fatalf("rnet: SO_ERROR lookup failed on fd %d: %v", fd, gerr)
			}
			if errno != 0 {
				p.OnException(SystemError(errno))
				continue
			}
		}

		if ev.Events&unix.EPOLLHUP != 0 {
			p.OnReadNotify()
			continue
		}

		deleted := false
		if dp, ok := p.(interface{ armDeletionGuard(*bool) }); ok {
			dp.armDeletionGuard(&deleted)
		}

		if ev.Events&unix.EPOLLIN != 0 {
			p.OnReadNotify()
		}
		if !deleted && ev.Events&unix.EPOLLOUT != 0 {
			p.OnWriteNotify()
		}
	}
}
