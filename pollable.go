package rnet

// pollee is whatever the Reactor dispatches raw readiness events to:
// every concrete socket type implements it via embedding Pollable and
// overriding the notify methods it cares about.
type pollee interface {
	FD() int
	OnReadNotify()
	OnWriteNotify()
	OnException(NetState)
}

// Pollable is the common base of every FD-bearing object registered with
// a Reactor. It caches edge-triggered readiness per direction so a caller
// installing a handler after readiness has already fired does not pay for
// a guaranteed-to-fail syscall, and it carries an optional out-of-band
// "deleted" flag so a callback that destroys its own socket can signal
// that fact to whoever is still unwinding the dispatch for it.
type Pollable struct {
	fd         int
	reactor    *Reactor
	watchRead  bool
	watchWrite bool
	canRead    bool
	canWrite   bool
	deleted    *bool
}

// FD returns the underlying file descriptor, or -1 if none is installed.
func (p *Pollable) FD() int { return p.fd }

// CanRead reports the cached edge-triggered read readiness.
func (p *Pollable) CanRead() bool { return p.canRead }

// CanWrite reports the cached edge-triggered write readiness.
func (p *Pollable) CanWrite() bool { return p.canWrite }

// markDeleted signals through the out-of-band flag, if one is installed
// for the current dispatch, that this pollable's owner has been destroyed.
func (p *Pollable) markDeleted() {
	if p.deleted != nil {
		*p.deleted = true
	}
}

// armDeletionGuard installs the current dispatch's out-of-band deletion
// flag, letting the reactor skip a write notification for a pollable
// whose read notification already tore it down.
func (p *Pollable) armDeletionGuard(flag *bool) { p.deleted = flag }
