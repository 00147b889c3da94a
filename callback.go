package rnet

// Every callback slot is one-shot: the Reactor (or the socket method that
// fires it) always removes the handler from its slot before invoking it,
// so a handler that re-arms the same slot during its own invocation is
// never clobbered by the dispatcher clearing a stale reference afterwards.
// Model each slot as a plain nilable func/struct value rather than a
// "movable optional owning handle" — Go's zero value already is that.

// ReadCallback fires once per armed read completion with the number of
// bytes read and the resulting NetState (OK with n==0 signals EOF).
type ReadCallback func(sock *Socket, n int, state NetState)

// WriteCallback fires once per armed write completion with the total
// bytes flushed for that logical write and the resulting NetState.
type WriteCallback func(sock *Socket, n int, state NetState)

// CloseCallback is installed to drive an asynchronous close: Data fires
// for each read that completes while the socket is CLOSING, Done fires
// exactly once when the close finally resolves (EOF reached or an error
// was hit while draining).
type CloseCallback struct {
	Data func(n int)
	Done func(state NetState)
}

// ConnectCallback fires once when a ClientSocket leaves CONNECTING,
// either into CONNECTED (OK) or back to DISCONNECTED (error state).
type ConnectCallback func(sock *ClientSocket, state NetState)

// AcceptCallback fires once per armed accept completion. When state is not
// OK no connection was produced, and sock is the destination socket passed
// to Accept, with no accepted FD installed in it.
type AcceptCallback func(sock *Socket, state NetState)

// TimerCallback fires once when its timer entry's relative deadline
// elapses, receiving the relative time (ms) it was scheduled for.
type TimerCallback func(relativeMS int64)
