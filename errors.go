package rnet

import "errors"

var (
	// ErrInvalidEndpoint occurs when Connect or Bind is given an endpoint
	// that never survived parsing (Port == PortError).
	ErrInvalidEndpoint = errors.New("rnet: invalid endpoint")
	// ErrAlreadyBound occurs when Bind is called twice on the same ServerSocket.
	ErrAlreadyBound = errors.New("rnet: server socket already bound")
	// ErrNotConnected occurs when Write or OnReadBy is attempted on a
	// ClientSocket that is not yet, or no longer, CONNECTED.
	ErrNotConnected = errors.New("rnet: client socket not connected")
	// ErrCallbackInFlight occurs when a caller tries to arm a slot that already holds a callback.
	ErrCallbackInFlight = errors.New("rnet: callback slot already armed")
	// ErrReactorClosed occurs when an operation is attempted after the reactor has shut down.
	ErrReactorClosed = errors.New("rnet: reactor closed")
	// ErrNoAcceptCallback occurs when Accept is armed with a nil callback,
	// which would otherwise silently swallow every future completion.
	ErrNoAcceptCallback = errors.New("rnet: accept armed with no callback")
	// ErrBufferFull occurs when a fixed-capacity buffer has no room left for a write.
	ErrBufferFull = errors.New("rnet: fixed buffer is full")
)
