package rnet

import "golang.org/x/sys/unix"

// stateCategory tags the provenance of a non-OK NetState.
type stateCategory int

const (
	categoryOK stateCategory = iota
	categorySystem
	categoryUser
)

// NetState is a tagged success/error result threaded through every
// callback. The zero value is OK.
type NetState struct {
	category stateCategory
	code     int
}

// OK returns the zero (successful) NetState.
func OK() NetState { return NetState{} }

// SystemError wraps an errno (or an errno-shaped code such as ENOBUFS
// synthesised by the buffer-injection path).
func SystemError(errno int) NetState {
	return NetState{category: categorySystem, code: errno}
}

// UserError tags a non-syscall failure with a caller-defined code.
func UserError(code int) NetState {
	return NetState{category: categoryUser, code: code}
}

// Ok reports whether this state represents success.
func (s NetState) Ok() bool { return s.category == categoryOK }

// IsSystem reports whether this is a System-category error.
func (s NetState) IsSystem() bool { return s.category == categorySystem }

// Code returns the errno or user code; meaningless when Ok().
func (s NetState) Code() int { return s.code }

// Error implements the error interface so a NetState can be returned or
// logged like any other Go error; it is not used for control flow.
func (s NetState) Error() string {
	if s.Ok() {
		return "rnet: ok"
	}
	if s.category == categorySystem {
		return "rnet: system error: " + unix.Errno(s.code).Error()
	}
	return "rnet: user error"
}
