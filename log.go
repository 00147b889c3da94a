package rnet

import "github.com/go-rnet/rnet/logging"

// defaultLog backs the handful of package-level helpers (endpoint
// lookups) that run outside any particular Reactor's dispatch loop and so
// have no per-reactor logger to reach for.
var defaultLog logging.Logger = logging.Default()

// SetDefaultLogger overrides the logger used by package-level helpers.
func SetDefaultLogger(l logging.Logger) {
	if l != nil {
		defaultLog = l
	}
}
