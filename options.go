package rnet

import (
	"go.uber.org/zap/zapcore"

	"github.com/go-rnet/rnet/logging"
)

// Option configures a Reactor at construction time, following the
// functional-options pattern.
type Option func(*options)

type options struct {
	swapBufferSize int
	eventBatchSize int
	timerJitterMS  int64
	logger         logging.Logger
}

func defaultOptions() *options {
	return &options{
		swapBufferSize: defaultSwapBufferSize,
		eventBatchSize: defaultEventBatchSize,
		timerJitterMS:  defaultTimerJitterMS,
		logger:         logging.Default(),
	}
}

// WithSwapBufferSize overrides the reactor's shared scatter-read scratch
// buffer size (default 3,495,200 bytes).
func WithSwapBufferSize(n int) Option {
	return func(o *options) { o.swapBufferSize = n }
}

// WithEventBatchSize overrides the epoll_wait event batch size (default
// 256).
func WithEventBatchSize(n int) Option {
	return func(o *options) { o.eventBatchSize = n }
}

// WithLogger installs a custom Logger implementation in place of the
// zap-backed default.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLogFile points the reactor's logging at a rotated on-disk file
// instead of the console, at or above level.
func WithLogFile(path string, level zapcore.Level) Option {
	return func(o *options) { o.logger = logging.NewFileLogger(path, level) }
}

// WithTimerJitter overrides the tolerance band (default 3ms) that near-
// coincident timers must fall within to fire together on a timed-out wait.
func WithTimerJitter(ms int64) Option {
	return func(o *options) { o.timerJitterMS = ms }
}
