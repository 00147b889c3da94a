// Package logging provides the reactor's logging functionality. It sets
// up a default logger backed by go.uber.org/zap and lets callers swap in
// their own implementation of the Logger interface, or point the default
// at a rotated on-disk file via gopkg.in/natefinch/lumberjack.v2.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the minimal surface the reactor logs through.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	// Fatalf logs at fatal level and terminates the process; it is used
	// only for invariant violations that should never occur, not for
	// ordinary recoverable runtime errors.
	Fatalf(format string, args ...interface{})
}

// Default returns a console-encoded zap-backed logger writing WarnLevel
// and above, suitable as the reactor's out-of-the-box logger.
func Default() Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	return l.Sugar()
}

// NewFileLogger builds a Logger that writes to a size/age-rotated file at
// path, at or above level.
func NewFileLogger(path string, level zapcore.Level) Logger {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}
