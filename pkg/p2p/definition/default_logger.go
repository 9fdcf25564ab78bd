package definition

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogger is the Logger used if the caller does not provide its own
// implementation. Where the teacher backed its Logger interface with a bare
// *log.Logger, this backs it with a zap SugaredLogger: a long-running node
// process benefits from zap's leveled, structured output (node_id, direction,
// reason fields survive as structured data rather than being interpolated
// into a string), and zap is already part of this corpus's dependency
// surface.
type DefaultLogger struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
	atom  zap.AtomicLevel
}

// NewDefaultLogger builds a DefaultLogger writing leveled, console-encoded
// output to stderr, starting at info level (debug disabled).
func NewDefaultLogger() *DefaultLogger {
	atom := zap.NewAtomicLevelAt(zap.InfoLevel)
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		atom,
	)
	base := zap.New(core).Named("p2p")
	return &DefaultLogger{
		base:  base,
		sugar: base.Sugar(),
		atom:  atom,
	}
}

func (l *DefaultLogger) Debug(args ...interface{})                 { l.sugar.Debug(args...) }
func (l *DefaultLogger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *DefaultLogger) Info(args ...interface{})                  { l.sugar.Info(args...) }
func (l *DefaultLogger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *DefaultLogger) Warn(args ...interface{})                  { l.sugar.Warn(args...) }
func (l *DefaultLogger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *DefaultLogger) Error(args ...interface{})                 { l.sugar.Error(args...) }
func (l *DefaultLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
func (l *DefaultLogger) Fatal(args ...interface{})                 { l.sugar.Fatal(args...) }
func (l *DefaultLogger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

func (l *DefaultLogger) ToggleDebug(value bool) bool {
	if value {
		l.atom.SetLevel(zap.DebugLevel)
	} else {
		l.atom.SetLevel(zap.InfoLevel)
	}
	return value
}

func (l *DefaultLogger) With(fields ...interface{}) Logger {
	return &DefaultLogger{
		base:  l.base,
		sugar: l.sugar.With(fields...),
		atom:  l.atom,
	}
}
