package definition

// Logger is the logging surface every worker and the main loop writes
// through. Its shape follows the teacher's own logging interface; a logger
// plugs in directly only if it also has ToggleDebug and With. DefaultLogger
// (default_logger.go) implements it on top of zap.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	// ToggleDebug flips whether Debug/Debugf are emitted and returns the new
	// state, mirroring the teacher's logger so call sites that already do
	// `conf.Logger.ToggleDebug(false)` keep working unchanged.
	ToggleDebug(value bool) bool

	// With returns a Logger that prefixes every subsequent entry with the
	// given structured fields (e.g. node_id, direction). Implementations that
	// can't support structured fields may return themselves unchanged.
	With(fields ...interface{}) Logger
}
