package logger

// nopLogger discards all log entries. Useful in tests.
type nopLogger struct{}

// NewNop returns a Logger that discards everything written to it.
func NewNop() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (nopLogger) Fatal(string, ...Field) {}

// With returns the nop logger itself; attached fields are discarded.
func (n nopLogger) With(...Field) Logger { return n }

// Sync is a no-op.
func (nopLogger) Sync() error { return nil }
