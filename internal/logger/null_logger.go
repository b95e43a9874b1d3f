package logger

// nullLogger discards everything. Used where a Logger is required but
// the caller supplied none.
type nullLogger struct{}

// NewNullLogger returns a logger that drops all output.
func NewNullLogger() Logger {
	return nullLogger{}
}

func (n nullLogger) WithFields(fields map[string]interface{}) Logger { return n }

func (n nullLogger) WithField(key string, value interface{}) Logger { return n }

func (n nullLogger) WithError(err error) Logger { return n }

func (n nullLogger) Debug(args ...interface{}) {}

func (n nullLogger) Info(args ...interface{}) {}

func (n nullLogger) Warn(args ...interface{}) {}

func (n nullLogger) Error(args ...interface{}) {}
