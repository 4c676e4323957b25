package logging

// Leveled adapts this package to loggers that take a message plus
// alternating key/value pairs, such as retryablehttp.LeveledLogger.
type Leveled struct {
	// Prefix is prepended to every message, e.g. "search".
	Prefix string
}

func (l Leveled) format(msg string, keysAndValues []interface{}) string {
	line := msg
	if l.Prefix != "" {
		line = l.Prefix + ": " + msg
	}
	if kv := KV(keysAndValues...); kv != "" {
		line += " " + kv
	}
	return line
}

// Error logs at error level.
func (l Leveled) Error(msg string, keysAndValues ...interface{}) {
	Error("%s", l.format(msg, keysAndValues))
}

// Warn logs at warn level.
func (l Leveled) Warn(msg string, keysAndValues ...interface{}) {
	Warn("%s", l.format(msg, keysAndValues))
}

// Info is demoted to debug; HTTP clients log every request at info.
func (l Leveled) Info(msg string, keysAndValues ...interface{}) {
	Debug("%s", l.format(msg, keysAndValues))
}

// Debug logs at debug level.
func (l Leveled) Debug(msg string, keysAndValues ...interface{}) {
	Debug("%s", l.format(msg, keysAndValues))
}
