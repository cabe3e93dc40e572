package logger

var global = New("pcbatch")

// Debug logs to the global logger at the Debug level
func Debug(msg string, args ...interface{}) {
	global.Debug(msg, args...)
}

// Error logs to the global logger at the Error level
func Error(msg string, args ...interface{}) {
	global.Error(msg, args...)
}

// Configure configures the global logger.
func Configure(c Config) {
	global.Configure(c)
}
