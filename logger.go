package kawatrpc

import (
	"fmt"
	"log"
	"strings"
)

// Logger is the minimal structured logging interface the client emits debug
// output through. Key-value pairs follow the message.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// DebugConfig controls which lifecycle events are logged when a Logger is
// configured.
type DebugConfig struct {
	Enabled    bool
	LogCalls   bool
	LogHeaders bool
}

// DefaultDebugConfig logs call dispatch and completion but not headers.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:  false,
		LogCalls: true,
	}
}

// SimpleLogger writes formatted lines to the standard log output. Intended
// for examples and local debugging, not production log pipelines.
type SimpleLogger struct{}

// NewSimpleLogger creates a console logger.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{}
}

func (l *SimpleLogger) Debug(msg string, keysAndValues ...any) { l.print("DEBUG", msg, keysAndValues) }
func (l *SimpleLogger) Info(msg string, keysAndValues ...any)  { l.print("INFO", msg, keysAndValues) }
func (l *SimpleLogger) Warn(msg string, keysAndValues ...any)  { l.print("WARN", msg, keysAndValues) }
func (l *SimpleLogger) Error(msg string, keysAndValues ...any) { l.print("ERROR", msg, keysAndValues) }

func (l *SimpleLogger) print(level, msg string, kvs []any) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(msg)
	for i := 0; i+1 < len(kvs); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kvs[i], kvs[i+1])
	}
	if len(kvs)%2 == 1 {
		fmt.Fprintf(&b, " %v", kvs[len(kvs)-1])
	}
	log.Println(b.String())
}
