// Package logging provides the logging sink consumed by the rule engine and
// the tree builder, along with the zap-backed application logger.
package logging

import "go.uber.org/zap"

// Logger is the sink the scanning core reports traversal and ignore decisions to.
type Logger interface {
	Debug(message string)
	Info(message string)
	Warning(message string)
}

// Nop discards every message.
type Nop struct{}

// Debug implements Logger.
func (Nop) Debug(string) {}

// Info implements Logger.
func (Nop) Info(string) {}

// Warning implements Logger.
func (Nop) Warning(string) {}

// OrNop returns logger, or a Nop sink when logger is nil.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop{}
	}
	return logger
}

// ZapSink adapts a zap logger to Logger.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink wraps logger. A nil logger produces a sink backed by zap.NewNop.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

// Debug implements Logger.
func (sink *ZapSink) Debug(message string) {
	sink.logger.Debug(message)
}

// Info implements Logger.
func (sink *ZapSink) Info(message string) {
	sink.logger.Info(message)
}

// Warning implements Logger.
func (sink *ZapSink) Warning(message string) {
	sink.logger.Warn(message)
}

var (
	_ Logger = Nop{}
	_ Logger = (*ZapSink)(nil)
)
