package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	captureTimeLayout       = "2006-01-02 15:04:05"
	captureFieldSeparator   = " - "
	consoleMessageKey       = "message"
	captureTimeKey          = "time"
	captureLevelKey         = "level"
	errorWriteCaptureFormat = "write log to %s: %w"
)

// ApplicationLoggerOptions configures NewApplicationLogger.
type ApplicationLoggerOptions struct {
	// Verbose lowers the level to debug so every ignore decision is reported.
	Verbose bool
	// Console receives human-readable output. Defaults to os.Stderr.
	Console io.Writer
}

// ApplicationLogger is a zap logger that writes to the console and keeps a
// timestamped copy of every entry in memory until SaveCaptured is called.
type ApplicationLogger struct {
	*zap.Logger
	capture *captureBuffer
}

// NewApplicationLogger constructs a zap logger configured for human-readable console output.
func NewApplicationLogger(options ApplicationLoggerOptions) *ApplicationLogger {
	console := options.Console
	if console == nil {
		console = os.Stderr
	}
	level := zapcore.InfoLevel
	if options.Verbose {
		level = zapcore.DebugLevel
	}

	consoleEncoderConfig := zap.NewProductionEncoderConfig()
	consoleEncoderConfig.TimeKey = ""
	consoleEncoderConfig.LevelKey = ""
	consoleEncoderConfig.NameKey = ""
	consoleEncoderConfig.CallerKey = ""
	consoleEncoderConfig.StacktraceKey = ""
	consoleEncoderConfig.MessageKey = consoleMessageKey

	captureEncoderConfig := zap.NewProductionEncoderConfig()
	captureEncoderConfig.TimeKey = captureTimeKey
	captureEncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(captureTimeLayout)
	captureEncoderConfig.LevelKey = captureLevelKey
	captureEncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	captureEncoderConfig.NameKey = ""
	captureEncoderConfig.CallerKey = ""
	captureEncoderConfig.StacktraceKey = ""
	captureEncoderConfig.MessageKey = consoleMessageKey
	captureEncoderConfig.ConsoleSeparator = captureFieldSeparator

	capture := &captureBuffer{}
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig), zapcore.Lock(zapcore.AddSync(console)), level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(captureEncoderConfig), capture, level),
	)
	return &ApplicationLogger{Logger: zap.New(core), capture: capture}
}

// Captured returns every entry logged so far.
func (logger *ApplicationLogger) Captured() string {
	return logger.capture.String()
}

// SaveCaptured writes the captured entries to filePath.
func (logger *ApplicationLogger) SaveCaptured(filePath string) error {
	if writeError := os.WriteFile(filePath, []byte(logger.Captured()), 0o644); writeError != nil {
		return fmt.Errorf(errorWriteCaptureFormat, filePath, writeError)
	}
	return nil
}

// Sink returns the Logger view of the application logger.
func (logger *ApplicationLogger) Sink() Logger {
	return NewZapSink(logger.Logger)
}

type captureBuffer struct {
	mutex  sync.Mutex
	buffer bytes.Buffer
}

func (capture *captureBuffer) Write(data []byte) (int, error) {
	capture.mutex.Lock()
	defer capture.mutex.Unlock()
	return capture.buffer.Write(data)
}

func (capture *captureBuffer) Sync() error {
	return nil
}

func (capture *captureBuffer) String() string {
	capture.mutex.Lock()
	defer capture.mutex.Unlock()
	return capture.buffer.String()
}
