// Package logger provides opinionated logging for the assembly homology
// service.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a colorized console logger for CLI use.
func NewLogger(debug bool) *zap.Logger {
	return NewLoggerWithWriters(debug, false, os.Stdout)
}

// NewServiceLogger creates a JSON logger for the API server, where log
// output is consumed by collection infrastructure rather than a terminal.
func NewServiceLogger(debug bool) *zap.Logger {
	return NewLoggerWithWriters(debug, true, os.Stdout)
}

// NewLoggerWithWriters creates a logger writing to the given writers. Used
// directly by tests to capture output.
func NewLoggerWithWriters(debug, json bool, writers ...io.Writer) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if json {
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	if len(writers) == 0 {
		writers = []io.Writer{os.Stdout}
	}

	syncers := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, writer := range writers {
		syncers = append(syncers, zapcore.AddSync(writer))
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.NewMultiWriteSyncer(syncers...),
		level,
	)

	return zap.New(core, zap.AddCaller())
}
