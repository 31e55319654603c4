// Package logging builds the process-wide zap.Logger, mirroring the
// teacher's two-phase init (a bootstrap logger before config is loaded,
// then a reconfigured one once the real log level/format are known).
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls the logger produced by New.
type Options struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string
	// JSON selects a JSON encoder (production) over a console encoder (dev).
	JSON bool
	// FilePath, if non-empty, tees output through a rotating lumberjack
	// sink alongside stderr.
	FilePath string
}

// Bootstrap returns a permissive info-level console logger, used before
// configuration has been loaded.
func Bootstrap() *zap.Logger {
	l, err := New(Options{Level: "info", JSON: false})
	if err != nil {
		// Bootstrap logging must never fail; fall back to zap's own default.
		return zap.NewExample()
	}
	return l
}

// New builds a logger from Options.
func New(opts Options) (*zap.Logger, error) {
	level := parseLevel(opts.Level)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	var encoder zapcore.Encoder
	if opts.JSON {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	writers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stderr)}
	if opts.FilePath != "" {
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(writers...), level)
	return zap.New(core), nil
}

func parseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
