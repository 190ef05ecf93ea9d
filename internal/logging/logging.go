// Package logging constructs the node's zap.Logger the same way the
// reference node does: console encoding unless config selects another,
// ISO8601 timestamps on a terminal and no timestamps otherwise, with the
// level overridable from config or a --debug CLI flag.
package logging

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Params controls logger construction. Debug forces DebugLevel regardless
// of Level, mirroring the reference node's --debug flag.
type Params struct {
	Level    string
	Encoding string
	Debug    bool
}

// New builds a logger and the atomic level handle used to adjust it later
// (e.g. from a future "set-log-level" CLI intent).
func New(p Params) (*zap.Logger, *zap.AtomicLevel, error) {
	level := zapcore.InfoLevel
	if p.Level != "" {
		var err error
		level, err = zapcore.ParseLevel(p.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
	}
	if p.Debug {
		level = zapcore.DebugLevel
	}

	encoding := "console"
	if p.Encoding != "" {
		encoding = p.Encoding
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if term.IsTerminal(int(os.Stdout.Fd())) {
		cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cc.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {}
	}
	cc.Encoding = encoding
	atomicLevel := zap.NewAtomicLevelAt(level)
	cc.Level = atomicLevel
	cc.Sampling = nil

	log, err := cc.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	return log, &atomicLevel, nil
}
