// Package logging builds the process logger: zap underneath, exposed as a
// logr.Logger so library packages stay backend agnostic.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrLevel is returned for an unparseable level.
var ErrLevel = errors.New("logging: invalid level")

// Options selects the encoder and threshold.
type Options struct {
	// Level is a zap level name ("debug", "info", "warn", "error") or a logr
	// verbosity ("v2" enables V(2) and below).
	Level string
	// Console switches from JSON to the human readable encoder.
	Console bool
	// Output defaults to stderr.
	Output io.Writer
}

// ParseLevel maps a level name or logr verbosity to a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	if v, ok := strings.CutPrefix(s, "v"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 127 {
			return 0, fmt.Errorf("%w: %q", ErrLevel, s)
		}
		return zapcore.Level(-n), nil
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrLevel, s)
	}

	return lvl, nil
}

// New returns a logr.Logger and a flush function to defer.
func New(opts Options) (logr.Logger, func(), error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return logr.Discard(), func() {}, err
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if opts.Console {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(out), zap.NewAtomicLevelAt(lvl))
	z := zap.New(core, zap.AddCaller())

	return zapr.NewLogger(z), func() { _ = z.Sync() }, nil
}
