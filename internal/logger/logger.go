// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// The web service writes lifecycle, submission, and error events to one
// JSON file per day under `<dir>/YYYY-MM-DD.log`.  Lumberjack rotates,
// compresses, and prunes those files, so no external log-rotate job is
// needed.  In an interactive TTY the same events are teed, console
// encoded, to stdout.  Command-line tools use NewConsole instead.
//
// Usage
// -----
//
//	log, err := logger.New(logger.Options{Dir: filepath.Join(root, "logs"), Tee: tty})
//	if err != nil { … }
//	log.Infow("booking accepted", "form", id)
//
// Notes
// -----
// • ISO-8601 timestamps, lowercase levels, short callers.
// • Zap's internal errors go to the same file via ErrorOutput.
// • Request-scoped loggers travel in the context; see context.go.
// • Oxford commas, two spaces after periods.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the sink and rotation policy.  Zero values take the
// defaults noted on each field.
type Options struct {
	Dir        string // required
	Level      string // "debug", "info" (default), "warn", or "error"
	Tee        bool   // also write to stdout
	MaxSizeMB  int    // per file before rotation, default 50
	MaxBackups int    // rotated files kept, default 7
	MaxAgeDays int    // default 14
}

func (o Options) withDefaults() Options {
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = 50
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 7
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = 14
	}
	return o
}

// New builds the file logger and installs it as the process-wide default
// via zap.ReplaceGlobals.
func New(opt Options) (*zap.SugaredLogger, error) {
	opt = opt.withDefaults()
	level, err := ParseLevel(opt.Level)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opt.Dir, 0o755); err != nil {
		return nil, err
	}

	sink := &lumberjack.Logger{
		Filename:   filepath.Join(opt.Dir, time.Now().Format("2006-01-02")+".log"),
		MaxSize:    opt.MaxSizeMB,
		MaxBackups: opt.MaxBackups,
		MaxAge:     opt.MaxAgeDays,
		Compress:   true,
	}

	enc := encoderConfig()
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(sink), level),
	}
	if opt.Tee {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(os.Stdout), level))
	}

	z := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.ErrorOutput(zapcore.AddSync(sink)))
	zap.ReplaceGlobals(z)

	log := z.Sugar()
	log.Infow("logger online", "dir", opt.Dir, "level", level.String(), "tee", opt.Tee)
	return log, nil
}

// NewConsole returns a console-encoded logger writing to w, for command-line
// tools that have no log directory.  It does not replace the global logger.
func NewConsole(w io.Writer, level zapcore.Level) *zap.SugaredLogger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

// ParseLevel maps a config string to a zap level.  Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("logger: level %q: %w", s, err)
	}
	return l, nil
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
}
