// Package logging owns the process-wide operations log.
//
// A Sink is bound at most once. The first workspace opened in a process
// decides where the log goes; opening a different workspace later does not
// redirect it. Bind reports whether it took effect so callers can say so.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink is a set-once binding of a zap logger to a log file.
type Sink struct {
	mu      sync.Mutex
	level   zap.AtomicLevel
	path    string
	logger  *zap.Logger
	rotator *lumberjack.Logger
}

// NewSink creates an unbound Sink writing entries at or above level.
func NewSink(level zapcore.Level) *Sink {
	return &Sink{level: zap.NewAtomicLevelAt(level)}
}

// Default is the process sink.
var Default = NewSink(zapcore.InfoLevel)

// L returns the logger of the process sink.
func L() *zap.Logger {
	return Default.Logger()
}

// SetLevel changes the minimum level; it applies before and after binding.
func (s *Sink) SetLevel(text string) error {
	lvl, err := zapcore.ParseLevel(text)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", text, err)
	}
	s.level.SetLevel(lvl)
	return nil
}

// Bind directs the sink to path. It returns false without error when the
// sink is already bound, whatever path it is bound to.
func (s *Sink) Bind(path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logger != nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create log directory: %w", err)
	}
	// lumberjack opens lazily; probe now so an unwritable path fails here.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to open log file: %w", err)
	}
	_ = f.Close()

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // Megabytes
		MaxBackups: 5,
		MaxAge:     30, // Days
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotator),
		s.level,
	)

	s.logger = zap.New(core, zap.AddCaller())
	s.rotator = rotator
	s.path = path
	return true, nil
}

// Bound reports whether Bind has succeeded.
func (s *Sink) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger != nil
}

// Path returns the bound log file, or "" when unbound.
func (s *Sink) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Logger returns the bound logger, or a no-op logger before Bind.
func (s *Sink) Logger() *zap.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}

// Close flushes and closes the log file. The sink stays bound; entries
// logged afterwards reopen the file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logger == nil {
		return nil
	}
	_ = s.logger.Sync()
	return s.rotator.Close()
}
