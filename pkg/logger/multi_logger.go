package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategoryFetch LogCategory = "fetch" // Item lifecycle and job events (JSON)
	CategoryError LogCategory = "error" // Application errors (JSON)
)

// Categories lists every category written by MultiLogger
var Categories = []LogCategory{CategoryFetch, CategoryError}

// ValidCategory reports whether c is a known category
func ValidCategory(c LogCategory) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MultiLogger provides categorized logging with one JSON file per category and day.
// Raw resolver process output (yt-dlp) is written by the resolver itself, not here.
type MultiLogger struct {
	loggers     map[LogCategory]*zap.Logger
	files       map[LogCategory]*os.File
	config      MultiLoggerConfig
	mu          sync.RWMutex
	currentDate string
	closed      bool
	now         func() time.Time
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string // Directory for log files
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}

	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	ml := &MultiLogger{
		config: config,
		now:    time.Now,
	}
	if err := ml.open(ml.now().Format("20060102")); err != nil {
		return nil, err
	}
	return ml, nil
}

// open (re)creates the category loggers for the given date. Caller holds mu or
// has exclusive access.
func (ml *MultiLogger) open(date string) error {
	level, err := zapcore.ParseLevel(ml.config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	loggers := make(map[LogCategory]*zap.Logger)
	files := make(map[LogCategory]*os.File)
	for _, category := range Categories {
		lvl := level
		if category == CategoryError {
			lvl = zapcore.ErrorLevel
		}
		logger, file, err := ml.createStructuredLogger(category, date, lvl)
		if err != nil {
			for _, f := range files {
				f.Close()
			}
			return fmt.Errorf("failed to create %s logger: %w", category, err)
		}
		loggers[category] = logger
		files[category] = file
	}

	old := ml.files
	ml.loggers = loggers
	ml.files = files
	ml.currentDate = date
	for _, f := range old {
		f.Close()
	}
	return nil
}

// createStructuredLogger creates a JSON-formatted logger for a category
func (ml *MultiLogger) createStructuredLogger(category LogCategory, date string, level zapcore.Level) (*zap.Logger, *os.File, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "msg"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = "" // Don't include caller for cleaner logs

	file, err := os.OpenFile(CategoryLogPath(ml.config.LogsDir, category, date), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), level)
	return zap.New(core), file, nil
}

// CategoryLogPath returns <logsDir>/<category>-<date>.log, date formatted YYYYMMDD
func CategoryLogPath(logsDir string, category LogCategory, date string) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s-%s.log", category, date))
}

// GetLogsDir returns the logs directory path
func (ml *MultiLogger) GetLogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the structured logger for a category, rotating files when
// the day has changed.
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	today := ml.now().Format("20060102")

	ml.mu.RLock()
	if ml.closed {
		ml.mu.RUnlock()
		return zap.NewNop()
	}
	if ml.currentDate == today {
		logger := ml.lookup(category)
		ml.mu.RUnlock()
		return logger
	}
	ml.mu.RUnlock()

	ml.mu.Lock()
	defer ml.mu.Unlock()
	if ml.closed {
		return zap.NewNop()
	}
	if ml.currentDate != today {
		// Keep writing to the old files if the new ones can't be opened
		_ = ml.open(today)
	}
	return ml.lookup(category)
}

func (ml *MultiLogger) lookup(category LogCategory) *zap.Logger {
	if logger, ok := ml.loggers[category]; ok {
		return logger
	}
	return ml.loggers[CategoryError]
}

// Fetch returns the fetch logger
func (ml *MultiLogger) Fetch() *zap.Logger {
	return ml.GetLogger(CategoryFetch)
}

// Error returns the error logger
func (ml *MultiLogger) Error() *zap.Logger {
	return ml.GetLogger(CategoryError)
}

// LogAppError logs an application-level error
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	ml.Error().Error(msg, fields...)
}

// LogJobEvent logs a job lifecycle event with structured data
func (ml *MultiLogger) LogJobEvent(event string, fields ...zap.Field) {
	ml.Fetch().Info(event, fields...)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var result error
	for _, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

// Close flushes and closes every category file
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.closed {
		return nil
	}
	ml.closed = true

	var result error
	for category, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			result = multierror.Append(result, err)
		}
		if err := ml.files[category].Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	ml.files = nil
	return result
}
