package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory names one of the dated JSON log files
type LogCategory string

const (
	CategoryTransfer LogCategory = "transfer" // transfer outcomes
	CategoryError    LogCategory = "error"    // errors of every component
)

// Categories lists every category in display order
var Categories = []LogCategory{CategoryTransfer, CategoryError}

// ValidCategory reports whether c is a known category
func ValidCategory(c LogCategory) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MultiLogger writes each category to its own file, one file per day:
// <dir>/<category>-YYYYMMDD.log
type MultiLogger struct {
	dir     string
	loggers map[LogCategory]*zap.Logger
	files   []*os.File
}

// NewMultiLogger opens today's file of every category under dir
func NewMultiLogger(dir, level string) (*MultiLogger, error) {
	if dir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	ml := &MultiLogger{dir: dir, loggers: make(map[LogCategory]*zap.Logger)}
	now := time.Now()
	for _, category := range Categories {
		categoryLevel := lvl
		if category == CategoryError {
			categoryLevel = zapcore.ErrorLevel
		}

		file, err := os.OpenFile(LogPath(dir, category, now), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			ml.Close()
			return nil, fmt.Errorf("failed to open %s log: %w", category, err)
		}
		ml.files = append(ml.files, file)
		ml.loggers[category] = zap.New(zapcore.NewCore(jsonFileEncoder(), zapcore.AddSync(file), categoryLevel))
	}

	return ml, nil
}

func jsonFileEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.MessageKey = "msg"
	cfg.LevelKey = "level"
	cfg.CallerKey = ""
	return zapcore.NewJSONEncoder(cfg)
}

// LogPath returns the file of a category for the given day
func LogPath(dir string, category LogCategory, date time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.log", category, date.Format("20060102")))
}

// Dir returns the logs directory
func (ml *MultiLogger) Dir() string {
	return ml.dir
}

// Logger returns the logger of a category, or a no-op logger for an unknown one
func (ml *MultiLogger) Logger(category LogCategory) *zap.Logger {
	if l, ok := ml.loggers[category]; ok {
		return l
	}
	return zap.NewNop()
}

// Tee returns a logger that writes to base and to the given category files.
// The error file only receives error entries whatever the category list.
func (ml *MultiLogger) Tee(base *zap.Logger, categories ...LogCategory) *zap.Logger {
	cores := []zapcore.Core{base.Core()}
	for _, category := range categories {
		if l, ok := ml.loggers[category]; ok {
			cores = append(cores, l.Core())
		}
	}
	return base.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core {
		return zapcore.NewTee(cores...)
	}))
}

// Close flushes and closes every category file
func (ml *MultiLogger) Close() error {
	var result *multierror.Error
	for _, l := range ml.loggers {
		_ = l.Sync()
	}
	for _, f := range ml.files {
		if err := f.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
