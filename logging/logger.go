package logging

import (
	"io"
	"os"
	"strings"

	"github.com/kataras/golog"
)

// Logger is the leveled printf-style logger passed to every component.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

// GologLogger implements Logger on top of kataras/golog.
type GologLogger struct {
	logger *golog.Logger
}

var _ Logger = (*GologLogger)(nil)

// New creates a logger writing to out at the named level
// (debug, info, warn, error or disable). Unknown names fall back to info.
func New(level string, out io.Writer) *GologLogger {
	if out == nil {
		out = os.Stderr
	}
	l := golog.New()
	l.SetOutput(out)
	l.SetTimeFormat("2006-01-02 15:04:05")
	l.SetLevel(normalizeLevel(level))
	return &GologLogger{logger: l}
}

// Nop returns a logger that discards everything.
func Nop() *GologLogger {
	return New("disable", io.Discard)
}

func normalizeLevel(level string) string {
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case "debug", "info", "warn", "error", "disable":
		return l
	case "warning":
		return "warn"
	case "none", "off":
		return "disable"
	default:
		return "info"
	}
}

func (l *GologLogger) Debug(format string, v ...any) { l.logger.Debugf(format, v...) }

func (l *GologLogger) Info(format string, v ...any) { l.logger.Infof(format, v...) }

func (l *GologLogger) Warn(format string, v ...any) { l.logger.Warnf(format, v...) }

func (l *GologLogger) Error(format string, v ...any) { l.logger.Errorf(format, v...) }
