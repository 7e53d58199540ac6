package ingest

import (
	"io"
	"log"
)

// Verbosity levels, as accepted by --verbose.
const (
	LogQuiet = iota
	LogIO
	LogParse
	LogDebug
)

// Logger gates log.Printf output by verbosity. A nil *Logger is silent.
type Logger struct {
	Level int
	l     *log.Logger
}

// NewLogger returns a logger writing to w at the given level.
func NewLogger(w io.Writer, level int) *Logger {
	return &Logger{Level: level, l: log.New(w, "tc: ", 0)}
}

// Printf logs when the logger's level is at least level.
func (lg *Logger) Printf(level int, format string, args ...any) {
	if lg == nil || lg.l == nil || lg.Level < level {
		return
	}
	lg.l.Printf(format, args...)
}
