package ruby

import (
	"fmt"
	"io"
	"log"
)

// TraceLevel defines the verbosity of a Tracer.
type TraceLevel int

const (
	TraceError TraceLevel = iota
	TraceWarn
	TraceInfo
	TraceDebug
)

// Tracer is a leveled protocol trace. A nil Tracer discards everything.
type Tracer struct {
	level  TraceLevel
	logger *log.Logger
}

// NewTracer writes records at or below level to w.
func NewTracer(w io.Writer, level TraceLevel, prefix string) *Tracer {
	return &Tracer{
		level:  level,
		logger: log.New(w, prefix, 0),
	}
}

func (t *Tracer) SetLevel(level TraceLevel) {
	if t == nil {
		return
	}
	t.level = level
}

func (t *Tracer) logf(target TraceLevel, format string, args ...any) {
	if t == nil || target > t.level {
		return
	}
	t.logger.Output(3, fmt.Sprintf(format, args...))
}

func (t *Tracer) Debugf(format string, args ...any) { t.logf(TraceDebug, format, args...) }
func (t *Tracer) Infof(format string, args ...any)  { t.logf(TraceInfo, format, args...) }
func (t *Tracer) Warnf(format string, args ...any)  { t.logf(TraceWarn, format, args...) }
func (t *Tracer) Errorf(format string, args ...any) { t.logf(TraceError, format, args...) }
