package logging

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// prettyLogger writes one human-readable line per entry.
type prettyLogger struct {
	writer   io.Writer
	closer   io.Closer
	minLevel int
	mu       sync.Mutex
	now      func() time.Time
}

func (p *prettyLogger) log(level, component, msg string, fields ...any) {
	if levelPriority(level) < p.minLevel {
		return
	}
	p.writeLine(level, component, msg, pairs(fields))
}

func (p *prettyLogger) writeLine(level, component, msg string, fields map[string]any) {
	var b strings.Builder
	b.WriteString(p.now().Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(strings.ToUpper(level))
	b.WriteByte(' ')
	b.WriteString(component)
	b.WriteString(": ")
	b.WriteString(msg)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	b.WriteByte('\n')

	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.writer, b.String())
}

func (p *prettyLogger) Debug(component, msg string, fields ...any) {
	p.log(LevelDebug, component, msg, fields...)
}

func (p *prettyLogger) Info(component, msg string, fields ...any) {
	p.log(LevelInfo, component, msg, fields...)
}

func (p *prettyLogger) Warn(component, msg string, fields ...any) {
	p.log(LevelWarn, component, msg, fields...)
}

func (p *prettyLogger) Error(component, msg string, fields ...any) {
	p.log(LevelError, component, msg, fields...)
}

// Event lines are debug-level in pretty output.
func (p *prettyLogger) Event(ctx context.Context, event string, fields map[string]any) {
	if levelPriority(LevelDebug) < p.minLevel {
		return
	}
	p.writeLine(LevelDebug, "event", event, fields)
}

func (p *prettyLogger) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}
