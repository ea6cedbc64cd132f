package attest

import (
	"runtime"
	"strings"
)

const initialFrames = 64

// Frames are fully-qualified function names, innermost first.
type Frames []string

// CallerFrames captures the calling goroutine's whole stack, skipping skip
// frames above the caller of CallerFrames.
func CallerFrames(skip int) Frames {
	pcs := make([]uintptr, initialFrames)
	n := runtime.Callers(skip+2, pcs)
	// a full buffer may have truncated the outer callers
	for n == len(pcs) {
		pcs = make([]uintptr, 2*len(pcs))
		n = runtime.Callers(skip+2, pcs)
	}
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	var out Frames
	for {
		f, more := frames.Next()
		out = append(out, f.Function)
		if !more {
			break
		}
	}
	return out
}

// Contains reports whether any frame name contains marker.
func (f Frames) Contains(marker string) bool {
	if marker == "" {
		return false
	}
	for _, name := range f {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
