// Package focus watches foreground activity changes and restarts the process
// when a sensitive screen gains or loses the top of the task stack.
package focus

import (
	"fmt"
	"strings"
)

// Component identifies an activity as package/class.
type Component struct {
	Package string
	Class   string
}

// ParseComponent accepts "pkg/cls" and the short form "pkg/.cls".
func ParseComponent(s string) (Component, error) {
	pkg, cls, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || pkg == "" || cls == "" {
		return Component{}, fmt.Errorf("invalid component name %q", s)
	}
	if strings.HasPrefix(cls, ".") {
		cls = pkg + cls
	}
	return Component{Package: pkg, Class: cls}, nil
}

// Flatten to the long "pkg/cls" form
func (c Component) Flatten() string {
	return c.Package + "/" + c.Class
}

// sameComponent compares two flattened names, tolerating either form.
func sameComponent(a string, want Component) bool {
	c, err := ParseComponent(a)
	if err != nil {
		return false
	}
	return c == want
}
