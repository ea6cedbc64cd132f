// Package version reports which propguard build made a decision, so logs,
// spans and receipts from different builds can be told apart.
package version

import (
	"runtime/debug"
	"strings"
)

var readBuildInfo = debug.ReadBuildInfo

// Info about the running binary. Revision is empty outside VCS builds.
type Info struct {
	Version   string
	Revision  string
	Modified  bool
	GoVersion string
}

// Read never fails; missing build info reads as a "dev" build.
func Read() Info {
	bi, ok := readBuildInfo()
	if !ok {
		return Info{Version: "dev"}
	}

	info := Info{Version: bi.Main.Version, GoVersion: bi.GoVersion}
	if info.Version == "" || info.Version == "(devel)" {
		info.Version = "dev"
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// BuildVersion is the module version, or "dev".
func BuildVersion() string {
	return Read().Version
}

// String like "v0.3.0 (rev 1a2b3c4d-dirty, go1.24.11)".
func (i Info) String() string {
	s := i.Version
	var details []string
	if i.Revision != "" {
		rev := i.Revision
		if len(rev) > 8 {
			rev = rev[:8]
		}
		if i.Modified {
			rev += "-dirty"
		}
		details = append(details, "rev "+rev)
	}
	if i.GoVersion != "" {
		details = append(details, i.GoVersion)
	}
	if len(details) > 0 {
		s += " (" + strings.Join(details, ", ") + ")"
	}
	return s
}
