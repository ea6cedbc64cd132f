package profile

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/propguard/propguard/internal/identity"
	"gopkg.in/yaml.v3"
)

//go:embed table/*.yaml
var tableFS embed.FS

const defaultTablePath = "table/default.yaml"

// tableFile is the YAML layout of a policy table
type tableFile struct {
	Name       string                       `yaml:"name"`
	Profiles   map[string]map[string]string `yaml:"profiles"`
	Generic    string                       `yaml:"generic"`
	Excluded   []string                     `yaml:"excluded"`
	Legacy     legacyFile                   `yaml:"legacy"`
	Keep       []string                     `yaml:"keep"`
	Camera     predicateFile                `yaml:"camera"`
	Google     googleFile                   `yaml:"google"`
	Groups     []groupFile                  `yaml:"groups"`
	Exceptions map[string][]string          `yaml:"exceptions"`
	Overrides  overridesFile                `yaml:"overrides"`
}

type predicateFile struct {
	Match    string   `yaml:"match"`
	Packages []string `yaml:"packages"`
}

type legacyFile struct {
	ServicePackage    string   `yaml:"service_package"`
	InstallVerifier   string   `yaml:"install_verifier"`
	Match             string   `yaml:"match"`
	ProcessMarkers    []string `yaml:"process_markers"`
	Profile           string   `yaml:"profile"`
	InitialSDK        int      `yaml:"initial_sdk"`
	SensitiveActivity string   `yaml:"sensitive_activity"`
	IntegrityFrame    string   `yaml:"integrity_frame"`
}

type googleFile struct {
	Match             string   `yaml:"match"`
	Extra             []string `yaml:"extra"`
	PhotosPackage     string   `yaml:"photos_package"`
	PhotosProfile     string   `yaml:"photos_profile"`
	Pixel7ProProfile  string   `yaml:"pixel7pro_profile"`
	Pixel7ProPackages []string `yaml:"pixel7pro_packages"`
	DefaultProfile    string   `yaml:"default_profile"`
	PixelCodenames    []string `yaml:"pixel_codenames"`
}

type groupFile struct {
	Profile  string   `yaml:"profile"`
	Packages []string `yaml:"packages"`
}

type overridesFile struct {
	RealIncrementalFingerprint []string `yaml:"real_incremental_fingerprint"`
	AlternateModel             []string `yaml:"alternate_model"`
}

// Legacy configures the legacy-identity path for the core host service.
type Legacy struct {
	ServicePackage    string
	InstallVerifier   string
	Packages          *Predicate
	ProcessMarkers    []string
	Profile           Profile
	InitialSDK        int
	SensitiveActivity string
	IntegrityFrame    string
}

// MatchesProcess reports whether processName contains one of the markers,
// ignoring case.
func (l Legacy) MatchesProcess(processName string) bool {
	lower := strings.ToLower(processName)
	for _, m := range l.ProcessMarkers {
		if strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// Group is one package set bound to a profile.
type Group struct {
	Profile  Profile
	Packages *Predicate
}

type google struct {
	packages          *Predicate
	photosPackage     string
	photosProfile     Profile
	pixel7ProProfile  Profile
	pixel7ProPackages map[string]struct{}
	defaultProfile    Profile
	pixelCodenames    map[string]struct{}
}

// Table is the immutable policy table.
type Table struct {
	Name    string
	Generic Profile
	Legacy  Legacy

	profiles   map[string]Profile
	excluded   map[string]struct{}
	keep       map[string]struct{}
	camera     *Predicate
	google     google
	groups     []Group
	exceptions map[string]map[identity.Key]struct{}
	realIncr   map[string]struct{}
	altModel   map[string]struct{}
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the embedded table, parsed once.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		data, err := tableFS.ReadFile(defaultTablePath)
		if err != nil {
			defaultErr = fmt.Errorf("failed to read embedded table: %w", err)
			return
		}
		defaultTable, defaultErr = Parse(data)
	})
	return defaultTable, defaultErr
}

// MustDefault returns the default table or panics (for tests)
func MustDefault() *Table {
	t, err := Default()
	if err != nil {
		panic(fmt.Sprintf("default table: %v", err))
	}
	return t
}

// LoadFile reads a table from disk
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read table file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and compiles a YAML table.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse table: %w", err)
	}
	return compile(&f)
}

func compile(f *tableFile) (*Table, error) {
	env, err := newEnv()
	if err != nil {
		return nil, err
	}

	t := &Table{
		Name:       f.Name,
		profiles:   make(map[string]Profile, len(f.Profiles)),
		excluded:   toSet(f.Excluded),
		keep:       toSet(f.Keep),
		exceptions: make(map[string]map[identity.Key]struct{}, len(f.Exceptions)),
		realIncr:   toSet(f.Overrides.RealIncrementalFingerprint),
		altModel:   toSet(f.Overrides.AlternateModel),
	}

	for name, raw := range f.Profiles {
		p, err := NewProfile(name, raw)
		if err != nil {
			return nil, err
		}
		t.profiles[name] = p
	}

	lookup := func(name string) (Profile, error) {
		p, ok := t.profiles[name]
		if !ok {
			return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
		}
		return p, nil
	}

	if t.Generic, err = lookup(f.Generic); err != nil {
		return nil, fmt.Errorf("generic: %w", err)
	}

	// legacy
	legacyPkgs, err := compilePredicate(env, f.Legacy.Match, nil)
	if err != nil {
		return nil, fmt.Errorf("legacy: %w", err)
	}
	legacyProfile, err := lookup(f.Legacy.Profile)
	if err != nil {
		return nil, fmt.Errorf("legacy: %w", err)
	}
	t.Legacy = Legacy{
		ServicePackage:    f.Legacy.ServicePackage,
		InstallVerifier:   f.Legacy.InstallVerifier,
		Packages:          legacyPkgs,
		ProcessMarkers:    f.Legacy.ProcessMarkers,
		Profile:           legacyProfile,
		InitialSDK:        f.Legacy.InitialSDK,
		SensitiveActivity: f.Legacy.SensitiveActivity,
		IntegrityFrame:    f.Legacy.IntegrityFrame,
	}

	if t.camera, err = compilePredicate(env, f.Camera.Match, f.Camera.Packages); err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}

	// google / samsung branch
	g := google{
		photosPackage:     f.Google.PhotosPackage,
		pixel7ProPackages: toSet(f.Google.Pixel7ProPackages),
		pixelCodenames:    toSet(f.Google.PixelCodenames),
	}
	if g.packages, err = compilePredicate(env, f.Google.Match, f.Google.Extra); err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	if g.photosProfile, err = lookup(f.Google.PhotosProfile); err != nil {
		return nil, fmt.Errorf("google photos: %w", err)
	}
	if g.pixel7ProProfile, err = lookup(f.Google.Pixel7ProProfile); err != nil {
		return nil, fmt.Errorf("google pixel7pro: %w", err)
	}
	if g.defaultProfile, err = lookup(f.Google.DefaultProfile); err != nil {
		return nil, fmt.Errorf("google default: %w", err)
	}
	t.google = g

	for i, gf := range f.Groups {
		p, err := lookup(gf.Profile)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
		pred, err := compilePredicate(env, "", gf.Packages)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
		t.groups = append(t.groups, Group{Profile: p, Packages: pred})
	}

	for pkg, rawKeys := range f.Exceptions {
		keys := make(map[identity.Key]struct{}, len(rawKeys))
		for _, rk := range rawKeys {
			k, err := identity.ParseKey(rk)
			if err != nil {
				return nil, fmt.Errorf("exception for %q: %w", pkg, err)
			}
			keys[k] = struct{}{}
		}
		t.exceptions[pkg] = keys
	}

	return t, nil
}

// Profile by name
func (t *Table) Profile(name string) (Profile, bool) {
	p, ok := t.profiles[name]
	return p, ok
}

// ProfileNames sorted
func (t *Table) ProfileNames() []string {
	names := make([]string, 0, len(t.profiles))
	for name := range t.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Groups in priority order, after the google branch
func (t *Table) Groups() []Group {
	out := make([]Group, len(t.groups))
	copy(out, t.groups)
	return out
}

// IsExcluded reports packages that get only the generic overrides.
func (t *Table) IsExcluded(pkg string) bool {
	_, ok := t.excluded[pkg]
	return ok
}

// IsKept reports keep-list membership.
func (t *Table) IsKept(pkg string) bool {
	_, ok := t.keep[pkg]
	return ok
}

// KeepPackages sorted
func (t *Table) KeepPackages() []string {
	return setToSortedSlice(t.keep)
}

// IsCamera reports camera packages.
func (t *Table) IsCamera(pkg string) bool {
	return t.camera.Match(pkg)
}

// IsPhotos reports the photos package.
func (t *Table) IsPhotos(pkg string) bool {
	return pkg != "" && pkg == t.google.photosPackage
}

// IsPixelCodename reports whether codename names a genuine Pixel.
func (t *Table) IsPixelCodename(codename string) bool {
	_, ok := t.google.pixelCodenames[codename]
	return ok
}

// Excepted reports whether key k must be left untouched for pkg.
func (t *Table) Excepted(pkg string, k identity.Key) bool {
	keys, ok := t.exceptions[pkg]
	if !ok {
		return false
	}
	_, ok = keys[k]
	return ok
}

// UsesRealIncremental reports packages whose FINGERPRINT is rewritten to the
// real build-incremental after the profile.
func (t *Table) UsesRealIncremental(pkg string) bool {
	_, ok := t.realIncr[pkg]
	return ok
}

// UsesAlternateModel reports packages whose MODEL follows the configured
// alternate model string.
func (t *Table) UsesAlternateModel(pkg string) bool {
	_, ok := t.altModel[pkg]
	return ok
}

func setToSortedSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
