package profile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/propguard/propguard/internal/identity"
)

func TestDefaultTableLoads(t *testing.T) {
	table, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}

	want := []string{
		"F4", "Generic", "LegacyWalleye", "MI11T", "Mi13pCN", "OP8P",
		"OP9R", "Pixel5", "Pixel7Pro", "PixelXL", "ROG6", "XP5",
	}
	got := table.ProfileNames()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ProfileNames() = %v, want %v", got, want)
	}

	if table.Generic.Name != "Generic" {
		t.Errorf("generic profile = %q, want Generic", table.Generic.Name)
	}
	if v, _ := table.Generic.Value(identity.KeyType); v != "user" {
		t.Errorf("generic TYPE = %q, want user", v)
	}
	if v, _ := table.Generic.Value(identity.KeyTags); v != "release-keys" {
		t.Errorf("generic TAGS = %q, want release-keys", v)
	}
}

func TestDefaultTableIsCached(t *testing.T) {
	a := MustDefault()
	b := MustDefault()
	if a != b {
		t.Error("Default() should return the same table on every call")
	}
}

func TestResolve(t *testing.T) {
	table := MustDefault()

	tests := []struct {
		pkg      string
		codename string
		branch   Branch
		profile  string
	}{
		{"com.google.android.apps.photos", "redfin", BranchPhotos, "PixelXL"},
		{"com.google.android.apps.photos", "generic", BranchPhotos, "PixelXL"},
		{"com.google.android.apps.maps", "redfin", BranchGenuinePixel, ""},
		{"com.google.android.apps.maps", "generic", BranchGoogle, "Pixel5"},
		{"com.samsung.android.app.notes", "generic", BranchGoogle, "Pixel5"},
		{"com.google.android.apps.wallpaper", "generic", BranchGoogle, "Pixel7Pro"},
		{"com.netflix.mediaclient", "generic", BranchGoogle, "Pixel5"},
		{"com.android.chrome", "generic", BranchGoogle, "Pixel5"},
		{"com.google.android.euicc", "generic", BranchKeep, ""},
		{"com.google.android.gms", "generic", BranchKeep, ""},
		{"com.google.android.GoogleCameraEng", "generic", BranchCamera, ""},
		{"com.google.android.apps.cameralite", "generic", BranchCamera, ""},
		{"com.tencent.tmgp.sgame", "generic", BranchGroup, "Mi13pCN"},
		{"com.ea.gp.fifamobile", "generic", BranchGroup, "ROG6"},
		{"com.garena.game.codm", "generic", BranchGroup, "XP5"},
		{"com.pubg.imobile", "generic", BranchGroup, "OP8P"},
		{"com.mobile.legends", "generic", BranchGroup, "MI11T"},
		{"com.epicgames.fortnite", "generic", BranchGroup, "OP9R"},
		{"com.dts.freefireth", "generic", BranchGroup, "F4"},
		{"org.example.app", "generic", BranchNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.pkg+"@"+tt.codename, func(t *testing.T) {
			res := table.Resolve(tt.pkg, tt.codename)
			if res.Branch != tt.branch {
				t.Errorf("branch = %q, want %q", res.Branch, tt.branch)
			}
			got := ""
			if res.Profile != nil {
				got = res.Profile.Name
			}
			if got != tt.profile {
				t.Errorf("profile = %q, want %q", got, tt.profile)
			}
		})
	}
}

func TestResolveFirstGroupWins(t *testing.T) {
	table := MustDefault()

	// listed under both OP8P and OP9R
	res := table.Resolve("com.epicgames.portal", "generic")
	if res.Profile == nil || res.Profile.Name != "OP8P" {
		t.Fatalf("com.epicgames.portal resolved to %+v, want OP8P", res.Profile)
	}
}

func TestLintReportsOverlaps(t *testing.T) {
	overlaps := MustDefault().Lint()
	if len(overlaps) != 1 {
		t.Fatalf("expected 1 overlap, got %d: %+v", len(overlaps), overlaps)
	}
	o := overlaps[0]
	if o.Package != "com.epicgames.portal" {
		t.Errorf("overlap package = %q", o.Package)
	}
	if strings.Join(o.Rules, ",") != "OP8P,OP9R" {
		t.Errorf("overlap rules = %v, want [OP8P OP9R]", o.Rules)
	}
}

func TestLegacyMatching(t *testing.T) {
	legacy := MustDefault().Legacy

	pkgs := []struct {
		pkg  string
		want bool
	}{
		{"com.google.android.gms", true},
		{"com.example.androidx.test.runner", true},
		{"com.example.AndroidX.Test", true},
		{"com.google.android.apps.restore", true},
		{"COM.GOOGLE.ANDROID.APPS.RESTORE", true},
		{"com.google.android.gsf", false},
		{"", false},
	}
	for _, tt := range pkgs {
		if got := legacy.Packages.Match(tt.pkg); got != tt.want {
			t.Errorf("Packages.Match(%q) = %v, want %v", tt.pkg, got, tt.want)
		}
	}

	procs := []struct {
		proc string
		want bool
	}{
		{"com.google.android.gms.unstable", true},
		{"com.google.android.gms.UNSTABLE", true},
		{"com.google.android.apps.restore:PixelMigrate", true},
		{"androidx.test.instrumentation", true},
		{"com.google.android.gms.persistent", false},
	}
	for _, tt := range procs {
		if got := legacy.MatchesProcess(tt.proc); got != tt.want {
			t.Errorf("MatchesProcess(%q) = %v, want %v", tt.proc, got, tt.want)
		}
	}

	if legacy.Profile.Name != "LegacyWalleye" {
		t.Errorf("legacy profile = %q", legacy.Profile.Name)
	}
	if legacy.InitialSDK != 26 {
		t.Errorf("legacy initial sdk = %d, want 26", legacy.InitialSDK)
	}
}

func TestExceptions(t *testing.T) {
	table := MustDefault()
	pkg := "com.google.android.settings.intelligence"

	if !table.Excepted(pkg, identity.KeyFingerprint) {
		t.Error("FINGERPRINT should be excepted for settings intelligence")
	}
	if table.Excepted(pkg, identity.KeyModel) {
		t.Error("MODEL should not be excepted for settings intelligence")
	}
	if table.Excepted("com.google.android.apps.maps", identity.KeyFingerprint) {
		t.Error("no exception expected for maps")
	}
	if !table.UsesRealIncremental(pkg) {
		t.Error("settings intelligence should use the real incremental")
	}
	if !table.UsesAlternateModel("com.netflix.mediaclient") {
		t.Error("netflix should use the alternate model")
	}
}

func TestParseRejectsBadTables(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "unknown generic profile",
			yaml:    "generic: Missing\n",
			wantErr: ErrUnknownProfile,
		},
		{
			name: "unknown attribute key",
			yaml: `profiles:
  Generic:
    COLOR: red
generic: Generic
`,
			wantErr: identity.ErrUnknownKey,
		},
		{
			name: "group references unknown profile",
			yaml: `profiles:
  Generic: {TYPE: user}
generic: Generic
legacy: {profile: Generic}
google: {photos_profile: Generic, pixel7pro_profile: Generic, default_profile: Generic}
groups:
  - profile: Nope
    packages: [a.b]
`,
			wantErr: ErrUnknownProfile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseRejectsNonBoolPredicate(t *testing.T) {
	yaml := `profiles:
  Generic: {TYPE: user}
generic: Generic
legacy: {profile: Generic, match: 'pkg + "x"'}
`
	if _, err := Parse([]byte(yaml)); err == nil {
		t.Fatal("expected error for non-boolean predicate")
	}
}

func TestLoadFile(t *testing.T) {
	data, err := tableFS.ReadFile(defaultTablePath)
	if err != nil {
		t.Fatalf("read embedded table: %v", err)
	}
	path := filepath.Join(t.TempDir(), "table.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write table: %v", err)
	}

	table, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if table.Name != "default" {
		t.Errorf("Name = %q, want default", table.Name)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
