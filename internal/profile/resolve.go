package profile

// Branch names the rule that decided a package's profile.
type Branch string

const (
	BranchKeep         Branch = "keep"
	BranchCamera       Branch = "camera"
	BranchPhotos       Branch = "photos"
	BranchGenuinePixel Branch = "genuine_pixel"
	BranchGoogle       Branch = "google"
	BranchGroup        Branch = "group"
	BranchNone         Branch = "none"
)

// Resolution is the outcome of matching a package against the table.
type Resolution struct {
	Branch  Branch
	Profile *Profile
}

// Resolve picks the profile for pkg on a device with the given codename. The
// keep-list and camera predicate are checked first, then the google branch,
// then each group in order; the first match wins.
func (t *Table) Resolve(pkg, codename string) Resolution {
	if t.IsKept(pkg) {
		return Resolution{Branch: BranchKeep}
	}
	if t.IsCamera(pkg) {
		return Resolution{Branch: BranchCamera}
	}

	if t.google.packages.Match(pkg) {
		return t.resolveGoogle(pkg, codename)
	}

	for _, g := range t.groups {
		if g.Packages.Match(pkg) {
			p := g.Profile
			return Resolution{Branch: BranchGroup, Profile: &p}
		}
	}

	return Resolution{Branch: BranchNone}
}

func (t *Table) resolveGoogle(pkg, codename string) Resolution {
	g := t.google
	if pkg == g.photosPackage {
		p := g.photosProfile
		return Resolution{Branch: BranchPhotos, Profile: &p}
	}
	if t.IsPixelCodename(codename) {
		return Resolution{Branch: BranchGenuinePixel}
	}
	if _, ok := g.pixel7ProPackages[pkg]; ok {
		p := g.pixel7ProProfile
		return Resolution{Branch: BranchGoogle, Profile: &p}
	}
	p := g.defaultProfile
	return Resolution{Branch: BranchGoogle, Profile: &p}
}

// Overlap is a package listed under more than one rule.
type Overlap struct {
	Package string
	// Rules in priority order; the first one wins.
	Rules []string
}

// Lint reports packages claimed by more than one rule. Overlaps are legal.
func (t *Table) Lint() []Overlap {
	var candidates []string
	seen := make(map[string]struct{})
	add := func(pkgs []string) {
		for _, pkg := range pkgs {
			if _, ok := seen[pkg]; !ok {
				seen[pkg] = struct{}{}
				candidates = append(candidates, pkg)
			}
		}
	}
	add(t.google.packages.Packages())
	for _, g := range t.groups {
		add(g.Packages.Packages())
	}

	var overlaps []Overlap
	for _, pkg := range candidates {
		var rules []string
		if t.google.packages.Match(pkg) {
			rules = append(rules, "google")
		}
		for _, g := range t.groups {
			if g.Packages.Match(pkg) {
				rules = append(rules, g.Profile.Name)
			}
		}
		if len(rules) > 1 {
			overlaps = append(overlaps, Overlap{Package: pkg, Rules: rules})
		}
	}
	return overlaps
}
