// Package semver parses and compares semantic version strings
// (MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD] per semver.org).
//
// A zero Version is invalid. Invalid versions never compare equal
// or ordered to anything, including other invalid versions. Build
// metadata never participates in precedence.
package semver

import (
	"fmt"
	"strconv"
	"strings"
)

type Version struct {
	major uint64
	minor uint64
	patch uint64
	pre   []string
	build []string
	valid bool
}

func (v Version) Valid() bool   { return v.valid }
func (v Version) Major() uint64 { return v.major }
func (v Version) Minor() uint64 { return v.minor }
func (v Version) Patch() uint64 { return v.patch }
func (v Version) Prerelease() []string {
	return append([]string(nil), v.pre...)
}
func (v Version) Build() []string {
	return append([]string(nil), v.build...)
}
func (v Version) HasPrerelease() bool { return len(v.pre) > 0 }
func (v Version) HasBuild() bool      { return len(v.build) > 0 }

// Parse parses a semantic version string.
func Parse(s string) (Version, error) {
	var v Version
	if s == "" {
		return v, fmt.Errorf("semver: empty version string")
	}

	rest := s
	core := rest
	if i := strings.IndexAny(rest, "-+"); i >= 0 {
		core = rest[:i]
	}
	rest = rest[len(core):]

	comps := strings.Split(core, ".")
	if len(comps) != 3 {
		return v, fmt.Errorf("semver: %q: expected MAJOR.MINOR.PATCH", s)
	}
	nums := make([]uint64, 3)
	for i, comp := range comps {
		if !isNumeric(comp) {
			return v, fmt.Errorf("semver: %q: MAJOR, MINOR and PATCH must be numeric", s)
		}
		if len(comp) > 1 && comp[0] == '0' {
			return v, fmt.Errorf("semver: %q: version numbers must not have leading zeros", s)
		}
		n, err := strconv.ParseUint(comp, 10, 64)
		if err != nil {
			return v, fmt.Errorf("semver: %q: version number out of range", s)
		}
		nums[i] = n
	}

	var pre []string
	if strings.HasPrefix(rest, "-") {
		preStr := rest[1:]
		if i := strings.IndexByte(preStr, '+'); i >= 0 {
			preStr = preStr[:i]
		}
		rest = rest[1+len(preStr):]
		for _, id := range strings.Split(preStr, ".") {
			if !isIdentifier(id) {
				return v, fmt.Errorf("semver: %q: invalid pre-release identifier %q", s, id)
			}
			if isNumeric(id) && len(id) > 1 && id[0] == '0' {
				return v, fmt.Errorf("semver: %q: numeric pre-release identifiers must not have leading zeros", s)
			}
			pre = append(pre, id)
		}
	}

	var build []string
	if strings.HasPrefix(rest, "+") {
		for _, id := range strings.Split(rest[1:], ".") {
			if !isIdentifier(id) {
				return v, fmt.Errorf("semver: %q: invalid build metadata identifier %q", s, id)
			}
			build = append(build, id)
		}
		rest = ""
	}
	if rest != "" {
		return v, fmt.Errorf("semver: %q: unexpected trailing characters", s)
	}

	return Version{
		major: nums[0],
		minor: nums[1],
		patch: nums[2],
		pre:   pre,
		build: build,
		valid: true,
	}, nil
}

// MustParse is like Parse but panics on invalid input. Intended for constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// New builds a Version from components, validating identifiers the same way
// Parse does.
func New(major, minor, patch uint64, pre, build []string) (Version, error) {
	var v Version
	for _, id := range pre {
		if !isIdentifier(id) {
			return v, fmt.Errorf("semver: invalid pre-release identifier %q", id)
		}
		if isNumeric(id) && len(id) > 1 && id[0] == '0' {
			return v, fmt.Errorf("semver: numeric pre-release identifier %q has a leading zero", id)
		}
	}
	for _, id := range build {
		if !isIdentifier(id) {
			return v, fmt.Errorf("semver: invalid build metadata identifier %q", id)
		}
	}
	return Version{
		major: major,
		minor: minor,
		patch: patch,
		pre:   append([]string(nil), pre...),
		build: append([]string(nil), build...),
		valid: true,
	}, nil
}

// String renders the canonical form, the exact inverse of a successful Parse.
// Invalid versions render as an empty string.
func (v Version) String() string {
	if !v.valid {
		return ""
	}
	var buf strings.Builder
	fmt.Fprintf(&buf, "%d.%d.%d", v.major, v.minor, v.patch)
	for i, id := range v.pre {
		if i == 0 {
			buf.WriteByte('-')
		} else {
			buf.WriteByte('.')
		}
		buf.WriteString(id)
	}
	for i, id := range v.build {
		if i == 0 {
			buf.WriteByte('+')
		} else {
			buf.WriteByte('.')
		}
		buf.WriteString(id)
	}
	return buf.String()
}

// Equal reports semver precedence equality. Build metadata is ignored.
// Returns false if either version is invalid.
func (v Version) Equal(o Version) bool {
	if !v.valid || !o.valid {
		return false
	}
	if v.major != o.major || v.minor != o.minor || v.patch != o.patch {
		return false
	}
	if len(v.pre) != len(o.pre) {
		return false
	}
	for i := range v.pre {
		if v.pre[i] != o.pre[i] {
			return false
		}
	}
	return true
}

// Less reports whether v has lower precedence than o.
// Returns false if either version is invalid.
func (v Version) Less(o Version) bool {
	if !v.valid || !o.valid {
		return false
	}
	return v.compare(o) < 0
}

// Compare returns -1, 0 or 1 by semver precedence. Both versions must be
// valid; comparing an invalid version panics (invalid versions have no order).
func (v Version) Compare(o Version) int {
	if !v.valid || !o.valid {
		panic("semver: Compare on invalid version")
	}
	return v.compare(o)
}

func (v Version) compare(o Version) int {
	if c := cmpUint(v.major, o.major); c != 0 {
		return c
	}
	if c := cmpUint(v.minor, o.minor); c != 0 {
		return c
	}
	if c := cmpUint(v.patch, o.patch); c != 0 {
		return c
	}
	return comparePrerelease(v.pre, o.pre)
}

func comparePrerelease(a, b []string) int {
	// No pre-release outranks any pre-release.
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	if len(a) == 0 {
		return 1
	}
	if len(b) == 0 {
		return -1
	}
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		l, r := a[i], b[i]
		lNum, rNum := isNumeric(l), isNumeric(r)
		switch {
		case lNum && rNum:
			lv, _ := strconv.ParseUint(l, 10, 64)
			rv, _ := strconv.ParseUint(r, 10, 64)
			if c := cmpUint(lv, rv); c != 0 {
				return c
			}
		case lNum:
			return -1 // numeric ranks below alphanumeric
		case rNum:
			return 1
		default:
			if l != r {
				if l < r {
					return -1
				}
				return 1
			}
		}
	}
	// All shared identifiers equal; fewer identifiers ranks lower.
	return cmpUint(uint64(len(a)), uint64(len(b)))
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		ok := c == '-' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !ok {
			return false
		}
	}
	return true
}
