package semver

import (
	"reflect"
	"testing"
)

func TestParse_ValidVersions(t *testing.T) {
	tests := []struct {
		in                  string
		major, minor, patch uint64
		pre, build          []string
	}{
		{"0.0.0", 0, 0, 0, nil, nil},
		{"1.2.3", 1, 2, 3, nil, nil},
		{"10.20.30", 10, 20, 30, nil, nil},
		{"1.0.0-alpha", 1, 0, 0, []string{"alpha"}, nil},
		{"1.0.0-alpha.1", 1, 0, 0, []string{"alpha", "1"}, nil},
		{"1.0.0-0.3.7", 1, 0, 0, []string{"0", "3", "7"}, nil},
		{"1.0.0+20130313144700", 1, 0, 0, nil, []string{"20130313144700"}},
		{"1.0.0+exp.sha.5114f85", 1, 0, 0, nil, []string{"exp", "sha", "5114f85"}},
		{"1.0.0-beta+exp.sha.5114f85", 1, 0, 0, []string{"beta"}, []string{"exp", "sha", "5114f85"}},
		{"1.2.3-alpha.1+build5", 1, 2, 3, []string{"alpha", "1"}, []string{"build5"}},
		{"1.0.0+001", 1, 0, 0, nil, []string{"001"}}, // leading zeros OK in build
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.in, err)
			}
			if !v.Valid() {
				t.Fatalf("Parse(%q) returned invalid version", tt.in)
			}
			if v.Major() != tt.major || v.Minor() != tt.minor || v.Patch() != tt.patch {
				t.Fatalf("Parse(%q) = %d.%d.%d, wanted %d.%d.%d", tt.in, v.Major(), v.Minor(), v.Patch(), tt.major, tt.minor, tt.patch)
			}
			if got := v.Prerelease(); !equalStrings(got, tt.pre) {
				t.Fatalf("Parse(%q).Prerelease() = %v, wanted %v", tt.in, got, tt.pre)
			}
			if got := v.Build(); !equalStrings(got, tt.build) {
				t.Fatalf("Parse(%q).Build() = %v, wanted %v", tt.in, got, tt.build)
			}
		})
	}
}

func TestParse_InvalidVersions(t *testing.T) {
	bad := []string{
		"",
		"1",
		"1.2",
		"1.2.3.4",
		"01.2.3",
		"1.02.3",
		"1.2.03",
		"a.b.c",
		"1.2.x",
		"1.2.3-",
		"1.2.3-01",
		"1.2.3-alpha..1",
		"1.2.3-alpha.",
		"1.2.3+",
		"1.2.3+build..5",
		"1.2.3-al pha",
		"1.2.3-al_pha",
		" 1.2.3",
		"1.2.3 ",
		"v1.2.3",
	}
	for _, s := range bad {
		if v, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) succeeded with %v, wanted error", s, v)
		}
	}
}

func TestString_RoundTrip(t *testing.T) {
	inputs := []string{
		"0.0.0",
		"1.2.3",
		"1.0.0-alpha",
		"1.0.0-alpha.1",
		"1.2.3-alpha.1+build5",
		"1.0.0+exp.sha.5114f85",
	}
	for _, s := range inputs {
		v, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", s, err)
		}
		if got := v.String(); got != s {
			t.Errorf("Parse(%q).String() = %q", s, got)
		}
		v2, err := Parse(v.String())
		if err != nil {
			t.Fatalf("re-Parse(%q) failed: %v", v.String(), err)
		}
		if !v.Equal(v2) {
			t.Errorf("Parse(String(Parse(%q))) not equal to original", s)
		}
	}
}

func TestString_Invalid(t *testing.T) {
	var zero Version
	if got := zero.String(); got != "" {
		t.Errorf("zero Version String() = %q, wanted empty", got)
	}
}

func TestEqual(t *testing.T) {
	a := MustParse("1.2.3")
	b := MustParse("1.2.3")
	if !a.Equal(b) {
		t.Errorf("1.2.3 should equal 1.2.3")
	}
	if a.Equal(MustParse("1.2.4")) {
		t.Errorf("1.2.3 should not equal 1.2.4")
	}
	if MustParse("1.0.0").Equal(MustParse("1.0.0-alpha")) {
		t.Errorf("1.0.0 should not equal 1.0.0-alpha")
	}

	// Build metadata ignored.
	if !MustParse("1.0.0+a").Equal(MustParse("1.0.0+b")) {
		t.Errorf("1.0.0+a should equal 1.0.0+b")
	}

	// Invalid versions never compare equal, even to themselves.
	var invalid Version
	if invalid.Equal(invalid) {
		t.Errorf("invalid versions must not compare equal")
	}
	if a.Equal(invalid) || invalid.Equal(a) {
		t.Errorf("valid and invalid versions must not compare equal")
	}
}

func TestLess_OrderingChain(t *testing.T) {
	// The canonical precedence chain from the semver spec.
	chain := []string{
		"1.0.0-alpha",
		"1.0.0-alpha.1",
		"1.0.0-alpha.beta",
		"1.0.0-beta",
		"1.0.0-beta.2",
		"1.0.0-beta.11",
		"1.0.0-rc.1",
		"1.0.0",
	}
	for i := 0; i < len(chain)-1; i++ {
		lo, hi := MustParse(chain[i]), MustParse(chain[i+1])
		if !lo.Less(hi) {
			t.Errorf("%s should be less than %s", chain[i], chain[i+1])
		}
		if hi.Less(lo) {
			t.Errorf("%s should not be less than %s", chain[i+1], chain[i])
		}
	}
}

func TestLess_CoreVersions(t *testing.T) {
	pairs := [][2]string{
		{"1.0.0", "2.0.0"},
		{"2.0.0", "2.1.0"},
		{"2.1.0", "2.1.1"},
		{"1.9.0", "1.10.0"}, // numeric, not lexical
	}
	for _, p := range pairs {
		if !MustParse(p[0]).Less(MustParse(p[1])) {
			t.Errorf("%s should be less than %s", p[0], p[1])
		}
	}
}

func TestLess_Invalid(t *testing.T) {
	var invalid Version
	v := MustParse("1.0.0")
	if invalid.Less(v) || v.Less(invalid) || invalid.Less(invalid) {
		t.Errorf("invalid versions must not be ordered")
	}
}

func TestCompare(t *testing.T) {
	if c := MustParse("1.0.0").Compare(MustParse("1.0.0+different")); c != 0 {
		t.Errorf("Compare ignoring build metadata = %d, wanted 0", c)
	}
	if c := MustParse("1.0.0-alpha").Compare(MustParse("1.0.0")); c != -1 {
		t.Errorf("Compare(1.0.0-alpha, 1.0.0) = %d, wanted -1", c)
	}
	defer func() {
		if recover() == nil {
			t.Errorf("Compare on invalid version should panic")
		}
	}()
	var invalid Version
	invalid.Compare(MustParse("1.0.0"))
}

func TestNew(t *testing.T) {
	v, err := New(1, 2, 3, []string{"alpha", "1"}, []string{"build5"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got, want := v.String(), "1.2.3-alpha.1+build5"; got != want {
		t.Errorf("New(...).String() = %q, wanted %q", got, want)
	}
	parsed := MustParse("1.2.3-alpha.1+build5")
	if !v.Equal(parsed) {
		t.Errorf("New and Parse should produce equal versions")
	}

	if _, err := New(1, 0, 0, []string{"01"}, nil); err == nil {
		t.Errorf("New should reject numeric pre-release identifier with leading zero")
	}
	if _, err := New(1, 0, 0, []string{"al pha"}, nil); err == nil {
		t.Errorf("New should reject invalid pre-release identifier")
	}
	if _, err := New(1, 0, 0, nil, []string{""}); err == nil {
		t.Errorf("New should reject empty build identifier")
	}
}

func TestPrerelease_Copies(t *testing.T) {
	v := MustParse("1.0.0-alpha.1")
	p := v.Prerelease()
	p[0] = "mutated"
	if got := v.Prerelease(); !reflect.DeepEqual(got, []string{"alpha", "1"}) {
		t.Errorf("Prerelease() must return a copy, got %v after mutation", got)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
