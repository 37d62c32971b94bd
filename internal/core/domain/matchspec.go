package domain

import (
	"strconv"
	"strings"
)

// MatchSpec is a parsed requirement such as "numpy >=1.7,<2" or "python 3.4*".
type MatchSpec struct {
	Name    string
	Version string
	Build   string
}

// ParseMatchSpec splits a requirement into name, version constraint and build.
func ParseMatchSpec(spec string) MatchSpec {
	fields := strings.Fields(spec)
	var ms MatchSpec
	if len(fields) > 0 {
		ms.Name = fields[0]
	}
	if len(fields) > 1 {
		ms.Version = fields[1]
	}
	if len(fields) > 2 {
		ms.Build = fields[2]
	}
	return ms
}

// String renders the spec in its space separated form.
func (ms MatchSpec) String() string {
	parts := []string{ms.Name}
	if ms.Version != "" {
		parts = append(parts, ms.Version)
	}
	if ms.Build != "" {
		parts = append(parts, ms.Build)
	}
	return strings.Join(parts, " ")
}

// Pinned constrains an unversioned requirement on an axis package to the
// variant's value, e.g. "python" becomes "python 3.4*" under python=3.4.
func (ms MatchSpec) Pinned(v Variant) MatchSpec {
	if ms.Version != "" {
		return ms
	}
	for _, axis := range Axes() {
		if ms.Name != axis.PackageName() {
			continue
		}
		if av, ok := v.Get(axis); ok {
			ms.Version = av.Raw + "*"
		}
	}
	return ms
}

// Matches reports whether a package record satisfies the spec.
func (ms MatchSpec) Matches(rec PackageRecord) bool {
	if rec.Name != ms.Name {
		return false
	}
	if ms.Build != "" && !globMatch(ms.Build, rec.Build) {
		return false
	}
	if ms.Version == "" {
		return true
	}

	// "|" separates alternatives, "," joins clauses that must all hold.
	for alt := range strings.SplitSeq(ms.Version, "|") {
		if matchAll(alt, rec.Version) {
			return true
		}
	}
	return false
}

func matchAll(constraint, version string) bool {
	for clause := range strings.SplitSeq(constraint, ",") {
		if !matchClause(strings.TrimSpace(clause), version) {
			return false
		}
	}
	return true
}

func matchClause(clause, version string) bool {
	for _, op := range []string{">=", "<=", "==", "!=", ">", "<"} {
		want, ok := strings.CutPrefix(clause, op)
		if !ok {
			continue
		}
		cmp := CompareVersions(version, want)
		switch op {
		case ">=":
			return cmp >= 0
		case "<=":
			return cmp <= 0
		case "==":
			return cmp == 0
		case "!=":
			return cmp != 0
		case ">":
			return cmp > 0
		default:
			return cmp < 0
		}
	}

	if prefix, ok := strings.CutSuffix(clause, "*"); ok {
		prefix = strings.TrimSuffix(prefix, ".")
		return version == prefix || strings.HasPrefix(version, prefix+".")
	}
	return version == clause || strings.HasPrefix(version, clause+".")
}

// CompareVersions compares dotted versions segment by segment, numerically
// where both segments are numbers.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := range max(len(as), len(bs)) {
		var x, y string
		if i < len(as) {
			x = as[i]
		}
		if i < len(bs) {
			y = bs[i]
		}
		if c := compareSegment(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func compareSegment(x, y string) int {
	xi, xErr := strconv.Atoi(x)
	yi, yErr := strconv.Atoi(y)
	switch {
	case x == y:
		return 0
	case x == "":
		return -1
	case y == "":
		return 1
	case xErr == nil && yErr == nil:
		if xi < yi {
			return -1
		}
		if xi > yi {
			return 1
		}
		return 0
	case x < y:
		return -1
	default:
		return 1
	}
}

func globMatch(pattern, s string) bool {
	prefix, ok := strings.CutSuffix(pattern, "*")
	if !ok {
		return pattern == s
	}
	return strings.HasPrefix(s, prefix)
}
