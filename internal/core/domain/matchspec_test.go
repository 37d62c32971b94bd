package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestParseMatchSpec(t *testing.T) {
	tests := []struct {
		in   string
		want domain.MatchSpec
	}{
		{"numpy", domain.MatchSpec{Name: "numpy"}},
		{"numpy >=1.7,<2", domain.MatchSpec{Name: "numpy", Version: ">=1.7,<2"}},
		{"python 3.4* py34_0", domain.MatchSpec{Name: "python", Version: "3.4*", Build: "py34_0"}},
		{"  ", domain.MatchSpec{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := domain.ParseMatchSpec(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.String(), got.String())
		})
	}

	assert.Equal(t, "python 3.4* py34_0", domain.ParseMatchSpec("python   3.4*  py34_0").String())
}

func TestMatchSpec_Pinned(t *testing.T) {
	v, err := domain.NewVariant(
		domain.AxisValue{Axis: domain.AxisPython, Raw: "3.4"},
		domain.AxisValue{Axis: domain.AxisR, Raw: "3.1"},
	)
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"python", "python 3.4*"},
		{"r-base", "r-base 3.1*"},
		{"python >=2.7", "python >=2.7"},
		{"numpy", "numpy"},
		{"zlib", "zlib"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ParseMatchSpec(tt.in).Pinned(v).String())
		})
	}
}

func TestMatchSpec_Matches(t *testing.T) {
	rec := domain.PackageRecord{Name: "numpy", Version: "1.9.2", Build: "py34_0"}

	tests := []struct {
		spec string
		want bool
	}{
		{"numpy", true},
		{"scipy", false},
		{"numpy 1.9", true},
		{"numpy 1.9*", true},
		{"numpy 1.9.*", true},
		{"numpy 1.1", false},
		{"numpy 1.9.2", true},
		{"numpy >=1.7,<2", true},
		{"numpy >=1.10", false},
		{"numpy <1.7|>=1.9", true},
		{"numpy !=1.9.2", false},
		{"numpy ==1.9.2", true},
		{"numpy >1.9.1", true},
		{"numpy <=1.9.2", true},
		{"numpy 1.9* py34*", true},
		{"numpy 1.9* py27*", false},
		{"numpy 1.9.2 py34_0", true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ParseMatchSpec(tt.spec).Matches(rec))
		})
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.9", "1.10", -1},
		{"1.10", "1.9", 1},
		{"1.9", "1.9", 0},
		{"1.9", "1.9.0", -1},
		{"2.0a", "2.0b", -1},
		{"3", "2.99", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.CompareVersions(tt.a, tt.b))
		})
	}
}
