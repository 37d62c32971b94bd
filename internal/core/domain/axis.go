package domain

import (
	"fmt"
	"strings"

	"go.trai.ch/zerr"
)

// AllVersions is the sentinel value that expands an axis to every known version.
const AllVersions = "all"

// Axis is a version dimension a recipe can be built against.
type Axis string

const (
	// AxisPython is the Python interpreter version.
	AxisPython Axis = "python"
	// AxisNumpy is the NumPy version.
	AxisNumpy Axis = "numpy"
	// AxisPerl is the Perl version.
	AxisPerl Axis = "perl"
	// AxisR is the R version.
	AxisR Axis = "R"
)

// Axes returns every axis in expansion order.
func Axes() []Axis {
	return []Axis{AxisPython, AxisNumpy, AxisPerl, AxisR}
}

// ParseAxis maps a name (as used in flags and kiln.yaml) to an Axis.
func ParseAxis(name string) (Axis, error) {
	for _, a := range Axes() {
		if strings.EqualFold(string(a), name) {
			return a, nil
		}
	}
	return "", zerr.With(zerr.Wrap(ErrUnknownAxis, "cannot parse axis"), "axis", name)
}

// EnvKey is the environment variable the encoded version is exported under.
func (a Axis) EnvKey() string {
	switch a {
	case AxisPython:
		return "CONDA_PY"
	case AxisNumpy:
		return "CONDA_NPY"
	case AxisPerl:
		return "CONDA_PERL"
	case AxisR:
		return "CONDA_R"
	default:
		return ""
	}
}

// PackageName is the package providing the axis' runtime.
func (a Axis) PackageName() string {
	if a == AxisR {
		return "r-base"
	}
	return string(a)
}

// TwoDigit reports whether values must encode to exactly major and minor digits.
func (a Axis) TwoDigit() bool {
	return a == AxisPython || a == AxisNumpy
}

// BuildTag is the prefix used in build strings for recipes requiring this axis.
func (a Axis) BuildTag() string {
	switch a {
	case AxisPython:
		return "py"
	case AxisNumpy:
		return "np"
	case AxisPerl:
		return "pl"
	case AxisR:
		return "r"
	default:
		return ""
	}
}

// DefaultKnownVersions returns the enumerations "all" expands to.
// Axes missing from the map have no enumeration.
func DefaultKnownVersions() map[Axis][]string {
	return map[Axis][]string{
		AxisPython: {"2.6", "2.7", "3.3", "3.4"},
		AxisNumpy:  {"1.6", "1.7", "1.8", "1.9"},
	}
}

// EncodeVersion strips the dots from value ("3.4" becomes "34") and checks
// the result is numeric. Two-digit axes reject any other width.
func EncodeVersion(a Axis, value string) (string, error) {
	encoded := strings.ReplaceAll(strings.TrimSpace(value), ".", "")
	if encoded == "" || strings.Trim(encoded, "0123456789") != "" {
		return "", zerr.With(
			zerr.Wrap(ErrInvalidAxisValue, fmt.Sprintf("%s must be numeric, not %q", a.EnvKey(), value)),
			"axis", string(a),
		)
	}

	// The value is a number: "03" is 3.
	if encoded = strings.TrimLeft(encoded, "0"); encoded == "" {
		encoded = "0"
	}

	if a.TwoDigit() && len(encoded) != 2 {
		msg := fmt.Sprintf("%s must be major.minor, not %s", a.EnvKey(), value)
		if known := DefaultKnownVersions()[a]; len(known) > 0 {
			msg = fmt.Sprintf("%s must be major.minor, like %s, not %s", a.EnvKey(), known[len(known)-1], value)
		}
		return "", zerr.With(zerr.Wrap(ErrInvalidAxisValue, msg), "axis", string(a))
	}

	return encoded, nil
}
