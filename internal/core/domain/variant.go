package domain

import "strings"

// AxisValue is one axis pinned to a single version.
type AxisValue struct {
	Axis    Axis
	Raw     string
	Encoded string
}

// Variant is the concrete set of pinned axes for one scheduler run.
// The zero value pins nothing.
type Variant struct {
	values []AxisValue
}

// NewVariant validates and pins the given values, in the order given.
func NewVariant(values ...AxisValue) (Variant, error) {
	var v Variant
	for _, av := range values {
		next, err := v.With(av.Axis, av.Raw)
		if err != nil {
			return Variant{}, err
		}
		v = next
	}
	return v, nil
}

// With returns a copy of v with axis pinned to raw.
// A previous value for the same axis is replaced.
func (v Variant) With(axis Axis, raw string) (Variant, error) {
	encoded, err := EncodeVersion(axis, raw)
	if err != nil {
		return Variant{}, err
	}

	values := make([]AxisValue, 0, len(v.values)+1)
	for _, av := range v.values {
		if av.Axis != axis {
			values = append(values, av)
		}
	}
	values = append(values, AxisValue{Axis: axis, Raw: raw, Encoded: encoded})
	return Variant{values: values}, nil
}

// Get returns the pinned value of axis.
func (v Variant) Get(axis Axis) (AxisValue, bool) {
	for _, av := range v.values {
		if av.Axis == axis {
			return av, true
		}
	}
	return AxisValue{}, false
}

// Values returns the pinned values.
func (v Variant) Values() []AxisValue {
	out := make([]AxisValue, len(v.values))
	copy(out, v.values)
	return out
}

// Env renders the variant as KEY=VALUE entries for the build environment.
func (v Variant) Env() []string {
	env := make([]string, 0, len(v.values))
	for _, av := range v.values {
		env = append(env, av.Axis.EnvKey()+"="+av.Encoded)
	}
	return env
}

// String renders the variant for progress messages, e.g. "python=3.4 numpy=1.9".
func (v Variant) String() string {
	if len(v.values) == 0 {
		return "default"
	}
	parts := make([]string, 0, len(v.values))
	for _, av := range v.values {
		parts = append(parts, string(av.Axis)+"="+av.Raw)
	}
	return strings.Join(parts, " ")
}
