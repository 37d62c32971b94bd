// Package matrix expands a build request over its version axes.
package matrix

import (
	"context"
	"fmt"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// RunFunc runs the scheduler for one variant.
type RunFunc func(ctx context.Context, variant domain.Variant) (domain.RunReport, error)

// Expand validates every requested axis value and returns the variants in
// run order: the product of the axes, first axis outermost. A request
// without axis values yields a single empty variant.
func Expand(req *domain.BuildRequest) ([]domain.Variant, error) {
	axes, values, err := resolve(req)
	if err != nil {
		return nil, err
	}

	variants := []domain.Variant{{}}
	for i, axis := range axes {
		next := make([]domain.Variant, 0, len(variants)*len(values[i]))
		for _, base := range variants {
			for _, raw := range values[i] {
				v, err := base.With(axis, raw)
				if err != nil {
					return nil, err
				}
				next = append(next, v)
			}
		}
		variants = next
	}
	return variants, nil
}

// Run expands req and calls fn once per variant, in order. Each call runs to
// completion before the next starts. The first error stops the expansion;
// reports of the variants that finished are still returned.
func Run(ctx context.Context, req *domain.BuildRequest, fn RunFunc) (domain.Summary, error) {
	var summary domain.Summary

	variants, err := Expand(req)
	if err != nil {
		return summary, err
	}

	for _, v := range variants {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		report, err := fn(ctx, v)
		if err != nil {
			return summary, err
		}
		summary.Add(report)
	}
	return summary, nil
}

// resolve returns the requested axes in expansion order with "all" replaced
// by the known enumeration and duplicates removed. Every value is encoded
// once so that a bad value fails before the first run.
func resolve(req *domain.BuildRequest) ([]domain.Axis, [][]string, error) {
	var (
		axes   []domain.Axis
		values [][]string
	)
	for _, axis := range domain.Axes() {
		requested := req.Versions[axis]
		if len(requested) == 0 {
			continue
		}

		var expanded []string
		for _, raw := range requested {
			if raw != domain.AllVersions {
				expanded = append(expanded, raw)
				continue
			}
			known := req.Known(axis)
			if len(known) == 0 {
				return nil, nil, zerr.With(
					zerr.Wrap(domain.ErrAllNotSupported, fmt.Sprintf("'all' is not supported for --%s", axis)),
					"axis", string(axis),
				)
			}
			expanded = append(expanded, known...)
		}

		deduped := make([]string, 0, len(expanded))
		for _, raw := range expanded {
			if _, err := domain.EncodeVersion(axis, raw); err != nil {
				return nil, nil, err
			}
			if !slices.Contains(deduped, raw) {
				deduped = append(deduped, raw)
			}
		}

		axes = append(axes, axis)
		values = append(values, deduped)
	}
	return axes, values, nil
}
