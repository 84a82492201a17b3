package catalog

import (
	"fmt"
	"math"

	"github.com/jaychia/coinmeme/internal/domain"
)

// Overlap describes a pair of slot boxes that intersect within one template.
type Overlap struct {
	Fields [2]string `json:"fields"`
	Area   float64   `json:"area"`
}

// AuditReport collects the layout issues found for a single template.
type AuditReport struct {
	Template    string    `json:"template"`
	OutOfBounds []string  `json:"out_of_bounds,omitempty"`
	Overlaps    []Overlap `json:"overlaps,omitempty"`
}

// Clean reports whether the template has no layout issues.
func (r *AuditReport) Clean() bool {
	return len(r.OutOfBounds) == 0 && len(r.Overlaps) == 0
}

// Audit checks every template's slot boxes for out-of-bounds edges and
// overlapping pairs. Overlap is a soft constraint: captions drawn into
// intersecting boxes become unreadable, so the CLI surfaces them.
// Parameters:
//   - templates: templates to audit.
//
// Returns:
//   - []AuditReport: one report per template that has at least one issue.
func Audit(templates []domain.Template) []AuditReport {
	var reports []AuditReport
	for _, t := range templates {
		report := AuditReport{Template: t.Name}

		for _, s := range t.Slots {
			left, top, right, bottom := s.Box.Edges()
			if left < 0 {
				report.OutOfBounds = append(report.OutOfBounds,
					fmt.Sprintf("%s: left edge at %.3f", s.Field, left))
			}
			if right > 1 {
				report.OutOfBounds = append(report.OutOfBounds,
					fmt.Sprintf("%s: right edge at %.3f", s.Field, right))
			}
			if top < 0 {
				report.OutOfBounds = append(report.OutOfBounds,
					fmt.Sprintf("%s: top edge at %.3f", s.Field, top))
			}
			if bottom > 1 {
				report.OutOfBounds = append(report.OutOfBounds,
					fmt.Sprintf("%s: bottom edge at %.3f", s.Field, bottom))
			}
		}

		for i := 0; i < len(t.Slots); i++ {
			for j := i + 1; j < len(t.Slots); j++ {
				a, b := t.Slots[i], t.Slots[j]
				if a.Box.Overlaps(b.Box) {
					report.Overlaps = append(report.Overlaps, Overlap{
						Fields: [2]string{a.Field, b.Field},
						Area:   a.Box.OverlapArea(b.Box),
					})
				}
			}
		}

		if !report.Clean() {
			reports = append(reports, report)
		}
	}
	return reports
}

const (
	// overlapPadding is the minimum normalized gap left between separated boxes.
	overlapPadding = 0.05
	// maxFixIterations bounds the separation passes so pathological layouts
	// terminate instead of oscillating.
	maxFixIterations = 20
)

// FixOverlaps returns a copy of the template with overlapping slot boxes
// pushed apart along the line connecting their centers, then clamped back
// into the 0-1 frame. Runs separation passes until no overlaps remain or the
// iteration bound is hit.
// Parameters:
//   - t: template to fix.
//
// Returns:
//   - domain.Template: template with adjusted slot boxes.
//   - bool: true if any box moved.
func FixOverlaps(t domain.Template) (domain.Template, bool) {
	if len(t.Slots) <= 1 {
		return t, false
	}

	fixed := t
	fixed.Slots = make([]domain.Slot, len(t.Slots))
	copy(fixed.Slots, t.Slots)

	moved := false
	for iter := 0; iter < maxFixIterations; iter++ {
		anyOverlap := false
		for i := 0; i < len(fixed.Slots); i++ {
			for j := i + 1; j < len(fixed.Slots); j++ {
				a := &fixed.Slots[i].Box
				b := &fixed.Slots[j].Box
				if !a.Overlaps(*b) {
					continue
				}
				anyOverlap = true
				moved = true

				dx := b.X - a.X
				dy := b.Y - a.Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist == 0 {
					// Same center: separate horizontally.
					dx, dy, dist = 1, 0, 1
				}
				dx /= dist
				dy /= dist

				minSeparation := (a.Width+b.Width)/2 + overlapPadding
				shift := (minSeparation - dist) / 2

				a.X -= dx * shift
				a.Y -= dy * shift
				b.X += dx * shift
				b.Y += dy * shift

				*a = a.Clamp()
				*b = b.Clamp()
			}
		}
		if !anyOverlap {
			break
		}
	}

	return fixed, moved
}
