// Package geometry computes glyph placement for directed typing: each new
// glyph steps a fixed distance from the line's current tail toward the
// participant's live target point. All functions are pure.
package geometry

import (
	"math"

	"github.com/starford/laguz/internal/models"
)

// Default policy values.
const (
	// DefaultSpacing is the distance, in canvas units, between consecutive
	// glyph offsets along a line.
	DefaultSpacing = 12.0

	// DefaultSnapTolerance is the maximum deviation from horizontal, in
	// radians, at which the step direction snaps to exactly 0 or pi.
	DefaultSnapTolerance = 0.35

	// DefaultArrowStep is how far a single arrow-key press moves the target.
	DefaultArrowStep = 24.0
)

// Policy bundles the spacing constants that shape glyph placement.
type Policy struct {
	// Spacing is the fixed step length between consecutive glyphs.
	Spacing float64
	// SnapHorizontal rounds near-horizontal step angles to exactly 0 or pi,
	// producing straight runs when the participant types roughly sideways.
	SnapHorizontal bool
	// SnapTolerance is the angular window, in radians, for SnapHorizontal.
	SnapTolerance float64
}

// DefaultPolicy returns the standard placement policy with horizontal
// snapping enabled.
func DefaultPolicy() Policy {
	return Policy{
		Spacing:        DefaultSpacing,
		SnapHorizontal: true,
		SnapTolerance:  DefaultSnapTolerance,
	}
}

// NextGlyphOffset returns the line-relative offset for the next glyph.
//
// tail is the offset of the line's current last glyph, origin the line's
// world-space origin, and target the point glyphs flow toward. When first
// is true the result is always the line origin itself, offset (0,0).
//
// The second return value is false when the world-space distance from the
// tail to the target is below p.Spacing: the caller must place nothing and
// mutate nothing. This keeps glyphs from stacking while the target is
// stationary.
func NextGlyphOffset(tail, origin, target models.Point, first bool, p Policy) (models.Point, bool) {
	if first {
		return models.Point{}, true
	}

	world := origin.Add(tail)
	dx := target.X - world.X
	dy := target.Y - world.Y
	if math.Hypot(dx, dy) < p.Spacing {
		return models.Point{}, false
	}

	angle := math.Atan2(dy, dx)
	if p.SnapHorizontal {
		// Snapped steps are written out exactly so horizontal runs have a
		// constant Y, free of sin(pi) rounding residue.
		if math.Abs(angle) <= p.SnapTolerance {
			return models.Point{X: tail.X + p.Spacing, Y: tail.Y}, true
		}
		if math.Pi-math.Abs(angle) <= p.SnapTolerance {
			return models.Point{X: tail.X - p.Spacing, Y: tail.Y}, true
		}
	}

	return models.Point{
		X: tail.X + p.Spacing*math.Cos(angle),
		Y: tail.Y + p.Spacing*math.Sin(angle),
	}, true
}
