package geometry

import (
	"math"
	"testing"

	"github.com/starford/laguz/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFirstGlyphAlwaysAtOrigin(t *testing.T) {
	p := DefaultPolicy()
	targets := []models.Point{
		{X: 100, Y: 100},
		{X: -3, Y: 0.5},
		{X: 0, Y: 0},
	}
	for _, target := range targets {
		got, ok := NextGlyphOffset(models.Point{}, models.Point{X: 40, Y: 40}, target, true, p)
		if !ok {
			t.Fatalf("first glyph skipped for target %+v", target)
		}
		if got.X != 0 || got.Y != 0 {
			t.Errorf("first glyph offset = %+v, want (0,0)", got)
		}
	}
}

func TestSkipBelowSpacing(t *testing.T) {
	p := DefaultPolicy()
	origin := models.Point{X: 10, Y: 10}
	tail := models.Point{X: 5, Y: 0}
	// World tail is (15,10); target just under one spacing away.
	target := models.Point{X: 15 + p.Spacing - 0.01, Y: 10}

	if _, ok := NextGlyphOffset(tail, origin, target, false, p); ok {
		t.Error("expected skip when target is closer than spacing")
	}
}

func TestPlaceAtExactSpacing(t *testing.T) {
	p := DefaultPolicy()
	target := models.Point{X: p.Spacing, Y: 0}
	got, ok := NextGlyphOffset(models.Point{}, models.Point{}, target, false, p)
	if !ok {
		t.Fatal("distance equal to spacing should place, not skip")
	}
	if !almostEqual(got.X, p.Spacing) || !almostEqual(got.Y, 0) {
		t.Errorf("offset = %+v, want (%v, 0)", got, p.Spacing)
	}
}

func TestStepsTowardTarget(t *testing.T) {
	p := Policy{Spacing: 12, SnapHorizontal: false}
	// Target diagonal from the world tail: 45 degrees.
	got, ok := NextGlyphOffset(models.Point{}, models.Point{}, models.Point{X: 100, Y: 100}, false, p)
	if !ok {
		t.Fatal("unexpected skip")
	}
	want := 12 * math.Cos(math.Pi/4)
	if !almostEqual(got.X, want) || !almostEqual(got.Y, want) {
		t.Errorf("offset = %+v, want (%v, %v)", got, want, want)
	}
}

func TestStepAccumulatesFromTail(t *testing.T) {
	p := Policy{Spacing: 12, SnapHorizontal: false}
	tail := models.Point{X: 24, Y: 0}
	got, ok := NextGlyphOffset(tail, models.Point{}, models.Point{X: 1000, Y: 0}, false, p)
	if !ok {
		t.Fatal("unexpected skip")
	}
	if !almostEqual(got.X, 36) || !almostEqual(got.Y, 0) {
		t.Errorf("offset = %+v, want (36, 0)", got)
	}
}

func TestHorizontalSnapRight(t *testing.T) {
	p := DefaultPolicy()
	// Target slightly above horizontal, within tolerance: angle ~0.197 rad.
	got, ok := NextGlyphOffset(models.Point{}, models.Point{}, models.Point{X: 100, Y: 20}, false, p)
	if !ok {
		t.Fatal("unexpected skip")
	}
	if got.Y != 0 {
		t.Errorf("snapped step Y = %v, want exactly 0", got.Y)
	}
	if !almostEqual(got.X, p.Spacing) {
		t.Errorf("snapped step X = %v, want %v", got.X, p.Spacing)
	}
}

func TestHorizontalSnapLeft(t *testing.T) {
	p := DefaultPolicy()
	got, ok := NextGlyphOffset(models.Point{}, models.Point{}, models.Point{X: -100, Y: -20}, false, p)
	if !ok {
		t.Fatal("unexpected skip")
	}
	if got.Y != 0 {
		t.Errorf("snapped step Y = %v, want exactly 0", got.Y)
	}
	if !almostEqual(got.X, -p.Spacing) {
		t.Errorf("snapped step X = %v, want %v", got.X, -p.Spacing)
	}
}

func TestSnapDisabled(t *testing.T) {
	p := Policy{Spacing: 12, SnapHorizontal: false}
	got, ok := NextGlyphOffset(models.Point{}, models.Point{}, models.Point{X: 100, Y: 20}, false, p)
	if !ok {
		t.Fatal("unexpected skip")
	}
	if got.Y == 0 {
		t.Error("snap disabled but step Y is exactly 0")
	}
}

func TestSnapIgnoresSteepAngles(t *testing.T) {
	p := DefaultPolicy()
	got, ok := NextGlyphOffset(models.Point{}, models.Point{}, models.Point{X: 50, Y: 50}, false, p)
	if !ok {
		t.Fatal("unexpected skip")
	}
	if got.Y == 0 {
		t.Error("45 degree step should not snap to horizontal")
	}
}

func TestDeterministic(t *testing.T) {
	p := DefaultPolicy()
	tail := models.Point{X: 3, Y: -7}
	origin := models.Point{X: 11, Y: 2}
	target := models.Point{X: -40, Y: 95}

	a, aOK := NextGlyphOffset(tail, origin, target, false, p)
	b, bOK := NextGlyphOffset(tail, origin, target, false, p)
	if aOK != bOK || a != b {
		t.Errorf("same inputs gave (%+v,%v) then (%+v,%v)", a, aOK, b, bOK)
	}
}
