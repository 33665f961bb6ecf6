package checksum

import (
	"testing"

	"github.com/starford/laguz/internal/models"
)

func line(id, value string, x float64) models.Line {
	return models.Line{
		ID:      id,
		Glyphs:  []models.Glyph{{ID: id + "-g0", Value: value}},
		X:       x,
		OwnerID: "p1",
	}
}

func TestSumIsStable(t *testing.T) {
	got := Sum([]byte("hello"))
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("Sum = %s, want %s", got, want)
	}
}

func TestCanvasIgnoresInputOrder(t *testing.T) {
	a := line("a", "x", 1)
	b := line("b", "y", 2)

	if got, want := Canvas([]models.Line{a, b}), Canvas([]models.Line{b, a}); got != want {
		t.Errorf("digest depends on input order: %s vs %s", got, want)
	}
}

func TestCanvasReflectsContent(t *testing.T) {
	base := Canvas([]models.Line{line("a", "x", 1)})

	if got := Canvas([]models.Line{line("a", "x", 2)}); got == base {
		t.Error("moved line produced the same digest")
	}
	if got := Canvas([]models.Line{line("a", "z", 1)}); got == base {
		t.Error("changed glyph produced the same digest")
	}
}

func TestCanvasEmpty(t *testing.T) {
	if got, want := Canvas(nil), Canvas([]models.Line{}); got != want {
		t.Errorf("nil and empty digests differ: %s vs %s", got, want)
	}
}
