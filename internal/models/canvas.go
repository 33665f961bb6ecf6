// Package models defines the shared canvas domain types for Laguz.
package models

import "strings"

// Point is a position on the infinite canvas plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns the component-wise sum of two points.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the component-wise difference p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Glyph is one placed character. X and Y are offsets relative to the owning
// line's origin, not world coordinates.
type Glyph struct {
	ID    string  `json:"id"`
	Value string  `json:"value"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Offset returns the glyph position relative to the line origin.
func (g Glyph) Offset() Point { return Point{X: g.X, Y: g.Y} }

// Style is the visual identity assigned to a participant at join time and
// stamped onto every line they create. Fixed at creation, never mutated.
type Style struct {
	Color      string  `json:"color"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
}

// Line is an ordered, owned sequence of glyphs sharing one world-space
// origin and one style. Glyph order is append-only; the only removals are
// tail truncation and whole-line deletion. OwnerID never changes after
// creation, and only the owning participant's client mutates a line.
type Line struct {
	ID      string  `json:"id"`
	Glyphs  []Glyph `json:"glyphs"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	OwnerID string  `json:"ownerId"`
	Style   Style   `json:"style"`
}

// Origin returns the line's world-space origin.
func (l Line) Origin() Point { return Point{X: l.X, Y: l.Y} }

// TailOffset returns the offset of the last glyph, or false for an empty line.
func (l Line) TailOffset() (Point, bool) {
	if len(l.Glyphs) == 0 {
		return Point{}, false
	}
	return l.Glyphs[len(l.Glyphs)-1].Offset(), true
}

// Text returns the line's glyph values concatenated in placement order.
func (l Line) Text() string {
	var b strings.Builder
	for _, g := range l.Glyphs {
		b.WriteString(g.Value)
	}
	return b.String()
}

// Clone returns a copy of the line backed by its own glyph slice, so
// mutations of the copy never leak into the original.
func (l Line) Clone() Line {
	out := l
	out.Glyphs = make([]Glyph, len(l.Glyphs))
	copy(out.Glyphs, l.Glyphs)
	return out
}

// Participant is one connected member of a session. ID is stable for the
// lifetime of a single connection; Style is assigned once at join; Cursor
// follows the participant's live target point.
type Participant struct {
	ID     string `json:"id"`
	Style  Style  `json:"style"`
	Cursor Point  `json:"cursor"`
}
