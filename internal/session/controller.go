// Package session implements the per-participant input state machine that
// turns pointer and keyboard events into canvas mutations.
package session

import (
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/starford/laguz/internal/canvas"
	"github.com/starford/laguz/internal/geometry"
	"github.com/starford/laguz/internal/models"
)

// Backend is the replication surface the controller drives. Each mutation
// applies to the local replica synchronously and enqueues one outbound
// message; none of them block on the authority.
type Backend interface {
	Self() models.Participant
	Document() canvas.Document
	AddLine(line models.Line) error
	AppendGlyph(lineID string, g models.Glyph) error
	TruncateLastGlyph(lineID string) error
	RelocateLine(lineID string, origin models.Point) error
	DeleteLines(ids []string) error
	Cursor(pt models.Point) error
}

// Mode is the controller's interaction state.
type Mode int

const (
	// ModeComposing places glyphs onto the active line.
	ModeComposing Mode = iota
	// ModeArranging selects, moves and deletes whole lines.
	ModeArranging
)

func (m Mode) String() string {
	if m == ModeArranging {
		return "arranging"
	}
	return "composing"
}

// Direction is an arrow-key direction.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// Option configures a Controller.
type Option func(*Controller)

// WithPolicy overrides the glyph placement policy.
func WithPolicy(p geometry.Policy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithArrowStep sets how far one arrow key press moves the target.
func WithArrowStep(step float64) Option {
	return func(c *Controller) { c.arrowStep = step }
}

type dragState struct {
	lineID string
	grab   models.Point // pointer offset from the line origin at grab time
}

// Controller is one participant's input state machine. It is driven from a
// single goroutine (the input event loop) and is not safe for concurrent use.
type Controller struct {
	backend   Backend
	policy    geometry.Policy
	arrowStep float64

	mode     Mode
	target   models.Point
	active   string          // composing: line receiving glyphs, "" for none
	selected map[string]bool // arranging: selection, may include foreign lines
	drag     *dragState
}

// New creates a controller in composing mode with the target at the origin.
func New(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:   backend,
		policy:    geometry.DefaultPolicy(),
		arrowStep: geometry.DefaultArrowStep,
		selected:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode reports the current interaction mode.
func (c *Controller) Mode() Mode { return c.mode }

// Target reports the current target point.
func (c *Controller) Target() models.Point { return c.target }

// ActiveLine reports the line currently receiving glyphs, if any.
func (c *Controller) ActiveLine() (string, bool) {
	return c.active, c.active != ""
}

// Selection reports the selected line ids in lexical order.
func (c *Controller) Selection() []string {
	ids := make([]string, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dragging reports the line being dragged, if any.
func (c *Controller) Dragging() (string, bool) {
	if c.drag == nil {
		return "", false
	}
	return c.drag.lineID, true
}

// ToggleMode switches between composing and arranging. Both transitions
// drop the transient state: the active line, the selection, and any drag.
func (c *Controller) ToggleMode() {
	if c.mode == ModeComposing {
		c.mode = ModeArranging
	} else {
		c.mode = ModeComposing
	}
	c.active = ""
	c.selected = make(map[string]bool)
	c.drag = nil
}

// PointerMove retargets glyph flow and shares the cursor, in any mode.
func (c *Controller) PointerMove(pt models.Point) {
	c.setTarget(pt)
}

// ArrowKey nudges the target one step in the given direction.
func (c *Controller) ArrowKey(dir Direction) {
	pt := c.target
	switch dir {
	case DirUp:
		pt.Y -= c.arrowStep
	case DirDown:
		pt.Y += c.arrowStep
	case DirLeft:
		pt.X -= c.arrowStep
	case DirRight:
		pt.X += c.arrowStep
	}
	c.setTarget(pt)
}

// ClickEmpty handles a click on empty canvas: the target moves there, and in
// arranging mode the selection is dropped. The active line is kept; glyph
// flow just bends toward the new target.
func (c *Controller) ClickEmpty(pt models.Point) {
	if c.mode == ModeArranging {
		c.selected = make(map[string]bool)
	}
	c.setTarget(pt)
}

// ClickLine handles a plain click on a line. Composing: an owned line
// becomes the active line, a foreign one is ignored. Arranging: the click
// replaces the selection, foreign lines included.
func (c *Controller) ClickLine(id string) {
	switch c.mode {
	case ModeComposing:
		line, ok := c.backend.Document().Line(id)
		if !ok || line.OwnerID != c.backend.Self().ID {
			return
		}
		c.active = id
	case ModeArranging:
		if !c.lineExists(id) {
			return
		}
		c.selected = map[string]bool{id: true}
	}
}

// ShiftClickLine toggles a line's selection membership in arranging mode.
// In composing mode it behaves like a plain click.
func (c *Controller) ShiftClickLine(id string) {
	if c.mode == ModeComposing {
		c.ClickLine(id)
		return
	}
	if !c.lineExists(id) {
		return
	}
	if c.selected[id] {
		delete(c.selected, id)
	} else {
		c.selected[id] = true
	}
}

// Insert places printable input onto the canvas, one glyph per rune, each
// flowing toward the current target. Runes whose placement the spacing
// floor rejects are dropped without any state change. Newlines act as the
// line-start command. Arranging mode ignores text input entirely.
func (c *Controller) Insert(text string) {
	if c.mode != ModeComposing {
		return
	}
	for _, r := range text {
		switch r {
		case '\n':
			c.NewLine()
		case '\r':
			// Part of CRLF; the newline handles it.
		default:
			c.insertRune(r)
		}
	}
}

func (c *Controller) insertRune(r rune) {
	doc := c.backend.Document()
	self := c.backend.Self()

	line, ok := doc.Line(c.active)
	if c.active == "" || !ok || line.OwnerID != self.ID {
		// No usable active line: a fresh line starts at the target, its
		// first glyph pinned to the origin.
		line = models.Line{
			ID:      uuid.NewString(),
			Glyphs:  []models.Glyph{{ID: uuid.NewString(), Value: string(r)}},
			X:       c.target.X,
			Y:       c.target.Y,
			OwnerID: self.ID,
			Style:   self.Style,
		}
		if err := c.backend.AddLine(line); err != nil {
			slog.Warn("session: add line failed", slog.String("error", err.Error()))
			return
		}
		c.active = line.ID
		return
	}

	tail, _ := line.TailOffset()
	offset, place := geometry.NextGlyphOffset(tail, line.Origin(), c.target, false, c.policy)
	if !place {
		return
	}
	g := models.Glyph{ID: uuid.NewString(), Value: string(r), X: offset.X, Y: offset.Y}
	if err := c.backend.AppendGlyph(line.ID, g); err != nil {
		slog.Warn("session: append glyph failed", slog.String("error", err.Error()))
	}
}

// Backspace deletes backwards. Composing: the active line loses its tail
// glyph, and losing the last glyph deletes the line. Arranging: the owned
// part of the selection is deleted.
func (c *Controller) Backspace() {
	if c.mode == ModeArranging {
		c.DeleteSelection()
		return
	}
	if c.active == "" {
		return
	}
	line, ok := c.backend.Document().Line(c.active)
	if !ok {
		return
	}
	if len(line.Glyphs) <= 1 {
		if err := c.backend.DeleteLines([]string{c.active}); err != nil {
			slog.Warn("session: delete line failed", slog.String("error", err.Error()))
			return
		}
		c.active = ""
		return
	}
	if err := c.backend.TruncateLastGlyph(c.active); err != nil {
		slog.Warn("session: truncate failed", slog.String("error", err.Error()))
	}
}

// NewLine finishes the active line so the next rune starts a fresh one at
// the current target. The document is untouched.
func (c *Controller) NewLine() {
	if c.mode != ModeComposing {
		return
	}
	c.active = ""
}

// BeginDrag starts moving a line. Owned lines are (re)selected and grabbed;
// foreign lines are rejected outright, before any message is sent.
func (c *Controller) BeginDrag(id string, grab models.Point) bool {
	if c.mode != ModeArranging {
		return false
	}
	line, ok := c.backend.Document().Line(id)
	if !ok || line.OwnerID != c.backend.Self().ID {
		return false
	}
	if !c.selected[id] {
		c.selected = map[string]bool{id: true}
	}
	c.drag = &dragState{lineID: id, grab: grab.Sub(line.Origin())}
	return true
}

// DragTo relocates the dragged line so it keeps tracking the pointer, and
// shares the pointer as the cursor.
func (c *Controller) DragTo(pt models.Point) {
	if c.drag == nil {
		c.setTarget(pt)
		return
	}
	c.setTarget(pt)
	origin := pt.Sub(c.drag.grab)
	if err := c.backend.RelocateLine(c.drag.lineID, origin); err != nil {
		slog.Warn("session: relocate failed", slog.String("error", err.Error()))
	}
}

// EndDrag releases the drag gesture.
func (c *Controller) EndDrag() {
	c.drag = nil
}

// DeleteSelection removes the owned lines in the selection as one batch.
// Foreign lines stay on the canvas and stay selected.
func (c *Controller) DeleteSelection() {
	if c.mode != ModeArranging || len(c.selected) == 0 {
		return
	}
	doc := c.backend.Document()
	self := c.backend.Self()

	owned := make([]string, 0, len(c.selected))
	for id := range c.selected {
		if line, ok := doc.Line(id); ok && line.OwnerID == self.ID {
			owned = append(owned, id)
		}
	}
	if len(owned) == 0 {
		return
	}
	sort.Strings(owned)
	if err := c.backend.DeleteLines(owned); err != nil {
		slog.Warn("session: delete selection failed", slog.String("error", err.Error()))
		return
	}
	for _, id := range owned {
		delete(c.selected, id)
	}
}

// ClearAll wipes every line in the replica, foreign and orphaned ones
// included, as a single batch. Works in either mode.
func (c *Controller) ClearAll() {
	ids := c.backend.Document().IDs()
	if len(ids) == 0 {
		return
	}
	if err := c.backend.DeleteLines(ids); err != nil {
		slog.Warn("session: clear all failed", slog.String("error", err.Error()))
		return
	}
	c.active = ""
	c.selected = make(map[string]bool)
	c.drag = nil
}

func (c *Controller) setTarget(pt models.Point) {
	c.target = pt
	if err := c.backend.Cursor(pt); err != nil {
		slog.Debug("session: cursor send failed", slog.String("error", err.Error()))
	}
}

func (c *Controller) lineExists(id string) bool {
	_, ok := c.backend.Document().Line(id)
	return ok
}
