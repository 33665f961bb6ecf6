// Package canvas holds the in-memory drawing state: the mapping from line
// id to line that the authority owns canonically and every client replicates.
//
// Document operations are pure: each returns a new Document and leaves the
// receiver untouched, so snapshots can be handed across goroutines without
// locking. Operations naming a line id the document does not contain are
// silent no-ops.
package canvas

import (
	"sort"

	"github.com/starford/laguz/internal/models"
)

// Document maps line ids to lines. The zero value is an empty, usable
// document.
type Document struct {
	lines map[string]models.Line
}

// New returns an empty document.
func New() Document {
	return Document{lines: map[string]models.Line{}}
}

// FromLines builds a document from a line set, keeping the last entry when
// ids collide.
func FromLines(lines []models.Line) Document {
	return New().ReplaceAll(lines)
}

func (d Document) clone() map[string]models.Line {
	out := make(map[string]models.Line, len(d.lines)+1)
	for id, l := range d.lines {
		out[id] = l
	}
	return out
}

// Put inserts or wholesale-replaces a line, last writer wins. Ownership pins
// edits to one participant, so no merge is needed.
func (d Document) Put(line models.Line) Document {
	lines := d.clone()
	lines[line.ID] = line.Clone()
	return Document{lines: lines}
}

// AppendGlyph appends g to the named line's glyph sequence.
func (d Document) AppendGlyph(lineID string, g models.Glyph) Document {
	old, ok := d.lines[lineID]
	if !ok {
		return d
	}
	line := old.Clone()
	line.Glyphs = append(line.Glyphs, g)
	lines := d.clone()
	lines[lineID] = line
	return Document{lines: lines}
}

// TruncateLastGlyph removes the named line's tail glyph. A line whose last
// glyph is removed disappears from the document entirely: empty lines are
// never retained.
func (d Document) TruncateLastGlyph(lineID string) Document {
	old, ok := d.lines[lineID]
	if !ok {
		return d
	}
	lines := d.clone()
	if len(old.Glyphs) <= 1 {
		delete(lines, lineID)
		return Document{lines: lines}
	}
	line := old.Clone()
	line.Glyphs = line.Glyphs[:len(line.Glyphs)-1]
	lines[lineID] = line
	return Document{lines: lines}
}

// RelocateLine moves the named line's world-space origin.
func (d Document) RelocateLine(lineID string, origin models.Point) Document {
	old, ok := d.lines[lineID]
	if !ok {
		return d
	}
	line := old.Clone()
	line.X = origin.X
	line.Y = origin.Y
	lines := d.clone()
	lines[lineID] = line
	return Document{lines: lines}
}

// RemoveLines deletes every named line. Unknown ids are ignored.
func (d Document) RemoveLines(ids []string) Document {
	lines := d.clone()
	for _, id := range ids {
		delete(lines, id)
	}
	return Document{lines: lines}
}

// ReplaceOwned swaps exactly the subset of lines owned by ownerID for the
// supplied set, leaving lines owned by others untouched. This is the
// own-lines resync merge: the sender is authoritative for its own subset
// only.
func (d Document) ReplaceOwned(ownerID string, supplied []models.Line) Document {
	lines := make(map[string]models.Line, len(d.lines)+len(supplied))
	for id, l := range d.lines {
		if l.OwnerID != ownerID {
			lines[id] = l
		}
	}
	for _, l := range supplied {
		lines[l.ID] = l.Clone()
	}
	return Document{lines: lines}
}

// ReplaceAll swaps the entire line set, as applied for sync and init
// snapshots. Applying the same snapshot twice yields the same document.
func (d Document) ReplaceAll(supplied []models.Line) Document {
	lines := make(map[string]models.Line, len(supplied))
	for _, l := range supplied {
		lines[l.ID] = l.Clone()
	}
	return Document{lines: lines}
}

// Line returns a copy of the named line.
func (d Document) Line(id string) (models.Line, bool) {
	l, ok := d.lines[id]
	if !ok {
		return models.Line{}, false
	}
	return l.Clone(), true
}

// Has reports whether the named line exists.
func (d Document) Has(id string) bool {
	_, ok := d.lines[id]
	return ok
}

// Len returns the number of lines.
func (d Document) Len() int { return len(d.lines) }

// IDs returns every line id in lexical order.
func (d Document) IDs() []string {
	ids := make([]string, 0, len(d.lines))
	for id := range d.lines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Lines returns copies of every line, ordered by id so repeated snapshots of
// the same document are comparable.
func (d Document) Lines() []models.Line {
	out := make([]models.Line, 0, len(d.lines))
	for _, id := range d.IDs() {
		out = append(out, d.lines[id].Clone())
	}
	return out
}

// OwnedBy returns copies of every line owned by ownerID, ordered by id.
func (d Document) OwnedBy(ownerID string) []models.Line {
	out := make([]models.Line, 0, len(d.lines))
	for _, id := range d.IDs() {
		if l := d.lines[id]; l.OwnerID == ownerID {
			out = append(out, l.Clone())
		}
	}
	return out
}
