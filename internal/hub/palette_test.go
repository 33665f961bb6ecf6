package hub

import (
	"strconv"
	"testing"

	"github.com/starford/laguz/internal/models"
)

func rosterOf(styles ...models.Style) map[string]models.Participant {
	roster := make(map[string]models.Participant, len(styles))
	for i, s := range styles {
		id := "p" + strconv.Itoa(i)
		roster[id] = models.Participant{ID: id, Style: s}
	}
	return roster
}

func TestAssignStyleDistinctWhilePaletteLasts(t *testing.T) {
	roster := map[string]models.Participant{}
	colors := make(map[string]bool)
	for i := 0; i < len(paletteColors); i++ {
		s := assignStyle(roster)
		if colors[s.Color] {
			t.Fatalf("color %q assigned twice with %d participants present", s.Color, i)
		}
		colors[s.Color] = true
		id := "p" + strconv.Itoa(i)
		roster[id] = models.Participant{ID: id, Style: s}
	}
}

func TestAssignStyleValuesComeFromPalette(t *testing.T) {
	inPalette := func(v string, palette []string) bool {
		for _, p := range palette {
			if p == v {
				return true
			}
		}
		return false
	}

	roster := map[string]models.Participant{}
	for i := 0; i < 2*len(paletteColors); i++ {
		s := assignStyle(roster)
		if !inPalette(s.Color, paletteColors) {
			t.Fatalf("color %q not in palette", s.Color)
		}
		if !inPalette(s.FontFamily, paletteFontFamilies) {
			t.Fatalf("font family %q not in palette", s.FontFamily)
		}
		sizeOK := false
		for _, fs := range paletteFontSizes {
			if fs == s.FontSize {
				sizeOK = true
			}
		}
		if !sizeOK {
			t.Fatalf("font size %v not in palette", s.FontSize)
		}
		id := "p" + strconv.Itoa(i)
		roster[id] = models.Participant{ID: id, Style: s}
	}
}

func TestAssignStylePrefersUnusedValues(t *testing.T) {
	// Three of four font families taken: the fourth must be chosen.
	roster := rosterOf(
		models.Style{Color: paletteColors[0], FontSize: paletteFontSizes[0], FontFamily: paletteFontFamilies[0]},
		models.Style{Color: paletteColors[1], FontSize: paletteFontSizes[1], FontFamily: paletteFontFamilies[1]},
		models.Style{Color: paletteColors[2], FontSize: paletteFontSizes[2], FontFamily: paletteFontFamilies[2]},
	)
	for i := 0; i < 20; i++ {
		s := assignStyle(roster)
		if s.FontFamily != paletteFontFamilies[3] {
			t.Fatalf("font family = %q, want unused %q", s.FontFamily, paletteFontFamilies[3])
		}
		if s.FontSize != paletteFontSizes[3] {
			t.Fatalf("font size = %v, want unused %v", s.FontSize, paletteFontSizes[3])
		}
	}
}
