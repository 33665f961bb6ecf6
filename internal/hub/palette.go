package hub

import (
	"math/rand/v2"

	"github.com/starford/laguz/internal/models"
)

// Display-identity palettes. Values are assigned per axis at join time:
// while a palette still has unused entries, every participant gets a value
// nobody present is using; once the palette is exhausted, assignment is
// uniformly random.
var (
	paletteColors = []string{
		"#e03131", "#1971c2", "#2f9e44", "#f08c00",
		"#9c36b5", "#0c8599", "#e8590c", "#495057",
	}
	paletteFontFamilies = []string{
		"Caveat", "Patrick Hand", "Shadows Into Light", "Homemade Apple",
	}
	paletteFontSizes = []float64{16, 20, 24, 28}
)

// assignStyle picks a display style for a joining participant that collides
// as little as possible with the styles already present in the roster.
func assignStyle(roster map[string]models.Participant) models.Style {
	return models.Style{
		Color: pickDistinct(paletteColors, roster, func(p models.Participant) string {
			return p.Style.Color
		}),
		FontFamily: pickDistinct(paletteFontFamilies, roster, func(p models.Participant) string {
			return p.Style.FontFamily
		}),
		FontSize: pickDistinct(paletteFontSizes, roster, func(p models.Participant) float64 {
			return p.Style.FontSize
		}),
	}
}

func pickDistinct[T comparable](palette []T, roster map[string]models.Participant, axis func(models.Participant) T) T {
	used := make(map[T]bool, len(roster))
	for _, p := range roster {
		used[axis(p)] = true
	}

	free := make([]T, 0, len(palette))
	for _, v := range palette {
		if !used[v] {
			free = append(free, v)
		}
	}
	if len(free) > 0 {
		return free[rand.IntN(len(free))]
	}
	return palette[rand.IntN(len(palette))]
}
