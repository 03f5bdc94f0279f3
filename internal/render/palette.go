package render

import (
	"fmt"
	"sort"

	"github.com/san-kum/rockweather/internal/dynamo"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

const DefaultPalette = "kindlmann"

var palettes = map[string]func() palette.ColorMap{
	"kindlmann": moreland.Kindlmann,
	"blackbody": moreland.ExtendedBlackBody,
	"bwr_r": func() palette.ColorMap {
		return palette.Reverse(moreland.SmoothBlueRed())
	},
}

func lookupPalette(name string) (func() palette.ColorMap, error) {
	if name == "" {
		name = DefaultPalette
	}
	mk, ok := palettes[name]
	if !ok {
		return nil, &dynamo.InvalidInputError{Param: "palette", Reason: fmt.Sprintf("unknown palette %q", name)}
	}
	return mk, nil
}

// ColorMap returns the named colour map scaled to [min, max].
func ColorMap(name string, min, max float64) (palette.ColorMap, error) {
	mk, err := lookupPalette(name)
	if err != nil {
		return nil, err
	}
	cm := mk()
	cm.SetMin(min)
	cm.SetMax(max)
	return cm, nil
}

// Palettes lists the registered palette names.
func Palettes() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
