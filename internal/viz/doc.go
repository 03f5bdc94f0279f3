// Package viz formats console output for the rockweather CLI: lipgloss
// styled progress lines, asciigraph series previews, and a Braille canvas
// that sketches boundary curves on the (D, M) plane.
package viz
