package model

import (
	"math"

	"github.com/san-kum/rockweather/internal/config"
	"github.com/san-kum/rockweather/internal/dynamo"
)

// State layout of ChemostatSystem.
const (
	IronIdx = iota
	GlucoseIdx
	SiderophoreIdx
	CellIdx
)

// ChemostatSystem is the time-dependent model at one (D, M) point:
//
//	mu    = mu_max · F/(K_m1+F) · G/(K_m2+G)
//	dX/dt = (mu − D) X
//	dG/dt = D (G0 − G) − Y_glc mu X
//	dS/dt = Y_sid mu X − D S
//	dF/dt = R M (1 + S/(K+S)) − D F − Y_fe mu X
//
// Y_glc and Y_fe are the glucose and iron consumed per unit of biomass
// formed.
type ChemostatSystem struct {
	D      float64
	M      float64
	Params config.Params
}

func NewChemostatSystem(d, m float64, p config.Params) *ChemostatSystem {
	return &ChemostatSystem{D: d, M: m, Params: p}
}

func (c *ChemostatSystem) StateDim() int {
	return 4
}

// NonNegative reports that every state component is a concentration.
func (c *ChemostatSystem) NonNegative() bool {
	return true
}

func (c *ChemostatSystem) GrowthRate(fe, glc float64) float64 {
	p := c.Params
	fe = math.Max(fe, 0)
	glc = math.Max(glc, 0)
	return p.MuMax * fe / (p.Km1 + fe) * glc / (p.Km2 + glc)
}

// Dissolution is the iron release rate from rock mass M at siderophore level s.
func (c *ChemostatSystem) Dissolution(s float64) float64 {
	s = math.Max(s, 0)
	return c.Params.R * c.M * (1 + s/(c.Params.K+s))
}

func (c *ChemostatSystem) Derive(x dynamo.State, t float64) dynamo.State {
	p := c.Params
	fe, glc, sid, cell := x[IronIdx], x[GlucoseIdx], x[SiderophoreIdx], x[CellIdx]
	mu := c.GrowthRate(fe, glc)

	dx := make(dynamo.State, 4)
	dx[CellIdx] = (mu - c.D) * cell
	dx[GlucoseIdx] = c.D*(p.G0-glc) - p.YGlc*mu*cell
	dx[SiderophoreIdx] = p.YSid*mu*cell - c.D*sid
	dx[IronIdx] = c.Dissolution(sid) - c.D*fe - p.YFe*mu*cell
	return dx
}

// Inoculum is a cell-free medium at abiotic equilibrium seeded with cells.
func (c *ChemostatSystem) Inoculum(cells float64) dynamo.State {
	x := make(dynamo.State, 4)
	x[IronIdx] = c.Dissolution(0) / c.D
	x[GlucoseIdx] = c.Params.G0
	x[CellIdx] = cells
	return x
}
