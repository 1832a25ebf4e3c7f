// Package plotly implements plotting in Jupyter Notebooks using
// [github.com/janpfeifer/gonb] (Notebook Kernel) and the Plotly
// [github.com/MetalBlueberry/go-plotly] library.
//
// Use New to create a new Config object, and after configuring it, use
// Config.Plot to draw the plot.
//
// Features:
//   - Tangent coordinates of the spline curve log g(t), visible by default.
//   - Control points (tangent coordinates at their time stamps), visible by
//     default.
//   - Velocity coordinates, non-visible by default.
//   - Cumulative basis functions of the spline degree, non-visible by
//     default.
package plotly

import (
	"fmt"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	xslices "github.com/gomlx/gomlx/types/slices"
	"github.com/janpfeifer/gonb/gonbui/plotly"

	"github.com/gomanifold/lie"
	"github.com/gomanifold/lie/spline"
)

// Config holds a plot configuration that can be changed.
// Once finished, call the method [Plot] to actually plot.
type Config[G lie.Group[G]] struct {
	bspline       *spline.BSpline[G]
	numPlotPoints int
	marginRatio   float64
}

// New returns a [Config] object that can be changed.
// Once finished, call the method [Plot] to actually plot.
func New[G lie.Group[G]](b *spline.BSpline[G]) *Config[G] {
	return &Config[G]{
		bspline:       b,
		numPlotPoints: 1000,
		marginRatio:   0.1,
	}
}

// WithNumPlotPoints set the number of plot points to evaluate. Default is 1000.
func (c *Config[G]) WithNumPlotPoints(numPlotPoints int) *Config[G] {
	if numPlotPoints < 2 {
		numPlotPoints = 2
	}
	c.numPlotPoints = numPlotPoints
	return c
}

// WithMargin defines how much space (relative to the spline's time support)
// to plot. It defaults to 0.1, and it's handy to see how the curve clamps
// beyond its boundaries.
func (c *Config[G]) WithMargin(marginRatio float64) *Config[G] {
	if marginRatio < 0 {
		marginRatio = 0
	}
	c.marginRatio = marginRatio
	return c
}

// Plot using the current configuration.
// It returns an error if plotting failed for some reason.
func (c *Config[G]) Plot() error {
	b := c.bspline
	dof := b.ControlPoints()[0].Dof()

	x := make([]float64, c.numPlotPoints)
	first, last := b.TMin(), b.TMax()
	delta := last - first
	first, last = first-c.marginRatio*delta, last+c.marginRatio*delta
	for ii := range x {
		x[ii] = first + (last-first)*float64(ii)/float64(c.numPlotPoints)
	}

	curveY := make([][]float64, dof)
	velY := make([][]float64, dof)
	for d := range curveY {
		curveY[d] = make([]float64, c.numPlotPoints)
		velY[d] = make([]float64, c.numPlotPoints)
	}
	for ii := range x {
		g, vel, _ := b.EvalDerivatives(x[ii])
		coords := g.Log()
		for d := 0; d < dof; d++ {
			curveY[d][ii] = coords.AtVec(d)
			velY[d][ii] = vel.AtVec(d)
		}
	}

	// control points at the centers of their influence windows
	ctrl := b.ControlPoints()
	ctrlX := make([]float64, len(ctrl))
	ctrlY := make([][]float64, dof)
	for d := range ctrlY {
		ctrlY[d] = make([]float64, len(ctrl))
	}
	for ci, g := range ctrl {
		ctrlX[ci] = b.TMin() + (float64(ci)-float64(b.Degree())/2)*b.Dt()
		coords := g.Log()
		for d := 0; d < dof; d++ {
			ctrlY[d][ci] = coords.AtVec(d)
		}
	}

	// cumulative basis functions over one knot interval
	basisX := make([]float64, c.numPlotPoints)
	basisPlots := make([][]float64, b.Degree()+1)
	for j := range basisPlots {
		basisPlots[j] = make([]float64, c.numPlotPoints)
	}
	for ii := range basisX {
		u := float64(ii) / float64(c.numPlotPoints)
		basisX[ii] = b.TMin() + u*b.Dt()
		for j := range basisPlots {
			basisPlots[j][ii] = spline.CumulativeBasis(b.Degree(), j, u)
		}
	}

	fig := &grob.Fig{
		Layout: &grob.Layout{
			Title: &grob.LayoutTitle{
				Text: fmt.Sprintf("Cardinal B-Spline (degree=%d, t in [%g, %g])",
					b.Degree(), x[0], xslices.Last(x)),
			},
			Legend: &grob.LayoutLegend{},
		},
	}
	for d := 0; d < dof; d++ {
		fig.Data = append(fig.Data,
			&grob.Bar{
				Name:       fmt.Sprintf("log g(t) [%d]", d),
				X:          x,
				Y:          curveY[d],
				Width:      2.0,
				Showlegend: grob.True,
			},
			&grob.Bar{
				Name:       fmt.Sprintf("Control Points [%d]", d),
				X:          ctrlX,
				Y:          ctrlY[d],
				Showlegend: grob.True,
				Marker: &grob.BarMarker{
					Line: &grob.BarMarkerLine{
						Width: 3.0,
					},
				},
			},
			&grob.Bar{
				Name:       fmt.Sprintf("Velocity [%d]", d),
				X:          x,
				Y:          velY[d],
				Width:      2.0,
				Showlegend: grob.True,
				Visible:    grob.BarVisibleLegendonly,
			},
		)
	}
	for j := range basisPlots {
		fig.Data = append(fig.Data,
			&grob.Bar{
				Name:       fmt.Sprintf("CumulativeBasis(idx=%d, degree=%d)", j, b.Degree()),
				X:          basisX,
				Y:          basisPlots[j],
				Showlegend: grob.True,
				Width:      0.5,
				Visible:    grob.BarVisibleLegendonly,
			},
		)
	}

	err := plotly.DisplayFig(fig)
	if err != nil {
		err = fmt.Errorf("plotly.DisplayFig failed: %v", err)
	}
	return err
}
