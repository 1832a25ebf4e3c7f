package spline

import (
	"math"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"

	"github.com/gomanifold/lie"
)

// BSpline is a cardinal B-spline over a uniformly spaced, time-stamped
// sequence of group-valued control points. t0 and dt are fixed after
// construction; control points may be mutated by the owner between
// evaluations but must not change while an evaluation is in flight — the
// object itself provides no synchronization.
//
// The control-point / knot correspondence follows the cardinal convention:
// with n+1 control points the spline is defined on
// [t0, t0 + (n+1-degree)·dt]. Queries outside that range are clamped to the
// nearest boundary window with u pinned to 0 or 1, so out-of-range
// evaluation extrapolates with the boundary value instead of failing.
type BSpline[G lie.Group[G]] struct {
	degree int
	t0, dt float64
	ctrl   []G
}

// New creates a cardinal B-spline of the given degree starting at t0 with
// knot spacing dt. At least degree+1 control points are required.
func New[G lie.Group[G]](degree int, t0, dt float64, ctrl []G) *BSpline[G] {
	if degree < 0 {
		exceptions.Panicf("spline.New requires degree >= 0, got %d instead", degree)
	}
	if dt <= 0 {
		exceptions.Panicf("spline.New requires dt > 0, got %g instead", dt)
	}
	if len(ctrl) < degree+1 {
		exceptions.Panicf("spline.New requires at least degree+1=%d control points, got %d instead",
			degree+1, len(ctrl))
	}
	cp := make([]G, len(ctrl))
	copy(cp, ctrl)
	// warm the shared coefficient table for this degree
	CumulativeCoeffMatrix(degree)
	return &BSpline[G]{degree: degree, t0: t0, dt: dt, ctrl: cp}
}

// Degree of the spline.
func (b *BSpline[G]) Degree() int { return b.degree }

// Dt is the uniform knot spacing.
func (b *BSpline[G]) Dt() float64 { return b.dt }

// TMin is the start of the spline's support.
func (b *BSpline[G]) TMin() float64 { return b.t0 }

// TMax is the end of the spline's support,
// t0 + (len(ctrl)-degree)·dt.
func (b *BSpline[G]) TMax() float64 {
	return b.t0 + float64(len(b.ctrl)-b.degree)*b.dt
}

// ControlPoints returns the spline's control-point slice. The owner may
// replace entries between evaluations; concurrent mutation during an
// evaluation is a data race.
func (b *BSpline[G]) ControlPoints() []G { return b.ctrl }

// SetControlPoint replaces control point i.
func (b *BSpline[G]) SetControlPoint(i int, g G) {
	if i < 0 || i >= len(b.ctrl) {
		exceptions.Panicf("BSpline.SetControlPoint index %d out of range [0, %d)", i, len(b.ctrl))
	}
	b.ctrl[i] = g
}

// interval maps an absolute query time to a window start index and a local
// parameter, clamping out-of-range queries to the boundary windows.
func (b *BSpline[G]) interval(t float64) (istar int, u float64) {
	istar = int(math.Floor((t - b.t0) / b.dt))
	switch {
	case istar < 0:
		return 0, 0
	case istar+b.degree+1 > len(b.ctrl):
		return len(b.ctrl) - b.degree - 1, 1
	default:
		return istar, (t - b.t0 - float64(istar)*b.dt) / b.dt
	}
}

// Eval returns the spline value at time t, clamping t into [TMin, TMax].
func (b *BSpline[G]) Eval(t float64) G {
	return b.eval(t, Derivatives{}).Value
}

// EvalDerivatives returns the spline value at time t along with its velocity
// and acceleration with respect to t (the unit-interval derivatives rescaled
// by 1/dt and 1/dt²).
func (b *BSpline[G]) EvalDerivatives(t float64) (g G, vel, acc *mat.VecDense) {
	res := b.eval(t, Derivatives{Velocity: true, Acceleration: true})
	res.Velocity.ScaleVec(1/b.dt, res.Velocity)
	res.Acceleration.ScaleVec(1/(b.dt*b.dt), res.Acceleration)
	return res.Value, res.Velocity, res.Acceleration
}

func (b *BSpline[G]) eval(t float64, want Derivatives) Result[G] {
	istar, u := b.interval(t)
	res, err := EvalControlPoints(b.degree, b.ctrl[istar:istar+b.degree+1], u, want)
	if err != nil {
		// the window is sliced to degree+1 by construction
		exceptions.Panicf("BSpline.eval: %v", err)
	}
	return res
}
