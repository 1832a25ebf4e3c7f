package spline

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/gomanifold/lie"
)

// SizeError reports a displacement or control-point window whose length does
// not match the spline degree.
type SizeError struct {
	Expected, Actual int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("spline: window size mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Derivatives selects the optional outputs of [Eval] and
// [EvalControlPoints]. Requesting Acceleration also computes Velocity, since
// the acceleration recursion depends on it.
type Derivatives struct {
	Velocity     bool
	Acceleration bool
	Jacobian     bool
}

// Result is the output of one spline-window evaluation. Fields not requested
// through [Derivatives] are nil.
type Result[G any] struct {
	// Value is the interpolated group element.
	Value G

	// Velocity and Acceleration are the first and second derivatives of
	// the curve with respect to the local parameter u, expressed in the
	// tangent space (length Dof).
	Velocity     *mat.VecDense
	Acceleration *mat.VecDense

	// Jacobian is the Dof×(Dof·(k+1)) derivative of the curve value with
	// respect to a right-plus perturbation of each of the k+1 control
	// points; block j occupies columns [j·Dof, (j+1)·Dof).
	Jacobian *mat.Dense
}

// Eval evaluates a degree-k cardinal B-spline window in displacement form:
// base value g0, exactly k tangent-space displacements diffs (v_j between
// consecutive control points) and local parameter u ∈ [0, 1). The
// displacements are folded left to right in control-point order; composition
// is non-commutative, so the order is load-bearing.
//
// It returns a *SizeError if len(diffs) != degree.
func Eval[G lie.Group[G]](degree int, g0 G, diffs []*mat.VecDense, u float64, want Derivatives) (Result[G], error) {
	if len(diffs) != degree {
		return Result[G]{}, &SizeError{Expected: degree, Actual: len(diffs)}
	}

	m := CumulativeCoeffMatrix(degree)
	dof := g0.Dof()

	// power vector [1, u, u², …] and its u-derivatives
	uvec := make([]float64, degree+1)
	duvec := make([]float64, degree+1)
	d2uvec := make([]float64, degree+1)
	uvec[0] = 1
	for p := 1; p <= degree; p++ {
		uvec[p] = u * uvec[p-1]
		duvec[p] = float64(p) * uvec[p-1]
		d2uvec[p] = float64(p) * duvec[p-1]
	}

	wantVel := want.Velocity || want.Acceleration
	var vel, acc *mat.VecDense
	if wantVel {
		vel = mat.NewVecDense(dof, nil)
	}
	if want.Acceleration {
		acc = mat.NewVecDense(dof, nil)
	}

	g := g0
	for j := 1; j <= degree; j++ {
		v := diffs[j-1]
		b := colDot(m, j, uvec)
		g = g.Compose(g.Exp(scaled(b, v)))

		if wantVel {
			db := colDot(m, j, duvec)
			ad := g0.Exp(scaled(-b, v)).Adjoint()
			applyLeft(ad, vel)
			vel.AddScaledVec(vel, db, v)
			if acc != nil {
				d2b := colDot(m, j, d2uvec)
				applyLeft(ad, acc)
				var bv mat.VecDense
				bv.MulVec(g0.Bracket(vel), v)
				acc.AddScaledVec(acc, db, &bv)
				acc.AddScaledVec(acc, d2b, v)
			}
		}
	}

	res := Result[G]{Value: g, Velocity: vel, Acceleration: acc}

	if want.Jacobian {
		jac := mat.NewDense(dof, dof*(degree+1), nil)
		z2inv := g0.Identity()
		// Walk the window back to front, peeling one exponential off the
		// remaining composition per step.
		for j := degree; j >= 0; j-- {
			if j != degree {
				bjp := colDot(m, j+1, uvec)
				vjp := diffs[j]
				sjp := scaled(bjp, vjp)
				blk := mulChain(z2inv.Adjoint(), g0.DrExp(sjp), lie.DlExpInv(g0, vjp))
				addBlock(jac, j*dof, -bjp, blk)
				z2inv = z2inv.Compose(g0.Exp(scaled(-1, sjp)))
			}
			bj := colDot(m, j, uvec)
			if j == 0 {
				// B̃₀ ≡ 1, so DrExp(B̃₀·v)·DrExpInv(v) collapses to the
				// identity and only Ad(z2inv) remains.
				addBlock(jac, 0, bj, z2inv.Adjoint())
			} else {
				vj := diffs[j-1]
				blk := mulChain(z2inv.Adjoint(), g0.DrExp(scaled(bj, vj)), g0.DrExpInv(vj))
				addBlock(jac, j*dof, bj, blk)
			}
		}
		res.Jacobian = jac
	}

	return res, nil
}

// EvalControlPoints evaluates a degree-k cardinal B-spline window in
// control-point form: exactly k+1 group elements. Displacements are derived
// as v_j = (ctrl[j-1]⁻¹ ∘ ctrl[j]).Log() and the evaluation delegates to
// [Eval] with g0 = ctrl[0].
//
// It returns a *SizeError if len(ctrl) != degree+1.
func EvalControlPoints[G lie.Group[G]](degree int, ctrl []G, u float64, want Derivatives) (Result[G], error) {
	if len(ctrl) != degree+1 {
		return Result[G]{}, &SizeError{Expected: degree + 1, Actual: len(ctrl)}
	}
	diffs := make([]*mat.VecDense, degree)
	for j := 0; j < degree; j++ {
		diffs[j] = lie.RMinus(ctrl[j+1], ctrl[j])
	}
	return Eval(degree, ctrl[0], diffs, u, want)
}

// colDot computes Σ_i w[i]·m(i, col), the basis value B̃_col for the given
// power-vector weights.
func colDot(m *mat.Dense, col int, w []float64) float64 {
	s := 0.0
	for i, wi := range w {
		s += wi * m.At(i, col)
	}
	return s
}

func scaled(s float64, v *mat.VecDense) *mat.VecDense {
	ret := mat.NewVecDense(v.Len(), nil)
	ret.ScaleVec(s, v)
	return ret
}

// applyLeft replaces v with m·v.
func applyLeft(m *mat.Dense, v *mat.VecDense) {
	tmp := mat.NewVecDense(v.Len(), nil)
	tmp.MulVec(m, v)
	v.CopyVec(tmp)
}

func mulChain(a, b, c *mat.Dense) *mat.Dense {
	var ab, abc mat.Dense
	ab.Mul(a, b)
	abc.Mul(&ab, c)
	return &abc
}

// addBlock adds s·blk into the Dof×Dof block of jac starting at column off.
func addBlock(jac *mat.Dense, off int, s float64, blk *mat.Dense) {
	r, c := blk.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			jac.Set(i, off+j, jac.At(i, off+j)+s*blk.At(i, j))
		}
	}
}
