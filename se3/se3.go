// Package se3 implements the rigid-motion group SE(3): rotations plus
// translations in three dimensions, stored as 7 coefficients
// [x, y, z, qx, qy, qz, qw] with 6 degrees of freedom. Tangent vectors are
// ordered translation-first: [v, ω]. It satisfies the [lie.Group] contract.
package se3

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"

	"github.com/gomanifold/lie"
	"github.com/gomanifold/lie/so3"
)

// SE3 is a rigid transform. The zero value is not a valid transform; use
// [Identity], [Exp], [FromParts] or [Random] to construct one.
type SE3 struct {
	c [7]float64
}

// Identity returns the identity transform.
func Identity() SE3 {
	return SE3{c: [7]float64{0, 0, 0, 0, 0, 0, 1}}
}

// FromParts builds a transform from a rotation and a translation [x, y, z].
func FromParts(r so3.SO3, t []float64) SE3 {
	if len(t) != 3 {
		exceptions.Panicf("se3.FromParts requires a translation of length 3, got %d instead", len(t))
	}
	q := r.Coeffs()
	return SE3{c: [7]float64{t[0], t[1], t[2], q[0], q[1], q[2], q[3]}}
}

// FromCoeffs builds a transform from raw coefficients
// [x, y, z, qx, qy, qz, qw], normalizing the quaternion part.
func FromCoeffs(c []float64) SE3 {
	if len(c) != 7 {
		exceptions.Panicf("se3.FromCoeffs requires 7 coefficients, got %d instead", len(c))
	}
	return FromParts(so3.FromCoeffs(c[3:7]), c[0:3])
}

// Random returns a transform with rotation uniform on SO(3) and normally
// distributed translation.
func Random(rng *rand.Rand) SE3 {
	return FromParts(so3.Random(rng),
		[]float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()})
}

// Rotation returns the rotation part of g.
func (g SE3) Rotation() so3.SO3 { return so3.FromCoeffs(g.c[3:7]) }

// Translation returns the translation part of g.
func (g SE3) Translation() *mat.VecDense {
	return mat.NewVecDense(3, []float64{g.c[0], g.c[1], g.c[2]})
}

// Exp maps a tangent vector [v, ω] (length 6) to a transform: the rotation
// is the SO(3) exponential of ω and the translation is Jl(ω)·v, with Jl the
// left Jacobian of the SO(3) exponential.
func Exp(a *mat.VecDense) SE3 {
	v, w := split(a)
	r := so3.Exp(w)
	// Jl(ω) = Jr(−ω)
	jl := r.DrExp(negate(w))
	var t mat.VecDense
	t.MulVec(jl, v)
	return FromParts(r, t.RawVector().Data)
}

// Identity implements [lie.Group].
func (g SE3) Identity() SE3 { return Identity() }

// Exp implements [lie.Group].
func (g SE3) Exp(a *mat.VecDense) SE3 { return Exp(a) }

// Inverse returns the transform g⁻¹ = (R⁻¹, −R⁻¹·t).
func (g SE3) Inverse() SE3 {
	rinv := g.Rotation().Inverse()
	var t mat.VecDense
	t.MulVec(rinv.Adjoint(), g.Translation())
	return FromParts(rinv, []float64{-t.AtVec(0), -t.AtVec(1), -t.AtVec(2)})
}

// Compose returns the transform g∘o = (R1·R2, t1 + R1·t2).
func (g SE3) Compose(o SE3) SE3 {
	r1 := g.Rotation()
	var t mat.VecDense
	t.MulVec(r1.Adjoint(), o.Translation())
	t.AddVec(&t, g.Translation())
	return FromParts(r1.Compose(o.Rotation()), t.RawVector().Data)
}

// Log returns the tangent vector [v, ω] with Exp([v, ω]) == g:
// ω is the SO(3) logarithm and v = Jl(ω)⁻¹·t.
func (g SE3) Log() *mat.VecDense {
	r := g.Rotation()
	w := r.Log()
	// Jl(ω)⁻¹ = Jr(−ω)⁻¹
	jlinv := r.DrExpInv(negate(w))
	var v mat.VecDense
	v.MulVec(jlinv, g.Translation())
	return join(&v, w)
}

// Adjoint returns the 6×6 matrix [[R, t̂·R], [0, R]].
func (g SE3) Adjoint() *mat.Dense {
	rot := g.Rotation().Adjoint()
	var tr mat.Dense
	tr.Mul(so3.Hat(g.Translation()), rot)
	return blocks(rot, &tr, rot)
}

// Bracket returns ad([v, ω]) = [[ω̂, v̂], [0, ω̂]].
func (g SE3) Bracket(a *mat.VecDense) *mat.Dense {
	v, w := split(a)
	wh := so3.Hat(w)
	return blocks(wh, so3.Hat(v), wh)
}

// DrExp returns the right Jacobian of the exponential,
// [[Jr(ω), Q(−v, −ω)], [0, Jr(ω)]].
func (g SE3) DrExp(a *mat.VecDense) *mat.Dense {
	v, w := split(a)
	jr := so3.Identity().DrExp(w)
	q := seQ(negate(v), negate(w))
	return blocks(jr, q, jr)
}

// DrExpInv returns the inverse of the right Jacobian,
// [[Jr⁻¹, −Jr⁻¹·Q(−v, −ω)·Jr⁻¹], [0, Jr⁻¹]].
func (g SE3) DrExpInv(a *mat.VecDense) *mat.Dense {
	v, w := split(a)
	jrinv := so3.Identity().DrExpInv(w)
	q := seQ(negate(v), negate(w))
	var upper mat.Dense
	upper.Mul(jrinv, q)
	upper.Mul(&upper, jrinv)
	upper.Scale(-1, &upper)
	return blocks(jrinv, &upper, jrinv)
}

// Dof implements [lie.Group].
func (g SE3) Dof() int { return 6 }

// RepSize implements [lie.Group].
func (g SE3) RepSize() int { return 7 }

// Coeffs returns a copy of the coefficients [x, y, z, qx, qy, qz, qw].
// SE3 is a value type, so writes to the returned slice do not propagate.
func (g SE3) Coeffs() []float64 {
	c := g.c
	return c[:]
}

// String prints the coefficients.
func (g SE3) String() string {
	return fmt.Sprintf("SE3[%g %g %g | %g %g %g %g]",
		g.c[0], g.c[1], g.c[2], g.c[3], g.c[4], g.c[5], g.c[6])
}

// seQ is the translation-rotation coupling block Q(ρ, φ) of the SE(3) left
// Jacobian (Barfoot, State Estimation for Robotics, eq. 7.86):
//
//	Q = ρ̂/2 + m2·(φ̂ρ̂ + ρ̂φ̂ + φ̂ρ̂φ̂)
//	    − m3·(φ̂φ̂ρ̂ + ρ̂φ̂φ̂ − 3φ̂ρ̂φ̂)
//	    − (m3 − 3·m4)/2·(φ̂ρ̂φ̂φ̂ + φ̂φ̂ρ̂φ̂)
//
// with m2 = (θ−sin θ)/θ³, m3 = (1−θ²/2−cos θ)/θ⁴ and
// m4 = (θ−sin θ−θ³/6)/θ⁵, θ = ‖φ‖. The right-Jacobian block is Q(−ρ, −φ).
func seQ(rho, phi *mat.VecDense) *mat.Dense {
	th2 := phi.AtVec(0)*phi.AtVec(0) + phi.AtVec(1)*phi.AtVec(1) + phi.AtVec(2)*phi.AtVec(2)
	var m2, m3, m4 float64
	if th2 < lie.Eps2 {
		m2 = 1.0/6 - th2/120
		m3 = -1.0/24 + th2/720
		m4 = -1.0/120 + th2/5040
	} else {
		th := math.Sqrt(th2)
		m2 = (th - math.Sin(th)) / (th2 * th)
		m3 = (1 - th2/2 - math.Cos(th)) / (th2 * th2)
		m4 = (th - math.Sin(th) - th2*th/6) / (th2 * th2 * th)
	}

	ph := so3.Hat(phi)
	rh := so3.Hat(rho)

	pr := mul(ph, rh)    // φ̂ρ̂
	rp := mul(rh, ph)    // ρ̂φ̂
	prp := mul(pr, ph)   // φ̂ρ̂φ̂
	ppr := mul(ph, pr)   // φ̂φ̂ρ̂
	rpp := mul(rp, ph)   // ρ̂φ̂φ̂
	prpp := mul(prp, ph) // φ̂ρ̂φ̂φ̂
	pprp := mul(ppr, ph) // φ̂φ̂ρ̂φ̂

	q := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			s := rh.At(i, j) / 2
			s += m2 * (pr.At(i, j) + rp.At(i, j) + prp.At(i, j))
			s -= m3 * (ppr.At(i, j) + rpp.At(i, j) - 3*prp.At(i, j))
			s -= (m3 - 3*m4) / 2 * (prpp.At(i, j) + pprp.At(i, j))
			q.Set(i, j, s)
		}
	}
	return q
}

func mul(a, b *mat.Dense) *mat.Dense {
	var ret mat.Dense
	ret.Mul(a, b)
	return &ret
}

// split separates a tangent [v, ω] into its translation and rotation parts.
func split(a *mat.VecDense) (v, w *mat.VecDense) {
	v = mat.NewVecDense(3, []float64{a.AtVec(0), a.AtVec(1), a.AtVec(2)})
	w = mat.NewVecDense(3, []float64{a.AtVec(3), a.AtVec(4), a.AtVec(5)})
	return v, w
}

func join(v, w *mat.VecDense) *mat.VecDense {
	return mat.NewVecDense(6, []float64{
		v.AtVec(0), v.AtVec(1), v.AtVec(2),
		w.AtVec(0), w.AtVec(1), w.AtVec(2),
	})
}

func negate(a *mat.VecDense) *mat.VecDense {
	n := mat.NewVecDense(a.Len(), nil)
	n.ScaleVec(-1, a)
	return n
}

// blocks assembles the 6×6 block-triangular matrix [[d, u], [0, d2]].
func blocks(d mat.Matrix, u mat.Matrix, d2 mat.Matrix) *mat.Dense {
	ret := mat.NewDense(6, 6, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ret.Set(i, j, d.At(i, j))
			ret.Set(i, j+3, u.At(i, j))
			ret.Set(i+3, j+3, d2.At(i, j))
		}
	}
	return ret
}
