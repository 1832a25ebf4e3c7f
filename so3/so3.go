// Package so3 implements the rotation group SO(3) with a unit-quaternion
// representation: 3 degrees of freedom stored as 4 coefficients
// [qx, qy, qz, qw]. It satisfies the [lie.Group] contract.
package so3

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/gomanifold/lie"
)

// SO3 is a rotation, stored as a unit quaternion [qx, qy, qz, qw].
// The zero value is not a valid rotation; use [Identity], [Exp], [FromQuat]
// or [Random] to construct one.
type SO3 struct {
	c [4]float64
}

// Identity returns the identity rotation.
func Identity() SO3 {
	return SO3{c: [4]float64{0, 0, 0, 1}}
}

// FromQuat builds a rotation from a quaternion, normalizing it.
func FromQuat(q quat.Number) SO3 {
	n := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if n == 0 {
		exceptions.Panicf("so3.FromQuat requires a nonzero quaternion, got %v", q)
	}
	return SO3{c: [4]float64{q.Imag / n, q.Jmag / n, q.Kmag / n, q.Real / n}}
}

// FromCoeffs builds a rotation from raw coefficients [qx, qy, qz, qw],
// normalizing them.
func FromCoeffs(c []float64) SO3 {
	if len(c) != 4 {
		exceptions.Panicf("so3.FromCoeffs requires 4 coefficients, got %d instead", len(c))
	}
	return FromQuat(quat.Number{Real: c[3], Imag: c[0], Jmag: c[1], Kmag: c[2]})
}

// Random returns a rotation drawn uniformly from SO(3).
func Random(rng *rand.Rand) SO3 {
	return FromQuat(quat.Number{
		Real: rng.NormFloat64(),
		Imag: rng.NormFloat64(),
		Jmag: rng.NormFloat64(),
		Kmag: rng.NormFloat64(),
	})
}

// Exp maps a rotation vector (angle·axis, length 3) to a rotation.
func Exp(a *mat.VecDense) SO3 {
	x, y, z := a.AtVec(0), a.AtVec(1), a.AtVec(2)
	th2 := x*x + y*y + z*z

	// scale factor sin(θ/2)/θ and scalar part cos(θ/2), with series
	// below the small-angle cutoff.
	var sf, w float64
	if th2 < lie.Eps2 {
		sf = 0.5 - th2/48
		w = 1 - th2/8
	} else {
		th := math.Sqrt(th2)
		sf = math.Sin(th/2) / th
		w = math.Cos(th / 2)
	}
	return SO3{c: [4]float64{sf * x, sf * y, sf * z, w}}
}

func (g SO3) quat() quat.Number {
	return quat.Number{Real: g.c[3], Imag: g.c[0], Jmag: g.c[1], Kmag: g.c[2]}
}

// Identity implements [lie.Group].
func (g SO3) Identity() SO3 { return Identity() }

// Exp implements [lie.Group].
func (g SO3) Exp(a *mat.VecDense) SO3 { return Exp(a) }

// Inverse returns the opposite rotation (quaternion conjugate).
func (g SO3) Inverse() SO3 {
	return SO3{c: [4]float64{-g.c[0], -g.c[1], -g.c[2], g.c[3]}}
}

// Compose returns the rotation g∘o.
func (g SO3) Compose(o SO3) SO3 {
	p := quat.Mul(g.quat(), o.quat())
	// renormalize to keep the unit-norm invariant under repeated products
	return FromQuat(p)
}

// Log returns the rotation vector of g.
func (g SO3) Log() *mat.VecDense {
	x, y, z, w := g.c[0], g.c[1], g.c[2], g.c[3]
	nv2 := x*x + y*y + z*z

	var k float64
	if nv2 < lie.Eps2 {
		k = 2/w - 2*nv2/(3*w*w*w)
	} else {
		nv := math.Sqrt(nv2)
		k = 2 * math.Atan2(nv, w) / nv
	}
	return mat.NewVecDense(3, []float64{k * x, k * y, k * z})
}

// Adjoint returns the rotation matrix of g, which is Ad(g) on SO(3).
func (g SO3) Adjoint() *mat.Dense {
	x, y, z, w := g.c[0], g.c[1], g.c[2], g.c[3]
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	})
}

// Bracket returns ad(a) = â, the skew-symmetric cross-product matrix.
func (g SO3) Bracket(a *mat.VecDense) *mat.Dense { return Hat(a) }

// Hat returns the skew-symmetric matrix â with â·b = a×b.
func Hat(a *mat.VecDense) *mat.Dense {
	x, y, z := a.AtVec(0), a.AtVec(1), a.AtVec(2)
	return mat.NewDense(3, 3, []float64{
		0, -z, y,
		z, 0, -x,
		-y, x, 0,
	})
}

// DrExp returns the right Jacobian of the exponential,
// I − (1−cos θ)/θ² â + (θ−sin θ)/θ³ â².
func (g SO3) DrExp(a *mat.VecDense) *mat.Dense {
	th2 := dot3(a, a)
	var c1, c2 float64
	if th2 < lie.Eps2 {
		c1 = 0.5 - th2/24
		c2 = 1.0/6 - th2/120
	} else {
		th := math.Sqrt(th2)
		c1 = (1 - math.Cos(th)) / th2
		c2 = (th - math.Sin(th)) / (th2 * th)
	}
	return hatPoly(a, 1, -c1, c2)
}

// DrExpInv returns the inverse of the right Jacobian,
// I + â/2 + (1/θ² − (1+cos θ)/(2θ sin θ)) â².
func (g SO3) DrExpInv(a *mat.VecDense) *mat.Dense {
	th2 := dot3(a, a)
	var c3 float64
	if th2 < lie.Eps2 {
		c3 = 1.0/12 + th2/720
	} else {
		th := math.Sqrt(th2)
		c3 = 1/th2 - (1+math.Cos(th))/(2*th*math.Sin(th))
	}
	return hatPoly(a, 1, 0.5, c3)
}

// Dof implements [lie.Group].
func (g SO3) Dof() int { return 3 }

// RepSize implements [lie.Group].
func (g SO3) RepSize() int { return 4 }

// Coeffs returns a copy of the coefficients [qx, qy, qz, qw].
// SO3 is a value type, so writes to the returned slice do not propagate.
func (g SO3) Coeffs() []float64 {
	c := g.c
	return c[:]
}

// String prints the coefficients.
func (g SO3) String() string {
	return fmt.Sprintf("SO3[%g %g %g %g]", g.c[0], g.c[1], g.c[2], g.c[3])
}

func dot3(a, b *mat.VecDense) float64 {
	return a.AtVec(0)*b.AtVec(0) + a.AtVec(1)*b.AtVec(1) + a.AtVec(2)*b.AtVec(2)
}

// hatPoly returns k0·I + k1·â + k2·â².
func hatPoly(a *mat.VecDense, k0, k1, k2 float64) *mat.Dense {
	h := Hat(a)
	var h2 mat.Dense
	h2.Mul(h, h)
	ret := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := k1*h.At(i, j) + k2*h2.At(i, j)
			if i == j {
				v += k0
			}
			ret.Set(i, j, v)
		}
	}
	return ret
}
