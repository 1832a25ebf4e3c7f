// Package lie defines the operation contract shared by all
// [Lie group](https://en.wikipedia.org/wiki/Lie_group) element types in this
// module, along with the algebra helpers that are derivable from it.
//
// A Lie group element is a fixed-size coefficient vector (length RepSize)
// that always represents a valid group member; its tangent space (Lie
// algebra) is a vector space of dimension Dof. Concrete groups live in the
// sub-packages [github.com/gomanifold/lie/so3],
// [github.com/gomanifold/lie/se3] and [github.com/gomanifold/lie/tn];
// the spline machinery that consumes this contract lives in
// [github.com/gomanifold/lie/spline].
//
// Tangent vectors are gonum [mat.VecDense] column vectors and linear maps on
// the tangent space (adjoints, exponential Jacobians) are gonum [mat.Dense]
// Dof×Dof matrices, so results plug directly into gonum-based estimators.
package lie

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Eps2 is the squared-magnitude cutoff below which exp, log and the
// exponential Jacobians switch from trigonometric closed forms to their
// small-angle series, avoiding division by near-zero denominators.
// Read-only after initialization.
const Eps2 = 1e-8

// DefaultEps is the default relative tolerance for [IsApprox].
const DefaultEps = 1e-12

// Group is the contract a Lie group element type G must satisfy. It is used
// as a generic constraint (G Group[G]) so that group operations dispatch
// statically.
//
// Exp, Bracket, DrExp and DrExpInv are type-level maps that do not depend on
// the receiver's value; any element of the group may serve as the dispatch
// receiver.
type Group[G any] interface {
	// Identity returns the neutral element of the group.
	Identity() G

	// Inverse returns g⁻¹, so that g.Compose(g.Inverse()) is the identity
	// up to numerical tolerance.
	Inverse() G

	// Compose returns the group product g∘o. Composition is associative
	// but in general not commutative.
	Compose(o G) G

	// Exp maps a tangent vector (length Dof) into the group.
	// Exp of the zero vector is the identity.
	Exp(a *mat.VecDense) G

	// Log is the inverse of Exp on the connected component of the
	// identity: g.Exp(g.Log()) reproduces g.
	Log() *mat.VecDense

	// Adjoint returns the Dof×Dof matrix Ad(g) satisfying
	// Exp(Ad(g)·a) = g ∘ Exp(a) ∘ g⁻¹.
	Adjoint() *mat.Dense

	// Bracket returns the Dof×Dof matrix of the Lie bracket operator
	// ad_a = [a, ·].
	Bracket(a *mat.VecDense) *mat.Dense

	// DrExp returns the right Jacobian of Exp at a: to first order,
	// Exp(a + da) ≈ Exp(a) ∘ Exp(DrExp(a)·da).
	DrExp(a *mat.VecDense) *mat.Dense

	// DrExpInv returns the inverse of DrExp(a).
	DrExpInv(a *mat.VecDense) *mat.Dense

	// Dof is the tangent-space dimension.
	Dof() int

	// RepSize is the length of the coefficient representation.
	RepSize() int

	// Coeffs exposes the raw coefficient buffer for interop with
	// linear-algebra code. Whether writes through the returned slice are
	// visible to the element depends on the representation; treat it as
	// read-only unless the concrete type documents otherwise.
	Coeffs() []float64
}

// DlExp returns the left Jacobian of the exponential at a,
// Ad(Exp(a))·DrExp(a). The element g is used only to dispatch the group.
func DlExp[G Group[G]](g G, a *mat.VecDense) *mat.Dense {
	e := g.Exp(a)
	var ret mat.Dense
	ret.Mul(e.Adjoint(), g.DrExp(a))
	return &ret
}

// DlExpInv returns the inverse of the left Jacobian of the exponential at a,
// −ad(a) + DrExpInv(a). The element g is used only to dispatch the group.
func DlExpInv[G Group[G]](g G, a *mat.VecDense) *mat.Dense {
	var ret mat.Dense
	ret.Sub(g.DrExpInv(a), g.Bracket(a))
	return &ret
}

// RPlus is the right-plus chart operation g ⊕ a := g ∘ Exp(a).
func RPlus[G Group[G]](g G, a *mat.VecDense) G {
	return g.Compose(g.Exp(a))
}

// RMinus is the right-minus chart operation g1 ⊖ g2 := (g2⁻¹ ∘ g1).Log(),
// the local coordinates of g1 in the chart centered at g2.
func RMinus[G Group[G]](g1, g2 G) *mat.VecDense {
	return g2.Inverse().Compose(g1).Log()
}

// IsApprox compares two elements by normalized coefficient-vector distance:
// ‖c1−c2‖ ≤ eps·min(‖c1‖, ‖c2‖). This is a cheap stand-in for geodesic
// distance and is kept as documented behavior; it is not a metric on the
// manifold. eps ≤ 0 selects [DefaultEps].
func IsApprox[G Group[G]](g1, g2 G, eps float64) bool {
	if eps <= 0 {
		eps = DefaultEps
	}
	c1, c2 := g1.Coeffs(), g2.Coeffs()
	var n1Sq, n2Sq, dSq float64
	for i := range c1 {
		n1Sq += c1[i] * c1[i]
		n2Sq += c2[i] * c2[i]
		d := c1[i] - c2[i]
		dSq += d * d
	}
	return math.Sqrt(dSq) <= eps*math.Min(math.Sqrt(n1Sq), math.Sqrt(n2Sq))
}
