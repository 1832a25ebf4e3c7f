// Package tn implements the translation group T(n): n-dimensional vectors
// under addition. It is the simplest [lie.Group]: exp and log are the
// identity map on coordinates and every Jacobian is the identity matrix.
package tn

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"
)

// T is an element of T(n). The dimension is fixed at construction.
// The zero value is the (degenerate) element of T(0).
type T struct {
	c []float64
}

// New builds an element of T(n) from its coordinates.
func New(coords ...float64) T {
	c := make([]float64, len(coords))
	copy(c, coords)
	return T{c: c}
}

// Identity returns the zero element of T(n).
func Identity(n int) T {
	if n < 0 {
		exceptions.Panicf("tn.Identity requires n >= 0, got %d instead", n)
	}
	return T{c: make([]float64, n)}
}

// Exp maps a tangent vector to the group element with the same coordinates.
func Exp(a *mat.VecDense) T {
	c := make([]float64, a.Len())
	for i := range c {
		c[i] = a.AtVec(i)
	}
	return T{c: c}
}

// Identity implements [lie.Group]; the dimension is the receiver's.
func (g T) Identity() T { return T{c: make([]float64, len(g.c))} }

// Exp implements [lie.Group].
func (g T) Exp(a *mat.VecDense) T { return Exp(a) }

// Inverse returns the negated element.
func (g T) Inverse() T {
	c := make([]float64, len(g.c))
	for i, v := range g.c {
		c[i] = -v
	}
	return T{c: c}
}

// Compose returns the (commutative) sum g+o.
func (g T) Compose(o T) T {
	if len(o.c) != len(g.c) {
		exceptions.Panicf("tn: cannot compose T(%d) with T(%d)", len(g.c), len(o.c))
	}
	c := make([]float64, len(g.c))
	for i := range c {
		c[i] = g.c[i] + o.c[i]
	}
	return T{c: c}
}

// Log returns the coordinates of g as a tangent vector.
func (g T) Log() *mat.VecDense {
	c := make([]float64, len(g.c))
	copy(c, g.c)
	return mat.NewVecDense(len(c), c)
}

// Adjoint returns the identity: conjugation is trivial in an abelian group.
func (g T) Adjoint() *mat.Dense { return eye(len(g.c)) }

// Bracket returns the zero matrix: the Lie bracket vanishes.
func (g T) Bracket(a *mat.VecDense) *mat.Dense {
	return mat.NewDense(a.Len(), a.Len(), nil)
}

// DrExp returns the identity.
func (g T) DrExp(a *mat.VecDense) *mat.Dense { return eye(a.Len()) }

// DrExpInv returns the identity.
func (g T) DrExpInv(a *mat.VecDense) *mat.Dense { return eye(a.Len()) }

// Dof implements [lie.Group].
func (g T) Dof() int { return len(g.c) }

// RepSize implements [lie.Group].
func (g T) RepSize() int { return len(g.c) }

// Coeffs returns the underlying coordinate buffer. T owns its buffer, so
// writes through the returned slice mutate the element.
func (g T) Coeffs() []float64 { return g.c }

// String prints the coordinates.
func (g T) String() string { return fmt.Sprintf("T%d%v", len(g.c), g.c) }

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
