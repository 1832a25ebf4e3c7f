package lie_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/gomanifold/lie"
	"github.com/gomanifold/lie/so3"
	"github.com/gomanifold/lie/tn"
)

func TestIsApprox(t *testing.T) {
	g := tn.New(1, 2, 3)
	assert.True(t, lie.IsApprox(g, g, 0))
	assert.True(t, lie.IsApprox(g, tn.New(1, 2, 3+1e-15), 1e-12))
	assert.False(t, lie.IsApprox(g, tn.New(1, 2, 3.1), 1e-12))
	// relative: a large common scale absorbs a large absolute difference
	assert.True(t, lie.IsApprox(tn.New(1e12, 0, 0), tn.New(1e12+0.1, 0, 0), 1e-9))
}

func TestRightPlusMinusChart(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	g1, g2 := so3.Random(rng), so3.Random(rng)

	// g2 ⊕ (g1 ⊖ g2) == g1
	a := lie.RMinus(g1, g2)
	assert.True(t, lie.IsApprox(lie.RPlus(g2, a), g1, 1e-9))

	// g ⊕ 0 == g
	zero := mat.NewVecDense(3, nil)
	assert.True(t, lie.IsApprox(lie.RPlus(g1, zero), g1, 1e-9))
}

func TestDlExpInvDefinition(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	g := so3.Random(rng)
	a := mat.NewVecDense(3, []float64{0.3, -0.2, 0.5})

	// dl_expinv(a)·dl_exp(a) == I
	var prod mat.Dense
	prod.Mul(lie.DlExpInv(g, a), lie.DlExp(g, a))
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, prod.At(i, j), 1e-9)
		}
	}
}
