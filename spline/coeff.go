// Package spline evaluates cardinal B-splines over Lie-group-valued control
// points: curves of the form
//
//	g(u) = g₀ ∘ ∏_{j=1..k} Exp(B̃_j(u)·v_j),  u ∈ [0, 1)
//
// where B̃_j are the cumulative cardinal basis functions of degree k and the
// v_j are tangent-space displacements between consecutive control points.
// [Eval] and [EvalControlPoints] evaluate one window and optionally the
// curve's velocity, acceleration and per-control-point Jacobians; [BSpline]
// owns a time-stamped control-point sequence and maps absolute times to
// windows.
package spline

import (
	"math/big"
	"sync"

	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"
)

// ratMul multiplies the dense rational matrices a (r×n) and b (n×c).
func ratMul(a, b [][]*big.Rat) [][]*big.Rat {
	rows, inner, cols := len(a), len(b), len(b[0])
	ret := ratZeros(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			for t := 0; t < inner; t++ {
				var p big.Rat
				p.Mul(a[i][t], b[t][j])
				ret[i][j].Add(ret[i][j], &p)
			}
		}
	}
	return ret
}

func ratZeros(rows, cols int) [][]*big.Rat {
	ret := make([][]*big.Rat, rows)
	for i := range ret {
		ret[i] = make([]*big.Rat, cols)
		for j := range ret[i] {
			ret[i][j] = new(big.Rat)
		}
	}
	return ret
}

// cardCoeffRat computes the (k+1)×(k+1) coefficient matrix of the cardinal
// B-spline basis of degree k by the knot-blending recursion: entry [i][j] is
// the coefficient of uⁱ in basis function B_j. The arithmetic is exact.
func cardCoeffRat(k int) [][]*big.Rat {
	if k == 0 {
		ret := ratZeros(1, 1)
		ret[0][0].SetInt64(1)
		return ret
	}
	prev := cardCoeffRat(k - 1)

	low := ratZeros(k+1, k)
	high := ratZeros(k+1, k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			low[i][j].Set(prev[i][j])
			high[i+1][j].Set(prev[i][j])
		}
	}

	left := ratZeros(k, k+1)
	right := ratZeros(k, k+1)
	for r := 0; r < k; r++ {
		left[r][r+1].SetFrac64(int64(k-(r+1)), int64(k))
		left[r][r].Sub(big.NewRat(1, 1), left[r][r+1])
		right[r][r+1].SetFrac64(1, int64(k))
		right[r][r].Neg(right[r][r+1])
	}

	sum := ratMul(low, left)
	hr := ratMul(high, right)
	for i := range sum {
		for j := range sum[i] {
			sum[i][j].Add(sum[i][j], hr[i][j])
		}
	}
	return sum
}

// cumCardCoeffRat derives the cumulative basis coefficients by a
// right-to-left running sum across columns: B̃_j = Σ_{l ≥ j} B_l.
func cumCardCoeffRat(k int) [][]*big.Rat {
	ret := cardCoeffRat(k)
	for i := 0; i <= k; i++ {
		for j := 0; j < k; j++ {
			ret[i][k-1-j].Add(ret[i][k-1-j], ret[i][k-j])
		}
	}
	return ret
}

func ratToDense(m [][]*big.Rat) *mat.Dense {
	ret := mat.NewDense(len(m), len(m[0]), nil)
	for i := range m {
		for j := range m[i] {
			f, _ := m[i][j].Float64()
			ret.Set(i, j, f)
		}
	}
	return ret
}

var (
	coeffMu  sync.Mutex
	coeffByK = map[int]*mat.Dense{}
	cumByK   = map[int]*mat.Dense{}
)

// CoeffMatrix returns the (k+1)×(k+1) coefficient matrix of the cardinal
// B-spline basis of degree k: entry (i, j) is the coefficient of uⁱ in basis
// function B_j. The matrix is computed once per degree from exact rational
// arithmetic and shared; callers must not modify it.
func CoeffMatrix(k int) *mat.Dense {
	if k < 0 {
		exceptions.Panicf("spline.CoeffMatrix requires degree >= 0, got %d instead", k)
	}
	coeffMu.Lock()
	defer coeffMu.Unlock()
	if m, ok := coeffByK[k]; ok {
		return m
	}
	m := ratToDense(cardCoeffRat(k))
	coeffByK[k] = m
	return m
}

// CumulativeCoeffMatrix returns the (k+1)×(k+1) coefficient matrix of the
// cumulative cardinal basis functions B̃_j of degree k. Computed once per
// degree and shared; callers must not modify it.
func CumulativeCoeffMatrix(k int) *mat.Dense {
	if k < 0 {
		exceptions.Panicf("spline.CumulativeCoeffMatrix requires degree >= 0, got %d instead", k)
	}
	coeffMu.Lock()
	defer coeffMu.Unlock()
	if m, ok := cumByK[k]; ok {
		return m
	}
	m := ratToDense(cumCardCoeffRat(k))
	cumByK[k] = m
	return m
}

// Basis evaluates basis function B_j of degree k at u.
func Basis(k, j int, u float64) float64 {
	return polyEval(CoeffMatrix(k), j, u)
}

// CumulativeBasis evaluates cumulative basis function B̃_j of degree k at u.
func CumulativeBasis(k, j int, u float64) float64 {
	return polyEval(CumulativeCoeffMatrix(k), j, u)
}

// polyEval computes Σ_i m(i, col)·uⁱ by Horner's rule.
func polyEval(m *mat.Dense, col int, u float64) float64 {
	rows, _ := m.Dims()
	s := 0.0
	for i := rows - 1; i >= 0; i-- {
		s = s*u + m.At(i, col)
	}
	return s
}
