package spline

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/gomanifold/lie"
	"github.com/gomanifold/lie/so3"
	"github.com/gomanifold/lie/tn"
)

const epsilon = 1e-9

func randSO3Tangent(rng *rand.Rand, scale float64) *mat.VecDense {
	a := mat.NewVecDense(3, []float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()})
	n := mat.Norm(a, 2)
	if n == 0 {
		n = 1
	}
	a.ScaleVec(scale/n, a)
	return a
}

func TestEvalSizeViolation(t *testing.T) {
	g0 := tn.New(0, 0)
	v := mat.NewVecDense(2, []float64{1, 1})

	for _, tc := range []struct {
		degree   int
		actual   int
		expected int
	}{
		{degree: 3, actual: 2, expected: 3},
		{degree: 3, actual: 5, expected: 3},
		{degree: 1, actual: 0, expected: 1},
	} {
		diffs := make([]*mat.VecDense, tc.actual)
		for i := range diffs {
			diffs[i] = v
		}
		_, err := Eval(tc.degree, g0, diffs, 0.5, Derivatives{})
		require.Error(t, err)
		var sizeErr *SizeError
		require.ErrorAs(t, err, &sizeErr)
		assert.Equal(t, tc.expected, sizeErr.Expected)
		assert.Equal(t, tc.actual, sizeErr.Actual)
	}

	// control-point form expects degree+1 elements
	_, err := EvalControlPoints(2, []tn.T{g0, g0}, 0.5, Derivatives{})
	var sizeErr *SizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, 3, sizeErr.Expected)
	assert.Equal(t, 2, sizeErr.Actual)
}

func TestEvalMatchesScalarBSpline(t *testing.T) {
	// on the translation group the product of exponentials collapses to the
	// ordinary basis-weighted sum of control points
	rng := rand.New(rand.NewPCG(42, 42))
	for k := 1; k <= 4; k++ {
		ctrl := make([]tn.T, k+1)
		for i := range ctrl {
			ctrl[i] = tn.New(rng.NormFloat64(), rng.NormFloat64())
		}
		for _, u := range []float64{0, 0.2, 0.5, 0.9} {
			res, err := EvalControlPoints(k, ctrl, u, Derivatives{})
			require.NoError(t, err)

			want := make([]float64, 2)
			for j := 0; j <= k; j++ {
				b := Basis(k, j, u)
				want[0] += b * ctrl[j].Coeffs()[0]
				want[1] += b * ctrl[j].Coeffs()[1]
			}
			got := res.Value.Coeffs()
			assert.InDeltaf(t, want[0], got[0], 1e-12, "degree %d u=%g", k, u)
			assert.InDeltaf(t, want[1], got[1], 1e-12, "degree %d u=%g", k, u)
		}
	}
}

func TestEvalLinearBoundaries(t *testing.T) {
	// degree 1 interpolates its two control points exactly
	rng := rand.New(rand.NewPCG(1, 1))
	g0 := so3.Random(rng)
	g1 := lie.RPlus(g0, randSO3Tangent(rng, 0.8))

	for _, tc := range []struct {
		u    float64
		want so3.SO3
	}{
		{u: 0, want: g0},
		{u: 0.5, want: lie.RPlus(g0, scaled(0.5, lie.RMinus(g1, g0)))},
	} {
		res, err := EvalControlPoints(1, []so3.SO3{g0, g1}, tc.u, Derivatives{})
		require.NoError(t, err)
		assert.Truef(t, lie.IsApprox(res.Value, tc.want, epsilon), "u=%g", tc.u)
	}
}

func TestEvalWindowContinuity(t *testing.T) {
	// the end of window i coincides with the start of window i+1
	rng := rand.New(rand.NewPCG(7, 7))
	for k := 1; k <= 3; k++ {
		ctrl := make([]so3.SO3, k+2)
		ctrl[0] = so3.Random(rng)
		for i := 1; i < len(ctrl); i++ {
			ctrl[i] = lie.RPlus(ctrl[i-1], randSO3Tangent(rng, 0.5))
		}

		end, err := EvalControlPoints(k, ctrl[:k+1], 1, Derivatives{})
		require.NoError(t, err)
		start, err := EvalControlPoints(k, ctrl[1:], 0, Derivatives{})
		require.NoError(t, err)
		assert.Truef(t, lie.IsApprox(end.Value, start.Value, 1e-8), "degree %d", k)
	}
}

func TestEvalVelocityAcceleration(t *testing.T) {
	// central finite differences of the value along u
	const h = 1e-5
	rng := rand.New(rand.NewPCG(3, 3))
	for k := 1; k <= 3; k++ {
		g0 := so3.Random(rng)
		diffs := make([]*mat.VecDense, k)
		for i := range diffs {
			diffs[i] = randSO3Tangent(rng, 0.6)
		}
		for _, u := range []float64{0.2, 0.5, 0.8} {
			res, err := Eval(k, g0, diffs, u, Derivatives{Velocity: true, Acceleration: true})
			require.NoError(t, err)
			require.NotNil(t, res.Velocity)
			require.NotNil(t, res.Acceleration)

			plus, err := Eval(k, g0, diffs, u+h, Derivatives{})
			require.NoError(t, err)
			minus, err := Eval(k, g0, diffs, u-h, Derivatives{})
			require.NoError(t, err)

			// vel ≈ (g(u+h) ⊖ g(u-h)) / 2h expressed at g(u)
			numVel := lie.RMinus(plus.Value, minus.Value)
			numVel.ScaleVec(1/(2*h), numVel)
			for d := 0; d < 3; d++ {
				assert.InDeltaf(t, numVel.AtVec(d), res.Velocity.AtVec(d), 1e-5,
					"velocity degree %d u=%g coord %d", k, u, d)
			}

			// acc ≈ second difference of the local coordinates around g(u)
			fPlus := lie.RMinus(plus.Value, res.Value)
			fMinus := lie.RMinus(minus.Value, res.Value)
			numAcc := mat.NewVecDense(3, nil)
			numAcc.AddVec(fPlus, fMinus)
			numAcc.ScaleVec(1/(h*h), numAcc)
			for d := 0; d < 3; d++ {
				assert.InDeltaf(t, numAcc.AtVec(d), res.Acceleration.AtVec(d), 1e-3,
					"acceleration degree %d u=%g coord %d", k, u, d)
			}
		}
	}
}

func TestEvalVelocityExactOnTn(t *testing.T) {
	// on T(n) the velocity is the exact polynomial derivative Σ B̃'_j v_j
	rng := rand.New(rand.NewPCG(5, 5))
	const k = 3
	diffs := make([]*mat.VecDense, k)
	for i := range diffs {
		diffs[i] = mat.NewVecDense(1, []float64{rng.NormFloat64()})
	}
	g0 := tn.New(0.5)

	for _, u := range []float64{0, 0.25, 0.6, 0.95} {
		res, err := Eval(k, g0, diffs, u, Derivatives{Velocity: true})
		require.NoError(t, err)

		m := CumulativeCoeffMatrix(k)
		want := 0.0
		for j := 1; j <= k; j++ {
			db := 0.0
			for i := 1; i <= k; i++ {
				db += float64(i) * powf(u, i-1) * m.At(i, j)
			}
			want += db * diffs[j-1].AtVec(0)
		}
		assert.InDeltaf(t, want, res.Velocity.AtVec(0), 1e-12, "u=%g", u)
	}
}

func TestEvalJacobianExactOnTn(t *testing.T) {
	// on T(n) the Jacobian block for control point j is B_j(u)·I
	const k = 3
	ctrl := []tn.T{tn.New(0, 0), tn.New(1, -1), tn.New(2, 0.5), tn.New(3, 3)}
	for _, u := range []float64{0, 0.3, 0.8} {
		res, err := EvalControlPoints(k, ctrl, u, Derivatives{Jacobian: true})
		require.NoError(t, err)
		require.NotNil(t, res.Jacobian)

		r, c := res.Jacobian.Dims()
		require.Equal(t, 2, r)
		require.Equal(t, 2*(k+1), c)
		for j := 0; j <= k; j++ {
			b := Basis(k, j, u)
			for i := 0; i < 2; i++ {
				for l := 0; l < 2; l++ {
					want := 0.0
					if i == l {
						want = b
					}
					assert.InDeltaf(t, want, res.Jacobian.At(i, j*2+l), 1e-12,
						"u=%g block %d entry (%d,%d)", u, j, i, l)
				}
			}
		}
	}
}

func TestEvalJacobianNumericOnSO3(t *testing.T) {
	// perturb each control point with a right-plus step and compare the
	// analytic Jacobian block against finite differences
	const h = 1e-6
	rng := rand.New(rand.NewPCG(11, 11))
	const k = 2

	ctrl := make([]so3.SO3, k+1)
	ctrl[0] = so3.Random(rng)
	for i := 1; i <= k; i++ {
		ctrl[i] = lie.RPlus(ctrl[i-1], randSO3Tangent(rng, 0.4))
	}

	for _, u := range []float64{0.25, 0.7} {
		base, err := EvalControlPoints(k, ctrl, u, Derivatives{Jacobian: true})
		require.NoError(t, err)

		for j := 0; j <= k; j++ {
			for d := 0; d < 3; d++ {
				delta := mat.NewVecDense(3, nil)
				delta.SetVec(d, h)

				perturbed := make([]so3.SO3, len(ctrl))
				copy(perturbed, ctrl)
				perturbed[j] = lie.RPlus(ctrl[j], delta)

				res, err := EvalControlPoints(k, perturbed, u, Derivatives{})
				require.NoError(t, err)

				num := lie.RMinus(res.Value, base.Value)
				num.ScaleVec(1/h, num)
				for i := 0; i < 3; i++ {
					assert.InDeltaf(t, num.AtVec(i), base.Jacobian.At(i, j*3+d), 1e-5,
						"u=%g control %d direction %d row %d", u, j, d, i)
				}
			}
		}
	}
}

func powf(u float64, n int) float64 {
	p := 1.0
	for i := 0; i < n; i++ {
		p *= u
	}
	return p
}
