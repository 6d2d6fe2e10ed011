package transfer

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/blacklight-gr/blacklight/pkg/coefficients"
)

// Stokes is the polarized radiative transfer state S = (I,Q,U,V).
type Stokes [4]float64

// transportMatrix builds the constant-coefficient operator M such that
// dS/dlambda = J - M S, per spec.md 4.F: alpha_I on the diagonal, alpha_Q
// and alpha_V mixing I with Q and V (absorption), rho_V mixing Q/U
// (Faraday rotation of the position angle) and rho_Q mixing Q/V directly
// (Faraday conversion between linear and circular polarization). There is
// no explicit U emission or absorption channel; U only appears through
// rho_V, matching the polarization basis convention spec.md 4.F's channel
// list implies. The Q/V pairing (rather than routing rho_Q through U) is
// required for spec.md 8 scenario S4 (rho_Q alone, U=V=0 initially, must
// rotate Q into V and back without ever populating U).
func transportMatrix(c coefficients.Set) [4][4]float64 {
	return [4][4]float64{
		{c.AlphaI, c.AlphaQ, 0, c.AlphaV},
		{c.AlphaQ, c.AlphaI, c.RhoV, -c.RhoQ},
		{0, -c.RhoV, c.AlphaI, 0},
		{c.AlphaV, c.RhoQ, 0, c.AlphaI},
	}
}

func emissionVector(c coefficients.Set) [4]float64 {
	return [4]float64{c.JI, c.JQ, 0, c.JV}
}

// smallRotationThreshold selects the matrix-exponential-series fallback
// over the diagonalized o-mode-exact solution when the step's squared
// rotation+absorption phase (rho_P^2 + alpha_P^2)*dlam^2 is below it, where
// either method agrees to machine precision but the diagonalization path risks a
// near-degenerate eigenbasis (spec.md 4.F: "fall back to matrix
// exponential series for small rho").
const smallRotationThreshold = 1e-6

// Step advances the polarized Stokes state S by one sample's affine-
// parameter increment dlam, given the (assumed locally constant)
// coefficients c, via the o-mode-exact diagonalization method with a
// Taylor-series fallback for small phases and for steps exactStep cannot
// solve.
func Step(s Stokes, c coefficients.Set, dlam float64) Stokes {
	m := transportMatrix(c)
	j := emissionVector(c)

	rhoP2 := c.RhoQ*c.RhoQ + c.RhoV*c.RhoV
	alphaP2 := c.AlphaQ*c.AlphaQ + c.AlphaV*c.AlphaV
	phase := (rhoP2 + alphaP2) * dlam * dlam

	if phase < smallRotationThreshold {
		return Stokes(taylorStep(m, j, [4]float64(s), dlam))
	}

	if out, ok := exactStep(m, j, [4]float64(s), dlam); ok {
		return Stokes(out)
	}
	return Stokes(taylorStep(m, j, [4]float64(s), dlam))
}

// taylorStep implements the matrix-exponential-series fallback: since
// S^(1) = J - M S and S^(k) = (-M)^(k-1) S^(1) for k >= 1 (J is constant
// over the step), the Taylor expansion of S(dlam) around dlam=0 is built
// from repeated applications of -M.
func taylorStep(m [4][4]float64, j, s0 [4]float64, dlam float64) [4]float64 {
	const order = 8
	s1 := subVec4(j, matVec4(m, s0))

	sum := addVec4(s0, scaleVec4(s1, dlam))
	term := s1
	coeff := dlam
	var negM [4][4]float64
	for i := range m {
		for k := range m[i] {
			negM[i][k] = -m[i][k]
		}
	}
	for k := 2; k <= order; k++ {
		term = matVec4(negM, term)
		coeff *= dlam / float64(k)
		sum = addVec4(sum, scaleVec4(term, coeff))
	}
	return sum
}

// exactStep solves dS/dlambda = J - M S exactly over the step by
// diagonalizing M (via gonum's general eigendecomposition): writing the
// steady state S_ss = M^-1 J, the solution is
// S(dlam) = exp(-M dlam) (S0 - S_ss) + S_ss.
// When M is singular (e.g. no absorption) and J = 0 the steady state is
// taken as zero, giving S(dlam) = exp(-M dlam) S0; a singular M with
// nonzero J reports failure.
func exactStep(m [4][4]float64, j, s0 [4]float64, dlam float64) ([4]float64, bool) {
	sSS, ok := solve4(m, j)
	if !ok {
		if j != ([4]float64{}) {
			return [4]float64{}, false
		}
		sSS = [4]float64{}
	}

	dense := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for k := 0; k < 4; k++ {
			dense.Set(i, k, m[i][k])
		}
	}

	var eig mat.Eigen
	if !eig.Factorize(dense, mat.EigenRight) {
		return [4]float64{}, false
	}
	values := eig.Values(nil)
	var vectors mat.CDense
	eig.VectorsTo(&vectors)

	var v, vInv [4][4]complex128
	for i := 0; i < 4; i++ {
		for k := 0; k < 4; k++ {
			v[i][k] = vectors.At(i, k)
		}
	}
	vInv, ok = complexInverse4(v)
	if !ok {
		return [4]float64{}, false
	}

	var expM [4][4]float64
	for i := 0; i < 4; i++ {
		for k := 0; k < 4; k++ {
			var sum complex128
			for a := 0; a < 4; a++ {
				sum += v[i][a] * cmplx.Exp(-values[a]*complex(dlam, 0)) * vInv[a][k]
			}
			expM[i][k] = real(sum)
		}
	}

	diff := subVec4(s0, sSS)
	out := addVec4(matVec4(expM, diff), sSS)
	return out, true
}
