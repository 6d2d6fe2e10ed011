package geodesic

import "math"

// Dormand-Prince 5(4) Butcher tableau (Dormand & Prince, 1980), the
// standard embedded-error-estimate RK45 pair. b gives the 5th-order
// solution (it equals the last row of dpA, but dopri5Step does not reuse
// that stage; every step evaluates f(y) afresh);
// bStar gives the embedded 4th-order solution used only for error
// estimation, never propagated.
var (
	dpC = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}

	dpA = [7][6]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}

	dpB = [7]float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0}

	dpBStar = [7]float64{
		5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640,
		-92097.0 / 339200, 187.0 / 2100, 1.0 / 40,
	}
)

// dopri5Step advances y by step h, returning the 5th-order solution and the
// per-component error estimate (5th minus 4th order), following spec.md
// 4.C step 1.
func dopri5Step(f func(State) State, y State, h float64) (yNew State, errEst State) {
	var k [7]State
	k[0] = f(y)

	for stage := 1; stage < 7; stage++ {
		var yStage State
		for i := range yStage {
			sum := y[i]
			for j := 0; j < stage; j++ {
				sum += h * dpA[stage][j] * k[j][i]
			}
			yStage[i] = sum
		}
		k[stage] = f(yStage)
	}

	for i := range yNew {
		var sum, sumStar float64
		for s := 0; s < 7; s++ {
			sum += dpB[s] * k[s][i]
			sumStar += dpBStar[s] * k[s][i]
		}
		yNew[i] = y[i] + h*sum
		errEst[i] = h * (sum - sumStar)
	}

	return yNew, errEst
}

// scaledErrorNorm implements spec.md 4.C step 2-3: component-wise scaled
// tolerance tau = tolAbs + tolRel*max(|y|,|yNew|), normalized error
// e = ||errEst/tau|| (RMS norm over the 9 components).
func scaledErrorNorm(y, yNew, errEst State, tolAbs, tolRel float64) float64 {
	var sumSq float64
	for i := range y {
		scale := math.Abs(y[i])
		if ay := math.Abs(yNew[i]); ay > scale {
			scale = ay
		}
		tau := tolAbs + tolRel*scale
		if tau <= 0 {
			tau = tolAbs
		}
		ratio := errEst[i] / tau
		sumSq += ratio * ratio
	}
	return math.Sqrt(sumSq / float64(len(y)))
}
