package transfer

import "math/cmplx"

// matVec4 returns M*v for a real 4x4 matrix stored row-major as [4][4]float64.
func matVec4(m [4][4]float64, v [4]float64) [4]float64 {
	var out [4]float64
	for i := 0; i < 4; i++ {
		var sum float64
		for j := 0; j < 4; j++ {
			sum += m[i][j] * v[j]
		}
		out[i] = sum
	}
	return out
}

func scaleVec4(v [4]float64, s float64) [4]float64 {
	return [4]float64{v[0] * s, v[1] * s, v[2] * s, v[3] * s}
}

func addVec4(a, b [4]float64) [4]float64 {
	return [4]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func subVec4(a, b [4]float64) [4]float64 {
	return [4]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
}

// solve4 solves M x = b via Gauss-Jordan elimination with partial pivoting.
// Returns ok=false if M is numerically singular.
func solve4(m [4][4]float64, b [4]float64) (x [4]float64, ok bool) {
	var a [4][5]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			a[i][j] = m[i][j]
		}
		a[i][4] = b[i]
	}

	for col := 0; col < 4; col++ {
		piv := col
		best := absF(a[col][col])
		for row := col + 1; row < 4; row++ {
			if v := absF(a[row][col]); v > best {
				best = v
				piv = row
			}
		}
		if best < 1e-300 {
			return x, false
		}
		a[col], a[piv] = a[piv], a[col]

		inv := 1.0 / a[col][col]
		for j := col; j < 5; j++ {
			a[col][j] *= inv
		}
		for row := 0; row < 4; row++ {
			if row == col {
				continue
			}
			f := a[row][col]
			if f == 0 {
				continue
			}
			for j := col; j < 5; j++ {
				a[row][j] -= f * a[col][j]
			}
		}
	}

	for i := 0; i < 4; i++ {
		x[i] = a[i][4]
	}
	return x, true
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// complexInverse4 inverts a 4x4 complex matrix via Gauss-Jordan elimination
// with partial pivoting (by magnitude). Returns ok=false if singular.
func complexInverse4(m [4][4]complex128) (inv [4][4]complex128, ok bool) {
	var a [4][8]complex128
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			a[i][j] = m[i][j]
		}
		a[i][4+i] = 1
	}

	for col := 0; col < 4; col++ {
		piv := col
		best := cmplx.Abs(a[col][col])
		for row := col + 1; row < 4; row++ {
			if v := cmplx.Abs(a[row][col]); v > best {
				best = v
				piv = row
			}
		}
		if best < 1e-300 {
			return inv, false
		}
		a[col], a[piv] = a[piv], a[col]

		invPivot := 1 / a[col][col]
		for j := col; j < 8; j++ {
			a[col][j] *= invPivot
		}
		for row := 0; row < 4; row++ {
			if row == col {
				continue
			}
			f := a[row][col]
			if f == 0 {
				continue
			}
			for j := col; j < 8; j++ {
				a[row][j] -= f * a[col][j]
			}
		}
	}

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			inv[i][j] = a[i][4+j]
		}
	}
	return inv, true
}
