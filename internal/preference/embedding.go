package preference

import (
	"hash/fnv"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// embed compresses the feature matrix into a single dim-length vector.
//
// The rows are mean-centered, their covariance eigendecomposed, and each row
// projected onto the top eigenvectors (by descending eigenvalue). The
// projected rows are then mean-pooled into one vector and zero-padded to dim.
// The result is deterministic up to the eigenvector sign convention.
//
// A single row has no covariance structure; the documented fallback is a
// small random vector, seeded from the row itself so repeated calls with the
// same input agree.
func embed(rows [][]float64, dim int) []float64 {
	out := make([]float64, dim)
	if len(rows) == 0 {
		return out
	}
	if len(rows) == 1 {
		return seededNoise(rows[0], dim)
	}

	n := len(rows)
	centered := centerRows(rows)

	// Covariance of the feature columns.
	cov := mat.NewSymDense(featureDim, nil)
	for a := 0; a < featureDim; a++ {
		for b := a; b < featureDim; b++ {
			sum := 0.0
			for r := 0; r < n; r++ {
				sum += centered[r][a] * centered[r][b]
			}
			cov.SetSym(a, b, sum/float64(n-1))
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		// Degenerate covariance: fall back the same way as a single row.
		return seededNoise(rows[0], dim)
	}

	vals := eig.Values(nil) // ascending
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Project each row onto the top components, largest eigenvalue first,
	// and mean-pool the projections.
	components := featureDim
	if dim < components {
		components = dim
	}
	for c := 0; c < components; c++ {
		col := len(vals) - 1 - c // descending eigenvalue order
		sum := 0.0
		for r := 0; r < n; r++ {
			dot := 0.0
			for f := 0; f < featureDim; f++ {
				dot += centered[r][f] * vecs.At(f, col)
			}
			sum += dot
		}
		out[c] = sum / float64(n)
	}
	return out
}

// centerRows subtracts the column means from every row.
func centerRows(rows [][]float64) [][]float64 {
	means := make([]float64, featureDim)
	for _, row := range rows {
		for f, v := range row {
			means[f] += v
		}
	}
	for f := range means {
		means[f] /= float64(len(rows))
	}
	centered := make([][]float64, len(rows))
	for r, row := range rows {
		c := make([]float64, featureDim)
		for f, v := range row {
			c[f] = v - means[f]
		}
		centered[r] = c
	}
	return centered
}

// seededNoise returns a small deterministic pseudo-random vector derived
// from the given feature row.
func seededNoise(row []float64, dim int) []float64 {
	h := fnv.New64a()
	for _, v := range row {
		bits := math.Float64bits(v)
		var buf [8]byte
		for b := 0; b < 8; b++ {
			buf[b] = byte(bits >> (8 * b))
		}
		h.Write(buf[:])
	}
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	out := make([]float64, dim)
	for i := range out {
		out[i] = (rng.Float64() - 0.5) * 0.02
	}
	return out
}
