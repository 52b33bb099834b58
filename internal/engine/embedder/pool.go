package embedder

import "math"

// meanPool averages transformer hidden states over the non-padding tokens
// of each sample.
//
// hidden: flat [batchSize * seqLen * dim]
// mask:   flat [batchSize * seqLen], 1 for real tokens
//
// Returns flat [batchSize * dim]. Samples with no real tokens pool to zeros.
func meanPool(hidden []float32, mask []int64, batchSize, seqLen, dim int64) []float32 {
	out := make([]float32, batchSize*dim)

	for b := int64(0); b < batchSize; b++ {
		acc := out[b*dim : (b+1)*dim]
		var count float32
		for s := int64(0); s < seqLen; s++ {
			if mask[b*seqLen+s] != 1 {
				continue
			}
			count++
			tok := hidden[(b*seqLen+s)*dim : (b*seqLen+s+1)*dim]
			for d, v := range tok {
				acc[d] += v
			}
		}
		if count == 0 {
			continue
		}
		for d := range acc {
			acc[d] /= count
		}
	}

	return out
}

// normalize scales vec to unit length in place. Zero vectors are returned as is.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
