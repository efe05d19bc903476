package segment

import (
	"fmt"
	"math/bits"

	"github.com/tanq16/segdl/internal/utils"
)

// Plan splits [0, totalSize-1] into workers inclusive ranges. Range i spans
// floor(size*i/n) to floor(size*(i+1)/n)-1, so lengths differ by at most one
// byte and the later ranges take the remainder.
func Plan(totalSize int64, workers int) ([]utils.ByteRange, error) {
	if totalSize < 1 {
		return nil, fmt.Errorf("%w: total size %d", utils.ErrInvalidPlan, totalSize)
	}
	if workers < 1 || int64(workers) > totalSize {
		return nil, fmt.Errorf("%w: %d workers for %d bytes", utils.ErrInvalidPlan, workers, totalSize)
	}
	ranges := make([]utils.ByteRange, workers)
	for i := range workers {
		ranges[i] = utils.ByteRange{
			Index: i,
			Start: boundary(totalSize, i, workers),
			End:   boundary(totalSize, i+1, workers) - 1,
		}
	}
	return ranges, nil
}

// boundary computes floor(size*i/n) with a 128-bit product. i <= n keeps the
// quotient below size, so Div64 cannot overflow.
func boundary(size int64, i, n int) int64 {
	hi, lo := bits.Mul64(uint64(size), uint64(i))
	q, _ := bits.Div64(hi, lo, uint64(n))
	return int64(q)
}

// EffectiveWorkers caps the requested worker count so every range holds at
// least one byte.
func EffectiveWorkers(totalSize int64, requested int) int {
	if totalSize > 0 && int64(requested) > totalSize {
		return int(totalSize)
	}
	return requested
}
