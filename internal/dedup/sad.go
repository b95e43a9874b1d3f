package dedup

import (
	"fmt"

	"github.com/zsiec/stillkeep/internal/errors"
)

// sadFn computes the sum of absolute differences between two blocks of
// fixed size, given each block's origin slice and row stride. Block
// origins may sit at arbitrary offsets; no alignment is assumed.
type sadFn func(cur []byte, curStride int, ref []byte, refStride int) int

// newSADFn returns a comparator for blocks of 2^log2w x 2^log2h
// samples. Only 8x8 blocks are implemented; other geometries fail with
// a configuration error.
func newSADFn(log2w, log2h int) (sadFn, error) {
	if log2w != 3 || log2h != 3 {
		return nil, errors.NewConfigError(
			fmt.Sprintf("no SAD comparator for %dx%d blocks", 1<<log2w, 1<<log2h))
	}
	return sad8x8, nil
}

// sad8x8 sums |cur-ref| over an 8x8 sample block. Result range for
// 8-bit samples is [0, 8*8*255].
func sad8x8(cur []byte, curStride int, ref []byte, refStride int) int {
	sum := 0
	for y := 0; y < 8; y++ {
		c := cur[y*curStride : y*curStride+8]
		r := ref[y*refStride : y*refStride+8]
		for x := 0; x < 8; x++ {
			d := int(c[x]) - int(r[x])
			if d < 0 {
				d = -d
			}
			sum += d
		}
	}
	return sum
}
