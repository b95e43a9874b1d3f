package dedup

import (
	"github.com/zsiec/stillkeep/internal/video"
)

// planeDiffers reports whether a plane changed relative to its
// reference. It samples 8x8 blocks on a 4 sample grid, starting at
// column 8 and row 0, visiting only blocks that fit fully inside the
// w x h region. A single block above hi proves the change outright; a
// block above lo counts toward a budget of t changed blocks, where
// t = (w/16)*(h/16)*frac truncated to an integer. Both breaches stop
// sampling immediately.
//
// The column-8 start offset is kept for bit compatibility with the
// classic decimation grid.
func planeDiffers(sad sadFn, cur, ref video.Plane, w, h, lo, hi int, frac float64) bool {
	c := 0
	t := int(float64((w/16)*(h/16)) * frac)

	for y := 0; y < h-7; y += 4 {
		for x := 8; x < w-7; x += 4 {
			d := sad(cur.Data[y*cur.Stride+x:], cur.Stride,
				ref.Data[y*ref.Stride+x:], ref.Stride)
			if d > hi {
				return true
			}
			if d > lo {
				c++
				if c > t {
					return true
				}
			}
		}
	}

	return false
}
