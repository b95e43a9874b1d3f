package dedup

import (
	"github.com/zsiec/stillkeep/internal/metrics"
	"github.com/zsiec/stillkeep/internal/video"
)

// frameDiffers reports whether cur differs from ref in any plane.
// Planes are examined in index order and must be contiguous: the first
// absent plane (no data or no stride) ends the scan. Subsampling
// applies only to planes 1 and 2; an 8x8 comparison block on a
// subsampled plane covers a larger picture area, which is accepted --
// localized chroma-only changes diluted below the thresholds by the
// effectively larger block size go undetected.
func (f *Filter) frameDiffers(cur, ref *video.Frame) bool {
	for i := 0; i < len(ref.Planes); i++ {
		if ref.Planes[i].Data == nil || ref.Planes[i].Stride == 0 {
			break
		}

		hsub, vsub := 0, 0
		if i == 1 || i == 2 {
			hsub, vsub = f.hsub, f.vsub
		}

		w := video.CeilRShift(ref.Width, hsub)
		h := video.CeilRShift(ref.Height, vsub)

		metrics.IncrementPlanesCompared()
		if planeDiffers(f.sad, cur.Planes[i], ref.Planes[i], w, h, f.opts.Lo, f.opts.Hi, f.opts.Frac) {
			metrics.IncrementPlanesChanged()
			return true
		}
	}

	return false
}
