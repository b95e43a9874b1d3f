package video

import "fmt"

// PixelFormat describes an 8-bit planar pixel layout: how many planes a
// frame carries and how much the chroma planes are subsampled relative
// to luma.
type PixelFormat struct {
	Name        string
	PlaneCount  int
	Log2ChromaW int // log2 horizontal subsampling of planes 1 and 2
	Log2ChromaH int // log2 vertical subsampling of planes 1 and 2
	HasAlpha    bool
}

// Supported 8-bit planar formats.
var (
	FormatYUV420P  = PixelFormat{Name: "yuv420p", PlaneCount: 3, Log2ChromaW: 1, Log2ChromaH: 1}
	FormatYUV422P  = PixelFormat{Name: "yuv422p", PlaneCount: 3, Log2ChromaW: 1, Log2ChromaH: 0}
	FormatYUV444P  = PixelFormat{Name: "yuv444p", PlaneCount: 3, Log2ChromaW: 0, Log2ChromaH: 0}
	FormatYUV411P  = PixelFormat{Name: "yuv411p", PlaneCount: 3, Log2ChromaW: 2, Log2ChromaH: 0}
	FormatYUV410P  = PixelFormat{Name: "yuv410p", PlaneCount: 3, Log2ChromaW: 2, Log2ChromaH: 2}
	FormatYUV440P  = PixelFormat{Name: "yuv440p", PlaneCount: 3, Log2ChromaW: 0, Log2ChromaH: 1}
	FormatYUVA420P = PixelFormat{Name: "yuva420p", PlaneCount: 4, Log2ChromaW: 1, Log2ChromaH: 1, HasAlpha: true}
	FormatYUVA422P = PixelFormat{Name: "yuva422p", PlaneCount: 4, Log2ChromaW: 1, Log2ChromaH: 0, HasAlpha: true}
	FormatYUVA444P = PixelFormat{Name: "yuva444p", PlaneCount: 4, Log2ChromaW: 0, Log2ChromaH: 0, HasAlpha: true}
	FormatGBRP     = PixelFormat{Name: "gbrp", PlaneCount: 3}
	FormatGray8    = PixelFormat{Name: "gray8", PlaneCount: 1}
)

var formats = map[string]PixelFormat{
	FormatYUV420P.Name:  FormatYUV420P,
	FormatYUV422P.Name:  FormatYUV422P,
	FormatYUV444P.Name:  FormatYUV444P,
	FormatYUV411P.Name:  FormatYUV411P,
	FormatYUV410P.Name:  FormatYUV410P,
	FormatYUV440P.Name:  FormatYUV440P,
	FormatYUVA420P.Name: FormatYUVA420P,
	FormatYUVA422P.Name: FormatYUVA422P,
	FormatYUVA444P.Name: FormatYUVA444P,
	FormatGBRP.Name:     FormatGBRP,
	FormatGray8.Name:    FormatGray8,
}

// FormatByName looks up a pixel format by its canonical name.
func FormatByName(name string) (PixelFormat, error) {
	f, ok := formats[name]
	if !ok {
		return PixelFormat{}, fmt.Errorf("unsupported pixel format: %s", name)
	}
	return f, nil
}

// CeilRShift shifts a right by shift bits, rounding up. Chroma plane
// dimensions for odd frame sizes round up, matching common planar
// layout conventions.
func CeilRShift(a, shift int) int {
	return (a + (1 << shift) - 1) >> shift
}

// PlaneDimensions returns the sample dimensions of plane index i for a
// frame of nominal size w x h. Subsampling applies only to planes 1
// and 2; luma and alpha are always full resolution.
func (f PixelFormat) PlaneDimensions(i, w, h int) (pw, ph int) {
	if i == 1 || i == 2 {
		return CeilRShift(w, f.Log2ChromaW), CeilRShift(h, f.Log2ChromaH)
	}
	return w, h
}
