package y4m

import (
	"bufio"
	"fmt"
	"io"

	"github.com/zsiec/stillkeep/internal/video"
)

// outputTags maps pixel formats to the Y4M colorspace tag used when
// writing a stream header.
var outputTags = map[string]string{
	"yuv420p":  "420jpeg",
	"yuv411p":  "411",
	"yuv410p":  "410",
	"yuv422p":  "422",
	"yuv444p":  "444",
	"yuva444p": "444alpha",
	"gray8":    "mono",
}

// Writer encodes frames to a YUV4MPEG2 stream.
type Writer struct {
	bw     *bufio.Writer
	width  int
	height int
	format video.PixelFormat
}

// NewWriter writes the stream header and returns a writer that accepts
// frames of the given geometry.
func NewWriter(w io.Writer, format video.PixelFormat, width, height, rateNum, rateDen int) (*Writer, error) {
	tag, ok := outputTags[format.Name]
	if !ok {
		return nil, fmt.Errorf("pixel format %s has no YUV4MPEG2 colorspace", format.Name)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid stream dimensions %dx%d", width, height)
	}
	if rateDen <= 0 || rateNum <= 0 {
		return nil, fmt.Errorf("invalid frame rate %d:%d", rateNum, rateDen)
	}

	bw := bufio.NewWriterSize(w, 1<<16)
	if _, err := fmt.Fprintf(bw, "%s W%d H%d F%d:%d Ip A1:1 C%s\n",
		streamMagic, width, height, rateNum, rateDen, tag); err != nil {
		return nil, fmt.Errorf("writing stream header: %w", err)
	}

	return &Writer{bw: bw, width: width, height: height, format: format}, nil
}

// WriteFrame appends one frame record. The frame is not consumed; the
// caller keeps its reference.
func (w *Writer) WriteFrame(f *video.Frame) error {
	if !f.Valid() {
		return fmt.Errorf("writing released frame")
	}
	if f.Width != w.width || f.Height != w.height || f.Format.Name != w.format.Name {
		return fmt.Errorf("frame %s %dx%d does not match stream %s %dx%d",
			f.Format.Name, f.Width, f.Height, w.format.Name, w.width, w.height)
	}

	if _, err := fmt.Fprintf(w.bw, "%s\n", frameMagic); err != nil {
		return fmt.Errorf("writing frame header: %w", err)
	}

	for i := range f.Planes {
		pw, ph := w.format.PlaneDimensions(i, w.width, w.height)
		p := f.Planes[i]
		for y := 0; y < ph; y++ {
			row := p.Data[y*p.Stride : y*p.Stride+pw]
			if _, err := w.bw.Write(row); err != nil {
				return fmt.Errorf("writing plane %d row %d: %w", i, y, err)
			}
		}
	}

	return nil
}

// Flush drains buffered output to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}
