// Package y4m reads and writes YUV4MPEG2 streams, the uncompressed
// planar interchange format. The stream header supplies the frame
// geometry and chroma subsampling used to negotiate the filter before
// the first frame is processed.
package y4m

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zsiec/stillkeep/internal/video"
)

const (
	streamMagic = "YUV4MPEG2"
	frameMagic  = "FRAME"
)

// colorspaces maps Y4M colorspace tags to pixel formats.
var colorspaces = map[string]video.PixelFormat{
	"420":      video.FormatYUV420P,
	"420jpeg":  video.FormatYUV420P,
	"420mpeg2": video.FormatYUV420P,
	"420paldv": video.FormatYUV420P,
	"411":      video.FormatYUV411P,
	"410":      video.FormatYUV410P,
	"422":      video.FormatYUV422P,
	"444":      video.FormatYUV444P,
	"444alpha": video.FormatYUVA444P,
	"mono":     video.FormatGray8,
}

// Reader decodes frames from a YUV4MPEG2 stream.
type Reader struct {
	br   *bufio.Reader
	pool *video.FramePool

	width   int
	height  int
	format  video.PixelFormat
	rateNum int
	rateDen int

	frameIndex int64
}

// NewReader parses the stream header. The pool supplies frame storage;
// it may be nil for heap-backed frames.
func NewReader(r io.Reader, pool *video.FramePool) (*Reader, error) {
	br := bufio.NewReaderSize(r, 1<<16)

	line, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading stream header: %w", err)
	}
	line = strings.TrimSuffix(line, "\n")

	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != streamMagic {
		return nil, fmt.Errorf("not a YUV4MPEG2 stream")
	}

	rd := &Reader{
		br:      br,
		pool:    pool,
		format:  video.FormatYUV420P, // Y4M default when no C tag is present
		rateNum: 25,
		rateDen: 1,
	}

	for _, f := range fields[1:] {
		if len(f) < 2 {
			return nil, fmt.Errorf("malformed header parameter %q", f)
		}
		tag, val := f[0], f[1:]
		switch tag {
		case 'W':
			if rd.width, err = strconv.Atoi(val); err != nil {
				return nil, fmt.Errorf("malformed width %q", val)
			}
		case 'H':
			if rd.height, err = strconv.Atoi(val); err != nil {
				return nil, fmt.Errorf("malformed height %q", val)
			}
		case 'F':
			if rd.rateNum, rd.rateDen, err = parseRatio(val); err != nil {
				return nil, fmt.Errorf("malformed frame rate %q", val)
			}
		case 'C':
			format, ok := colorspaces[val]
			if !ok {
				return nil, fmt.Errorf("unsupported colorspace C%s", val)
			}
			rd.format = format
		case 'I', 'A', 'X':
			// Interlacing, aspect and extensions are passed over.
		default:
			return nil, fmt.Errorf("unknown header parameter %q", f)
		}
	}

	if rd.width <= 0 || rd.height <= 0 {
		return nil, fmt.Errorf("missing or invalid stream dimensions %dx%d", rd.width, rd.height)
	}

	return rd, nil
}

func parseRatio(val string) (num, den int, err error) {
	parts := strings.SplitN(val, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected num:den")
	}
	if num, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, err
	}
	if den, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, err
	}
	if den == 0 {
		return 0, 0, fmt.Errorf("zero denominator")
	}
	return num, den, nil
}

// Width returns the stream's frame width.
func (r *Reader) Width() int { return r.width }

// Height returns the stream's frame height.
func (r *Reader) Height() int { return r.height }

// Format returns the stream's pixel format.
func (r *Reader) Format() video.PixelFormat { return r.format }

// FrameRate returns the stream frame rate as a rational.
func (r *Reader) FrameRate() (num, den int) { return r.rateNum, r.rateDen }

// ReadFrame decodes the next frame. It returns io.EOF at the end of
// the stream. The caller owns the returned frame and must release it.
func (r *Reader) ReadFrame() (*video.Frame, error) {
	line, err := r.br.ReadString('\n')
	if err != nil {
		if err == io.EOF && line == "" {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading frame header: %w", err)
	}
	line = strings.TrimSuffix(line, "\n")

	if !strings.HasPrefix(line, frameMagic) {
		return nil, fmt.Errorf("malformed frame header %q", line)
	}

	var frame *video.Frame
	if r.pool != nil {
		frame, err = r.pool.Get(r.format, r.width, r.height)
	} else {
		frame, err = video.NewFrame(r.format, r.width, r.height)
	}
	if err != nil {
		return nil, err
	}

	// Plane data is tightly packed row after row; copy into the
	// stride-padded planes.
	for i := range frame.Planes {
		pw, ph := r.format.PlaneDimensions(i, r.width, r.height)
		p := frame.Planes[i]
		for y := 0; y < ph; y++ {
			row := p.Data[y*p.Stride : y*p.Stride+pw]
			if _, err := io.ReadFull(r.br, row); err != nil {
				frame.Release()
				return nil, fmt.Errorf("reading plane %d row %d: %w", i, y, err)
			}
		}
	}

	frame.PTS = r.frameIndex
	r.frameIndex++

	return frame, nil
}
