package raster

import (
	"bytes"
	"fmt"
)

// ESC/POS raster mode command sequences, matching the byte stream
// python-escpos emits for Usb/Network printers.
var (
	cmdInit = []byte{0x1b, 0x40}             // ESC @: initialize
	cmdFeed = []byte{0x1b, 0x64, 0x04}       // ESC d 4: feed 4 lines clear of the head
	cmdCut  = []byte{0x1d, 0x56, 0x42, 0x00} // GS V B 0: partial cut with feed
)

// rasterHeader is GS v 0 m=0 (normal density). xL/xH/yL/yH follow.
var rasterHeader = []byte{0x1d, 0x76, 0x30, 0x00}

// MaxBandRows caps the rows carried by a single raster command. Firmware
// buffers one band at a time; bands beyond this height are rejected.
const MaxBandRows = 255

// Job is one complete receipt as an ordered sequence of printer command
// chunks. It is immutable once built and consumed exactly once by a
// transport.
type Job struct {
	Chunks [][]byte
}

// Bytes flattens the job into the raw stream sent to the device.
func (j *Job) Bytes() []byte {
	var buf bytes.Buffer
	for _, c := range j.Chunks {
		buf.Write(c)
	}
	return buf.Bytes()
}

// Encode serializes a bitmap into raster commands: initialize, one GS v 0
// band per run of up to MaxBandRows rows, then feed and cut. The bitmap's
// byte-padded stride means the wire width is always a multiple of 8; the
// padding bits are blank.
func Encode(b *Bitmap) (*Job, error) {
	if b.Width <= 0 || b.Height <= 0 {
		return nil, fmt.Errorf("empty bitmap %dx%d", b.Width, b.Height)
	}
	if b.Stride > 0xffff {
		return nil, fmt.Errorf("bitmap too wide: stride %d", b.Stride)
	}

	job := &Job{}
	job.Chunks = append(job.Chunks, cmdInit)

	for row := 0; row < b.Height; row += MaxBandRows {
		rows := b.Height - row
		if rows > MaxBandRows {
			rows = MaxBandRows
		}
		band := make([]byte, 0, len(rasterHeader)+4+rows*b.Stride)
		band = append(band, rasterHeader...)
		band = append(band,
			byte(b.Stride), byte(b.Stride>>8),
			byte(rows), byte(rows>>8),
		)
		band = append(band, b.Bytes[row*b.Stride:(row+rows)*b.Stride]...)
		job.Chunks = append(job.Chunks, band)
	}

	job.Chunks = append(job.Chunks, cmdFeed, cmdCut)
	return job, nil
}

// DecodeJob parses a job back into pixels. It is the inverse of Encode,
// used by the dry-run file sink and by round-trip tests. The decoded
// width is the wire width (stride * 8), including any padding columns.
func DecodeJob(j *Job) (*Bitmap, error) {
	data := j.Bytes()

	if !bytes.HasPrefix(data, cmdInit) {
		return nil, fmt.Errorf("job does not begin with initialize")
	}
	data = data[len(cmdInit):]

	var stride, height int
	var rows [][]byte
	for bytes.HasPrefix(data, rasterHeader) {
		data = data[len(rasterHeader):]
		if len(data) < 4 {
			return nil, fmt.Errorf("truncated raster header")
		}
		bandStride := int(data[0]) | int(data[1])<<8
		bandRows := int(data[2]) | int(data[3])<<8
		data = data[4:]

		if stride == 0 {
			stride = bandStride
		} else if bandStride != stride {
			return nil, fmt.Errorf("band stride %d does not match %d", bandStride, stride)
		}
		n := bandStride * bandRows
		if len(data) < n {
			return nil, fmt.Errorf("truncated raster band: need %d bytes, have %d", n, len(data))
		}
		for r := 0; r < bandRows; r++ {
			rows = append(rows, data[r*bandStride:(r+1)*bandStride])
		}
		height += bandRows
		data = data[n:]
	}

	if stride == 0 || height == 0 {
		return nil, fmt.Errorf("job carries no raster data")
	}
	if !bytes.HasPrefix(data, cmdFeed) {
		return nil, fmt.Errorf("job missing trailing feed")
	}
	data = data[len(cmdFeed):]
	if !bytes.Equal(data, cmdCut) {
		return nil, fmt.Errorf("job does not end with cut")
	}

	b := New(stride*8, height)
	for y, row := range rows {
		copy(b.Bytes[y*b.Stride:], row)
	}
	return b, nil
}
