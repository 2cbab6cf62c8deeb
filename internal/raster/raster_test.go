package raster

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func checker(width, height int) *Bitmap {
	b := New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+y)%3 == 0 {
				b.Set(x, y, true)
			}
		}
	}
	return b
}

func TestBitmapSetAt(t *testing.T) {
	b := New(16, 4)
	b.Set(0, 0, true)
	b.Set(7, 0, true)
	b.Set(8, 1, true)
	b.Set(15, 3, true)

	if !b.At(0, 0) || !b.At(7, 0) || !b.At(8, 1) || !b.At(15, 3) {
		t.Error("set pixels should read back dark")
	}
	if b.At(1, 0) || b.At(8, 0) {
		t.Error("unset pixels should read back white")
	}

	// MSB-first packing: x=0 is bit 0x80 of the row's first byte.
	if b.Bytes[0] != 0x81 {
		t.Errorf("row 0 byte 0 = %02x, want 81", b.Bytes[0])
	}
	if b.Bytes[b.Stride] != 0x00 || b.Bytes[b.Stride+1] != 0x80 {
		t.Errorf("row 1 = %02x %02x, want 00 80", b.Bytes[b.Stride], b.Bytes[b.Stride+1])
	}

	b.Set(0, 0, false)
	if b.At(0, 0) {
		t.Error("cleared pixel should read back white")
	}
}

func TestBitmapOutOfRange(t *testing.T) {
	b := New(8, 2)
	b.Set(-1, 0, true)
	b.Set(8, 0, true)
	b.Set(0, 2, true)
	for _, by := range b.Bytes {
		if by != 0 {
			t.Fatal("out-of-range Set must not touch storage")
		}
	}
	if b.At(-1, 0) || b.At(8, 0) || b.At(0, -1) {
		t.Error("out-of-range At must report white")
	}
}

func TestFromImagePadsWidth(t *testing.T) {
	// 13 px wide: wire format needs a multiple of 8, so 3 blank columns.
	img := image.NewGray(image.Rect(0, 0, 13, 5))
	for y := 0; y < 5; y++ {
		for x := 0; x < 13; x++ {
			img.SetGray(x, y, color.Gray{Y: 0xff})
		}
	}
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(12, 4, color.Gray{Y: 0x20})
	img.SetGray(5, 2, color.Gray{Y: 0x90}) // above threshold, stays white

	b := FromImage(img)
	if b.Width != 16 {
		t.Fatalf("expected padded width 16, got %d", b.Width)
	}
	if !b.At(0, 0) || !b.At(12, 4) {
		t.Error("dark pixels lost in thresholding")
	}
	if b.At(5, 2) {
		t.Error("light gray should threshold to white")
	}
	for y := 0; y < 5; y++ {
		for x := 13; x < 16; x++ {
			if b.At(x, y) {
				t.Fatalf("padding column (%d,%d) must be blank", x, y)
			}
		}
	}
}

func TestEncodeFrameCommands(t *testing.T) {
	job, err := Encode(checker(384, 40))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	data := job.Bytes()
	if !bytes.HasPrefix(data, []byte{0x1b, 0x40}) {
		t.Error("job must begin with the initialize command")
	}
	if !bytes.HasSuffix(data, []byte{0x1d, 0x56, 0x42, 0x00}) {
		t.Error("job must end with the cut command")
	}

	// 40 rows fit one band: init + band + feed + cut.
	if len(job.Chunks) != 4 {
		t.Errorf("expected 4 chunks, got %d", len(job.Chunks))
	}
	band := job.Chunks[1]
	if !bytes.HasPrefix(band, []byte{0x1d, 0x76, 0x30, 0x00}) {
		t.Fatal("band must start with GS v 0")
	}
	stride := int(band[4]) | int(band[5])<<8
	rows := int(band[6]) | int(band[7])<<8
	if stride != 48 || rows != 40 {
		t.Errorf("band header stride=%d rows=%d, want 48, 40", stride, rows)
	}
}

func TestEncodeSplitsTallBitmaps(t *testing.T) {
	job, err := Encode(checker(64, MaxBandRows*2+10))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// init + 3 bands + feed + cut
	if len(job.Chunks) != 6 {
		t.Fatalf("expected 6 chunks, got %d", len(job.Chunks))
	}
	for i, wantRows := range []int{MaxBandRows, MaxBandRows, 10} {
		band := job.Chunks[1+i]
		rows := int(band[6]) | int(band[7])<<8
		if rows != wantRows {
			t.Errorf("band %d: %d rows, want %d", i, rows, wantRows)
		}
	}
}

func TestEncodeRejectsEmpty(t *testing.T) {
	if _, err := Encode(New(0, 10)); err == nil {
		t.Error("expected error for zero-width bitmap")
	}
	if _, err := Encode(New(10, 0)); err == nil {
		t.Error("expected error for zero-height bitmap")
	}
}

func TestRoundTrip(t *testing.T) {
	src := checker(384, MaxBandRows+17)
	job, err := Encode(src)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := DecodeJob(job)
	if err != nil {
		t.Fatalf("DecodeJob: %v", err)
	}
	if got.Width != src.Width || got.Height != src.Height {
		t.Fatalf("decoded %dx%d, want %dx%d", got.Width, got.Height, src.Width, src.Height)
	}
	if !bytes.Equal(got.Bytes, src.Bytes) {
		t.Error("decoded pixels differ from source")
	}
}

func TestRoundTripUnalignedWidth(t *testing.T) {
	// 13 px source image: padding columns survive the trip as blank.
	img := image.NewGray(image.Rect(0, 0, 13, 9))
	for y := 0; y < 9; y++ {
		for x := 0; x < 13; x++ {
			v := uint8(0xff)
			if x == y {
				v = 0
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	src := FromImage(img)

	job, err := Encode(src)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := DecodeJob(job)
	if err != nil {
		t.Fatalf("DecodeJob: %v", err)
	}
	if got.Width != 16 {
		t.Fatalf("decoded width %d, want 16", got.Width)
	}
	if !bytes.Equal(got.Bytes, src.Bytes) {
		t.Error("decoded pixels differ from source")
	}
	for y := 0; y < 9; y++ {
		for x := 13; x < 16; x++ {
			if got.At(x, y) {
				t.Fatalf("padding column (%d,%d) must decode blank", x, y)
			}
		}
	}
}

func TestDecodeRejectsMalformedJobs(t *testing.T) {
	good, _ := Encode(checker(64, 8))

	cases := map[string]*Job{
		"missing init": {Chunks: good.Chunks[1:]},
		"missing cut":  {Chunks: good.Chunks[:len(good.Chunks)-1]},
		"no bands":     {Chunks: [][]byte{{0x1b, 0x40}, {0x1b, 0x64, 0x04}, {0x1d, 0x56, 0x42, 0x00}}},
	}
	for name, job := range cases {
		if _, err := DecodeJob(job); err == nil {
			t.Errorf("%s: expected decode error", name)
		}
	}
}
