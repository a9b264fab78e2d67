package sourcefile

import (
	"encoding/binary"
	"math"
	"testing"
)

// buildGridDefSection encodes a minimal Template 3.0 (regular lat/lon)
// grid definition section body. la1/lo1/la2/lo2/di/dj are in degrees;
// the GRIB2 wire format stores them as micro-degree sign-magnitude
// integers.
func buildGridDefSection(ni, nj int, la1, lo1, la2, lo2, di, dj float64, scanFlags byte) []byte {
	body := make([]byte, 70)
	binary.BigEndian.PutUint32(body[16:20], uint32(ni))
	binary.BigEndian.PutUint32(body[20:24], uint32(nj))
	putSignMagnitude32(body[33:37], la1*1e6)
	putSignMagnitude32(body[37:41], lo1*1e6)
	putSignMagnitude32(body[42:46], la2*1e6)
	putSignMagnitude32(body[46:50], lo2*1e6)
	putSignMagnitude32(body[50:54], di*1e6)
	putSignMagnitude32(body[54:58], dj*1e6)
	body[58] = scanFlags
	return section(3, body)
}

func buildDataRepSection(ref float32, binScale, decScale int, bits byte) []byte {
	body := make([]byte, 16)
	binary.BigEndian.PutUint32(body[7:11], math.Float32bits(ref))
	putSignMagnitude16(body[11:13], binScale)
	putSignMagnitude16(body[13:15], decScale)
	body[15] = bits
	return section(5, body)
}

func buildBitmapSection() []byte {
	return section(6, []byte{255})
}

func buildDataSection(values []uint16) []byte {
	body := make([]byte, len(values)*2)
	for i, v := range values {
		binary.BigEndian.PutUint16(body[i*2:i*2+2], v)
	}
	return section(7, body)
}

func section(num byte, body []byte) []byte {
	out := make([]byte, 5+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(5+len(body)))
	out[4] = num
	copy(out[5:], body)
	return out
}

func putSignMagnitude32(dst []byte, v float64) {
	mag := uint32(v)
	if v < 0 {
		mag = uint32(-v) | 0x80000000
	}
	binary.BigEndian.PutUint32(dst, mag)
}

func putSignMagnitude16(dst []byte, v int) {
	mag := uint16(v)
	if v < 0 {
		mag = uint16(-v) | 0x8000
	}
	binary.BigEndian.PutUint16(dst, mag)
}

func TestDecodeGRIB2RegularLatLonNorthToSouth(t *testing.T) {
	msg := []byte("GRIB" + string(make([]byte, 12)))
	msg = append(msg, buildGridDefSection(2, 2, 10, 0, 0, 10, 10, 10, 0x00)...)
	msg = append(msg, buildDataRepSection(0, 0, 0, 16)...)
	msg = append(msg, buildBitmapSection()...)
	msg = append(msg, buildDataSection([]uint16{10, 20, 30, 40})...)
	msg = append(msg, []byte("7777")...)

	sg, values, err := DecodeGRIB2(msg, 1.0)
	if err != nil {
		t.Fatalf("DecodeGRIB2 failed: %v", err)
	}
	if !sg.Rectilinear {
		t.Fatalf("expected a rectilinear source grid")
	}
	if len(sg.X) != 2 || sg.X[0] != 0 || sg.X[1] != 10 {
		t.Fatalf("unexpected X axis: %v", sg.X)
	}
	if len(sg.Y) != 2 || sg.Y[0] != 0 || sg.Y[1] != 10 {
		t.Fatalf("unexpected Y axis (should be ascending after north-to-south flip): %v", sg.Y)
	}
	want := []float64{30, 40, 10, 20}
	if len(values) != len(want) {
		t.Fatalf("unexpected value count: got %d want %d", len(values), len(want))
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("values[%d] = %v, want %v", i, values[i], want[i])
		}
	}
}

func TestDecodeGRIB2RejectsNonRegularTemplate(t *testing.T) {
	body := make([]byte, 70)
	binary.BigEndian.PutUint16(body[7:9], 30) // template 30: Lambert conformal
	msg := []byte("GRIB" + string(make([]byte, 12)))
	msg = append(msg, section(3, body)...)
	msg = append(msg, buildDataRepSection(0, 0, 0, 16)...)
	msg = append(msg, buildBitmapSection()...)
	msg = append(msg, buildDataSection([]uint16{1})...)
	msg = append(msg, []byte("7777")...)

	if _, _, err := DecodeGRIB2(msg, 1.0); err == nil {
		t.Fatalf("expected an error for an unsupported grid definition template")
	}
}
