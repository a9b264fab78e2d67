// Package sourcefile decodes the raw source payloads C2 downloads
// (GRIB2 byte ranges, COAMPS-TC NetCDF files) into the
// grid.SourceGrid + value arrays C5's DataInterpolator consumes.
//
// No pure-Go GRIB2 decoding library appears anywhere in the retrieval
// pack (see internal/gribidx's package doc); this decoder is therefore
// a minimal implementation of WMO GRIB2 against the standard library,
// scoped to the templates the registered sources actually emit: Grid
// Definition Template 3.0 (regular latitude/longitude) and Data
// Representation Template 5.0 (simple packing). Anything else reports
// model.ErrInternal rather than guessing at a projection, per
// DESIGN.md.
package sourcefile

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/waterinstitute/metget/internal/grid"
	"github.com/waterinstitute/metget/internal/model"
)

// DecodeGRIB2 decodes a single-message GRIB2 buffer (as produced by
// concatenating the byte ranges RangeDownload selects for one variable)
// into a rectilinear SourceGrid and its scaled values in row-major,
// ascending-latitude order matching that grid's Y axis.
func DecodeGRIB2(raw []byte, scale float64) (*grid.SourceGrid, []float64, error) {
	if len(raw) < 16 || string(raw[0:4]) != "GRIB" {
		return nil, nil, model.NewError(model.ErrInternal, "sourcefile.DecodeGRIB2", fmt.Errorf("missing GRIB indicator section"))
	}

	var gridDef *gribGridDef
	var rep *gribDataRep
	var bitmapPresent bool
	var packed []byte

	pos := 16
	for pos+4 <= len(raw) {
		if string(raw[pos:pos+4]) == "7777" {
			break
		}
		if pos+5 > len(raw) {
			return nil, nil, model.NewError(model.ErrInternal, "sourcefile.DecodeGRIB2", fmt.Errorf("truncated section at offset %d", pos))
		}
		secLen := int(binary.BigEndian.Uint32(raw[pos : pos+4]))
		secNum := raw[pos+4]
		if secLen <= 0 || pos+secLen > len(raw) {
			return nil, nil, model.NewError(model.ErrInternal, "sourcefile.DecodeGRIB2", fmt.Errorf("section %d has invalid length %d", secNum, secLen))
		}
		body := raw[pos+5 : pos+secLen]

		switch secNum {
		case 3:
			g, err := parseGridDefSection(body)
			if err != nil {
				return nil, nil, err
			}
			gridDef = g
		case 5:
			r, err := parseDataRepSection(body)
			if err != nil {
				return nil, nil, err
			}
			rep = r
		case 6:
			bitmapPresent = len(body) > 0 && body[0] == 0
		case 7:
			packed = body
		}
		pos += secLen
	}

	if gridDef == nil {
		return nil, nil, model.NewError(model.ErrInternal, "sourcefile.DecodeGRIB2", fmt.Errorf("message has no grid definition section"))
	}
	if rep == nil || packed == nil {
		return nil, nil, model.NewError(model.ErrInternal, "sourcefile.DecodeGRIB2", fmt.Errorf("message has no data section"))
	}
	if bitmapPresent {
		return nil, nil, model.NewError(model.ErrInternal, "sourcefile.DecodeGRIB2", fmt.Errorf("bitmapped GRIB2 messages are not supported"))
	}

	n := gridDef.ni * gridDef.nj
	decoded, err := unpackSimple(packed, rep, n)
	if err != nil {
		return nil, nil, err
	}

	x := make([]float64, gridDef.ni)
	for i := range x {
		x[i] = gridDef.lo1 + float64(i)*gridDef.di
	}
	y := make([]float64, gridDef.nj)
	for j := range y {
		y[j] = gridDef.la1 + float64(j)*gridDef.dj
	}

	values := make([]float64, n)
	for i, v := range decoded {
		values[i] = v * scale
	}

	// Section 3's scanning mode for the registered regular-lat-lon
	// sources runs rows north-to-south (dj encoded as negative); flip
	// both the Y axis and the rows so SourceGrid's Y is ascending, the
	// convention DataInterpolator's locateAxis requires.
	if gridDef.dj < 0 {
		for i, j := 0, len(y)-1; i < j; i, j = i+1, j-1 {
			y[i], y[j] = y[j], y[i]
		}
		flipped := make([]float64, n)
		for j := 0; j < gridDef.nj; j++ {
			srcRow := gridDef.nj - 1 - j
			copy(flipped[j*gridDef.ni:(j+1)*gridDef.ni], values[srcRow*gridDef.ni:(srcRow+1)*gridDef.ni])
		}
		values = flipped
	}

	return &grid.SourceGrid{
		Rectilinear: true,
		X:           x,
		Y:           y,
		Nx:          gridDef.ni,
		Ny:          gridDef.nj,
	}, values, nil
}

type gribGridDef struct {
	ni, nj     int
	la1, lo1   float64
	di, dj     float64
}

// parseGridDefSection decodes GRIB2 Section 3 restricted to Template
// 3.0 (regular latitude/longitude), the only template the registered
// GRIB sources (GFS/NAM/GEFS/HRRR/WPC) emit over the full globe or
// CONUS window. Offsets are relative to the start of the section body
// (i.e. octet 6 of the section, per the WMO GRIB2 spec numbering).
func parseGridDefSection(body []byte) (*gribGridDef, error) {
	if len(body) < 67 {
		return nil, model.NewError(model.ErrInternal, "sourcefile.parseGridDefSection", fmt.Errorf("section 3 too short: %d bytes", len(body)))
	}
	template := binary.BigEndian.Uint16(body[7:9])
	if template != 0 {
		return nil, model.NewError(model.ErrInternal, "sourcefile.parseGridDefSection", fmt.Errorf("unsupported grid definition template %d", template))
	}

	ni := int(binary.BigEndian.Uint32(body[16:20]))
	nj := int(binary.BigEndian.Uint32(body[20:24]))
	la1 := signMagnitude32(body[33:37]) * 1e-6
	lo1 := signMagnitude32(body[37:41]) * 1e-6
	la2 := signMagnitude32(body[42:46]) * 1e-6
	di := signMagnitude32(body[50:54]) * 1e-6
	dj := signMagnitude32(body[54:58]) * 1e-6
	scanFlags := body[58]

	// Scanning mode bit 2 (0x40): 0 means j increases as latitude
	// decreases (north-to-south), the NCEP default. Normalize dj's sign
	// to match the scan direction so the caller can detect and flip it.
	if scanFlags&0x40 == 0 && la2 < la1 {
		dj = -dj
	}

	if ni <= 0 || nj <= 0 || di == 0 || dj == 0 {
		return nil, model.NewError(model.ErrInternal, "sourcefile.parseGridDefSection", fmt.Errorf("degenerate grid definition: ni=%d nj=%d di=%v dj=%v", ni, nj, di, dj))
	}

	return &gribGridDef{ni: ni, nj: nj, la1: la1, lo1: lo1, di: di, dj: dj}, nil
}

type gribDataRep struct {
	refValue   float64
	binScale   int
	decScale   int
	bitsPerVal int
}

// parseDataRepSection decodes GRIB2 Section 5 restricted to Template
// 5.0 (grid point data, simple packing), the template every registered
// source's forecast fields use.
func parseDataRepSection(body []byte) (*gribDataRep, error) {
	if len(body) < 16 {
		return nil, model.NewError(model.ErrInternal, "sourcefile.parseDataRepSection", fmt.Errorf("section 5 too short: %d bytes", len(body)))
	}
	template := binary.BigEndian.Uint16(body[5:7])
	if template != 0 {
		return nil, model.NewError(model.ErrInternal, "sourcefile.parseDataRepSection", fmt.Errorf("unsupported data representation template %d", template))
	}
	ref := math.Float32frombits(binary.BigEndian.Uint32(body[7:11]))
	binScale := signMagnitude16(body[11:13])
	decScale := signMagnitude16(body[13:15])
	bits := int(body[15])
	if bits <= 0 || bits > 32 {
		return nil, model.NewError(model.ErrInternal, "sourcefile.parseDataRepSection", fmt.Errorf("unsupported bits-per-value %d", bits))
	}
	return &gribDataRep{refValue: float64(ref), binScale: binScale, decScale: decScale, bitsPerVal: bits}, nil
}

// unpackSimple decodes n simply-packed values per GRIB2 Template 5.0's
// formula: Y = (R + X*2^E) * 10^(-D).
func unpackSimple(packed []byte, rep *gribDataRep, n int) ([]float64, error) {
	needBits := n * rep.bitsPerVal
	if len(packed)*8 < needBits {
		return nil, model.NewError(model.ErrInternal, "sourcefile.unpackSimple", fmt.Errorf("data section too short for %d values at %d bits", n, rep.bitsPerVal))
	}

	bin := math.Pow(2, float64(rep.binScale))
	dec := math.Pow(10, float64(-rep.decScale))

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		x := readBits(packed, i*rep.bitsPerVal, rep.bitsPerVal)
		out[i] = (rep.refValue + float64(x)*bin) * dec
	}
	return out, nil
}

// readBits reads nbits starting at bitOffset from data, MSB-first.
func readBits(data []byte, bitOffset, nbits int) uint64 {
	var v uint64
	for i := 0; i < nbits; i++ {
		bit := bitOffset + i
		byteIdx := bit / 8
		bitIdx := 7 - uint(bit%8)
		b := (data[byteIdx] >> bitIdx) & 1
		v = (v << 1) | uint64(b)
	}
	return v
}

// signMagnitude32 decodes a 4-octet sign-magnitude integer (MSB of the
// first octet is the sign), the encoding GRIB2 uses for lat/lon and
// increment fields rather than two's complement.
func signMagnitude32(b []byte) float64 {
	raw := binary.BigEndian.Uint32(b)
	neg := raw&0x80000000 != 0
	mag := float64(raw &^ 0x80000000)
	if neg {
		return -mag
	}
	return mag
}

// signMagnitude16 decodes a 2-octet sign-magnitude integer, as used for
// Template 5.0's binary/decimal scale factors.
func signMagnitude16(b []byte) int {
	raw := binary.BigEndian.Uint16(b)
	neg := raw&0x8000 != 0
	mag := int(raw &^ 0x8000)
	if neg {
		return -mag
	}
	return mag
}
