package sourcefile

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"

	"github.com/waterinstitute/metget/internal/grid"
	"github.com/waterinstitute/metget/internal/model"
)

// DecodeCoampsNetCDF reads one variable out of a COAMPS-TC/CTCX NetCDF
// file into a rectilinear SourceGrid and its scaled values.
//
// original_source's datainterpolator.py opens COAMPS-TC files with
// netCDF4.Dataset directly (not cfgrib) and slices lon[0,:]/lat[:,0] to
// get the axis vectors, proving the file's 2D lon/lat fields are a
// redundant rectilinear mesh rather than a curvilinear one — so this
// reader, like DecodeGRIB2, always takes the Rectilinear=true path.
func DecodeCoampsNetCDF(path string, src *model.SourceDescriptor, varName string, scale float64) (*grid.SourceGrid, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, model.NewError(model.ErrInternal, "sourcefile.DecodeCoampsNetCDF", err)
	}
	defer f.Close()

	nc, err := cdf.Open(f)
	if err != nil {
		return nil, nil, model.NewError(model.ErrInternal, "sourcefile.DecodeCoampsNetCDF", err)
	}

	ni, nj := src.NativeNi, src.NativeNj
	if ni <= 0 || nj <= 0 {
		return nil, nil, model.NewError(model.ErrInternal, "sourcefile.DecodeCoampsNetCDF", fmt.Errorf("%s does not declare a native COAMPS-TC grid size", src.Name))
	}

	lon2d, err := readCoampsFloat64(nc, src.LonVariable, ni, nj)
	if err != nil {
		return nil, nil, err
	}
	lat2d, err := readCoampsFloat64(nc, src.LatVariable, ni, nj)
	if err != nil {
		return nil, nil, err
	}
	raw, err := readCoampsFloat64(nc, varName, ni, nj)
	if err != nil {
		return nil, nil, err
	}

	// lon[0,:] and lat[:,0], matching the original reader.
	x := make([]float64, ni)
	copy(x, lon2d[0:ni])
	y := make([]float64, nj)
	for j := 0; j < nj; j++ {
		y[j] = lat2d[j*ni]
	}

	values := make([]float64, ni*nj)
	for i, v := range raw {
		values[i] = v * scale
	}

	return &grid.SourceGrid{
		Rectilinear: true,
		X:           x,
		Y:           y,
		Nx:          ni,
		Ny:          nj,
	}, values, nil
}

// readCoampsFloat64 reads a full ni*nj 2D variable's worth of float32
// values and widens them to float64. The explicit start ({0,0}) and
// full-extent count ({nj,ni}) mirror the writer side's confirmed cdf.File.Writer(name, start,
// count) signature and sidesteps relying on any zero-means-full-extent
// convention this port of Reader may or may not honor.
func readCoampsFloat64(nc *cdf.File, name string, ni, nj int) ([]float64, error) {
	if !hasVariable(nc, name) {
		return nil, model.NewError(model.ErrInternal, "sourcefile.readCoampsFloat64", fmt.Errorf("variable %q not present in COAMPS-TC file", name))
	}
	n := ni * nj
	r := nc.Reader(name, []int{0, 0}, []int{nj, ni})
	buf := make([]float32, n)
	if _, err := r.Read(buf); err != nil {
		return nil, model.NewError(model.ErrInternal, "sourcefile.readCoampsFloat64", fmt.Errorf("reading %q: %w", name, err))
	}
	out := make([]float64, n)
	for i, v := range buf {
		out[i] = float64(v)
	}
	return out, nil
}

func hasVariable(nc *cdf.File, name string) bool {
	for _, v := range nc.Header.Variables() {
		if v == name {
			return true
		}
	}
	return false
}
