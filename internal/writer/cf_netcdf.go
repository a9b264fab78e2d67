package writer

import (
	"fmt"
	"os"
	"time"

	"github.com/ctessum/cdf"

	"github.com/waterinstitute/metget/internal/grid"
	"github.com/waterinstitute/metget/internal/model"
)

const cfTimeEpoch = "minutes since 1990-01-01 00:00:00 UTC"

// CfNetCDF writes the CF-1.6 single-group file: 1-D lon/lat/time coords,
// a WGS84 crs variable, and data variables carrying a deflate_level=2
// attribute; the data themselves are written uncompressed.
// ctessum/cdf exposes classic (non-group) NetCDF, so domains selecting
// this format always produce exactly one dataset's worth of variables;
// OWI-NetCDF below is where multiple domains share one file.
type CfNetCDF struct {
	grid      *grid.OutputGrid
	file      *os.File
	cdf       *cdf.File
	variables []model.MetDataType
	step      int
}

// NewCfNetCDF builds a writer for one domain and variable set.
func NewCfNetCDF(g *grid.OutputGrid, variables []model.MetDataType) *CfNetCDF {
	return &CfNetCDF{grid: g, variables: variables}
}

func cfVariableName(m model.MetDataType) string {
	switch m {
	case model.Pressure:
		return "mslp"
	case model.WindU:
		return "wind_u"
	case model.WindV:
		return "wind_v"
	case model.Temperature:
		return "temperature"
	case model.Humidity:
		return "humidity"
	case model.Precipitation:
		return "precipitation"
	case model.Ice:
		return "ice"
	default:
		return string(m)
	}
}

// Open creates the file and defines its dimensions, coordinate
// variables, and data variables. time is the unlimited record
// dimension, extended by UpdateNumRecs on Close.
func (w *CfNetCDF) Open(path string, nSteps int) error {
	h := cdf.NewHeader(
		[]string{"lon", "lat", "time"},
		[]int{w.grid.Ni(), w.grid.Nj(), 0},
	)

	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddAttribute("lon", "units", "degrees_east")
	h.AddAttribute("lon", "standard_name", "longitude")

	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddAttribute("lat", "standard_name", "latitude")

	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "units", cfTimeEpoch)
	h.AddAttribute("time", "standard_name", "time")

	h.AddVariable("crs", []string{}, []int32{0})
	h.AddAttribute("crs", "grid_mapping_name", "latitude_longitude")
	h.AddAttribute("crs", "crs_wkt", wgs84WKT)

	for _, v := range w.variables {
		name := cfVariableName(v)
		h.AddVariable(name, []string{"time", "lat", "lon"}, []float32{0})
		h.AddAttribute(name, "long_name", v.CFLongName())
		h.AddAttribute(name, "units", v.Units())
		h.AddAttribute(name, "grid_mapping", "crs")
		h.AddAttribute(name, "_FillValue", float32(-999))
		h.AddAttribute(name, "deflate_level", int32(2))
	}

	h.AddAttribute("", "Conventions", "CF-1.6")
	h.AddAttribute("", "source", "metget")

	h.Define()
	for _, err := range h.Check() {
		return model.NewError(model.ErrInternal, "CfNetCDF.Open", fmt.Errorf("invalid netcdf header: %v", err))
	}

	f, err := os.Create(path)
	if err != nil {
		return model.NewError(model.ErrInternal, "CfNetCDF.Open", err)
	}
	cf, err := cdf.Create(f, h)
	if err != nil {
		f.Close()
		return model.NewError(model.ErrInternal, "CfNetCDF.Open", err)
	}
	w.file, w.cdf = f, cf

	lonW := cf.Writer("lon", []int{0}, []int{w.grid.Ni()})
	if _, err := lonW.Write(w.grid.XColumn(false)); err != nil {
		return model.NewError(model.ErrInternal, "CfNetCDF.Open", err)
	}
	latW := cf.Writer("lat", []int{0}, []int{w.grid.Nj()})
	if _, err := latW.Write(w.grid.YColumn()); err != nil {
		return model.NewError(model.ErrInternal, "CfNetCDF.Open", err)
	}
	return nil
}

// Write appends snapshot index step's values (row-major, Nj x Ni) for
// variable v at time t.
func (w *CfNetCDF) Write(v model.MetDataType, values []float64, t time.Time) error {
	name := cfVariableName(v)
	f32 := make([]float32, len(values))
	for i, x := range values {
		f32[i] = float32(x)
	}
	writer := w.cdf.Writer(name, []int{w.step, 0, 0}, []int{1, w.grid.Nj(), w.grid.Ni()})
	if _, err := writer.Write(f32); err != nil {
		return model.NewError(model.ErrInternal, "CfNetCDF.Write", err)
	}

	minutes := t.UTC().Sub(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)).Minutes()
	timeWriter := w.cdf.Writer("time", []int{w.step}, []int{1})
	if _, err := timeWriter.Write([]float64{minutes}); err != nil {
		return model.NewError(model.ErrInternal, "CfNetCDF.Write", err)
	}
	w.step++
	return nil
}

// Close flushes the record-dimension count and closes the file.
func (w *CfNetCDF) Close() error {
	if err := cdf.UpdateNumRecs(w.file); err != nil {
		return model.NewError(model.ErrInternal, "CfNetCDF.Close", err)
	}
	if err := w.file.Close(); err != nil {
		return model.NewError(model.ErrInternal, "CfNetCDF.Close", err)
	}
	return nil
}

const wgs84WKT = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433],AUTHORITY["EPSG","4326"]]`
