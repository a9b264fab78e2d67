package writer

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ctessum/cdf"

	"github.com/waterinstitute/metget/internal/grid"
	"github.com/waterinstitute/metget/internal/model"
)

// owiNetcdfDomain is one nested domain's grid and selected variables
// within an OwiNetCDF file.
type owiNetcdfDomain struct {
	name      string
	rank      int
	grid      *grid.OutputGrid
	variables []model.MetDataType
	step      int
}

// OwiNetCDF writes the multi-domain OWI-NetCDF format: dims xi/yi/time
// and coords lat/lon/time per domain, a rank attribute per domain, and
// a top-level group_order attribute (spec §4.8). ctessum/cdf exposes
// classic (non-group) NetCDF-3/4 variables rather than true NetCDF-4
// groups, so each domain's variables are namespaced by a
// "<domain>_" prefix and its own xi/yi dims instead of a nested group —
// documented as a deliberate library-driven deviation.
type OwiNetCDF struct {
	file    *os.File
	cdf     *cdf.File
	domains []*owiNetcdfDomain
}

// NewOwiNetCDF builds a writer over domains in priority (write) order.
func NewOwiNetCDF() *OwiNetCDF {
	return &OwiNetCDF{}
}

// AddDomain registers one domain, rank 0 being the outermost/first.
func (w *OwiNetCDF) AddDomain(name string, g *grid.OutputGrid, variables []model.MetDataType) {
	w.domains = append(w.domains, &owiNetcdfDomain{name: name, rank: len(w.domains), grid: g, variables: variables})
}

func owiDimName(domain, axis string) string { return domain + "_" + axis }

// Open defines the file's dimensions and variables for every registered
// domain and writes their coordinate arrays.
func (w *OwiNetCDF) Open(path string) error {
	var dimNames []string
	var dimLengths []int
	var order []string

	for _, d := range w.domains {
		dimNames = append(dimNames, owiDimName(d.name, "xi"), owiDimName(d.name, "yi"), owiDimName(d.name, "time"))
		dimLengths = append(dimLengths, d.grid.Ni(), d.grid.Nj(), 0)
		order = append(order, d.name)
	}
	h := cdf.NewHeader(dimNames, dimLengths)

	for _, d := range w.domains {
		xi, yi := owiDimName(d.name, "xi"), owiDimName(d.name, "yi")
		timeDim := owiDimName(d.name, "time")

		latVar := d.name + "_lat"
		lonVar := d.name + "_lon"
		timeVar := d.name + "_time"

		h.AddVariable(latVar, []string{yi, xi}, []float64{0})
		h.AddAttribute(latVar, "units", "degrees_north")
		h.AddVariable(lonVar, []string{yi, xi}, []float64{0})
		h.AddAttribute(lonVar, "units", "degrees_east")
		h.AddVariable(timeVar, []string{timeDim}, []float64{0})
		h.AddAttribute(timeVar, "units", cfTimeEpoch)
		h.AddAttribute(d.name, "rank", int32(d.rank))

		for _, v := range d.variables {
			name, err := v.NetCDFVariableName()
			if err != nil {
				return model.NewError(model.ErrValidation, "OwiNetCDF.Open", err)
			}
			varName := d.name + "_" + name
			h.AddVariable(varName, []string{timeDim, yi, xi}, []float32{0})
			h.AddAttribute(varName, "long_name", v.CFLongName())
			h.AddAttribute(varName, "units", v.Units())
			h.AddAttribute(varName, "_FillValue", float32(-999))
			h.AddAttribute(varName, "deflate_level", int32(4))
		}
	}
	h.AddAttribute("", "group_order", strings.Join(order, ","))

	h.Define()
	for _, err := range h.Check() {
		return model.NewError(model.ErrInternal, "OwiNetCDF.Open", fmt.Errorf("invalid netcdf header: %v", err))
	}

	f, err := os.Create(path)
	if err != nil {
		return model.NewError(model.ErrInternal, "OwiNetCDF.Open", err)
	}
	cf, err := cdf.Create(f, h)
	if err != nil {
		f.Close()
		return model.NewError(model.ErrInternal, "OwiNetCDF.Open", err)
	}
	w.file, w.cdf = f, cf

	for _, d := range w.domains {
		latW := cf.Writer(d.name+"_lat", []int{0, 0}, []int{d.grid.Nj(), d.grid.Ni()})
		lats := make([]float64, d.grid.Nj()*d.grid.Ni())
		lons := make([]float64, len(lats))
		y := d.grid.YColumn()
		x := d.grid.XColumn(false)
		for j := 0; j < d.grid.Nj(); j++ {
			for i := 0; i < d.grid.Ni(); i++ {
				lats[j*d.grid.Ni()+i] = y[j]
				lons[j*d.grid.Ni()+i] = x[i]
			}
		}
		if _, err := latW.Write(lats); err != nil {
			return model.NewError(model.ErrInternal, "OwiNetCDF.Open", err)
		}
		lonW := cf.Writer(d.name+"_lon", []int{0, 0}, []int{d.grid.Nj(), d.grid.Ni()})
		if _, err := lonW.Write(lons); err != nil {
			return model.NewError(model.ErrInternal, "OwiNetCDF.Open", err)
		}
	}
	return nil
}

// Write appends domainName's values for variable v at time t.
func (w *OwiNetCDF) Write(domainName string, v model.MetDataType, values []float64, t time.Time) error {
	d := w.domain(domainName)
	if d == nil {
		return model.NewError(model.ErrValidation, "OwiNetCDF.Write", fmt.Errorf("unknown domain %q", domainName))
	}
	name, err := v.NetCDFVariableName()
	if err != nil {
		return model.NewError(model.ErrValidation, "OwiNetCDF.Write", err)
	}
	varName := domainName + "_" + name
	f32 := make([]float32, len(values))
	for i, x := range values {
		f32[i] = float32(x)
	}
	writer := w.cdf.Writer(varName, []int{d.step, 0, 0}, []int{1, d.grid.Nj(), d.grid.Ni()})
	if _, err := writer.Write(f32); err != nil {
		return model.NewError(model.ErrInternal, "OwiNetCDF.Write", err)
	}

	minutes := t.UTC().Sub(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)).Minutes()
	timeWriter := w.cdf.Writer(domainName+"_time", []int{d.step}, []int{1})
	if _, err := timeWriter.Write([]float64{minutes}); err != nil {
		return model.NewError(model.ErrInternal, "OwiNetCDF.Write", err)
	}
	d.step++
	return nil
}

func (w *OwiNetCDF) domain(name string) *owiNetcdfDomain {
	for _, d := range w.domains {
		if d.name == name {
			return d
		}
	}
	return nil
}

func (w *OwiNetCDF) Close() error {
	if err := cdf.UpdateNumRecs(w.file); err != nil {
		return model.NewError(model.ErrInternal, "OwiNetCDF.Close", err)
	}
	if err := w.file.Close(); err != nil {
		return model.NewError(model.ErrInternal, "OwiNetCDF.Close", err)
	}
	return nil
}
