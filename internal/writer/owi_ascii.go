// Package writer implements the Output Writers (C8): OWI-ASCII,
// OWI-NetCDF, CF-NetCDF, and the raw pass-through.
package writer

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/waterinstitute/metget/internal/grid"
	"github.com/waterinstitute/metget/internal/model"
)

const owiHeaderFormat = "Oceanweather WIN/PRE Format                            %s     %s"
const owiDateLayout = "200601021504"

// OwiASCII writes the OWI-ASCII (.pre/.wnd) format: one leading header
// line, then per-snapshot grid-header + row-major value blocks, 8
// values per line at "%10.4f" (spec §4.8).
type OwiASCII struct {
	grid  *grid.OutputGrid
	pre   *os.File
	wnd   *os.File
	preW  *bufio.Writer
	wndW  *bufio.Writer
	start time.Time
	end   time.Time
	last  time.Time
	opened bool
}

// NewOwiASCII constructs a writer for one domain; filenames without
// extension (the .pre/.wnd suffixes are appended by Open).
func NewOwiASCII(g *grid.OutputGrid) *OwiASCII {
	return &OwiASCII{grid: g}
}

// Open creates the .pre and, when wantWind is set, .wnd files and writes
// their leading header lines.
func (w *OwiASCII) Open(basePath string, start, end time.Time, wantWind bool) error {
	pre, err := os.Create(basePath + ".pre")
	if err != nil {
		return model.NewError(model.ErrInternal, "OwiASCII.Open", err)
	}
	w.pre = pre
	w.preW = bufio.NewWriter(pre)
	if err := writeOwiHeader(w.preW, start, end); err != nil {
		return err
	}

	if wantWind {
		wnd, err := os.Create(basePath + ".wnd")
		if err != nil {
			return model.NewError(model.ErrInternal, "OwiASCII.Open", err)
		}
		w.wnd = wnd
		w.wndW = bufio.NewWriter(wnd)
		if err := writeOwiHeader(w.wndW, start, end); err != nil {
			return err
		}
	}

	w.start, w.end = start, end
	w.opened = true
	return nil
}

func writeOwiHeader(out *bufio.Writer, start, end time.Time) error {
	line := fmt.Sprintf(owiHeaderFormat, start.UTC().Format("2006010200"), end.UTC().Format("2006010200"))
	_, err := out.WriteString(line + "\n")
	return err
}

// Write appends one pressure snapshot to the .pre file. For
// variable_type wind_pressure the orchestrator calls Write once per time
// step with the pressure field and WriteWind once with the (u,v) pair
// (.wnd file).
func (w *OwiASCII) Write(values []float64, t time.Time) error {
	if !w.last.IsZero() && !t.After(w.last) {
		return model.NewError(model.ErrValidation, "OwiASCII.Write", fmt.Errorf("time must strictly increase: %v <= %v", t, w.last))
	}
	if err := writeOwiRecord(w.preW, w.grid, values, t); err != nil {
		return err
	}
	w.last = t
	return nil
}

// WriteWind appends one wind snapshot (u then v, each its own record
// block) to the .wnd file.
func (w *OwiASCII) WriteWind(u, v []float64, t time.Time) error {
	if w.wndW == nil {
		return model.NewError(model.ErrValidation, "OwiASCII.WriteWind", fmt.Errorf("writer was not opened with wantWind"))
	}
	if err := writeOwiRecord(w.wndW, w.grid, u, t); err != nil {
		return err
	}
	return writeOwiRecord(w.wndW, w.grid, v, t)
}

func writeOwiRecord(out *bufio.Writer, g *grid.OutputGrid, values []float64, t time.Time) error {
	header, err := formatRecordHeader(g, t)
	if err != nil {
		return err
	}
	if _, err := out.WriteString(header + "\n"); err != nil {
		return model.NewError(model.ErrInternal, "writeOwiRecord", err)
	}

	const perLine = 8
	for i := 0; i < len(values); i += perLine {
		end := i + perLine
		if end > len(values) {
			end = len(values)
		}
		var sb strings.Builder
		for _, v := range values[i:end] {
			fmt.Fprintf(&sb, "%10.4f", v)
		}
		if _, err := out.WriteString(sb.String() + "\n"); err != nil {
			return model.NewError(model.ErrInternal, "writeOwiRecord", err)
		}
	}
	return nil
}

// formatRecordHeader builds the per-snapshot grid-header line:
// "iLat, iLong, DX, DY, SWLat, SWLon, DT=YYYYMMDDHHMM".
func formatRecordHeader(g *grid.OutputGrid, t time.Time) (string, error) {
	swLat := formatOwiCoordinate(g.YLowerLeft())
	swLon := formatOwiCoordinate(g.XLowerLeft())
	return fmt.Sprintf("iLat=%4diLong=%4dDX=%6.4fDY=%6.4fSWLat=%8sSWLon=%8sDT=%s",
		g.Nj(), g.Ni(), g.XResolution(), g.YResolution(), swLat, swLon, t.UTC().Format(owiDateLayout)), nil
}

// formatOwiCoordinate renders v right-justified into 8 characters,
// reserving one leading pad column and using as many decimal places as
// fit in the remaining width. This matches the worked example in the
// OWI-ASCII format description (18.0 -> " 18.0000", -98.0 -> "
// -98.000"): the sign and integer part consume their width first, and
// the fractional part fills whatever is left.
func formatOwiCoordinate(v float64) string {
	signWidth := 0
	av := v
	if v < 0 {
		signWidth = 1
		av = -v
	}
	intDigits := 1
	for t := math.Floor(av); t >= 10; t /= 10 {
		intDigits++
	}
	decimals := 7 - 1 - intDigits - signWidth
	if decimals < 0 {
		decimals = 0
	}
	formatted := fmt.Sprintf("%.*f", decimals, v)
	return fmt.Sprintf("%8s", formatted)
}

// Close flushes and closes the open file(s).
func (w *OwiASCII) Close() error {
	var firstErr error
	if w.preW != nil {
		if err := w.preW.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if w.pre != nil {
		if err := w.pre.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if w.wndW != nil {
		if err := w.wndW.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if w.wnd != nil {
		if err := w.wnd.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return model.NewError(model.ErrInternal, "OwiASCII.Close", firstErr)
	}
	return nil
}

var _ io.Closer = (*OwiASCII)(nil)
