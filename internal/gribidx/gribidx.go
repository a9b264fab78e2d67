// Package gribidx parses GRIB ".idx" sidecar files and computes the
// byte ranges a range_download needs for a set of requested variable
// short names.
//
// No pure-Go GRIB decoding library appears anywhere in the retrieval
// pack — the one GRIB-adjacent pattern (mmp-vice's wxingest command)
// shells out to the external wgrib2 binary via os/exec rather than
// linking a decoder, which isn't appropriate for a portable library's
// core path. This package is therefore implemented on the standard
// library; see DESIGN.md for the full justification.
package gribidx

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/waterinstitute/metget/internal/model"
)

// Record is one parsed line of a GRIB .idx sidecar:
// "N:offset:date=YYYYMMDDHH:shortname:level:fhours".
type Record struct {
	N         int
	Offset    int64
	Date      string
	ShortName string
	Level     string
	ForecastHours string
}

// Index is the parsed sidecar for one GRIB file.
type Index struct {
	records []Record
}

// Parse reads a .idx sidecar's contents.
func Parse(r io.Reader) (*Index, error) {
	var recs []Record
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rec, err := parseLine(line)
		if err != nil {
			return nil, model.NewError(model.ErrInternal, "gribidx.Parse", err)
		}
		recs = append(recs, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, model.NewError(model.ErrInternal, "gribidx.Parse", err)
	}
	return &Index{records: recs}, nil
}

func parseLine(line string) (Record, error) {
	parts := strings.Split(line, ":")
	if len(parts) < 6 {
		return Record{}, fmt.Errorf("malformed idx line: %q", line)
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return Record{}, fmt.Errorf("malformed record number in %q: %w", line, err)
	}
	offset, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("malformed offset in %q: %w", line, err)
	}
	date := strings.TrimPrefix(parts[2], "date=")
	return Record{
		N:              n,
		Offset:         offset,
		Date:           date,
		ShortName:      parts[3],
		Level:          parts[4],
		ForecastHours:  strings.Join(parts[5:], ":"),
	}, nil
}

// ByteRange is an inclusive [Start, End] HTTP Range pair; End == -1 means
// "to end of file" (the record is the last one in the file).
type ByteRange struct {
	Start int64
	End   int64
}

// RangesFor returns one ByteRange per requested short name that appears
// in the index, in file order. A short name with multiple matching
// records (e.g. multiple levels) contributes one range per match.
func (idx *Index) RangesFor(shortNames []string) []ByteRange {
	wanted := make(map[string]bool, len(shortNames))
	for _, s := range shortNames {
		wanted[s] = true
	}

	var ranges []ByteRange
	for i, rec := range idx.records {
		if !wanted[rec.ShortName] {
			continue
		}
		end := int64(-1)
		if i+1 < len(idx.records) {
			end = idx.records[i+1].Offset - 1
		}
		ranges = append(ranges, ByteRange{Start: rec.Offset, End: end})
	}
	return ranges
}

// Records returns the parsed records, in file order.
func (idx *Index) Records() []Record {
	return idx.records
}
