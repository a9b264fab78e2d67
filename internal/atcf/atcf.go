// Package atcf implements the NHC ATCF-line merge step of the Build
// Orchestrator's download stage (spec §4.9 step 3): combining a
// best-track file with a forecast advisory into one ATCF-formatted
// track, preserving the original line byte layout.
package atcf

import (
	"fmt"
	"sort"
	"time"

	"github.com/waterinstitute/metget/internal/model"
)

const dateLayout = "2006010215" // YYYYMMDDHH, matches ATCF column [8:18)

// MergeTracks combines bestTrack and forecast lines into a single
// ATCF-formatted track: best-track lines are retained with their hours
// rebased to the best-track's own start date; forecast lines are
// appended only for dates not already present in the best-track,
// rebased onto the same start date (spec §4.9 step 3, §6 ATCF line
// format, §8 seed test 5).
func MergeTracks(bestTrack, forecast []string) ([]string, error) {
	if len(bestTrack) == 0 {
		return nil, model.NewError(model.ErrValidation, "atcf.MergeTracks", fmt.Errorf("best-track is empty"))
	}

	start, err := lineDate(bestTrack[0])
	if err != nil {
		return nil, model.NewError(model.ErrValidation, "atcf.MergeTracks", err)
	}

	seen := map[string]bool{}
	var out []string

	for _, line := range bestTrack {
		d, err := lineDate(line)
		if err != nil {
			return nil, model.NewError(model.ErrValidation, "atcf.MergeTracks", err)
		}
		seen[d.Format(dateLayout)] = true
		out = append(out, rebase(line, start, d))
	}

	for _, line := range forecast {
		d, err := lineDate(line)
		if err != nil {
			return nil, model.NewError(model.ErrValidation, "atcf.MergeTracks", err)
		}
		key := d.Format(dateLayout)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rebase(line, start, d))
	}

	sort.SliceStable(out, func(i, j int) bool {
		di, _ := lineDate(out[i])
		dj, _ := lineDate(out[j])
		return di.Before(dj)
	})

	return out, nil
}

// lineDate parses the YYYYMMDDHH date at ATCF column [8:18).
func lineDate(line string) (time.Time, error) {
	if len(line) < 18 {
		return time.Time{}, fmt.Errorf("atcf line too short: %q", line)
	}
	return time.Parse(dateLayout, line[8:18])
}

// rebase rewrites column [8:18) to start's date and column [29:33) to
// the %4d delta-hours between d and start, leaving every other byte
// verbatim.
func rebase(line string, start, d time.Time) string {
	deltaHours := int(d.Sub(start).Hours())
	newDate := start.Format(dateLayout)

	b := []byte(line)
	if len(b) < 18 {
		return line
	}
	copy(b[8:18], newDate)

	deltaField := fmt.Sprintf("%4d", deltaHours)
	if len(b) >= 33 {
		copy(b[29:33], deltaField)
	}
	return string(b)
}
