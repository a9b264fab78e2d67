// Package sequencer implements the Meteorology Sequencer (C7): a
// two-frame sliding window over time that temporally interpolates
// between consecutive merged datasets, including accumulated-variable
// rate conversion.
package sequencer

import (
	"time"

	"github.com/waterinstitute/metget/internal/model"
)

// Dataset is one merged, row-major field on the target grid at a single
// valid time, as produced by C6.
type Dataset struct {
	Time   time.Time
	Values []float64
}

// Frame pairs a FileObj with the Dataset produced by interpolating and
// merging its source files onto the target grid.
type Frame struct {
	File    model.FileObj
	Dataset *Dataset
}

// ProcessFunc interpolates and merges the source files named by f onto
// the target grid, producing its Dataset. Supplied by the orchestrator,
// which owns the interpolator/merge wiring (C5/C6).
type ProcessFunc func(f model.FileObj) (*Dataset, error)

// Sequencer holds the two bracketing frames f1 (t1) and f2 (t2), t1<=t2,
// and computes time-weighted or rate-converted values for any t in
// [t1,t2].
type Sequencer struct {
	f1, f2        Frame
	variable      model.MetDataType
	accumulated   bool
	accumulationTime *float64 // hours; nil when accumulated without a declared window
	process       ProcessFunc
}

// New primes the sequencer with the same file as both f1 and f2 and
// runs ProcessFiles once, matching orchestrator step 4a ("Prime the
// sequencer with the first file as both f1 and f2, then call
// process_files").
func New(first model.FileObj, variable model.MetDataType, accumulated bool, accumulationTime *float64, process ProcessFunc) (*Sequencer, error) {
	s := &Sequencer{
		f1:               Frame{File: first},
		f2:               Frame{File: first},
		variable:         variable,
		accumulated:      accumulated,
		accumulationTime: accumulationTime,
		process:          process,
	}
	if err := s.ProcessFiles(); err != nil {
		return nil, err
	}
	s.f1.Dataset = s.f2.Dataset
	return s, nil
}

// SetNextFile rotates f1<-f2, f2<-next; D1 becomes the old D2 without
// re-interpolation. D2 is left nil until the caller invokes
// ProcessFiles.
func (s *Sequencer) SetNextFile(next model.FileObj) {
	s.f1 = s.f2
	s.f2 = Frame{File: next}
}

// ProcessFiles interpolates/merges the source(s) named by f2 to produce
// D2.
func (s *Sequencer) ProcessFiles() error {
	d, err := s.process(s.f2.File)
	if err != nil {
		return err
	}
	s.f2.Dataset = d
	return nil
}

// TimeWeight returns (t-t1)/(t2-t1) clamped to [0,1].
func (s *Sequencer) TimeWeight(t time.Time) float64 {
	t1, t2 := s.f1.File.ValidTime, s.f2.File.ValidTime
	if !t2.After(t1) {
		return 0
	}
	w := t.Sub(t1).Seconds() / t2.Sub(t1).Seconds()
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

// Get returns the dataset value at t, per spec §4.7: linear blend for
// non-accumulated variables, declared-window rate scaling for
// accumulated variables with accumulation_time, and snap-to-snap rate
// conversion (clamped >=0, zero outside [t1,t2]) otherwise.
func (s *Sequencer) Get(t time.Time) *Dataset {
	if s.accumulated {
		return s.getAccumulated(t)
	}
	return s.getInterpolated(t)
}

func (s *Sequencer) getInterpolated(t time.Time) *Dataset {
	w := s.TimeWeight(t)
	d1, d2 := s.f1.Dataset.Values, s.f2.Dataset.Values
	out := make([]float64, len(d1))
	for i := range out {
		out[i] = d1[i]*(1-w) + d2[i]*w
	}
	return &Dataset{Time: t, Values: out}
}

func (s *Sequencer) getAccumulated(t time.Time) *Dataset {
	if s.accumulationTime != nil {
		return s.getAccumulatedWithWindow(t)
	}
	return s.getSnapToSnapRate(t)
}

// getAccumulatedWithWindow divides each bracketing frame's already-rolling
// accumulation by tau_a to obtain a rate, then linearly blends those
// rates by time_weight.
func (s *Sequencer) getAccumulatedWithWindow(t time.Time) *Dataset {
	tau := *s.accumulationTime
	w := s.TimeWeight(t)
	d1, d2 := s.f1.Dataset.Values, s.f2.Dataset.Values
	out := make([]float64, len(d1))
	for i := range out {
		r1 := d1[i] / tau
		r2 := d2[i] / tau
		out[i] = r1*(1-w) + r2*w
	}
	return &Dataset{Time: t, Values: out}
}

// getSnapToSnapRate computes (D2-D1)/(t2-t1), clamped >=0, and returns
// all zeros if t falls outside [t1,t2].
func (s *Sequencer) getSnapToSnapRate(t time.Time) *Dataset {
	t1, t2 := s.f1.File.ValidTime, s.f2.File.ValidTime
	out := make([]float64, len(s.f1.Dataset.Values))
	if t.Before(t1) || t.After(t2) {
		return &Dataset{Time: t, Values: out}
	}
	dtHours := t2.Sub(t1).Hours()
	if dtHours <= 0 {
		return &Dataset{Time: t, Values: out}
	}
	d1, d2 := s.f1.Dataset.Values, s.f2.Dataset.Values
	for i := range out {
		rate := (d2[i] - d1[i]) / dtHours
		if rate < 0 {
			rate = 0
		}
		out[i] = rate
	}
	return &Dataset{Time: t, Values: out}
}

// InWindow reports whether t lies within [f1.time, f2.time], the
// invariant that must be restored before every Get call (spec §5).
func (s *Sequencer) InWindow(t time.Time) bool {
	return !t.Before(s.f1.File.ValidTime) && !t.After(s.f2.File.ValidTime)
}

func (s *Sequencer) F1Time() time.Time { return s.f1.File.ValidTime }
func (s *Sequencer) F2Time() time.Time { return s.f2.File.ValidTime }
