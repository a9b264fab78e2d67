package sequencer

import (
	"testing"
	"time"

	"github.com/waterinstitute/metget/internal/model"
)

func hr(h int) time.Time {
	return time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(h) * time.Hour)
}

func makeProcess(results map[int]*Dataset) ProcessFunc {
	return func(f model.FileObj) (*Dataset, error) {
		return results[f.TauHours], nil
	}
}

func TestGetAtEndpointsReturnsExactFrame(t *testing.T) {
	d1 := &Dataset{Time: hr(0), Values: []float64{10, 20}}
	d2 := &Dataset{Time: hr(6), Values: []float64{30, 40}}
	proc := makeProcess(map[int]*Dataset{0: d1, 6: d2})

	seq, err := New(model.FileObj{ValidTime: hr(0), TauHours: 0}, model.Pressure, false, nil, proc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq.SetNextFile(model.FileObj{ValidTime: hr(6), TauHours: 6})
	if err := seq.ProcessFiles(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := seq.Get(hr(0))
	if got.Values[0] != 10 || got.Values[1] != 20 {
		t.Errorf("Get(t1) = %v, want D1", got.Values)
	}
	got2 := seq.Get(hr(6))
	if got2.Values[0] != 30 || got2.Values[1] != 40 {
		t.Errorf("Get(t2) = %v, want D2", got2.Values)
	}
}

func TestTimeWeightMonotoneNonDecreasing(t *testing.T) {
	d1 := &Dataset{Time: hr(0), Values: []float64{0}}
	d2 := &Dataset{Time: hr(6), Values: []float64{0}}
	proc := makeProcess(map[int]*Dataset{0: d1, 6: d2})
	seq, _ := New(model.FileObj{ValidTime: hr(0), TauHours: 0}, model.Pressure, false, nil, proc)
	seq.SetNextFile(model.FileObj{ValidTime: hr(6), TauHours: 6})
	seq.ProcessFiles()

	prev := -1.0
	for h := 0; h <= 6; h++ {
		w := seq.TimeWeight(hr(h))
		if w < prev {
			t.Fatalf("time_weight not monotone at hour %d: %v < %v", h, w, prev)
		}
		prev = w
	}
}

func TestSnapToSnapRateZeroOutsideWindow(t *testing.T) {
	d1 := &Dataset{Time: hr(0), Values: []float64{0}}
	d2 := &Dataset{Time: hr(6), Values: []float64{12}}
	proc := makeProcess(map[int]*Dataset{0: d1, 6: d2})
	seq, _ := New(model.FileObj{ValidTime: hr(0), TauHours: 0}, model.Precipitation, true, nil, proc)
	seq.SetNextFile(model.FileObj{ValidTime: hr(6), TauHours: 6})
	seq.ProcessFiles()

	outside := seq.Get(hr(12))
	if outside.Values[0] != 0 {
		t.Errorf("expected zero rate outside window, got %v", outside.Values[0])
	}
	inside := seq.Get(hr(3))
	if inside.Values[0] != 2 {
		t.Errorf("expected rate (12-0)/6 = 2, got %v", inside.Values[0])
	}
}

func TestAccumulatedWithWindowDividesByTau(t *testing.T) {
	d1 := &Dataset{Time: hr(0), Values: []float64{6}}
	d2 := &Dataset{Time: hr(6), Values: []float64{12}}
	proc := makeProcess(map[int]*Dataset{0: d1, 6: d2})
	tau := 6.0
	seq, _ := New(model.FileObj{ValidTime: hr(0), TauHours: 0}, model.Precipitation, true, &tau, proc)
	seq.SetNextFile(model.FileObj{ValidTime: hr(6), TauHours: 6})
	seq.ProcessFiles()

	got := seq.Get(hr(0))
	if got.Values[0] != 1 {
		t.Errorf("expected D1/tau = 1, got %v", got.Values[0])
	}
}
