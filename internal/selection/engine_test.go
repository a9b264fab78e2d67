package selection

import (
	"context"
	"testing"
	"time"

	"github.com/waterinstitute/metget/internal/model"
	"github.com/waterinstitute/metget/internal/registry"
)

type fakeReader struct {
	records    []*model.CatalogRecord
	bestTrack  *model.NhcBestTrack
	forecast   *model.NhcForecast
}

func (f *fakeReader) QueryRecords(ctx context.Context, service string, start, end time.Time) ([]*model.CatalogRecord, error) {
	return f.records, nil
}

func (f *fakeReader) QueryNhcBestTrack(ctx context.Context, year int, basin, stormID string) (*model.NhcBestTrack, error) {
	return f.bestTrack, nil
}

func (f *fakeReader) QueryNhcForecast(ctx context.Context, year int, basin, stormID string, advisory int) (*model.NhcForecast, error) {
	return f.forecast, nil
}

func TestEngineSelectGriddedInsufficientData(t *testing.T) {
	reg := registry.New()
	reader := &fakeReader{records: []*model.CatalogRecord{rec(1, 0, 0, t0(0))}}
	e := New(reader, reg)

	_, err := e.SelectGridded(context.Background(), Query{Service: "gfs-ncep", Start: t0(0), End: t0(6), Nowcast: true}, model.VarPressure)
	if !model.IsKind(err, model.ErrNoData) {
		t.Fatalf("expected no-data error, got %v", err)
	}
}

func TestEngineSelectGriddedSuccess(t *testing.T) {
	reg := registry.New()
	at := t0(0)
	reader := &fakeReader{records: []*model.CatalogRecord{rec(1, 0, 0, at), rec(2, 6, 0, at)}}
	e := New(reader, reg)

	got, err := e.SelectGridded(context.Background(), Query{Service: "gfs-ncep", Start: t0(0), End: t0(6), Nowcast: true}, model.VarPressure)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
}

func TestEngineSelectNhcBothAbsentFails(t *testing.T) {
	reg := registry.New()
	e := New(&fakeReader{}, reg)
	_, err := e.SelectNhc(context.Background(), Query{Storm: "AL092023", Basin: "al", StormYear: 2023})
	if !model.IsKind(err, model.ErrNoData) {
		t.Fatalf("expected no-data error, got %v", err)
	}
}
