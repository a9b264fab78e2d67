package selection

import (
	"context"
	"fmt"
	"time"

	"github.com/waterinstitute/metget/internal/model"
	"github.com/waterinstitute/metget/internal/registry"
)

// CatalogReader is the read surface the selection Engine needs from C3.
// Kept as an interface so policy dispatch can be tested against an
// in-memory fake rather than a live Postgres catalog.
type CatalogReader interface {
	QueryRecords(ctx context.Context, service string, start, end time.Time) ([]*model.CatalogRecord, error)
	QueryNhcBestTrack(ctx context.Context, year int, basin, stormID string) (*model.NhcBestTrack, error)
	QueryNhcForecast(ctx context.Context, year int, basin, stormID string, advisory int) (*model.NhcForecast, error)
}

// Engine is the File-Selection Engine (C4).
type Engine struct {
	reader   CatalogReader
	registry *registry.Registry
}

func New(reader CatalogReader, reg *registry.Registry) *Engine {
	return &Engine{reader: reader, registry: reg}
}

// SelectGridded resolves a normalized query against a gridded service,
// applying tau normalization before dispatch and failing with
// insufficient-data if fewer than two records resulted.
func (e *Engine) SelectGridded(ctx context.Context, q Query, variableType model.VariableType) ([]*model.CatalogRecord, error) {
	src, err := e.registry.Describe(q.Service)
	if err != nil {
		return nil, err
	}
	if src.IsNHC {
		return nil, model.NewError(model.ErrValidation, "selection.SelectGridded", fmt.Errorf("%s is an NHC source, use SelectNhc", q.Service))
	}

	components, err := variableType.Select()
	if err != nil {
		return nil, model.NewError(model.ErrValidation, "selection.SelectGridded", err)
	}
	if len(components) > 0 {
		binding, ok := src.Variable(components[0])
		if ok {
			q.Tau = NormalizeTau(binding, q.Tau)
		}
	}

	// widen the fetch window to the left by enough cycles to find
	// coverage for the single-forecast policy's "earliest cycle with
	// coverage" search.
	fetchStart := q.Start.Add(-72 * time.Hour)
	all, err := e.reader.QueryRecords(ctx, q.Service, fetchStart, q.End)
	if err != nil {
		return nil, err
	}

	out := Select(all, q)
	if len(out) < 2 {
		return nil, model.NewError(model.ErrNoData, "selection.SelectGridded", fmt.Errorf("%s: insufficient data for request window", q.Service))
	}
	return out, nil
}

// SelectNhc resolves the best-track/forecast pair for a storm. At least
// one of the two must be present.
func (e *Engine) SelectNhc(ctx context.Context, q Query) (*NhcResult, error) {
	bt, err := e.reader.QueryNhcBestTrack(ctx, q.StormYear, q.Basin, q.Storm)
	if err != nil {
		return nil, err
	}
	var fc *model.NhcForecast
	if q.Advisory > 0 {
		fc, err = e.reader.QueryNhcForecast(ctx, q.StormYear, q.Basin, q.Storm, q.Advisory)
		if err != nil {
			return nil, err
		}
	}
	if bt == nil && fc == nil {
		return nil, model.NewError(model.ErrNoData, "selection.SelectNhc", fmt.Errorf("no best-track or forecast for storm %s", q.Storm))
	}
	return &NhcResult{BestTrack: bt, Forecast: fc}, nil
}
