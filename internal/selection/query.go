package selection

import (
	"time"

	"github.com/waterinstitute/metget/internal/model"
)

// Query is the normalized request C4 operates on, after service lookup
// and tau normalization.
type Query struct {
	Service           string
	Start             time.Time
	End               time.Time
	Tau               int
	Nowcast           bool
	MultipleForecasts bool
	Storm             string
	Basin             string
	Advisory          int
	StormYear         int
	EnsembleMember    string
}

// NhcResult is the result of an NHC query: either track may be absent.
type NhcResult struct {
	BestTrack *model.NhcBestTrack
	Forecast  *model.NhcForecast
}
