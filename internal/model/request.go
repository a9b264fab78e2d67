package model

import (
	"fmt"
	"time"
)

// RequestStatus is the Build Orchestrator's per-request state machine
// value, persisted to the request table.
type RequestStatus string

const (
	StatusQueued    RequestStatus = "queued"
	StatusRunning   RequestStatus = "running"
	StatusRestore   RequestStatus = "restore"
	StatusError     RequestStatus = "error"
	StatusCompleted RequestStatus = "completed"
)

// Request is the persisted request row owned exclusively by the Build
// Orchestrator.
type Request struct {
	RequestID   string        `json:"request_id" db:"request_id"`
	APIKey      string        `json:"-" db:"api_key"`
	SourceIP    string        `json:"-" db:"source_ip"`
	Status      RequestStatus `json:"status" db:"status"`
	TryCount    int           `json:"try_count" db:"try_count"`
	StartDate   time.Time     `json:"start_date" db:"start_date"`
	LastDate    time.Time     `json:"last_date" db:"last_date"`
	InputJSON   string        `json:"input_json" db:"input_json"`
	CreditUsage float64       `json:"credit_usage" db:"credit_usage"`
	Message     string        `json:"message" db:"message"`
}

// OutputFormat enumerates the writer the Build Orchestrator selects for
// a request.
type OutputFormat string

const (
	FormatASCII         OutputFormat = "ascii"
	FormatOwiASCII       OutputFormat = "owi-ascii"
	FormatAdcircASCII    OutputFormat = "adcirc-ascii"
	FormatOwiNetCDF      OutputFormat = "owi-netcdf"
	FormatAdcircNetCDF   OutputFormat = "adcirc-netcdf"
	FormatHecNetCDF      OutputFormat = "hec-netcdf"
	FormatCfNetCDF       OutputFormat = "cf-netcdf"
	FormatNetCDF         OutputFormat = "netcdf"
	FormatRaw            OutputFormat = "raw"
)

// Domain is one nested output domain within an InputRequest.
type Domain struct {
	Name           string   `json:"name"`
	Service        string   `json:"service"`
	XInit          float64  `json:"x_init"`
	YInit          float64  `json:"y_init"`
	XEnd           float64  `json:"x_end"`
	YEnd           float64  `json:"y_end"`
	DI             float64  `json:"di"`
	DJ             float64  `json:"dj"`
	Preset         string   `json:"grid,omitempty"` // "wnat", "gom", "global"; empty means explicit corners
	Storm          string   `json:"storm,omitempty"`
	Basin          string   `json:"basin,omitempty"`
	Advisory       int      `json:"advisory,omitempty"`
	StormYear      int      `json:"storm_year,omitempty"`
	Tau            int      `json:"tau,omitempty"`
	EnsembleMember string   `json:"ensemble_member,omitempty"`
}

// InputRequest is the validated build request JSON (spec §6).
type InputRequest struct {
	Version            string       `json:"version"`
	Creator            string       `json:"creator"`
	RequestID          string       `json:"request_id,omitempty"`
	StartDate          time.Time    `json:"start_date"`
	EndDate            time.Time    `json:"end_date"`
	TimeStepSeconds    int          `json:"time_step"`
	Filename           string       `json:"filename"`
	Format             OutputFormat `json:"format"`
	DataType           VariableType `json:"data_type,omitempty"`
	Nowcast            bool         `json:"nowcast,omitempty"`
	MultipleForecasts  bool         `json:"multiple_forecasts,omitempty"`
	Backfill           bool         `json:"backfill,omitempty"`
	Compression        bool         `json:"compression,omitempty"`
	DryRun             bool         `json:"dry_run,omitempty"`
	Strict             bool         `json:"strict,omitempty"`
	EPSG               int          `json:"epsg,omitempty"`
	Domains            []Domain     `json:"domains"`
}

// Validate checks the structural invariants from spec §3/§6 that are not
// expressible in the JSON schema alone.
func (r *InputRequest) Validate() error {
	if !r.StartDate.Before(r.EndDate) {
		return NewError(ErrValidation, "InputRequest.Validate", fmt.Errorf("start_date must be before end_date"))
	}
	if r.TimeStepSeconds <= 0 {
		return NewError(ErrValidation, "InputRequest.Validate", fmt.Errorf("time_step must be positive"))
	}
	if len(r.Domains) == 0 {
		return NewError(ErrValidation, "InputRequest.Validate", fmt.Errorf("at least one domain is required"))
	}
	for i := range r.Domains {
		if err := r.Domains[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks one domain's grid and service-specific required fields.
func (d *Domain) Validate() error {
	if d.Preset == "" {
		if !(d.XInit < d.XEnd) || !(d.YInit < d.YEnd) {
			return NewError(ErrValidation, "Domain.Validate", fmt.Errorf("domain %s: x_init<x_end and y_init<y_end required", d.Name))
		}
		if d.DI <= 0 || d.DJ <= 0 {
			return NewError(ErrValidation, "Domain.Validate", fmt.Errorf("domain %s: di and dj must be positive", d.Name))
		}
		if (d.XEnd-d.XInit)/d.DI < 3 || (d.YEnd-d.YInit)/d.DJ < 3 {
			return NewError(ErrValidation, "Domain.Validate", fmt.Errorf("domain %s: grid resolution too coarse, need >=3 cells per axis", d.Name))
		}
	}
	return nil
}

// FileObj names one catalog-resolved file (or a multi-file bundle, for
// COAMPS-TC/HAFS) at a specific valid time within a domain's selection.
type FileObj struct {
	ValidTime time.Time
	TauHours  int
	Paths     []string // len>1 for COAMPS-TC bundles and HAFS parent/storm pairs
}
