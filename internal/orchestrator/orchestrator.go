// Package orchestrator implements the Build Orchestrator (C9): the
// per-request state machine that drives validate -> list -> download ->
// interpolate -> upload -> finalize, with restore-wait and
// cooperative-abort handling.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/waterinstitute/metget/internal/atcf"
	"github.com/waterinstitute/metget/internal/catalog"
	"github.com/waterinstitute/metget/internal/grid"
	"github.com/waterinstitute/metget/internal/gribidx"
	"github.com/waterinstitute/metget/internal/merge"
	"github.com/waterinstitute/metget/internal/model"
	"github.com/waterinstitute/metget/internal/objectstore"
	"github.com/waterinstitute/metget/internal/registry"
	"github.com/waterinstitute/metget/internal/selection"
	"github.com/waterinstitute/metget/internal/sequencer"
	"github.com/waterinstitute/metget/internal/sourcefile"
	"github.com/waterinstitute/metget/internal/writer"
)

// Deps bundles the components one Orchestrator worker needs; every
// worker gets its own Orchestrator sharing these (the catalog/store are
// themselves safe for concurrent use).
type Deps struct {
	Store     *catalog.Store
	Objects   *objectstore.Client
	Glacier   *objectstore.GlacierClient
	Selection *selection.Engine
	Registry  *registry.Registry

	RequestSleepTime time.Duration
	MaxRequestTime   time.Duration
	WorkDir          string // per-process scratch root; per-request subdirs are created under it
}

// Orchestrator runs one request end-to-end. Not safe for concurrent use
// by multiple goroutines on the same instance; one worker owns one
// Orchestrator per in-flight request.
type Orchestrator struct {
	deps Deps
}

func New(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// domainWork is the resolved file plan for one output domain, built by
// the list step and consumed by download/interpolate.
type domainWork struct {
	domain  model.Domain
	records []*model.CatalogRecord
	nhc     *selection.NhcResult
	grid    *grid.OutputGrid
}

// Run drives a single request from queued through completed or error,
// persisting status transitions via the catalog Store as it goes.
// Failure semantics: any error is caught here and recorded in the
// request row's message; temp files are always cleaned up.
func (o *Orchestrator) Run(ctx context.Context, requestID string, input *model.InputRequest) error {
	started := time.Now()
	workDir := filepath.Join(o.deps.WorkDir, requestID)
	defer os.RemoveAll(workDir)

	logger := log.With().Str("request_id", requestID).Logger()
	logger.Info().Msg("starting build request")

	if err := o.setStatus(ctx, requestID, model.StatusRunning, ""); err != nil {
		return err
	}

	if err := input.Validate(); err != nil {
		o.fail(ctx, requestID, err)
		return err
	}

	work, err := o.list(ctx, requestID, input, started, &logger)
	if err != nil {
		o.fail(ctx, requestID, err)
		return err
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		wrapped := model.NewError(model.ErrInternal, "orchestrator.Run", err)
		o.fail(ctx, requestID, wrapped)
		return wrapped
	}

	outputs, err := o.download(ctx, requestID, input, work, workDir, &logger)
	if err != nil {
		o.fail(ctx, requestID, err)
		return err
	}

	if input.Format != model.FormatRaw {
		if err := o.interpolate(ctx, input, work, outputs, workDir, &logger); err != nil {
			o.fail(ctx, requestID, err)
			return err
		}
	}

	if err := o.upload(ctx, requestID, input, outputs, &logger); err != nil {
		o.fail(ctx, requestID, err)
		return err
	}

	return o.setStatus(ctx, requestID, model.StatusCompleted, "")
}

func (o *Orchestrator) fail(ctx context.Context, requestID string, err error) {
	log.Error().Str("request_id", requestID).Err(err).Msg("request failed")
	_ = o.setStatus(ctx, requestID, model.StatusError, err.Error())
}

func (o *Orchestrator) setStatus(ctx context.Context, requestID string, status model.RequestStatus, message string) error {
	return o.deps.Store.RequestUpsert(ctx, requestID, status, message, 0, 1)
}

// list resolves, for every domain, the catalog records (or NHC tracks)
// that satisfy the request window, looping on cold-storage restores
// until MAX_REQUEST_TIME elapses (spec §4.9 step 2).
func (o *Orchestrator) list(ctx context.Context, requestID string, input *model.InputRequest, started time.Time, logger *zerolog.Logger) ([]domainWork, error) {
	for {
		work, restoring, err := o.attemptList(ctx, input)
		if err != nil {
			return nil, err
		}
		if !restoring {
			return work, nil
		}

		if time.Since(started) > o.deps.MaxRequestTime {
			return nil, model.NewError(model.ErrTimeout, "orchestrator.list", fmt.Errorf("exceeded max request time waiting on cold-storage restore"))
		}
		if err := o.setStatus(ctx, requestID, model.StatusRestore, "waiting on cold-storage restore"); err != nil {
			return nil, err
		}
		logger.Info().Dur("sleep", o.deps.RequestSleepTime).Msg("cold-storage restore in progress, sleeping")

		select {
		case <-ctx.Done():
			return nil, model.NewError(model.ErrTimeout, "orchestrator.list", ctx.Err())
		case <-time.After(o.deps.RequestSleepTime):
		}
		if err := o.setStatus(ctx, requestID, model.StatusRunning, ""); err != nil {
			return nil, err
		}
	}
}

func (o *Orchestrator) attemptList(ctx context.Context, input *model.InputRequest) ([]domainWork, bool, error) {
	var out []domainWork
	for _, d := range input.Domains {
		if d.Storm != "" {
			res, err := o.deps.Selection.SelectNhc(ctx, selection.Query{
				Storm: d.Storm, Basin: d.Basin, StormYear: d.StormYear, Advisory: d.Advisory,
			})
			if err != nil {
				return nil, false, err
			}
			out = append(out, domainWork{domain: d, nhc: res})
			continue
		}

		vt := input.DataType
		if vt == "" {
			vt = model.AllVariables
		}
		records, err := o.deps.Selection.SelectGridded(ctx, selection.Query{
			Service: d.Service, Start: input.StartDate, End: input.EndDate,
			Nowcast: input.Nowcast, MultipleForecasts: input.MultipleForecasts,
		}, vt)
		if err != nil {
			return nil, false, err
		}

		g, restoring, err := o.checkRestoreAndBuildGrid(ctx, d, records)
		if err != nil {
			return nil, false, err
		}
		if restoring {
			return nil, true, nil
		}
		out = append(out, domainWork{domain: d, records: records, grid: g})
	}
	return out, false, nil
}

// checkRestoreAndBuildGrid checks every record's backing object for
// cold storage, initiating restores as needed, and builds the domain's
// OutputGrid.
func (o *Orchestrator) checkRestoreAndBuildGrid(ctx context.Context, d model.Domain, records []*model.CatalogRecord) (*grid.OutputGrid, bool, error) {
	if o.deps.Glacier != nil {
		for _, r := range records {
			key := s3KeyFromURL(r.URL)
			if key == "" {
				continue
			}
			started, err := o.deps.Glacier.CheckArchiveAndInitiateRestore(ctx, key)
			if err != nil && !model.IsKind(err, model.ErrNoData) {
				return nil, false, err
			}
			if started {
				return nil, true, nil
			}
		}
	}

	if d.Preset != "" {
		g, err := presetGrid(d.Preset)
		return g, false, err
	}
	g, err := grid.New(d.XInit, d.YInit, d.XEnd, d.YEnd, d.DI, d.DJ, 0)
	if err != nil {
		return nil, false, err
	}
	return g, false, nil
}

// s3KeyFromURL strips the "s3://bucket/" prefix from a catalog record's
// URL, returning "" for non-S3 URLs.
func s3KeyFromURL(url string) string {
	const prefix = "s3://"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	rest := url[len(prefix):]
	idx := strings.Index(rest, "/")
	if idx < 0 {
		return ""
	}
	return rest[idx+1:]
}

func presetGrid(preset string) (*grid.OutputGrid, error) {
	switch preset {
	case "wnat":
		return grid.New(-98, 8, -60, 45, 0.25, 0.25, 0)
	case "gom":
		return grid.New(-98, 18, -80, 31, 0.1, 0.1, 0)
	case "global":
		return grid.New(-180, -90, 180, 90, 0.5, 0.5, 0)
	default:
		return nil, model.NewError(model.ErrValidation, "orchestrator.presetGrid", fmt.Errorf("unknown grid preset: %s", preset))
	}
}

// download pulls source files (or NHC tracks) to workDir, merging NHC
// best-track/forecast via the atcf package (spec §4.9 step 3).
//
// For a gridded GRIB-backed domain that will be interpolated (i.e. not
// requested in raw passthrough), this fetches only the small ".idx"
// sidecar per file rather than the full message: C5's interpolate step
// later range-reads just the requested variable's bytes through
// objectstore.RangeDownload using the parsed index (spec §4.4/C2).
// COAMPS-TC's NetCDF files carry no such sidecar and are always
// downloaded whole.
func (o *Orchestrator) download(ctx context.Context, requestID string, input *model.InputRequest, work []domainWork, workDir string, logger *zerolog.Logger) ([]outputPlan, error) {
	var plans []outputPlan
	for i, w := range work {
		domainDir := filepath.Join(workDir, fmt.Sprintf("domain-%d", i))
		if err := os.MkdirAll(domainDir, 0o755); err != nil {
			return nil, model.NewError(model.ErrInternal, "orchestrator.download", err)
		}

		if w.nhc != nil {
			merged, err := o.downloadNhc(ctx, w.nhc, domainDir)
			if err != nil {
				return nil, err
			}
			plans = append(plans, outputPlan{domain: w.domain, trackPath: merged})
			continue
		}

		var source *model.SourceDescriptor
		if len(w.records) > 0 {
			var err error
			source, err = o.deps.Registry.Describe(w.records[0].Service)
			if err != nil {
				return nil, err
			}
		}

		rangeRead := source != nil && source.FileFormat == model.FormatGRIB && input.Format != model.FormatRaw

		var files []string
		indexes := make(map[string]*gribidx.Index)
		for _, r := range w.records {
			if rangeRead {
				idxLocal := filepath.Join(domainDir, filepath.Base(r.Filepath)+".idx")
				if err := o.deps.Objects.Download(ctx, r.Filepath+".idx", idxLocal); err != nil {
					return nil, err
				}
				idx, err := parseIdxFile(idxLocal)
				if err != nil {
					return nil, err
				}
				indexes[r.Filepath] = idx
				files = append(files, r.Filepath)
				continue
			}

			local := filepath.Join(domainDir, filepath.Base(r.Filepath))
			if err := o.deps.Objects.Download(ctx, r.Filepath, local); err != nil {
				return nil, err
			}
			files = append(files, local)
		}
		plans = append(plans, outputPlan{domain: w.domain, records: w.records, localFiles: files, grid: w.grid, source: source, indexes: indexes})
	}
	logger.Info().Int("domains", len(plans)).Msg("download complete")
	return plans, nil
}

func parseIdxFile(path string) (*gribidx.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, model.NewError(model.ErrInternal, "orchestrator.parseIdxFile", err)
	}
	defer f.Close()
	return gribidx.Parse(f)
}

func (o *Orchestrator) downloadNhc(ctx context.Context, nhc *selection.NhcResult, dir string) (string, error) {
	var bestLines, fcLines []string
	if nhc.BestTrack != nil {
		local := filepath.Join(dir, "besttrack.dat")
		if err := o.deps.Objects.Download(ctx, nhc.BestTrack.Filepath, local); err != nil {
			return "", err
		}
		data, err := os.ReadFile(local)
		if err != nil {
			return "", model.NewError(model.ErrInternal, "orchestrator.downloadNhc", err)
		}
		bestLines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	}
	if nhc.Forecast != nil {
		local := filepath.Join(dir, "forecast.dat")
		if err := o.deps.Objects.Download(ctx, nhc.Forecast.Filepath, local); err != nil {
			return "", err
		}
		data, err := os.ReadFile(local)
		if err != nil {
			return "", model.NewError(model.ErrInternal, "orchestrator.downloadNhc", err)
		}
		fcLines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	}

	merged, err := atcf.MergeTracks(bestLines, fcLines)
	if err != nil {
		return "", err
	}
	out := filepath.Join(dir, "merged.atcf")
	if err := os.WriteFile(out, []byte(strings.Join(merged, "\n")+"\n"), 0o644); err != nil {
		return "", model.NewError(model.ErrInternal, "orchestrator.downloadNhc", err)
	}
	return out, nil
}

type outputPlan struct {
	domain     model.Domain
	records    []*model.CatalogRecord
	localFiles []string
	trackPath  string
	grid       *grid.OutputGrid
	outputPath string

	source  *model.SourceDescriptor
	indexes map[string]*gribidx.Index // GRIB .idx per record path; absent for COAMPS-TC
}

// interpolate runs the sequencer/merge/writer pipeline per gridded
// domain over [start, end] stepping by time_step (spec §4.9 step 4).
func (o *Orchestrator) interpolate(ctx context.Context, input *model.InputRequest, work []domainWork, plans []outputPlan, workDir string, logger *zerolog.Logger) error {
	components, err := input.DataType.Select()
	if err != nil && input.DataType != "" {
		return model.NewError(model.ErrValidation, "orchestrator.interpolate", err)
	}
	if len(components) == 0 {
		components = []model.MetDataType{model.Pressure, model.WindU, model.WindV}
	}

	for pi := range plans {
		p := &plans[pi]
		if p.trackPath != "" || p.grid == nil {
			continue
		}

		outPath := filepath.Join(workDir, sanitizeFilename(p.domain.Name))
		p.outputPath = outPath

		wantWind := containsAll(components, model.WindU, model.WindV)
		w := writer.NewOwiASCII(p.grid)
		if err := w.Open(outPath, input.StartDate, input.EndDate, wantWind); err != nil {
			return err
		}

		if err := o.runSequencerLoop(ctx, p, components, input, w, logger); err != nil {
			w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}

// runSequencerLoop primes one sequencer per requested component with
// the first file as both f1 and f2 (spec §4.9 step 4a), then steps t
// across [start,end] by time_step, advancing every component's frames
// together and writing each sample: the pressure sequencer's output to
// the .pre file, and the wind_u/wind_v pair's to the .wnd file.
func (o *Orchestrator) runSequencerLoop(ctx context.Context, p *outputPlan, components []model.MetDataType, input *model.InputRequest, w *writer.OwiASCII, logger *zerolog.Logger) error {
	if len(p.records) == 0 {
		return model.NewError(model.ErrNoData, "orchestrator.interpolate", fmt.Errorf("domain %s has no resolvable source files", p.domain.Name))
	}
	if p.source == nil {
		return model.NewError(model.ErrInternal, "orchestrator.interpolate", fmt.Errorf("domain %s has no resolved source descriptor", p.domain.Name))
	}

	first := model.FileObj{ValidTime: p.records[0].ValidTime, TauHours: p.records[0].TauHours, Paths: []string{p.localFiles[0]}}

	seqs := make(map[model.MetDataType]*sequencer.Sequencer, len(components))
	for _, comp := range components {
		if !owiWritable(comp) {
			continue
		}
		binding, ok := p.source.Variable(comp)
		if !ok {
			return model.NewError(model.ErrValidation, "orchestrator.interpolate", fmt.Errorf("%s does not advertise %s", p.source.Name, comp))
		}
		comp, binding := comp, binding
		process := func(f model.FileObj) (*sequencer.Dataset, error) {
			return o.mergeDomainAtFile(ctx, p, f, comp, binding)
		}
		seq, err := sequencer.New(first, comp, binding.IsAccumulated, binding.AccumulationTime, process)
		if err != nil {
			return err
		}
		seqs[comp] = seq
	}
	if len(seqs) == 0 {
		return model.NewError(model.ErrValidation, "orchestrator.interpolate", fmt.Errorf("domain %s: none of the requested components are writable by owi-ascii", p.domain.Name))
	}

	reference := seqs[components[0]]
	if reference == nil {
		for _, s := range seqs {
			reference = s
			break
		}
	}

	recordIdx := 0
	t := input.StartDate
	for !t.After(input.EndDate) {
		for recordIdx+1 < len(p.records) && t.After(reference.F2Time()) {
			recordIdx++
			next := p.records[recordIdx]
			nextFile := model.FileObj{ValidTime: next.ValidTime, TauHours: next.TauHours, Paths: []string{p.localFiles[recordIdx]}}
			for _, comp := range components {
				seq, ok := seqs[comp]
				if !ok {
					continue
				}
				seq.SetNextFile(nextFile)
				if err := seq.ProcessFiles(); err != nil {
					return err
				}
			}
		}

		if seq, ok := seqs[model.Pressure]; ok {
			d := seq.Get(t)
			if err := w.Write(d.Values, t); err != nil {
				return err
			}
		}
		su, hasU := seqs[model.WindU]
		sv, hasV := seqs[model.WindV]
		if hasU && hasV {
			du, dv := su.Get(t), sv.Get(t)
			if err := w.WriteWind(du.Values, dv.Values, t); err != nil {
				return err
			}
		}
		t = t.Add(time.Duration(input.TimeStepSeconds) * time.Second)
	}
	logger.Info().Str("domain", p.domain.Name).Msg("domain interpolation complete")
	return nil
}

// owiWritable reports whether the OWI-ASCII writer has a destination
// for comp; it only ever writes pressure (.pre) and the wind_u/wind_v
// pair (.wnd).
func owiWritable(comp model.MetDataType) bool {
	return comp == model.Pressure || comp == model.WindU || comp == model.WindV
}

func containsAll(components []model.MetDataType, want ...model.MetDataType) bool {
	for _, w := range want {
		found := false
		for _, c := range components {
			if c == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// mergeDomainAtFile reads variable's source payload for file f, resamples
// it onto the domain grid via C5's DataInterpolator, and runs it through
// merge.Merge as a one-source priority list. Only this domain's own
// source is merged; sources of other domains are not combined here or
// in any writer.
func (o *Orchestrator) mergeDomainAtFile(ctx context.Context, p *outputPlan, f model.FileObj, variable model.MetDataType, binding model.VariableBinding) (*sequencer.Dataset, error) {
	sg, values, err := o.readSource(ctx, p, f, binding)
	if err != nil {
		return nil, err
	}

	interp := grid.NewDataInterpolator(p.grid, sg, p.source.Name)
	onGrid := interp.Interpolate(values)

	merged := merge.Merge(p.grid, []merge.Source{{Values: onGrid, Resolution: p.grid.XResolution()}}, merge.Options{DefaultValue: binding.DefaultValue})
	return &sequencer.Dataset{Time: f.ValidTime, Values: merged}, nil
}

// readSource decodes file f's payload for one variable binding: a
// byte-range GRIB2 read through the file's parsed .idx sidecar for
// FormatGRIB sources, or a full local NetCDF read for FormatCoampsNC.
func (o *Orchestrator) readSource(ctx context.Context, p *outputPlan, f model.FileObj, binding model.VariableBinding) (*grid.SourceGrid, []float64, error) {
	if len(f.Paths) == 0 {
		return nil, nil, model.NewError(model.ErrInternal, "orchestrator.readSource", fmt.Errorf("file object has no source paths"))
	}
	path := f.Paths[0]

	switch p.source.FileFormat {
	case model.FormatGRIB:
		idx, ok := p.indexes[path]
		if !ok || idx == nil {
			return nil, nil, model.NewError(model.ErrInternal, "orchestrator.readSource", fmt.Errorf("no GRIB index resolved for %s", path))
		}
		raw, err := o.deps.Objects.RangeDownload(ctx, path, idx, []string{binding.GribShortName})
		if err != nil {
			return nil, nil, err
		}
		return sourcefile.DecodeGRIB2(raw, binding.Scale)
	case model.FormatCoampsNC:
		return sourcefile.DecodeCoampsNetCDF(path, p.source, binding.GribShortName, binding.Scale)
	default:
		return nil, nil, model.NewError(model.ErrInternal, "orchestrator.readSource", fmt.Errorf("unsupported source format %s for interpolation", p.source.FileFormat))
	}
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// upload pushes every produced output file plus a filelist.json
// manifest describing inputs/outputs per domain (spec §4.9 step 5).
func (o *Orchestrator) upload(ctx context.Context, requestID string, input *model.InputRequest, plans []outputPlan, logger *zerolog.Logger) error {
	type fileEntry struct {
		Domain string   `json:"domain"`
		Inputs []string `json:"inputs"`
		Output string   `json:"output,omitempty"`
	}
	manifest := struct {
		RequestID string      `json:"request_id"`
		Files     []fileEntry `json:"files"`
	}{RequestID: requestID}

	for _, p := range plans {
		entry := fileEntry{Domain: p.domain.Name, Inputs: p.localFiles}
		if p.trackPath != "" {
			entry.Inputs = []string{p.trackPath}
			if err := o.deps.Objects.Upload(ctx, p.trackPath, requestID+"/"+filepath.Base(p.trackPath)); err != nil {
				return err
			}
			entry.Output = filepath.Base(p.trackPath)
		}
		if p.outputPath != "" {
			for _, ext := range []string{".pre", ".wnd"} {
				full := p.outputPath + ext
				if _, err := os.Stat(full); err != nil {
					continue
				}
				if err := o.deps.Objects.Upload(ctx, full, requestID+"/"+filepath.Base(full)); err != nil {
					return err
				}
			}
			entry.Output = filepath.Base(p.outputPath)
		}
		manifest.Files = append(manifest.Files, entry)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return model.NewError(model.ErrInternal, "orchestrator.upload", err)
	}
	tmp := filepath.Join(os.TempDir(), requestID+"-filelist.json")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return model.NewError(model.ErrInternal, "orchestrator.upload", err)
	}
	defer os.Remove(tmp)
	if err := o.deps.Objects.Upload(ctx, tmp, requestID+"/filelist.json"); err != nil {
		return err
	}
	logger.Info().Int("files", len(manifest.Files)).Msg("upload complete")
	return nil
}
