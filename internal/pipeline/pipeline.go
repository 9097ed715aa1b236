// Package pipeline runs one end-to-end chart generation: load the source CSV,
// fill every series, render the charts, then persist and publish the results.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"presscount/internal/chart"
	"presscount/internal/config"
	"presscount/internal/domain"
	"presscount/internal/metrics"
	"presscount/internal/publish"
	"presscount/internal/series"
	"presscount/internal/source"
	"presscount/internal/store"
)

// Deps are the optional collaborators of a Pipeline. Nil fields disable the
// corresponding step.
type Deps struct {
	Fetcher  *source.Fetcher
	Series   store.SeriesStore
	Runs     store.RunStore
	Uploader *publish.Uploader
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Now      func() time.Time
}

// Pipeline generates both charts from the configured source.
type Pipeline struct {
	cfg      *config.Config
	fetcher  *source.Fetcher
	series   store.SeriesStore
	runs     store.RunStore
	uploader *publish.Uploader
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time
}

// Report summarises a successful run.
type Report struct {
	RunID        string
	Range        domain.DateRange
	Observations int
	Duplicates   int
	Groups       int
	Synthesized  int
	Outputs      []string // HTML files, then PNG previews if enabled
	Snapshot     string   // parquet file, if a series store is configured
	Published    []string // object keys
}

// New creates a Pipeline. A Fetcher and Metrics are built from cfg when not
// supplied.
func New(cfg *config.Config, deps Deps) *Pipeline {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = source.NewFetcher(source.FetcherOptions{
			Timeout:   cfg.Fetch.Timeout,
			Attempts:  cfg.Fetch.Attempts,
			Backoff:   cfg.Fetch.Backoff,
			UserAgent: cfg.Fetch.UserAgent,
			Logger:    log,
		})
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		series:   deps.Series,
		runs:     deps.Runs,
		uploader: deps.Uploader,
		metrics:  m,
		log:      log,
		now:      now,
	}
}

// Name returns the pipeline identifier.
func (p *Pipeline) Name() string { return "presscount-charts" }

// Run executes the pipeline once. Chart files are only written after every
// series has been filled, so a failing run leaves previous outputs intact.
func (p *Pipeline) Run(ctx context.Context) (rep *Report, err error) {
	started := p.now()
	run := &store.Run{
		ID:        uuid.NewString(),
		StartedAt: started.UTC(),
		Source:    p.sourceName(),
		Status:    store.RunStatusRunning,
	}
	log := p.log.With("run", run.ID)

	if p.runs != nil {
		if serr := p.runs.StartRun(ctx, run); serr != nil {
			log.Warn("recording run start", "error", serr)
		}
	}

	defer func() {
		finished := p.now()
		p.metrics.Finish(started, finished, err)
		p.finishRun(log, run, finished, err)
		if path := p.cfg.Metrics.Textfile; path != "" {
			if merr := p.metrics.WriteTextfile(path); merr != nil {
				log.Warn("writing metrics textfile", "path", path, "error", merr)
			}
		}
	}()

	return p.run(ctx, log, run)
}

func (p *Pipeline) run(ctx context.Context, log *slog.Logger, run *store.Run) (*Report, error) {
	rep := &Report{RunID: run.ID}

	// -- Load --
	data, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	obs, err := source.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", run.Source, err)
	}
	rep.Observations = len(obs)
	run.Observations = len(obs)
	p.metrics.Observations.Set(float64(len(obs)))

	if n := series.Duplicates(obs); n > 0 {
		log.Warn("duplicate rows summed", "rows", n)
		rep.Duplicates = n
	}

	// -- Fill --
	res, err := series.Build(obs, series.Options{Boundary: series.Boundary(p.cfg.Interpolation.Boundary)})
	if err != nil {
		return nil, err
	}
	rep.Range = res.Range
	rep.Groups = len(res.Groups)
	run.Groups = len(res.Groups)
	run.FirstDay, run.LastDay = res.Range.First, res.Range.Last
	p.metrics.Groups.Set(float64(len(res.Groups)))

	all := append(append([]domain.DailySeries(nil), res.Groups...), res.Aggregate)
	for _, s := range all {
		rep.Synthesized += s.Synthesized()
	}
	run.Synthesized = rep.Synthesized
	p.metrics.ObserveSeries(res.Range, all...)

	log.Info("series filled",
		"observations", len(obs),
		"newspapers", len(res.Groups),
		"first", res.Range.First.Format(time.DateOnly),
		"last", res.Range.Last.Format(time.DateOnly),
		"days", res.Range.Days(),
		"synthesized", rep.Synthesized,
	)

	// -- Render --
	htmlOpts, err := chart.LoadHTMLOptions(p.cfg.Chart.PlotlyJSURL, p.cfg.Chart.PlotlyJSPath)
	if err != nil {
		return nil, err
	}
	style := chart.DefaultStyle()
	pages := []struct {
		path string
		fig  chart.Figure
	}{
		{p.cfg.Output.BySource, chart.BySource(res.Groups, p.cfg.Chart.BySourceTitle, style)},
		{p.cfg.Output.Total, chart.Total(res.Aggregate, p.cfg.Chart.TotalTitle, style)},
	}
	// Both pages are rendered before either replaces its predecessor.
	var staged []*chart.StagedFile
	for _, pg := range pages {
		f, err := chart.StageHTMLFile(pg.path, pg.fig, htmlOpts)
		if err != nil {
			for _, s := range staged {
				s.Discard()
			}
			return nil, fmt.Errorf("writing %s: %w", pg.path, err)
		}
		staged = append(staged, f)
	}
	for i, f := range staged {
		if err := f.Commit(); err != nil {
			for _, rest := range staged[i+1:] {
				rest.Discard()
			}
			return nil, fmt.Errorf("writing %s: %w", f.Path, err)
		}
		log.Info("chart saved", "path", f.Path)
		rep.Outputs = append(rep.Outputs, f.Path)
	}

	if p.cfg.Chart.Snapshot {
		previews := []struct {
			path   string
			title  string
			series []domain.DailySeries
		}{
			{pngPath(p.cfg.Output.BySource), p.cfg.Chart.BySourceTitle, res.Groups},
			{pngPath(p.cfg.Output.Total), p.cfg.Chart.TotalTitle, []domain.DailySeries{res.Aggregate}},
		}
		for _, pv := range previews {
			if err := chart.WriteSnapshot(pv.path, pv.title, pv.series); err != nil {
				return nil, fmt.Errorf("writing %s: %w", pv.path, err)
			}
			log.Info("preview saved", "path", pv.path)
			rep.Outputs = append(rep.Outputs, pv.path)
		}
	}
	run.Outputs = rep.Outputs

	// -- Persist --
	if p.series != nil {
		path, err := p.series.WriteSeries(ctx, all)
		if err != nil {
			return nil, fmt.Errorf("storing series: %w", err)
		}
		log.Info("series snapshot stored", "path", path)
		rep.Snapshot = path
	}

	// -- Publish --
	if p.uploader != nil {
		keys, err := p.uploader.UploadFiles(ctx, rep.Outputs...)
		p.metrics.PublishedArtifacts.Add(float64(len(keys)))
		if err != nil {
			return nil, fmt.Errorf("publishing charts: %w", err)
		}
		log.Info("charts published", "objects", len(keys))
		rep.Published = keys
	}

	return rep, nil
}

func (p *Pipeline) load(ctx context.Context) ([]byte, error) {
	if p.cfg.Source.Path != "" {
		return source.ReadFile(p.cfg.Source.Path)
	}
	return p.fetcher.Fetch(ctx, p.cfg.Source.URL)
}

func (p *Pipeline) sourceName() string {
	if p.cfg.Source.Path != "" {
		return p.cfg.Source.Path
	}
	return p.cfg.Source.URL
}

func (p *Pipeline) finishRun(log *slog.Logger, run *store.Run, finished time.Time, err error) {
	run.FinishedAt = finished.UTC()
	run.Status = store.RunStatusOK
	if err != nil {
		run.Status = store.RunStatusFailed
		run.Error = err.Error()
	}
	if p.runs == nil {
		return
	}
	// Use a fresh context so an interrupted run is still recorded.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if ferr := p.runs.FinishRun(ctx, run); ferr != nil {
		log.Warn("recording run result", "error", ferr)
	}
}

// pngPath swaps the extension of an HTML output for .png.
func pngPath(htmlPath string) string {
	return strings.TrimSuffix(htmlPath, filepath.Ext(htmlPath)) + ".png"
}
