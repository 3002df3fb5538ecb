package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"gapminder/internal/dataprocessing"
	"gapminder/internal/files"
	"gapminder/internal/infrastructure"
	"gapminder/pkg/contracts/domain"
)

// Manager runs the load, reshape, align and export steps of the pipeline.
// Only one run executes at a time.
type Manager struct {
	config    *Config
	loader    LoaderFunc
	reshaper  *dataprocessing.Reshaper
	aligner   *dataprocessing.Aligner
	sinks     []Sink
	recorders []RunRecorder
	tracer    *PipelineTracer
	logger    *slog.Logger
	newID     func() string

	running atomic.Bool
	current atomic.Pointer[RunState]
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig sets the run configuration.
func WithConfig(cfg *Config) Option {
	return func(m *Manager) {
		if cfg != nil {
			m.config = cfg
		}
	}
}

// WithLoader replaces files.LoadTable as the source reader.
func WithLoader(l LoaderFunc) Option {
	return func(m *Manager) { m.loader = l }
}

// WithSinks adds result sinks, exported in order.
func WithSinks(sinks ...Sink) Option {
	return func(m *Manager) { m.sinks = append(m.sinks, sinks...) }
}

// WithRecorders adds run history recorders.
func WithRecorders(r ...RunRecorder) Option {
	return func(m *Manager) { m.recorders = append(m.recorders, r...) }
}

// WithTracer sets the instrumentation.
func WithTracer(t *PipelineTracer) Option {
	return func(m *Manager) { m.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithIDGenerator replaces the uuid run ID generator.
func WithIDGenerator(f func() string) Option {
	return func(m *Manager) { m.newID = f }
}

// NewManager creates a new pipeline manager.
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		config: NewConfig(),
		loader: files.LoadTable,
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(slog.String("component", "operations"))
	m.reshaper = dataprocessing.NewReshaper(m.logger)
	m.aligner = dataprocessing.NewAligner(m.logger)

	if m.tracer == nil {
		t, err := NewPipelineTracer(nil)
		if err != nil {
			return nil, err
		}
		m.tracer = t
	}
	return m, nil
}

// Running reports whether a run is in progress.
func (m *Manager) Running() bool {
	return m.running.Load()
}

// Progress returns the state of the active run, or of the last finished run
// when none is active. ok is false before the first run.
func (m *Manager) Progress() (p RunProgress, ok bool) {
	state := m.current.Load()
	if state == nil {
		return RunProgress{}, false
	}
	return state.Progress(), true
}

// checkSources rejects source lists that would give two branches the same
// step IDs.
func checkSources(sources []SourceSpec) error {
	seen := make(map[domain.Indicator]string, len(sources))
	for _, s := range sources {
		if prev, dup := seen[s.Indicator]; dup {
			return fmt.Errorf("%w: %s (%s and %s)", ErrDuplicateSource, s.Indicator, prev, s.Path)
		}
		seen[s.Indicator] = s.Path
	}
	return nil
}

// branch is the outcome of one load+reshape branch. Each branch owns its
// slot exclusively.
type branch struct {
	table domain.ReshapedTable
	stats dataprocessing.ReshapeStats
	err   error
}

// Run executes the pipeline over sources. Every source is loaded and
// reshaped concurrently; a failing source does not stop its siblings. If
// any source fails, alignment and export are skipped and the returned error
// joins one SourceError per failed source. An empty canonical table is a
// successful run with RunReport.EmptyResult set.
//
// Run returns ErrRunInProgress without doing anything when another run is
// active, and ErrDuplicateSource when an indicator is listed twice.
func (m *Manager) Run(ctx context.Context, sources []SourceSpec) (*RunReport, error) {
	if err := checkSources(sources); err != nil {
		return nil, err
	}
	if !m.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer m.running.Store(false)

	if m.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.Timeout)
		defer cancel()
	}

	runID := m.newID()
	ctx = infrastructure.WithRunID(infrastructure.EnsureTraceID(ctx), runID)
	state := NewRunState(runID, stepIDs(sources))
	m.current.Store(state)
	report := &RunReport{RunID: runID, StartedAt: state.StartTime()}

	ctx, span := m.tracer.TraceRun(ctx, runID, len(sources))
	m.logRunStart(ctx, runID, sources)

	err := m.execute(ctx, state, sources, report)

	report.Duration = time.Since(report.StartedAt)
	report.Status = runStatus(ctx, err)
	state.Finish(report.Status)
	state.SkipPending("earlier step failed")
	report.Steps = state.Snapshots()

	m.tracer.RecordRunCompletion(ctx, span, report)
	m.record(ctx, report)
	m.logRunComplete(ctx, report, err)
	return report, err
}

func (m *Manager) execute(ctx context.Context, state *RunState, sources []SourceSpec, report *RunReport) error {
	results := make([]branch, len(sources))

	var g errgroup.Group
	g.SetLimit(m.config.maxParallel())
	for i, spec := range sources {
		g.Go(func() error {
			results[i] = m.runSource(ctx, state, spec)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	tables := make([]domain.ReshapedTable, 0, len(sources))
	for i, b := range results {
		if b.err != nil {
			errs = append(errs, b.err)
			failure := SourceFailure{
				Indicator: sources[i].Indicator,
				Step:      StepID(StepLoad, sources[i].Indicator),
				Error:     b.err.Error(),
			}
			var se *SourceError
			if errors.As(b.err, &se) {
				failure.Step = StepID(se.Step, se.Indicator)
				failure.Error = se.Err.Error()
			}
			report.Failures = append(report.Failures, failure)
			continue
		}
		report.Sources = append(report.Sources, b.stats)
		tables = append(tables, b.table)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	ct, err := m.align(ctx, state, tables)
	if err != nil {
		return err
	}

	report.CanonicalRows = ct.Len()
	report.EmptyResult = ct.Empty()
	report.Result = &domain.RunResult{
		RunID:     state.ID(),
		StartedAt: state.StartTime(),
		Window:    m.config.Window,
		Reshaped:  tables,
		Canonical: ct,
	}

	return m.export(ctx, state, report)
}

// runSource loads and reshapes one source.
func (m *Manager) runSource(ctx context.Context, state *RunState, spec SourceSpec) branch {
	fail := func(step string, err error) branch {
		return branch{err: &SourceError{Indicator: spec.Indicator, Step: step, Path: spec.Path, Err: err}}
	}

	var raw domain.RawIndicatorTable
	err := m.step(ctx, state, StepID(StepLoad, spec.Indicator), func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		var err error
		raw, err = m.loader(spec.Path, spec.Sheet)
		if err != nil {
			return "", err
		}
		rows, cols := raw.Shape()
		return fmt.Sprintf("%d countries, %d years", rows, cols), nil
	})
	if err != nil {
		return fail(StepLoad, err)
	}

	var b branch
	err = m.step(ctx, state, StepID(StepReshape, spec.Indicator), func(ctx context.Context) (string, error) {
		var err error
		b.table, b.stats, err = m.reshaper.Reshape(ctx, raw, dataprocessing.ReshapeOptions{
			Indicator: spec.Indicator,
			Impute:    spec.Impute,
			Window:    m.config.Window,
		})
		if err != nil {
			return "", err
		}
		m.tracer.RecordReshape(ctx, b.stats)
		return fmt.Sprintf("%d records", b.stats.Records), nil
	})
	if err != nil {
		return fail(StepReshape, err)
	}
	return b
}

func (m *Manager) align(ctx context.Context, state *RunState, tables []domain.ReshapedTable) (domain.CanonicalTable, error) {
	var ct domain.CanonicalTable
	err := m.step(ctx, state, StepAlign, func(ctx context.Context) (string, error) {
		var err error
		ct, err = m.aligner.Align(ctx, tables...)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d rows", ct.Len()), nil
	})
	return ct, err
}

// export hands the result to every sink. A failing sink does not stop the
// others.
func (m *Manager) export(ctx context.Context, state *RunState, report *RunReport) error {
	return m.step(ctx, state, StepExport, func(ctx context.Context) (string, error) {
		var errs []error
		for _, s := range m.sinks {
			if err := s.Export(ctx, report.Result); err != nil {
				m.logger.ErrorContext(ctx, "sink failed",
					slog.String("sink", s.Name()),
					slog.String("error", err.Error()))
				report.SinkFailures = append(report.SinkFailures, SinkFailure{Sink: s.Name(), Error: err.Error()})
				errs = append(errs, fmt.Errorf("sink %s: %w", s.Name(), err))
			}
		}
		if err := errors.Join(errs...); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d sinks", len(m.sinks)), nil
	})
}

// step runs fn as the named step, updating its state, span and metrics.
func (m *Manager) step(ctx context.Context, state *RunState, id string, fn func(context.Context) (string, error)) error {
	st := state.Step(id)
	ctx, span := m.tracer.TraceStep(ctx, state.ID(), id)
	st.Start()
	m.logStageStart(ctx, id)

	msg, err := fn(ctx)

	if err != nil {
		st.Fail(err)
		m.logStageError(ctx, id, err)
	} else {
		st.Complete(msg)
		m.logStageComplete(ctx, id, st.Duration(), msg)
	}
	m.tracer.RecordStepCompletion(ctx, span, stepKind(id), st.Duration(), err)
	return err
}

func (m *Manager) record(ctx context.Context, report *RunReport) {
	if len(m.recorders) == 0 {
		return
	}
	rec := report.Record()
	// History is written even when the run was cancelled.
	ctx = context.WithoutCancel(ctx)
	for _, r := range m.recorders {
		if err := r.RecordRun(ctx, rec); err != nil {
			m.logger.WarnContext(ctx, "failed to record run",
				slog.String("run_id", rec.RunID),
				slog.String("error", err.Error()))
		}
	}
}

func stepIDs(sources []SourceSpec) []string {
	ids := make([]string, 0, 2*len(sources)+2)
	for _, s := range sources {
		ids = append(ids, StepID(StepLoad, s.Indicator), StepID(StepReshape, s.Indicator))
	}
	return append(ids, StepAlign, StepExport)
}

// stepKind strips the indicator suffix for metric labels.
func stepKind(id string) string {
	kind, _, _ := strings.Cut(id, ":")
	return kind
}

func runStatus(ctx context.Context, err error) domain.RunStatus {
	switch {
	case err == nil:
		return domain.RunStatusCompleted
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return domain.RunStatusCancelled
	default:
		return domain.RunStatusFailed
	}
}
