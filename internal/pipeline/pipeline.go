package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/sitecheck/internal/model"
	"github.com/nao1215/sitecheck/internal/probe"
)

// State is the per-site value threaded through the steps.
// Later stages read what earlier stages produced, most notably the body
// captured by the reachability stage.
type State struct {
	// Target is the site being checked.
	Target model.Target

	// Fetch is the body captured by the reachability stage.
	Fetch model.Fetch

	// content is Fetch parsed once; see Content.
	content *probe.Content

	// Report is the report under construction.
	Report *model.SiteReport
}

// Content returns the parsed body, parsing it on first use.
func (s *State) Content() *probe.Content {
	if s.content == nil {
		s.content = probe.NewContent(s.Fetch)
	}
	return s.content
}

// SetFetch replaces the captured body and resets the parsed content.
func (s *State) SetFetch(f model.Fetch) {
	s.Fetch = f
	s.content = nil
}

// Step is one stage of the pipeline.
type Step interface {
	// Do runs the stage. Probe stages record failures in the report and
	// return nil; a returned error stops the pipeline for this site.
	Do(ctx context.Context, state *State) error

	// Stage identifies the step for logging and progress events.
	Stage() model.Stage
}

// Observer receives progress events. It is called synchronously from the
// goroutine running the pipeline.
type Observer interface {
	OnEvent(event model.Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(event model.Event)

// OnEvent calls f.
func (f ObserverFunc) OnEvent(event model.Event) {
	f(event)
}

// Pipeline runs steps in order against one site.
type Pipeline struct {
	steps    []Step
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// WithClock sets the time source for CheckedAt and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Run executes all steps against target and returns the finished report.
//
// Context cancellation is checked before each step; steps handle their own
// timeouts. If a step fails, the pipeline stops, the error is recorded in
// the report and returned together with the partial report.
// The returned report is a copy the caller owns.
func (p *Pipeline) Run(ctx context.Context, target model.Target) (model.SiteReport, error) {
	start := p.now()
	report := model.NewSiteReport(target, start)
	state := &State{Target: target, Report: report}
	total := len(p.steps)

	for i, step := range p.steps {
		stage := step.Stage()

		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled", "site", target.URL, "stage", stage.String(), "reason", ctx.Err())
			return p.fail(report, start, stage, i, total, ctx.Err())
		default:
		}

		p.emit(model.Event{Kind: model.EventStageStarted, Site: target.URL, Stage: stage, Index: i + 1, Total: total})
		p.logger.Debug("executing stage", "site", target.URL, "stage", stage.String())

		if err := step.Do(ctx, state); err != nil {
			p.logger.Error("stage failed", "site", target.URL, "stage", stage.String(), "error", err)
			return p.fail(report, start, stage, i, total, fmt.Errorf("%s stage: %w", stage, err))
		}
		report.Stages = append(report.Stages, stage.String())
	}

	report.Duration = p.now().Sub(start)
	p.emit(model.Event{Kind: model.EventSiteCompleted, Site: target.URL, Index: total, Total: total})
	return report.Clone(), nil
}

func (p *Pipeline) fail(report *model.SiteReport, start time.Time, stage model.Stage, i, total int, err error) (model.SiteReport, error) {
	report.Error = err.Error()
	report.Duration = p.now().Sub(start)
	p.emit(model.Event{Kind: model.EventSiteFailed, Site: report.Target.URL, Stage: stage, Index: i + 1, Total: total})
	return report.Clone(), err
}

func (p *Pipeline) emit(e model.Event) {
	if p.observer == nil {
		return
	}
	e.Time = p.now()
	p.observer.OnEvent(e)
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StageNames returns the names of all stages in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Stage().String()
	}
	return names
}
