// Package pipeline drives recipient collection and rate-limited validation
// for one composed message at a time.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sungwon/recipient-check/internal/collector"
	"github.com/sungwon/recipient-check/internal/logger"
	"github.com/sungwon/recipient-check/internal/metrics"
	"github.com/sungwon/recipient-check/internal/ratelimit"
	"github.com/sungwon/recipient-check/internal/report"
	"github.com/sungwon/recipient-check/internal/usage"
	"github.com/sungwon/recipient-check/internal/validator"
)

// usageTimeout bounds each usage ledger write.
const usageTimeout = 5 * time.Second

// ErrRunInProgress is returned when a run is requested while another one is
// still collecting or validating.
var ErrRunInProgress = errors.New("pipeline: run in progress")

// Options configures an Orchestrator. Validator and Throttler are required.
type Options struct {
	Collector *collector.Collector
	Validator validator.Validator
	Throttler ratelimit.Throttler
	// Interval spaces calls when Throttler fails. Zero means
	// ratelimit.DefaultInterval.
	Interval time.Duration
	// Service names the validation service in the usage ledger.
	Service string
	// Usage records every outbound validation call. Nil disables it.
	Usage usage.Recorder
	// Reports receives finished run results. Nil disables export.
	Reports report.Store
	Clock   ratelimit.Clock
	Log     zerolog.Logger
}

// Orchestrator runs at most one collection or validation pass at a time and
// keeps the outcome of the latest one.
type Orchestrator struct {
	collector *collector.Collector
	validator validator.Validator
	throttler ratelimit.Throttler
	fallback  *ratelimit.Fixed
	service   string
	usage     usage.Recorder
	reports   report.Store
	clock     ratelimit.Clock
	log       zerolog.Logger

	mu      sync.Mutex
	state   State
	mode    Mode
	result  *RunResult
	preview *Preview
}

// New creates an idle Orchestrator in preview mode.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		collector: opts.Collector,
		validator: opts.Validator,
		throttler: opts.Throttler,
		service:   opts.Service,
		usage:     opts.Usage,
		reports:   opts.Reports,
		clock:     opts.Clock,
		log:       opts.Log,
		state:     StateIdle,
		mode:      ModePreview,
	}
	if o.collector == nil {
		o.collector = collector.New(opts.Log)
	}
	if o.usage == nil {
		o.usage = usage.Nop{}
	}
	if o.clock == nil {
		o.clock = ratelimit.SystemClock{}
	}
	if o.service == "" {
		o.service = "default"
	}
	o.fallback = ratelimit.NewFixed(opts.Interval, o.clock)
	return o
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Mode returns the mode Run dispatches on.
func (o *Orchestrator) Mode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// SetMode switches between preview and validation. Any stored validation
// result is discarded. Switching is rejected while a run is in flight.
func (o *Orchestrator) SetMode(m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.busy() {
		return ErrRunInProgress
	}
	o.mode = m
	o.result = nil
	return nil
}

// LastResult returns the result of the latest completed validation run, or
// nil if there is none.
func (o *Orchestrator) LastResult() *RunResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// LastPreview returns the latest preview, or nil.
func (o *Orchestrator) LastPreview() *Preview {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.preview
}

// Run performs a preview or a validation run depending on the current mode.
// Exactly one of the returned pointers is non-nil on success.
func (o *Orchestrator) Run(ctx context.Context, host collector.Host) (*Preview, *RunResult, error) {
	if o.Mode() == ModeValidate {
		res, err := o.RunValidation(ctx, host)
		return nil, res, err
	}
	p, err := o.RunPreview(ctx, host)
	return p, nil, err
}

// begin claims the in-flight slot and moves to Collecting.
func (o *Orchestrator) begin(mode Mode) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.busy() {
		metrics.RunsTotal.WithLabelValues(string(mode), "rejected").Inc()
		return ErrRunInProgress
	}
	o.state = StateCollecting
	metrics.RunInProgress.Set(1)
	return nil
}

// finish releases the in-flight slot.
func (o *Orchestrator) finish(next State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = next
	metrics.RunInProgress.Set(0)
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = s
}

// RunPreview collects the recipients without validating them. Lookup
// failures degrade to empty groups, so it only fails on re-entrancy.
func (o *Orchestrator) RunPreview(ctx context.Context, host collector.Host) (*Preview, error) {
	if err := o.begin(ModePreview); err != nil {
		return nil, err
	}
	next := StateIdle
	defer func() { o.finish(next) }()

	id := logger.NewCorrelationID()
	log := o.log.With().Str("run_id", id).Str("mode", string(ModePreview)).Logger()
	start := o.clock.Now()

	sets := o.collector.Collect(ctx, host)
	p := &Preview{ID: id, Recipients: sets, CollectedAt: o.clock.Now()}

	o.mu.Lock()
	o.preview = p
	o.result = nil
	o.mu.Unlock()
	next = StatePreviewReady

	metrics.RunsTotal.WithLabelValues(string(ModePreview), "completed").Inc()
	metrics.RunDuration.WithLabelValues(string(ModePreview)).Observe(o.clock.Now().Sub(start).Seconds())
	log.Info().
		Int("to", len(sets.To)).
		Int("cc", len(sets.Cc)).
		Int("bcc", len(sets.Bcc)).
		Msg("recipients collected")

	return p, nil
}

// RunValidation collects the recipients and validates each unique address
// in order, one call at a time, throttled before every call. Failed
// validations count as invalid and never stop the run. The run ends early
// only when ctx is done; no result is stored then.
func (o *Orchestrator) RunValidation(ctx context.Context, host collector.Host) (*RunResult, error) {
	if err := o.begin(ModeValidate); err != nil {
		return nil, err
	}
	defer o.finish(StateIdle)

	id := logger.NewCorrelationID()
	log := o.log.With().Str("run_id", id).Str("mode", string(ModeValidate)).Logger()
	ctx = logger.WithCorrelationID(ctx, id)
	start := o.clock.Now()

	o.mu.Lock()
	o.result = nil
	o.mu.Unlock()

	sets := o.collector.Collect(ctx, host)
	addrs := collector.CombinedUnique(sets)
	metrics.RecipientsCollected.Observe(float64(len(addrs)))

	o.setState(StateValidating)
	log.Info().Int("addresses", len(addrs)).Msg("validation started")

	res := &RunResult{
		ID:          id,
		Recipients:  sets,
		Invalid:     []string{},
		Corrections: []Correction{},
		StartedAt:   start,
	}

	for _, addr := range addrs {
		if err := o.wait(ctx, log); err != nil {
			metrics.RunsTotal.WithLabelValues(string(ModeValidate), "cancelled").Inc()
			log.Warn().Err(err).Int("checked", res.Checked).Msg("validation cancelled")
			return nil, err
		}

		v := o.validator.Validate(ctx, addr)
		res.Checked++
		o.recordUsage(ctx, log)

		if v.HasSuggestion() {
			res.Corrections = append(res.Corrections, Correction{Original: addr, Suggested: v.Suggestion})
			metrics.CorrectionsSuggestedTotal.Inc()
		}
		if !v.Valid {
			res.Invalid = append(res.Invalid, addr)
		}
	}
	res.FinishedAt = o.clock.Now()

	o.mu.Lock()
	o.result = res
	o.mu.Unlock()

	metrics.RunsTotal.WithLabelValues(string(ModeValidate), "completed").Inc()
	metrics.RunDuration.WithLabelValues(string(ModeValidate)).Observe(res.FinishedAt.Sub(start).Seconds())
	log.Info().
		Int("checked", res.Checked).
		Int("invalid", len(res.Invalid)).
		Int("corrections", len(res.Corrections)).
		Msg("validation finished")

	o.export(ctx, res, log)
	return res, nil
}

// wait throttles the next call. A throttler failure other than ctx ending
// is logged and the call is spaced by the in-process fallback instead.
func (o *Orchestrator) wait(ctx context.Context, log zerolog.Logger) error {
	err := o.throttler.Wait(ctx)
	if err == nil {
		o.fallback.Mark(o.clock.Now())
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	metrics.ThrottleFallbackTotal.Inc()
	log.Warn().Err(err).Msg("throttle failed, spacing calls in process")
	return o.fallback.Wait(ctx)
}

func (o *Orchestrator) recordUsage(ctx context.Context, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), usageTimeout)
	defer cancel()
	if err := o.usage.Record(ctx, o.service); err != nil {
		log.Error().Err(err).Str("service", o.service).Msg("failed to record validation usage")
	}
}

func (o *Orchestrator) export(ctx context.Context, res *RunResult, log zerolog.Logger) {
	if o.reports == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode run report")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := o.reports.Put(ctx, res.ID+".json", data); err != nil {
		log.Error().Err(err).Msg("failed to export run report")
	}
}
