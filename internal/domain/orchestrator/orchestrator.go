package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nevis-server/internal/domain/generation"
)

// Version tags which implementation path produced a response.
type Version string

const (
	VersionOptimized Version = "optimized"
	VersionOriginal  Version = "original"
)

// Config tunes the traffic split and alerting thresholds.
type Config struct {
	// ABTestingEnabled gates the split. When false every call runs the
	// stable path and no fallback chain exists.
	ABTestingEnabled bool

	// OptimizedTrafficPercent is the share of calls routed to the optimized
	// path, in [0, 100].
	OptimizedTrafficPercent float64

	// StableModelID and OptimizedModelID name the model each path routes to.
	StableModelID    string
	OptimizedModelID string

	// AlertProcessingTime is the soft-alert latency threshold.
	AlertProcessingTime time.Duration
}

// Options are per-call overrides.
type Options struct {
	// UseOptimized forces the path when non-nil, bypassing the draw.
	UseOptimized *bool
}

// PerfRecord is the structured performance record emitted for every completed
// call, fallback included.
type PerfRecord struct {
	Timestamp      time.Time     `json:"timestamp"`
	Version        Version       `json:"version"`
	ProcessingTime time.Duration `json:"processing_time_ms"`
	Success        bool          `json:"success"`
	FellBack       bool          `json:"fell_back"`
	CacheHits      int64         `json:"cache_hits,omitempty"`
	CacheMisses    int64         `json:"cache_misses,omitempty"`
}

const perfRecordLimit = 512

// Orchestrator routes content generation between a stable and an optimized
// path with an A/B traffic split and emits performance records with soft
// alerting. While A/B testing is enabled an optimized-path failure falls back
// to stable exactly once; with it disabled a forced optimized call fails hard.
type Orchestrator struct {
	service *generation.Service
	cfg     Config
	rand    RandSource
	cache   *resultCache
	log     zerolog.Logger

	mu      sync.Mutex
	records []PerfRecord
}

func New(service *generation.Service, cfg Config, rand RandSource, log zerolog.Logger) *Orchestrator {
	if rand == nil {
		rand = SystemRand()
	}
	return &Orchestrator{
		service: service,
		cfg:     cfg,
		rand:    rand,
		cache:   newResultCache(),
		log:     log.With().Str("component", "production_orchestrator").Logger(),
	}
}

// decideVersion picks the path for one call. The decision is made once; a
// fallback reuses it rather than re-drawing.
func (o *Orchestrator) decideVersion(opts Options) Version {
	if opts.UseOptimized != nil {
		if *opts.UseOptimized {
			return VersionOptimized
		}
		return VersionOriginal
	}
	if !o.cfg.ABTestingEnabled {
		return VersionOriginal
	}
	if o.rand.Float64()*100 < o.cfg.OptimizedTrafficPercent {
		return VersionOptimized
	}
	return VersionOriginal
}

// GenerateContent runs one content generation through the chosen path. The
// returned envelope is always tagged with the version that produced it.
func (o *Orchestrator) GenerateContent(ctx context.Context, req *generation.ContentRequest, opts Options) *generation.Response[*generation.Post] {
	start := time.Now()
	version := o.decideVersion(opts)

	if version == VersionOriginal {
		resp := o.runPath(ctx, req, VersionOriginal)
		resp.Version = string(VersionOriginal)
		o.record(resp, VersionOriginal, time.Since(start), false)
		return resp
	}

	if cached, ok := o.cachedOptimized(req); ok {
		cached.Version = string(VersionOptimized)
		o.record(cached, VersionOptimized, time.Since(start), false)
		return cached
	}

	resp := o.runPath(ctx, req, VersionOptimized)
	if resp.Success {
		resp.Version = string(VersionOptimized)
		o.cacheOptimized(req, resp)
		o.record(resp, VersionOptimized, time.Since(start), false)
		return resp
	}

	if !o.cfg.ABTestingEnabled {
		// The caller forced the optimized path while A/B testing is off.
		// There is no fallback chain to serve from, so the failure stands.
		o.log.Warn().
			Str("code", string(resp.Code)).
			Str("error", resp.Error).
			Msg("forced optimized path failed with A/B testing disabled")
		resp.Version = string(VersionOptimized)
		o.record(resp, VersionOptimized, time.Since(start), false)
		return resp
	}

	o.log.Warn().
		Str("code", string(resp.Code)).
		Str("error", resp.Error).
		Msg("optimized path failed, falling back to stable")

	fallback := o.runPath(ctx, req, VersionOriginal)
	fallback.Version = string(VersionOriginal)
	if !fallback.Success {
		// Both paths failed. Surface one hard failure naming both errors.
		combined := generation.Fail[*generation.Post](
			fallback.Metadata.ModelID,
			generation.CodeGenerationError,
			"optimized path failed ("+resp.Error+"); stable fallback failed ("+fallback.Error+")",
			time.Since(start),
		)
		combined.Version = string(VersionOriginal)
		o.record(combined, VersionOriginal, time.Since(start), true)
		return combined
	}
	o.record(fallback, VersionOriginal, time.Since(start), true)
	return fallback
}

// runPath executes the generation for one path. A request naming a model
// explicitly keeps it; otherwise the path's configured model is filled in,
// and with neither set the call degrades to auto selection.
func (o *Orchestrator) runPath(ctx context.Context, req *generation.ContentRequest, version Version) *generation.Response[*generation.Post] {
	routed := *req
	if routed.ModelID == "" {
		switch version {
		case VersionOptimized:
			routed.ModelID = o.cfg.OptimizedModelID
		default:
			routed.ModelID = o.cfg.StableModelID
		}
	}
	if routed.ModelID == "" {
		return o.service.GenerateContentAuto(ctx, &routed, generation.SelectionCriteria{})
	}
	return o.service.GenerateContent(ctx, &routed)
}

func (o *Orchestrator) cachedOptimized(req *generation.ContentRequest) (*generation.Response[*generation.Post], bool) {
	lookup := *req
	if lookup.ModelID == "" {
		lookup.ModelID = o.cfg.OptimizedModelID
	}
	return o.cache.get(&lookup)
}

func (o *Orchestrator) cacheOptimized(req *generation.ContentRequest, resp *generation.Response[*generation.Post]) {
	keyed := *req
	if keyed.ModelID == "" {
		keyed.ModelID = o.cfg.OptimizedModelID
	}
	o.cache.put(&keyed, resp)
}

// record appends a performance record and raises soft alerts. Alerts are
// logged only; they never change the response.
func (o *Orchestrator) record(resp *generation.Response[*generation.Post], version Version, elapsed time.Duration, fellBack bool) {
	rec := PerfRecord{
		Timestamp:      time.Now().UTC(),
		Version:        version,
		ProcessingTime: elapsed,
		Success:        resp.Success,
		FellBack:       fellBack,
	}
	if version == VersionOptimized {
		rec.CacheHits, rec.CacheMisses = o.cache.counters()
	}

	o.mu.Lock()
	o.records = append(o.records, rec)
	if len(o.records) > perfRecordLimit {
		o.records = o.records[len(o.records)-perfRecordLimit:]
	}
	o.mu.Unlock()

	o.log.Info().
		Str("version", string(version)).
		Dur("processing_time", elapsed).
		Bool("success", resp.Success).
		Bool("fell_back", fellBack).
		Msg("generation completed")

	if o.cfg.AlertProcessingTime > 0 && elapsed > o.cfg.AlertProcessingTime {
		o.log.Warn().
			Dur("processing_time", elapsed).
			Dur("threshold", o.cfg.AlertProcessingTime).
			Msg("alert: generation exceeded processing time threshold")
	}
	if version == VersionOptimized && rec.CacheHits == 0 && rec.CacheMisses > 3 {
		o.log.Warn().
			Int64("cache_misses", rec.CacheMisses).
			Msg("alert: optimized path cache shows zero hits")
	}
}

// PerfRecords returns a copy of the recent performance records, newest last.
func (o *Orchestrator) PerfRecords() []PerfRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]PerfRecord(nil), o.records...)
}
