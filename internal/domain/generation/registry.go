package generation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"nevis-server/internal/utils/platformerrors"
)

const (
	// availabilityProbeTimeout bounds one health probe so a hung provider
	// cannot stall discovery of the other models.
	availabilityProbeTimeout = 5 * time.Second

	maxConcurrentProbes = 8
)

// Registry is the single source of truth for which models exist and which are
// currently usable. It is constructed explicitly and injected; there is no
// package-level instance.
type Registry struct {
	mu    sync.RWMutex
	impls map[string]Implementation
	order []string
	log   zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		impls: make(map[string]Implementation),
		log:   log.With().Str("component", "model_registry").Logger(),
	}
}

// Register inserts or overwrites an implementation by descriptor id.
// Overwriting a live id is allowed to support hot-swap during development,
// but logged loudly. A descriptor claiming a generation capability its
// implementation does not satisfy is rejected here, so a missing generator
// can never surface mid-request.
func (r *Registry) Register(impl Implementation) error {
	if impl == nil || impl.Descriptor() == nil {
		return platformerrors.NewError(nil, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"implementation and descriptor are required", nil, "b51a7c3e-88d4-4f12-9a6b-0c3e5d7f9a10")
	}
	desc := impl.Descriptor()
	id := strings.TrimSpace(desc.ID)
	if id == "" {
		return platformerrors.NewError(nil, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"model id is required", nil, "4e9d2b71-5c38-4a06-bf27-8d1a6c0e3f11")
	}

	if desc.Capabilities.ContentGeneration {
		if _, ok := impl.(ContentCapable); !ok {
			return platformerrors.NewError(nil, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"model "+id+" claims content generation but has no content generator", nil, "9c0f4e82-1a6d-4b39-8e57-3f2b5d8c1a12")
		}
	}
	if desc.Capabilities.DesignGeneration {
		if _, ok := impl.(DesignCapable); !ok {
			return platformerrors.NewError(nil, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"model "+id+" claims design generation but has no design generator", nil, "6d3a8f51-7b2e-4c90-a1d4-5e9c0b7f2a13")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.impls[id]; exists {
		r.log.Warn().Str("model_id", id).Msg("overwriting registered model implementation")
	} else {
		r.order = append(r.order, id)
	}
	r.impls[id] = impl
	return nil
}

// Get returns the implementation registered under id, or nil. It never
// returns an error; absence is a normal answer.
func (r *Registry) Get(id string) Implementation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.impls[id]
}

// List returns every registered implementation in registration order.
func (r *Registry) List() []Implementation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Implementation, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.impls[id])
	}
	return out
}

// ListAvailable probes every registered implementation concurrently and
// returns the ones whose probe succeeded, in registration order. A probe
// that fails or errors excludes only that model; it never fails the call.
func (r *Registry) ListAvailable(ctx context.Context) []Implementation {
	all := r.List()
	if len(all) == 0 {
		return nil
	}

	slots := make([]Implementation, len(all))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentProbes)

	for i, impl := range all {
		i, impl := i, impl
		eg.Go(func() error {
			probeCtx, cancel := context.WithTimeout(egCtx, availabilityProbeTimeout)
			defer cancel()

			alive, err := impl.IsAvailable(probeCtx)
			if err != nil {
				r.log.Warn().
					Str("model_id", impl.Descriptor().ID).
					Err(err).
					Msg("availability probe failed, excluding model")
				return nil
			}
			if alive {
				slots[i] = impl
			}
			return nil
		})
	}
	// Workers only ever return nil; the group is used for bounded fan-out.
	_ = eg.Wait()

	available := make([]Implementation, 0, len(all))
	for _, impl := range slots {
		if impl != nil {
			available = append(available, impl)
		}
	}
	return available
}

// SelectBest runs the selection algorithm over the currently available
// models. It returns nil when nothing qualifies; callers must treat that as
// a recoverable "no model available" condition.
func (r *Registry) SelectBest(ctx context.Context, criteria SelectionCriteria) Implementation {
	available := r.ListAvailable(ctx)
	if len(available) == 0 {
		return nil
	}

	// Explicit user intent short-circuits scoring, but only when the
	// preferred model independently passes every hard constraint.
	if criteria.UserPreference != "" {
		for _, impl := range available {
			if impl.Descriptor().ID == criteria.UserPreference && criteria.MeetsRequirements(impl.Descriptor()) {
				return impl
			}
		}
	}

	var best Implementation
	bestScore := 0.0
	for _, impl := range available {
		score := criteria.Score(impl.Descriptor())
		if score <= 0 {
			continue
		}
		// Strict comparison keeps the earliest-registered model on ties.
		if score > bestScore {
			best = impl
			bestScore = score
		}
	}
	return best
}

// ByCapability returns every registered model with the given capability flag,
// in registration order. Availability is not consulted.
func (r *Registry) ByCapability(flag CapabilityFlag) []Implementation {
	var out []Implementation
	for _, impl := range r.List() {
		if impl.Descriptor().Capabilities.Has(flag) {
			out = append(out, impl)
		}
	}
	return out
}

// ByStatus returns every registered model with the given status, in
// registration order.
func (r *Registry) ByStatus(status ModelStatus) []Implementation {
	var out []Implementation
	for _, impl := range r.List() {
		if impl.Descriptor().Status == status {
			out = append(out, impl)
		}
	}
	return out
}
