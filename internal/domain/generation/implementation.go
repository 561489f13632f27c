package generation

import "context"

// Implementation binds a descriptor to a live, probe-able model. Generator
// capabilities are expressed as the ContentCapable and DesignCapable
// interfaces; the registry verifies at registration time that an
// implementation satisfies the interfaces its descriptor claims, so a missing
// generator can never surface as a call-time failure.
type Implementation interface {
	// Descriptor returns the static metadata of this model. The returned
	// value must be treated as immutable.
	Descriptor() *Descriptor

	// IsAvailable probes the upstream provider. A false return or an error
	// both mean "do not route traffic here right now"; the error carries
	// the reason for logs only and is never surfaced to callers.
	IsAvailable(ctx context.Context) (bool, error)

	// WithConfig returns a new implementation bound to the same upstream
	// but running with the given config. The receiver is unchanged.
	WithConfig(cfg ModelConfig) Implementation
}

// ContentCapable is satisfied by implementations that can produce posts.
type ContentCapable interface {
	Implementation

	// ValidateContent performs model-specific semantic validation, e.g.
	// artifact support. A returned error rejects the request before any
	// provider call is made.
	ValidateContent(req *ContentRequest) error

	GenerateContent(ctx context.Context, req *ContentRequest) (*Response[*Post], error)
}

// DesignCapable is satisfied by implementations that can produce designs.
type DesignCapable interface {
	Implementation

	ValidateDesign(req *DesignRequest) error

	GenerateDesign(ctx context.Context, req *DesignRequest) (*Response[*DesignVariant], error)
}
