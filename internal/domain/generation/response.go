package generation

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoSuitableModelID is the sentinel model id used on failure envelopes when
// auto selection could not find any model for the request.
const NoSuitableModelID = "none"

// FailureCode is the machine-readable failure taxonomy surfaced to callers.
type FailureCode string

const (
	CodeInvalidRequest      FailureCode = "invalid-request"
	CodeModelNotFound       FailureCode = "model-not-found"
	CodeModelUnavailable    FailureCode = "model-unavailable"
	CodeRequestRejected     FailureCode = "request-rejected-by-model"
	CodeGenerationError     FailureCode = "generation-error"
	CodeNoSuitableModel     FailureCode = "no-suitable-model"
	CodeInsufficientCredits FailureCode = "insufficient-credits"
	CodeQuotaExceeded       FailureCode = "quota-exceeded"
	CodeBatchHalted         FailureCode = "batch-halted"
)

// Metadata is attached to every response, success or failure, so callers can
// render one shape. CreditsUsed is always zero on failure.
type Metadata struct {
	ModelID             string          `json:"model_id"`
	ProcessingTime      time.Duration   `json:"processing_time_ms"`
	QualityScore        float64         `json:"quality_score"`
	CreditsUsed         decimal.Decimal `json:"credits_used"`
	EnhancementsApplied []string        `json:"enhancements_applied"`
}

// CreditInfo annotates a response that went through the credit-aware layer.
type CreditInfo struct {
	CreditsDeducted  decimal.Decimal `json:"credits_deducted"`
	RemainingCredits decimal.Decimal `json:"remaining_credits"`
	ModelVersion     string          `json:"model_version,omitempty"`
}

// Post is the content generation payload.
type Post struct {
	Headline     string   `json:"headline,omitempty"`
	Caption      string   `json:"caption"`
	Hashtags     []string `json:"hashtags,omitempty"`
	CallToAction string   `json:"call_to_action,omitempty"`
}

// DesignVariant is the design generation payload.
type DesignVariant struct {
	ImageRef    string `json:"image_ref"`
	AspectRatio string `json:"aspect_ratio"`
	Style       string `json:"style,omitempty"`
	AltText     string `json:"alt_text,omitempty"`
}

// Response is the uniform envelope every generation call returns. Callers
// never see an error value from the service layer; failures arrive as
// Success=false with the code and a human-readable message filled in.
type Response[T any] struct {
	Success    bool        `json:"success"`
	Data       T           `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Code       FailureCode `json:"code,omitempty"`
	Version    string      `json:"version,omitempty"`
	Metadata   Metadata    `json:"metadata"`
	CreditInfo *CreditInfo `json:"credit_info,omitempty"`
}

// Succeed builds a success envelope.
func Succeed[T any](modelID string, data T, elapsed time.Duration, quality float64, enhancements []string) *Response[T] {
	if enhancements == nil {
		enhancements = []string{}
	}
	return &Response[T]{
		Success: true,
		Data:    data,
		Metadata: Metadata{
			ModelID:             modelID,
			ProcessingTime:      elapsed,
			QualityScore:        quality,
			CreditsUsed:         decimal.Zero,
			EnhancementsApplied: enhancements,
		},
	}
}

// Fail builds a failure envelope with the same metadata shape as a success,
// zero-valued where inapplicable.
func Fail[T any](modelID string, code FailureCode, message string, elapsed time.Duration) *Response[T] {
	return &Response[T]{
		Success: false,
		Error:   message,
		Code:    code,
		Metadata: Metadata{
			ModelID:             modelID,
			ProcessingTime:      elapsed,
			CreditsUsed:         decimal.Zero,
			EnhancementsApplied: []string{},
		},
	}
}
