package responses

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nevis-server/internal/domain/generation"
	"nevis-server/internal/utils/platformerrors"
)

// FailureStatus maps a generation failure code to its HTTP status. Successes
// always go out as 200; the envelope keeps its own success flag either way.
func FailureStatus(code generation.FailureCode) int {
	switch code {
	case generation.CodeInvalidRequest:
		return http.StatusBadRequest
	case generation.CodeModelNotFound, generation.CodeNoSuitableModel:
		return http.StatusNotFound
	case generation.CodeModelUnavailable:
		return http.StatusServiceUnavailable
	case generation.CodeRequestRejected:
		return http.StatusUnprocessableEntity
	case generation.CodeGenerationError:
		return http.StatusBadGateway
	case generation.CodeInsufficientCredits, generation.CodeBatchHalted:
		return http.StatusPaymentRequired
	case generation.CodeQuotaExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteEnvelope renders a generation envelope with the status derived from
// its outcome.
func WriteEnvelope[T any](reqCtx *gin.Context, resp *generation.Response[T]) {
	if resp == nil {
		HandleNewError(reqCtx, platformerrors.ErrorTypeInternal, "empty generation response", "5b1a9f4c-7d2e-4c61-9a38-0e6f2d8b4a17")
		return
	}
	if resp.Success {
		reqCtx.JSON(http.StatusOK, resp)
		return
	}
	reqCtx.JSON(FailureStatus(resp.Code), resp)
}

// WriteBatch renders a batch of envelopes as a single 200 response; per-slot
// outcomes carry their own success flags and failure codes.
func WriteBatch[T any](reqCtx *gin.Context, resps []*generation.Response[T]) {
	reqCtx.JSON(http.StatusOK, gin.H{"results": resps, "count": len(resps)})
}
