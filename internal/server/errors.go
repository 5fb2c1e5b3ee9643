package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spediralabs/spedira/internal/governance"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
	ratedomain "github.com/spediralabs/spedira/internal/rate/domain"
)

type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *apiError) Error() string { return e.Message }

var (
	ErrUnauthorized   = &apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "unauthorized"}
	ErrForbidden      = &apiError{Status: http.StatusForbidden, Code: "forbidden", Message: "forbidden"}
	ErrInvalidRequest = &apiError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "invalid request"}
	ErrNotFound       = &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}

	// ErrNoApplicablePriceList is the typed 404 for an empty resolution:
	// no list qualifies and no master fallback exists.
	ErrNoApplicablePriceList = &apiError{Status: http.StatusNotFound, Code: "no_applicable_price_list", Message: "no applicable price list"}
)

func invalidRequestError() *apiError { return ErrInvalidRequest }

func newValidationError(field, code, message string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: code, Message: message, Field: field}
}

// AbortWithError translates domain errors into stable HTTP codes. Unknown
// errors become an opaque 500; their detail stays in the server log.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		abort(c, apiErr)
		return
	}

	var violation *governance.Violation
	if errors.As(err, &violation) {
		abort(c, &apiError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "pricing_policy_violation",
			Message: violation.Message,
		})
		return
	}

	switch {
	case errors.Is(err, pricelistdomain.ErrPriceListNotFound),
		errors.Is(err, pricelistdomain.ErrEntryNotFound):
		abort(c, &apiError{Status: http.StatusNotFound, Code: "not_found", Message: err.Error()})

	case errors.Is(err, pricelistdomain.ErrNameConflict):
		abort(c, &apiError{Status: http.StatusConflict, Code: "name_conflict", Message: err.Error()})

	case errors.Is(err, pricelistdomain.ErrPermissionDenied),
		errors.Is(err, ratedomain.ErrNotReseller):
		abort(c, &apiError{Status: http.StatusForbidden, Code: "forbidden", Message: err.Error()})

	case errors.Is(err, pricelistdomain.ErrInvalidWorkspace),
		errors.Is(err, pricelistdomain.ErrInvalidAccount),
		errors.Is(err, pricelistdomain.ErrInvalidName),
		errors.Is(err, pricelistdomain.ErrInvalidWeightBand),
		errors.Is(err, pricelistdomain.ErrInvalidBasePrice),
		errors.Is(err, pricelistdomain.ErrInvalidServiceType),
		errors.Is(err, pricelistdomain.ErrOverlappingBands),
		errors.Is(err, pricelistdomain.ErrArchivedPriceList),
		errors.Is(err, ratedomain.ErrInvalidWeight):
		abort(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_request", Message: err.Error()})

	case errors.Is(err, ratedomain.ErrUnavailable):
		abort(c, &apiError{Status: http.StatusServiceUnavailable, Code: "price_unavailable", Message: err.Error()})

	default:
		_ = c.Error(err)
		abort(c, &apiError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal error"})
	}
}

func abort(c *gin.Context, e *apiError) {
	c.AbortWithStatusJSON(e.Status, gin.H{"error": e})
}
