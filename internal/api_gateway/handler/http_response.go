package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/starkbank-ledger/internal/api_gateway/middleware"
)

// retryAfterSeconds is advertised on 503 responses; storage and lock waits are short-lived
const retryAfterSeconds = "5"

// Envelope wraps every JSON body the API returns. Exactly one of Data and Error is set.
type Envelope struct {
	Data          any       `json:"data,omitempty"`
	Error         *APIError `json:"error,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Meta          *PageMeta `json:"meta,omitempty"`
}

// APIError carries a stable machine-readable code next to a human-readable message
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PageMeta describes one page of a transaction history
type PageMeta struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
}

func newPageMeta(page, perPage, totalItems int) *PageMeta {
	return &PageMeta{
		Page:       page,
		PerPage:    perPage,
		TotalPages: (totalItems + perPage - 1) / perPage,
		TotalItems: totalItems,
	}
}

// write stamps the envelope with the request's correlation ID and sends it
func write(c *gin.Context, status int, body Envelope) {
	body.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(status, body)
}

func RespondWithData(c *gin.Context, status int, data any) {
	write(c, status, Envelope{Data: data})
}

func RespondWithError(c *gin.Context, status int, code, message string) {
	write(c, status, Envelope{Error: &APIError{Code: code, Message: message}})
}

// RespondWithPaginatedData sends one page of items plus the paging totals
func RespondWithPaginatedData(c *gin.Context, status int, data any, page, perPage, totalItems int) {
	write(c, status, Envelope{Data: data, Meta: newPageMeta(page, perPage, totalItems)})
}

func RespondOK(c *gin.Context, data any)       { RespondWithData(c, http.StatusOK, data) }
func RespondCreated(c *gin.Context, data any)  { RespondWithData(c, http.StatusCreated, data) }
func RespondAccepted(c *gin.Context, data any) { RespondWithData(c, http.StatusAccepted, data) }

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func RespondUnauthorized(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func RespondNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "NOT_FOUND", message)
}

// RespondConflict reports a request that is well-formed but clashes with ledger state,
// such as insufficient funds or a taken username
func RespondConflict(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusConflict, code, message)
}

// RespondBadGateway reports an operation a backend left half-applied
func RespondBadGateway(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusBadGateway, code, message)
}

func RespondServiceUnavailable(c *gin.Context, message string) {
	c.Header("Retry-After", retryAfterSeconds)
	RespondWithError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", message)
}

func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}
