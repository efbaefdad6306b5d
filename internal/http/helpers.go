package http

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/database/integrity"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error kind
	Details any    `json:"details,omitempty"` // per-field validation messages
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// statusForKind maps a data layer error kind to an HTTP status.
func statusForKind(kind integrity.Kind) int {
	switch kind {
	case integrity.KindNotFound:
		return http.StatusNotFound
	case integrity.KindDuplicateKey,
		integrity.KindReferentialConstraint,
		integrity.KindBookUnavailable,
		integrity.KindAlreadyReturned:
		return http.StatusConflict
	case integrity.KindValidation:
		return http.StatusBadRequest
	case integrity.KindTransientIO:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondStoreError renders a typed data layer error. Unknown failures are
// logged and their details hidden from the client.
func respondStoreError(c *gin.Context, err error, context string) {
	kind := integrity.KindOf(err)
	status := statusForKind(kind)

	resp := ErrorResponse{Error: err.Error(), Code: string(kind)}
	if typed, ok := integrity.As(err); ok {
		resp.Error = typed.Message
		if len(typed.Fields) > 0 {
			resp.Details = typed.Fields
		}
	}

	switch status {
	case http.StatusInternalServerError:
		log.Printf("Internal error (%s): %v", context, err)
		resp.Error = "internal server error"
	case http.StatusServiceUnavailable:
		log.Printf("Store unavailable (%s): %v", context, err)
	}

	c.JSON(status, resp)
}

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: string(integrity.KindValidation)})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIDParam extracts a non-empty entity ID from URL parameters.
// Returns the trimmed ID or responds with a 400 error and returns "", false.
func parseIDParam(c *gin.Context, paramName string) (string, bool) {
	id := strings.TrimSpace(c.Param(paramName))
	if id == "" {
		respondBadRequest(c, paramName+" is required")
		return "", false
	}
	return id, true
}

// bindJSON decodes the request body or responds with a 400 error.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
