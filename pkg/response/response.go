package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the wire envelope every HTTP endpoint returns.
// Status is either "ok" or "error".
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OK sends a successful response.
func OK(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{
		Status:  "ok",
		Message: message,
	})
}

// Error sends an error response with the given HTTP status code.
func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Status:  "error",
		Message: message,
	})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
