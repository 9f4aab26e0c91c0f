package middleware

import (
	"errors"
	"net/http"

	"github.com/Madhu097/realestate-fraud-detection/pkg/common"
	"github.com/Madhu097/realestate-fraud-detection/pkg/validation"
	"github.com/gin-gonic/gin"
)

// ValidateJSON binds the JSON request body to req and validates it
func ValidateJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return err
	}
	return validation.ValidateStruct(req)
}

// RespondWithValidationError sends a standardized validation error response
func RespondWithValidationError(c *gin.Context, err error) {
	var valErr *validation.ValidationError
	if errors.As(err, &valErr) {
		common.ValidationErrorResponse(c, valErr.Errors)
		return
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		common.ErrorResponse(c, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	common.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
}

// ValidateAndBind validates and binds request to the provided struct.
// Returns false after sending the error response when validation fails.
func ValidateAndBind(c *gin.Context, req interface{}) bool {
	if err := ValidateJSON(c, req); err != nil {
		RespondWithValidationError(c, err)
		return false
	}
	return true
}

// ValidateJSONContentType rejects bodies that are not application/json
func ValidateJSONContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength != 0 && c.ContentType() != gin.MIMEJSON {
			common.ErrorResponse(c, http.StatusUnsupportedMediaType, "content type must be application/json")
			c.Abort()
			return
		}
		c.Next()
	}
}

// MaxBodySize limits the request body size
func MaxBodySize(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}
		c.Next()
	}
}
