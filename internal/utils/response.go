package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the uniform JSON envelope for responses that carry no
// endpoint-specific fields.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func SendSuccess(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// SendSuccessFields writes a success response with endpoint-specific fields
// (post_id, review_id, needs_moderation) at the top level of the envelope.
func SendSuccessFields(c *gin.Context, message string, fields gin.H) {
	payload := gin.H{"success": true}
	if message != "" {
		payload["message"] = message
	}
	for key, value := range fields {
		payload[key] = value
	}
	c.JSON(http.StatusOK, payload)
}

func SendError(c *gin.Context, statusCode int, err error) {
	response := APIResponse{Success: false}
	if err != nil {
		response.Error = err.Error()
	}
	c.JSON(statusCode, response)
}

func SendValidationError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, err)
}

func SendForbidden(c *gin.Context, err error) {
	SendError(c, http.StatusForbidden, err)
}

func SendNotFound(c *gin.Context, err error) {
	SendError(c, http.StatusNotFound, err)
}

func SendConflict(c *gin.Context, err error) {
	SendError(c, http.StatusConflict, err)
}

func SendInternalError(c *gin.Context, err error) {
	SendError(c, http.StatusInternalServerError, err)
}
