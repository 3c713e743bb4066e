package respond

import (
	"github.com/gin-gonic/gin"

	"resume-studio/internal/shared/telemetry"
)

// ErrorBody is the payload of every non-2xx JSON response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the envelope {"error": {...}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error aborts the request with status and the standard error envelope.
// Server faults are logged at error level, client faults at warn.
func Error(c *gin.Context, status int, code, message string, details any) {
	logf := telemetry.Warn
	if status >= 500 {
		logf = telemetry.Error
	}
	logf("http.error", errorFields(c, status, code, message))

	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}})
}

// errorFields reads the identity keys the middleware stores on the context.
func errorFields(c *gin.Context, status int, code, message string) map[string]any {
	fields := map[string]any{
		"status":  status,
		"code":    code,
		"message": message,
		"route":   c.FullPath(),
	}
	if c.Request != nil {
		fields["method"] = c.Request.Method
		fields["path"] = c.Request.URL.Path
	}
	for key, field := range map[string]string{"requestId": "request_id", "userId": "user_id"} {
		if v := c.GetString(key); v != "" {
			fields[field] = v
		}
	}
	if id := c.Param("resumeId"); id != "" {
		fields["resume_id"] = id
	}
	if guest, ok := c.Get("isGuest"); ok {
		fields["is_guest"] = guest
	}
	return fields
}
