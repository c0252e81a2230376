package telegram

import "fmt"

// APIError represents a failed Bot API call: either Telegram answered
// ok=false, or the HTTP exchange itself failed with a non-JSON body.
type APIError struct {
	// StatusCode is the HTTP status of the upstream response.
	StatusCode  int    `json:"-"`
	Code        int    `json:"error_code"`
	Description string `json:"description"`
	RetryAfter  int    `json:"retry_after,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("telegram: %d %s (retry after %ds)", e.Code, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("telegram: %d %s", e.Code, e.Description)
}
