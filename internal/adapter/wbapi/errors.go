package wbapi

import (
	"fmt"
	"net/http"
)

// StatusTimeout is reported in ExternalAPIError.StatusCode when the request
// ran out of time before a response arrived.
const StatusTimeout = http.StatusRequestTimeout

// ExternalAPIError is returned for every failed call to the tariffs API.
type ExternalAPIError struct {
	Message    string
	StatusCode int
	RawBody    string
	Cause      error
}

func (e *ExternalAPIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExternalAPIError) Unwrap() error {
	return e.Cause
}

// IsTimeout reports whether the call failed because the request timed out.
func (e *ExternalAPIError) IsTimeout() bool {
	return e.StatusCode == StatusTimeout && e.Cause != nil
}
