package api

import "fmt"

// APIError is an application-level rejection: the request completed but the
// server answered with a non-2xx status. The body's "detail" field, when
// present, is the preferred human-readable message.
//
// Transport failures (the request never completed) are returned as plain
// wrapped errors and are not APIErrors.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}
