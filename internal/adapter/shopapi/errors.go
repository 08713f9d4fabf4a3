package shopapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

// StatusError is a service-rejected request (non-2xx with a response).
// Transport failures never produce a StatusError; they surface as
// wrapped errors from the HTTP client, so callers can tell the two
// apart with errors.As.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: shop service returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

// isDecodeError reports whether err came from unmarshalling a 2xx body.
func isDecodeError(err error) bool {
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	return errors.As(err, &syn) || errors.As(err, &typ)
}
