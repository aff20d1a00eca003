package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/osa030/musicbox/internal/domain/catalog"
)

// CodeNoRows is returned when a single-object request matched no row.
const CodeNoRows = "PGRST116"

// APIError represents an error response from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether the error means the requested row or object
// does not exist.
func (e *APIError) IsNotFound() bool {
	return e.Code == CodeNoRows || e.Status == http.StatusNotFound
}

// errorBody is the union of the REST, storage and auth error payloads.
type errorBody struct {
	Code             flexString `json:"code"`
	Message          string     `json:"message"`
	Details          string     `json:"details"`
	Hint             string     `json:"hint"`
	ErrorCode        string     `json:"error_code"`
	Error            string     `json:"error"`
	ErrorDescription string     `json:"error_description"`
	Msg              string     `json:"msg"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if s, err := strconv.Unquote(string(b)); err == nil {
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	*f = flexString(b)
	return nil
}

// decodeError builds an error from a non-2xx response. Not-found errors are
// marked with catalog.ErrNotFound.
func decodeError(status int, body []byte) error {
	apiErr := &APIError{Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Code = firstNonEmpty(eb.ErrorCode, string(eb.Code), eb.Error)
		apiErr.Message = firstNonEmpty(eb.Message, eb.ErrorDescription, eb.Msg)
		apiErr.Details = eb.Details
		apiErr.Hint = eb.Hint
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
		if len(body) > 0 && len(body) < 512 {
			apiErr.Message = string(body)
		}
	}

	if apiErr.IsNotFound() {
		return errors.Mark(apiErr, catalog.ErrNotFound)
	}
	return apiErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
