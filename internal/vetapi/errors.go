package vetapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// genericErrorMessage is the last-resort user-facing text.
const genericErrorMessage = "An error occurred"

// networkErrorMessage is shown when no response was received at all.
const networkErrorMessage = "Network error: could not connect to the server. Please check your connection."

// FieldError is one entry of a structured validation failure returned by the
// backend: a field location path plus a message.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type,omitempty"`
}

// Field renders the location with the leading body/query segment stripped.
func (f FieldError) Field() string {
	loc := f.Loc
	if len(loc) > 0 && (loc[0] == "body" || loc[0] == "query") {
		loc = loc[1:]
	}
	return strings.Join(loc, ".")
}

// APIError is a non-2xx response from the clinic backend.
type APIError struct {
	StatusCode int
	Detail     string
	Fields     []FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("vetapi: status %d: %d validation errors", e.StatusCode, len(e.Fields))
	}
	if e.Detail != "" {
		return fmt.Sprintf("vetapi: status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("vetapi: status %d", e.StatusCode)
}

// decodeAPIError turns a non-2xx response body into an *APIError. The backend
// sends either {"detail": "..."}, {"detail": [{loc,msg,type}, ...]} or
// {"message": "..."}; unparseable bodies yield a bare status error.
func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apiErr
	}

	if len(envelope.Detail) > 0 {
		var fields []FieldError
		if err := json.Unmarshal(envelope.Detail, &fields); err == nil {
			apiErr.Fields = fields
			return apiErr
		}
		var detail string
		if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
			apiErr.Detail = detail
			return apiErr
		}
	}
	apiErr.Detail = envelope.Message
	return apiErr
}

// friendlyRewrites replaces known terse backend messages about date ranges
// with text a client can act on.
var friendlyRewrites = map[string]string{
	"end_date must be after start_date":             "The end of the date range must be after its start.",
	"start_date and end_date must be used together": "Please provide both the start and the end of the date range.",
}

func rewrite(msg string) string {
	if friendly, ok := friendlyRewrites[strings.TrimSpace(msg)]; ok {
		return friendly
	}
	return msg
}

// Message normalizes any error from this package into one human-readable
// string. Every surface in the portal reports backend failures through this
// routine, so all error shapes collapse to the same vocabulary.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if len(apiErr.Fields) > 0 {
			lines := make([]string, 0, len(apiErr.Fields))
			for _, f := range apiErr.Fields {
				if f.Msg == "" {
					continue
				}
				msg := rewrite(f.Msg)
				if field := f.Field(); field != "" {
					lines = append(lines, field+": "+msg)
				} else {
					lines = append(lines, msg)
				}
			}
			if len(lines) > 0 {
				return strings.Join(lines, "\n")
			}
			return "Validation error occurred"
		}
		if apiErr.Detail != "" {
			return rewrite(apiErr.Detail)
		}
		return genericErrorMessage
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return networkErrorMessage
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return genericErrorMessage
}
