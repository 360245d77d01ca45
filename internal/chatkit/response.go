package chatkit

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jsamuelsen/go-chatkit/internal/domain"
	"github.com/jsamuelsen/go-chatkit/internal/ports"
)

// ErrNoResponse is returned when a nil response is classified, e.g. from a
// transport that returned neither a response nor an error.
var ErrNoResponse = errors.New("no response")

// Kind is the classification of a response status.
type Kind int

const (
	// KindSuccess covers 200-299.
	KindSuccess Kind = iota
	KindBadRequest
	KindBadAuth
	KindForbidden
	KindNotFound
	// KindBadStatus covers every other status, including 1xx and 3xx.
	KindBadStatus
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindBadRequest:
		return "bad_request"
	case KindBadAuth:
		return "bad_auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindBadStatus:
		return "bad_status"
	default:
		return "unknown"
	}
}

// KindOf classifies a status code.
func KindOf(status int) Kind {
	switch {
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		return KindSuccess
	case status == http.StatusBadRequest:
		return KindBadRequest
	case status == http.StatusUnauthorized:
		return KindBadAuth
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	default:
		return KindBadStatus
	}
}

// Classify maps a status and body to a decoded payload or a typed error.
//
// On success a non-empty body is decoded as JSON into an any (objects become
// map[string]any); an empty body yields (nil, nil). Invalid JSON yields a
// *domain.ParseError. Failure statuses yield *domain.BadRequestError,
// *domain.BadAuthError, *domain.ForbiddenError, *domain.NotFoundError or
// *domain.BadStatusError; detail is only used by the latter.
func Classify(status int, body []byte, detail string) (any, error) {
	if err := statusError(status, body, detail); err != nil {
		return nil, err
	}

	if len(body) == 0 {
		return nil, nil
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.NewParseError(string(body), err)
	}

	return payload, nil
}

// ClassifyResponse classifies a transport response, using its reason phrase
// as the diagnostic detail.
func ClassifyResponse(resp *ports.Response) (any, error) {
	if resp == nil {
		return nil, ErrNoResponse
	}

	return Classify(resp.StatusCode, resp.Body, resp.Status)
}

// Decode classifies resp and decodes a success body into T. An empty success
// body yields T's zero value.
func Decode[T any](resp *ports.Response) (T, error) {
	var out T

	if resp == nil {
		return out, ErrNoResponse
	}

	if err := statusError(resp.StatusCode, resp.Body, resp.Status); err != nil {
		return out, err
	}

	if len(resp.Body) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, domain.NewParseError(string(resp.Body), err)
	}

	return out, nil
}

// statusError returns the typed failure for a non-success status, or nil.
func statusError(status int, body []byte, detail string) error {
	switch KindOf(status) {
	case KindSuccess:
		return nil
	case KindBadRequest:
		return &domain.BadRequestError{Body: string(body)}
	case KindBadAuth:
		return &domain.BadAuthError{Body: string(body)}
	case KindForbidden:
		return &domain.ForbiddenError{Body: string(body)}
	case KindNotFound:
		return &domain.NotFoundError{}
	default:
		return &domain.BadStatusError{Status: status, Body: string(body), Detail: detail}
	}
}
