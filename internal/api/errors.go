package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/minhvu-dev/lawchat/internal/domain"
)

// StatusError is a non-2xx API reply: the HTTP status plus the
// machine-readable detail string the server includes, if any.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Detail)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// Is classifies the status into the domain error taxonomy so callers
// can use errors.Is without looking at raw status codes.
func (e *StatusError) Is(target error) bool {
	switch target {
	case domain.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case domain.ErrSessionNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

func statusError(status int, body []byte) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	// Detail is best effort; some replies carry a non-JSON body.
	_ = json.Unmarshal(body, &payload)
	return &StatusError{Status: status, Detail: payload.Detail}
}
