package agents

import (
	"errors"
	"net/http"

	"github.com/agentdeck/agentdeck/internal/frameworks"
)

// Domain errors for agent operations.
var (
	ErrNotFound        = errors.New("agent not found")
	ErrVersionNotFound = errors.New("agent version not found")
	ErrDuplicate       = errors.New("agent name already exists")
	ErrInvalidState    = errors.New("invalid agent state")
	ErrInvalidInput    = errors.New("invalid query input")
	ErrQueryTimeout    = errors.New("agent query timed out")
	ErrStartFailed     = errors.New("agent start failed")
	ErrStopFailed      = errors.New("agent stop failed")
	ErrQueryFailed     = errors.New("agent query failed")
)

// MapHTTPStatus maps domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrVersionNotFound),
		errors.Is(err, frameworks.ErrUnsupported):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, frameworks.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, ErrQueryTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrStartFailed),
		errors.Is(err, ErrStopFailed),
		errors.Is(err, ErrQueryFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
