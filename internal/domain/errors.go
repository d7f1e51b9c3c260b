package domain

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyConsumed    = errors.New("invite already consumed")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrOwnershipViolation = errors.New("ownership violation")
	ErrRoleMismatch       = errors.New("role mismatch")
	ErrConflict           = errors.New("concurrent modification, retry")
	ErrAlreadyLinked      = errors.New("already linked")
	ErrInvalidInput       = errors.New("invalid input")
)

type errorKind struct {
	err    error
	status int
	code   string
}

var kinds = []errorKind{
	{ErrNotFound, http.StatusNotFound, "not_found"},
	{ErrAlreadyConsumed, http.StatusConflict, "already_consumed"},
	{ErrInvalidTransition, http.StatusUnprocessableEntity, "invalid_transition"},
	{ErrOwnershipViolation, http.StatusForbidden, "ownership_violation"},
	{ErrRoleMismatch, http.StatusForbidden, "role_mismatch"},
	{ErrConflict, http.StatusConflict, "conflict"},
	{ErrAlreadyLinked, http.StatusConflict, "already_linked"},
	{ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
}

// StatusCode maps an error to the HTTP status a handler should answer with.
// Errors outside the taxonomy map to 500.
func StatusCode(err error) int {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// Code returns the stable machine code of err, or "internal".
func Code(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return "internal"
}

// IsClientError reports whether err belongs to the taxonomy.
func IsClientError(err error) bool {
	return StatusCode(err) != http.StatusInternalServerError
}
