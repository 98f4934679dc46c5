package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrAgentNotFound    = errors.New("agent not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrPlanNotFound     = errors.New("subscription plan not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrAdminNotFound    = errors.New("admin user not found")
	ErrIdentityNotFound = errors.New("identity not found")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrAccessDenied       = errors.New("access denied: admin privileges required")
	ErrAgentInactive      = errors.New("agent account is not active")
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned when input is malformed. It lists every
// violated field, not just the first.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field is among the rejected fields.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// ConflictError is returned when the store rejects a write because of a
// uniqueness constraint or because the record changed underneath the caller.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s conflict", e.Field)
	}
	return fmt.Sprintf("%s %q is already in use", e.Field, e.Value)
}

// StaleStatusError is returned when a conditional status update finds the
// agent in a different state than the caller last observed.
type StaleStatusError struct {
	AgentID  string
	Expected Status
}

func (e *StaleStatusError) Error() string {
	return fmt.Sprintf("agent %s is no longer %q", e.AgentID, e.Expected)
}

// As lets errors.As match a StaleStatusError as a ConflictError on the
// status field.
func (e *StaleStatusError) As(target any) bool {
	c, ok := target.(**ConflictError)
	if !ok {
		return false
	}
	*c = &ConflictError{Field: "status", Value: string(e.Expected)}
	return true
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Event   Event
	Target  Status
	Current Status
}

func (e *TransitionError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("cannot move agent from %q to %q", e.Current, e.Target)
	}
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// GatewayError wraps a store or identity failure whose cause is opaque to
// the domain. The message of the underlying error is surfaced verbatim.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *GatewayError) Unwrap() error { return e.Err }
