package domain

import (
	"context"
	"time"
)

// Status represents the lifecycle state of an agent.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Valid reports whether s is one of the known agent states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended:
		return true
	}
	return false
}

// Event represents an action that triggers a state transition.
type Event string

const (
	EventRegister Event = "register"
	EventApprove  Event = "approve"
	EventSuspend  Event = "suspend"
	EventRevert   Event = "revert"
)

// Transition defines a valid state change: an event moves an agent from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes in the agent lifecycle.
// Approval of a pending agent and suspension of an active one are the paths
// driven by the admin dashboard; the remaining edges are permitted so that an
// admin can correct a mistaken decision.
var Transitions = []Transition{
	{Event: EventApprove, Src: StatusPending, Dst: StatusActive},
	{Event: EventApprove, Src: StatusSuspended, Dst: StatusActive},
	{Event: EventSuspend, Src: StatusActive, Dst: StatusSuspended},
	{Event: EventSuspend, Src: StatusPending, Dst: StatusSuspended},
	{Event: EventRevert, Src: StatusActive, Dst: StatusPending},
	{Event: EventRevert, Src: StatusSuspended, Dst: StatusPending},
}

// EventFor returns the event that moves an agent into target.
func EventFor(target Status) (Event, bool) {
	switch target {
	case StatusActive:
		return EventApprove, true
	case StatusSuspended:
		return EventSuspend, true
	case StatusPending:
		return EventRevert, true
	}
	return "", false
}

// Agent is a registered reseller. Status and the subscription window are the
// only fields that change after registration.
type Agent struct {
	ID                string
	IdentityRef       string
	AgentCode         string
	FullName          string
	Email             string
	Phone             string
	Status            Status
	PlanID            string
	SubscriptionStart *time.Time
	SubscriptionEnd   *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CanPurchase reports whether the agent may buy bundles.
func (a Agent) CanPurchase() bool {
	return a.Status == StatusActive
}

// RegisterAgent validates the registrant's details and builds a new agent in
// the pending state with no subscription window.
func RegisterAgent(id, identityRef, code string, details AgentDetails, now time.Time) (Agent, error) {
	if errs := details.Validate(); len(errs) > 0 {
		return Agent{}, &ValidationError{Fields: errs}
	}

	now = now.UTC()
	return Agent{
		ID:          id,
		IdentityRef: identityRef,
		AgentCode:   code,
		FullName:    details.normalizedName(),
		Email:       details.normalizedEmail(),
		Phone:       details.normalizedPhone(),
		Status:      StatusPending,
		PlanID:      details.PlanID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// TransitionStatus computes the agent that results from moving a into target
// at now. It performs no I/O; the caller persists the result.
//
// Requesting the current status returns a unchanged. Activation opens a new
// subscription window whose end is chosen by policy; suspension keeps the
// window; reverting to pending clears it.
func TransitionStatus(ctx context.Context, v TransitionValidator, a Agent, target Status, now time.Time, policy SubscriptionPolicy, plan SubscriptionPlan) (Agent, error) {
	if target == a.Status {
		return a, nil
	}

	event, ok := EventFor(target)
	if !ok {
		return Agent{}, &TransitionError{Target: target, Current: a.Status}
	}

	dst, err := v.Apply(ctx, a.Status, event)
	if err != nil {
		return Agent{}, err
	}

	next := a
	next.Status = dst
	now = now.UTC()
	next.UpdatedAt = now

	switch dst {
	case StatusActive:
		start := now
		end := policy.End(start, plan)
		next.SubscriptionStart = &start
		next.SubscriptionEnd = &end
	case StatusPending:
		next.SubscriptionStart = nil
		next.SubscriptionEnd = nil
	}

	return next, nil
}
