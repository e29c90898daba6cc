package customer

import "fmt"

// State represents the lifecycle state of a customer
type State string

const (
	StatePending State = "PENDING"
	StateActive  State = "ACTIVE"
	StateLocked  State = "LOCKED"
	StateClosed  State = "CLOSED"
)

// IsValid returns true for a recognized state
func (s State) IsValid() bool {
	switch s {
	case StatePending, StateActive, StateLocked, StateClosed:
		return true
	default:
		return false
	}
}

// Action represents a state-changing business command
type Action string

const (
	ActionActivate Action = "ACTIVATE"
	ActionLock     Action = "LOCK"
	ActionUnlock   Action = "UNLOCK"
	ActionClose    Action = "CLOSE"
	ActionReopen   Action = "REOPEN"
)

// Actions lists every recognized action
var Actions = []Action{ActionActivate, ActionLock, ActionUnlock, ActionClose, ActionReopen}

// IsValid returns true for a recognized action
func (a Action) IsValid() bool {
	switch a {
	case ActionActivate, ActionLock, ActionUnlock, ActionClose, ActionReopen:
		return true
	default:
		return false
	}
}

// IllegalTransitionError signals that an action is not allowed from the
// customer's current state. It carries both so callers can surface why.
type IllegalTransitionError struct {
	From   State
	Action Action
}

// Error implements the error interface
func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("action %s is not allowed in state %s", e.Action, e.From)
}

// Transition is the legal-transition table as a pure total function.
// It returns the next state for an accepted (state, action) pair and an
// IllegalTransitionError for every rejected pair. It never mutates anything.
func Transition(from State, action Action) (State, error) {
	switch from {
	case StatePending:
		if action == ActionActivate {
			return StateActive, nil
		}
	case StateActive:
		switch action {
		case ActionLock:
			return StateLocked, nil
		case ActionClose:
			return StateClosed, nil
		}
	case StateLocked:
		if action == ActionUnlock {
			return StateActive, nil
		}
	case StateClosed:
		if action == ActionReopen {
			return StateActive, nil
		}
	}
	return from, &IllegalTransitionError{From: from, Action: action}
}
