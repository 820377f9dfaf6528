package models

import "errors"

var (
	// ErrNotFound means the subject reference resolved to nothing.
	ErrNotFound = errors.New("subject not found")
	// ErrPermissionDenied means the actor is not authorized for the action.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidAmount means a supplied amount is not strictly positive.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrAlreadyAdjusted means the one-time amount edit was already spent.
	ErrAlreadyAdjusted = errors.New("amount already adjusted")
	// ErrInvalidOrderType means the requested order type is not accepted.
	ErrInvalidOrderType = errors.New("invalid order type")
	// ErrInvalidAction means the action is unknown or illegal for the state.
	ErrInvalidAction = errors.New("invalid action for current state")
	// ErrInvariantViolation aborts a decision transaction entirely; the
	// subject stays pending and an operator must look at it.
	ErrInvariantViolation = errors.New("balance invariant violation")
)
