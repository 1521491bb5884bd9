package model

import (
	"fmt"
	"strings"
)

// Status is a contract lifecycle state
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusSigned    Status = "SIGNED"
	StatusActive    Status = "ACTIVE"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// statusOrder is the canonical listing order
var statusOrder = []Status{
	StatusDraft, StatusSent, StatusSigned, StatusActive, StatusExpired, StatusCancelled,
}

// transitions lists every legal edge. DRAFT cannot reach SIGNED without SENT.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSent, StatusCancelled},
	StatusSent:      {StatusSigned, StatusDraft, StatusCancelled},
	StatusSigned:    {StatusActive, StatusCancelled},
	StatusActive:    {StatusExpired, StatusCancelled},
	StatusExpired:   {StatusActive},
	StatusCancelled: {},
}

// initialStatuses are the states a contract may be created in
var initialStatuses = map[Status]bool{
	StatusDraft:  true,
	StatusSent:   true,
	StatusSigned: true,
	StatusActive: true,
}

// AllStatuses returns every status in lifecycle order
func AllStatuses() []Status {
	return append([]Status(nil), statusOrder...)
}

// ParseStatus accepts any casing of a known status
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s
func (s Status) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// IsInitial reports whether a contract may be created in s
func (s Status) IsInitial() bool {
	return initialStatuses[s]
}

// CanTransition reports whether from -> to is an edge of the lifecycle
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s in one step
func AllowedTransitions(s Status) []Status {
	return append([]Status{}, transitions[s]...)
}

// IsReactivation reports whether from -> to brings an expired contract back
func IsReactivation(from, to Status) bool {
	return from == StatusExpired && to == StatusActive
}
