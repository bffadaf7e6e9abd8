package domain

import "fmt"

// StatusEvent drives account status transitions
type StatusEvent string

const (
	EventVerifyEmail StatusEvent = "verify_email"
	EventActivate    StatusEvent = "activate"
	EventDeactivate  StatusEvent = "deactivate"
	EventSuspend     StatusEvent = "suspend"
	EventReinstate   StatusEvent = "reinstate"
)

// statusTransitions lists every legal (state, event) pair. Pairs absent from the
// table are rejected with ErrIllegalTransition.
var statusTransitions = map[AccountStatus]map[StatusEvent]AccountStatus{
	StatusPending: {
		EventVerifyEmail: StatusActive,
		EventActivate:    StatusActive,
		EventDeactivate:  StatusInactive,
		EventSuspend:     StatusSuspended,
	},
	StatusActive: {
		EventVerifyEmail: StatusActive,
		EventDeactivate:  StatusInactive,
		EventSuspend:     StatusSuspended,
	},
	StatusInactive: {
		EventActivate: StatusActive,
		EventSuspend:  StatusSuspended,
	},
	StatusSuspended: {
		EventReinstate: StatusActive,
	},
}

// Transition returns the status reached by applying ev to s.
func (s AccountStatus) Transition(ev StatusEvent) (AccountStatus, error) {
	events, ok := statusTransitions[s]
	if !ok {
		return s, fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, s)
	}
	next, ok := events[ev]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, ev, s)
	}
	return next, nil
}

// ParseStatusEvent validates an event name received from a client.
func ParseStatusEvent(v string) (StatusEvent, error) {
	switch ev := StatusEvent(v); ev {
	case EventVerifyEmail, EventActivate, EventDeactivate, EventSuspend, EventReinstate:
		return ev, nil
	}
	return "", fmt.Errorf("%w: unknown event %q", ErrIllegalTransition, v)
}
