package workflow

import "errors"

// FailureClass buckets every expected workflow failure. Handlers map classes
// to HTTP statuses; anything that is not a *Failure is an infrastructure
// error and surfaces as a generic internal failure.
type FailureClass int

const (
	// FailurePermission: the actor's role set is not eligible for the
	// endpoint family.
	FailurePermission FailureClass = iota + 1
	// FailureAccess: the actor is not a participant of this transaction.
	// Deliberately shaped like not-found so non-participants cannot probe
	// whether a transaction exists.
	FailureAccess
	// FailureInvalid: unknown action type or structurally bad payload.
	FailureInvalid
	// FailureBusinessRule: a validator rejected the action (amount mismatch,
	// unmet approval prerequisite, name mismatch, ...). Expected and
	// user-correctable.
	FailureBusinessRule
	// FailureConflict: duplicate submission or re-approval of an already
	// approved flag.
	FailureConflict
	// FailureNotFound: a referenced sub-resource does not exist.
	FailureNotFound
	// FailureUnauthenticated: credential check failed. Deliberately vague
	// toward the caller about which credential part was wrong.
	FailureUnauthenticated
)

func (c FailureClass) String() string {
	switch c {
	case FailurePermission:
		return "permission"
	case FailureAccess:
		return "access"
	case FailureInvalid:
		return "invalid"
	case FailureBusinessRule:
		return "business_rule"
	case FailureConflict:
		return "conflict"
	case FailureNotFound:
		return "not_found"
	case FailureUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Failure is a recovered, expected failure: a short machine-readable reason
// plus a human message. Never a bare boolean.
type Failure struct {
	Class   FailureClass
	Reason  string
	Message string
}

func (f *Failure) Error() string {
	return f.Reason + ": " + f.Message
}

// AsFailure unwraps err into a *Failure if it is one.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func PermissionDenied(message string) *Failure {
	return &Failure{Class: FailurePermission, Reason: "Insufficient permissions", Message: message}
}

func AccessDenied(message string) *Failure {
	return &Failure{Class: FailureAccess, Reason: "Access denied", Message: message}
}

func InvalidInput(reason, message string) *Failure {
	return &Failure{Class: FailureInvalid, Reason: reason, Message: message}
}

func BusinessRule(reason, message string) *Failure {
	return &Failure{Class: FailureBusinessRule, Reason: reason, Message: message}
}

func Conflict(reason, message string) *Failure {
	return &Failure{Class: FailureConflict, Reason: reason, Message: message}
}

func NotFound(reason, message string) *Failure {
	return &Failure{Class: FailureNotFound, Reason: reason, Message: message}
}

func Unauthenticated(message string) *Failure {
	return &Failure{Class: FailureUnauthenticated, Reason: "Authentication failed", Message: message}
}
