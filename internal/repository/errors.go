package repository

import "errors"

// Sentinel errors surfaced to the service layer for conditions it turns
// into conflict responses.
var (
	ErrDuplicateParticipant = errors.New("participant already exists")
	ErrDuplicateBanking     = errors.New("banking information already exists")
	ErrAlreadyApproved      = errors.New("already approved")
)
