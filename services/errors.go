package services

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrAlreadyReferred     = errors.New("this email has already been referred")
	ErrEmailTaken          = errors.New("email already registered")
	ErrMissingField        = errors.New("required field missing")
	ErrUnknownPeriod       = errors.New("unknown period type")

	// errPeriodClaimed signals that another run inserted the winner for this
	// window first; it rolls the transaction back and maps to already-processed.
	errPeriodClaimed = errors.New("period already claimed")
)
