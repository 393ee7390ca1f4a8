package seed

import "errors"

var (
	ErrMissingURL         = errors.New("base url is required")
	ErrNothingToSeed      = errors.New("players and scores must be positive")
	ErrInvalidWorkers     = errors.New("workers must be positive")
	ErrUnhealthy          = errors.New("service is not healthy")
	ErrUnexpectedStatus   = errors.New("unexpected status")
	ErrHistoryMismatch    = errors.New("history does not match registered scores")
	ErrVerificationFailed = errors.New("seeding finished with failures")
)
