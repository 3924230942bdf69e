package common

import "fmt"

var (
	ErrPageNotFoundError    = fmt.Errorf("page not found")
	ErrBuildAlreadyStarted  = fmt.Errorf("build process has already started")
	ErrNoSectionsFoundError = fmt.Errorf("no sections found")
	ErrSectionNotFoundError = fmt.Errorf("section not found")
	ErrAlreadySubscribed    = fmt.Errorf("email is already subscribed")
	ErrInvalidEmail         = fmt.Errorf("invalid email address")
	ErrClockUnavailable     = fmt.Errorf("clock unavailable")
	ErrNilTickFunc          = fmt.Errorf("tick func is nil")
)
