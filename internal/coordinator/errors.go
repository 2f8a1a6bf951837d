package coordinator

import "errors"

// Domain errors for the coordinator package.
var (
	// ErrInvalidState is returned when a change targets a state outside
	// the closed enum.
	ErrInvalidState = errors.New("coordinator: invalid state")

	// ErrNoStoredState is returned by Store implementations when no last
	// state has ever been persisted.
	ErrNoStoredState = errors.New("coordinator: no stored state")

	// ErrFollowerChange is returned when a follower-role coordinator is
	// asked to originate a state change. Followers only mirror.
	ErrFollowerChange = errors.New("coordinator: followers cannot originate state changes")
)
