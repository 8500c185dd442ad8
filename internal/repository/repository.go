package repository

import "errors"

// ErrNotFound is returned when a queried row does not exist. Services map
// it to a 404 at the API boundary.
var ErrNotFound = errors.New("repository: not found")

// ErrStaleState is returned when a versioned write loses a race: the row's
// version moved past the one the caller read, so nothing was written.
var ErrStaleState = errors.New("repository: stale timer state")
