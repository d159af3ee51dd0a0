package models

import "errors"

// ErrNotFound marks a lookup for an id that does not exist. Distinct from
// a transient store failure, which is never wrapped with this sentinel.
var ErrNotFound = errors.New("not found")
