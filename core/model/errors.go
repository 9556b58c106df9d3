package model

import "errors"

// ErrConfiguration marks invalid unit or horizon characteristics detected
// before any constraint is emitted.
var ErrConfiguration = errors.New("configuration error")

// ErrMissingLink marks a linked horizon with no boundary record for a unit.
var ErrMissingLink = errors.New("missing linked boundary record")
