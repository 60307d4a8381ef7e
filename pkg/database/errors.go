package database

import "errors"

// ErrNotReady is returned when the connection pool has not been opened yet
// or failed its startup ping.
var ErrNotReady = errors.New("database not ready")
