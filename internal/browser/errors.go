package browser

import (
	"errors"
	"strings"
)

// The locator error taxonomy. Callers render different user-facing messages
// for each, so these must stay distinguishable:
//   - ErrInvalidStrategy: the selection strategy is not one of the supported
//     set. A user input error, never fatal.
//   - ErrTimeout: the element did not reach the required readiness state in
//     time. The caller may retry.
//   - ErrNotFound: the element is absent right now. Distinct from ErrTimeout
//     for immediate existence checks.
var (
	ErrInvalidStrategy = errors.New("invalid locator strategy")
	ErrTimeout         = errors.New("timed out waiting for element")
	ErrNotFound        = errors.New("element not found")
	ErrNotRunning      = errors.New("no browser running")
)

// isTimeout reports whether a driver error is a wait timeout. The driver
// reports timeouts as plain errors, so this matches on the message.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}
