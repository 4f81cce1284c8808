// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the current time for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns a Clock backed by the standard time package. Times are
// in UTC so shard bytes do not depend on the host's zone.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// OrReal returns c, or Real() when c is nil. Constructors use it to
// make the Clock option optional.
func OrReal(c Clock) Clock {
	if c == nil {
		return Real()
	}
	return c
}
