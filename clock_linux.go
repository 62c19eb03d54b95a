// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

//go:build linux

package synergy

import (
	"time"

	"golang.org/x/sys/unix"
)

var clockStart = time.Now()

// monotonicMillis reads CLOCK_MONOTONIC, which keeps counting across wall
// clock changes. The result wraps every 49.7 days.
func monotonicMillis() uint32 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return uint32(time.Since(clockStart).Milliseconds()) // #nosec G115 - wraps by design
	}
	return uint32(ts.Nano() / int64(time.Millisecond)) // #nosec G115 - wraps by design
}
