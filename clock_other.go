// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

//go:build !linux

package synergy

import "time"

var clockStart = time.Now()

// monotonicMillis uses the monotonic reading carried by time.Time.
func monotonicMillis() uint32 {
	return uint32(time.Since(clockStart).Milliseconds()) // #nosec G115 - wraps by design
}
