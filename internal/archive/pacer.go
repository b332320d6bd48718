// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package archive

import "golang.org/x/time/rate"

// NewRatePacer allows at most batchesPerSecond batches per second. A
// non-positive rate returns nil, which disables pacing.
func NewRatePacer(batchesPerSecond float64) Pacer {
	if batchesPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(batchesPerSecond), 1)
}
