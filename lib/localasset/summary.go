// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localasset

import "fmt"

// ImportSummary aggregates a batch of import results.
type ImportSummary struct {
	Succeeded int
	Failed    int

	// Failures holds the rejected results in input order.
	Failures []ImportResult
}

// Summary counts results.
func Summary(results []ImportResult) ImportSummary {
	var summary ImportSummary
	for _, result := range results {
		if result.OK() {
			summary.Succeeded++
			continue
		}
		summary.Failed++
		summary.Failures = append(summary.Failures, result)
	}
	return summary
}

func (s ImportSummary) String() string {
	return fmt.Sprintf("%d succeeded, %d failed", s.Succeeded, s.Failed)
}
