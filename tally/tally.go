// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"math"

	"github.com/danielhkuo/quickly-poll/models"
)

// Result is the tally of one poll
type Result struct {
	Options    []models.OptionResult
	TotalVotes int
}

// Compute counts votes per option. Indices outside [0, len(options)) are
// ignored. Percentages are rounded independently and may not sum to 100.
func Compute(options []string, votes []int) Result {
	counts := make([]int, len(options))
	total := 0
	for _, idx := range votes {
		if idx < 0 || idx >= len(options) {
			continue
		}
		counts[idx]++
		total++
	}

	results := make([]models.OptionResult, len(options))
	for i, text := range options {
		results[i] = models.OptionResult{
			Text:       text,
			Votes:      counts[i],
			Percentage: percentage(counts[i], total),
		}
	}

	return Result{Options: results, TotalVotes: total}
}

// FromVotes tallies stored vote rows
func FromVotes(options []string, votes []models.Vote) Result {
	indices := make([]int, len(votes))
	for i, v := range votes {
		indices[i] = v.OptionIndex
	}
	return Compute(options, indices)
}

func percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(count) / float64(total)))
}
