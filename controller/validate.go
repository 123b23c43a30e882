// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package controller

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/quickly-poll/models"
)

// ValidateQuestion trims q and checks its length
func ValidateQuestion(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", models.Invalid("question is required")
	}
	if utf8.RuneCountInString(q) > models.MaxQuestionLength {
		return "", models.Invalid("question must be at most %d characters", models.MaxQuestionLength)
	}
	return q, nil
}

// ValidateOptions trims every option and checks count, length and
// uniqueness. The returned slice is a copy.
func ValidateOptions(options []string) ([]string, error) {
	if len(options) < models.MinOptions {
		return nil, models.Invalid("a poll needs at least %d options", models.MinOptions)
	}
	if len(options) > models.MaxOptions {
		return nil, models.Invalid("a poll can have at most %d options", models.MaxOptions)
	}

	out := make([]string, len(options))
	seen := make(map[string]bool, len(options))
	for i, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return nil, models.Invalid("option %d is empty", i+1)
		}
		if utf8.RuneCountInString(opt) > models.MaxOptionLength {
			return nil, models.Invalid("option %d must be at most %d characters", i+1, models.MaxOptionLength)
		}
		if seen[opt] {
			return nil, models.Invalid("options must be unique")
		}
		seen[opt] = true
		out[i] = opt
	}
	return out, nil
}

func validateExpiry(expiresAt *time.Time, now time.Time) (*time.Time, error) {
	if expiresAt == nil {
		return nil, nil
	}
	if !expiresAt.After(now) {
		return nil, models.Invalid("expiration must be in the future")
	}
	t := expiresAt.UTC()
	return &t, nil
}
