// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/danielhkuo/quickly-poll/auth"
	"github.com/danielhkuo/quickly-poll/cliparse"
	"github.com/danielhkuo/quickly-poll/controller"
	"github.com/danielhkuo/quickly-poll/middleware"
	"github.com/danielhkuo/quickly-poll/models"
)

// StatusFor maps an error kind to its HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateVote):
		return http.StatusConflict
	case errors.Is(err, models.ErrExpired):
		return http.StatusGone
	case errors.Is(err, models.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends the user-safe message for err. Rate-limited responses
// carry Retry-After in whole seconds.
func writeError(w http.ResponseWriter, ctrl *controller.PollController, err error) {
	var rerr *models.RateLimitError
	if errors.As(err, &rerr) {
		wait := rerr.ResetAt.Sub(ctrl.Now()).Seconds()
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Max(1, math.Ceil(wait)))))
	}
	middleware.ErrorResponse(w, StatusFor(err), ctrl.UserMessage(err))
}

// identity resolves the caller. A missing Authorization header is anonymous;
// a present but invalid one is rejected.
func identity(w http.ResponseWriter, r *http.Request, cfg cliparse.Config) (models.Identity, bool) {
	id, err := auth.IdentityFromRequest(r, cfg.SessionSalt)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid session token")
		return "", false
	}
	return id, true
}
