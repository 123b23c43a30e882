// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-poll/cliparse"
	"github.com/danielhkuo/quickly-poll/controller"
	"github.com/danielhkuo/quickly-poll/middleware"
	"github.com/danielhkuo/quickly-poll/models"
)

type PollHandler struct {
	ctrl *controller.PollController
	cfg  cliparse.Config
}

func NewPollHandler(ctrl *controller.PollController, cfg cliparse.Config) *PollHandler {
	return &PollHandler{ctrl: ctrl, cfg: cfg}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r, h.cfg)
	if !ok {
		return
	}

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.ctrl.Create(r.Context(), req, caller)
	if err != nil {
		writeError(w, h.ctrl, err)
		return
	}

	h.respondWithPoll(w, r, http.StatusCreated, poll.ID)
}

// ListPolls handles GET /polls
// Returns the caller's own polls
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r, h.cfg)
	if !ok {
		return
	}

	polls, err := h.ctrl.ListByOwner(r.Context(), caller)
	if err != nil {
		writeError(w, h.ctrl, err)
		return
	}

	if polls == nil {
		polls = []models.Poll{}
	}
	middleware.JSONResponse(w, http.StatusOK, models.PollListResponse{Polls: polls})
}

// GetPoll handles GET /polls/{id}
// Anyone may read a poll and its current tally
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	h.respondWithPoll(w, r, http.StatusOK, r.PathValue("id"))
}

// UpdatePoll handles PATCH /polls/{id}
func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r, h.cfg)
	if !ok {
		return
	}

	var req models.UpdatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.ctrl.Update(r.Context(), r.PathValue("id"), req, caller)
	if err != nil {
		writeError(w, h.ctrl, err)
		return
	}

	h.respondWithPoll(w, r, http.StatusOK, poll.ID)
}

// DeletePoll handles DELETE /polls/{id}
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r, h.cfg)
	if !ok {
		return
	}

	if err := h.ctrl.Delete(r.Context(), r.PathValue("id"), caller); err != nil {
		writeError(w, h.ctrl, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ActionResponse{})
}

func (h *PollHandler) respondWithPoll(w http.ResponseWriter, r *http.Request, status int, pollID string) {
	res, err := h.ctrl.GetWithTally(r.Context(), pollID)
	if err != nil {
		if status != http.StatusOK {
			slog.Error("failed to reload poll after write", "poll_id", pollID, "error", err)
		}
		writeError(w, h.ctrl, err)
		return
	}

	middleware.JSONResponse(w, status, models.PollResponse{Poll: &res})
}
