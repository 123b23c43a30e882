// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-poll/cliparse"
	"github.com/danielhkuo/quickly-poll/controller"
	"github.com/danielhkuo/quickly-poll/middleware"
	"github.com/danielhkuo/quickly-poll/models"
)

type VotingHandler struct {
	ctrl *controller.PollController
	cfg  cliparse.Config
}

func NewVotingHandler(ctrl *controller.PollController, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{ctrl: ctrl, cfg: cfg}
}

// CastVote handles POST /polls/{id}/votes
// Authentication is optional; anonymous votes share a per-poll rate limit
// and are never deduplicated.
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	voter, ok := identity(w, r, h.cfg)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.OptionIndex == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "option_index is required")
		return
	}

	vote, err := h.ctrl.Vote(r.Context(), r.PathValue("id"), *req.OptionIndex, voter)
	if err != nil {
		writeError(w, h.ctrl, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{VoteID: vote.ID})
}
