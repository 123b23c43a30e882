// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/danielhkuo/quickly-poll/cliparse"
	"github.com/danielhkuo/quickly-poll/controller"
	"github.com/danielhkuo/quickly-poll/middleware"
	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/pubsub"
)

// LiveWriteTimeout bounds each push to a live viewer. Viewers that cannot
// keep up are disconnected.
const LiveWriteTimeout = 5 * time.Second

type ResultsHandler struct {
	ctrl *controller.PollController
	hub  *pubsub.Hub
	cfg  cliparse.Config
}

func NewResultsHandler(ctrl *controller.PollController, hub *pubsub.Hub, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{ctrl: ctrl, hub: hub, cfg: cfg}
}

// GetResults handles GET /polls/{id}/results
// Returns the tally only
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	res, err := h.ctrl.GetWithTally(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.ctrl, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		Results:    res.Results,
		TotalVotes: res.TotalVotes,
		IsExpired:  res.IsExpired,
	})
}

// Live handles GET /polls/{id}/live
// Upgrades to a websocket and pushes the poll with its tally now and after
// every change. The stream ends when the poll is deleted.
func (h *ResultsHandler) Live(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")

	// Fail before upgrading so unknown polls get a normal 404
	res, err := h.ctrl.GetWithTally(r.Context(), pollID)
	if err != nil {
		writeError(w, h.ctrl, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// CORS already admits any origin
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Warn("websocket upgrade failed", "poll_id", pollID, "error", err)
		return
	}
	defer conn.CloseNow()

	// Viewers never send anything; CloseRead handles control frames and
	// cancels ctx when the viewer goes away.
	ctx := conn.CloseRead(r.Context())

	sub, err := h.hub.Subscribe(ctx, pollID)
	if err != nil {
		conn.Close(websocket.StatusTryAgainLater, "live results unavailable")
		return
	}
	defer h.hub.Unsubscribe(context.Background(), sub)

	slog.Info("live viewer connected", "poll_id", pollID)
	defer slog.Info("live viewer disconnected", "poll_id", pollID)

	if err := h.push(ctx, conn, res); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case _, ok := <-sub.C:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}

			res, err := h.ctrl.GetWithTally(ctx, pollID)
			if errors.Is(err, models.ErrNotFound) {
				conn.Close(websocket.StatusNormalClosure, "poll deleted")
				return
			}
			if err != nil {
				conn.Close(websocket.StatusInternalError, h.ctrl.UserMessage(err))
				return
			}
			if err := h.push(ctx, conn, res); err != nil {
				return
			}
		}
	}
}

func (h *ResultsHandler) push(ctx context.Context, conn *websocket.Conn, res models.PollResults) error {
	ctx, cancel := context.WithTimeout(ctx, LiveWriteTimeout)
	defer cancel()

	if err := wsjson.Write(ctx, conn, models.PollResponse{Poll: &res}); err != nil {
		slog.Warn("failed to push live results", "poll_id", res.ID, "error", err)
		return err
	}
	return nil
}
