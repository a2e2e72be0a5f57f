package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-api/internal/notify"
	"github.com/BuzzLyutic/kanban-api/pkg/respond"
)

// Events streams the events of one board as server-sent events until the
// client goes away. There is no replay: a client that reconnects fetches the
// board again.
func (h *BoardHandler) Events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	boardID := chi.URLParam(r, "boardID")

	if _, err := h.service.GetBoard(ctx, boardID); err != nil {
		h.handleErrors(w, r, err)
		return
	}

	sub := h.hub.Subscribe(boardID)
	defer sub.Close()

	stream, err := respond.NewStream(w)
	if err != nil {
		h.logger.Error("open event stream", zap.String("board_id", boardID), zap.Error(err))
		return
	}
	if err := stream.Comment("subscribed"); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := notify.Encode(ev)
			if err != nil {
				h.logger.Error("encode event", zap.String("type", string(ev.Type())), zap.Error(err))
				continue
			}
			if err := stream.Event(string(ev.Type()), data); err != nil {
				return
			}
		case <-ticker.C:
			if err := stream.Comment("heartbeat"); err != nil {
				return
			}
		}
	}
}
