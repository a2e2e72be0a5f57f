package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-api/internal/export"
	"github.com/BuzzLyutic/kanban-api/internal/notify"
	"github.com/BuzzLyutic/kanban-api/internal/repo"
	"github.com/BuzzLyutic/kanban-api/internal/service"
	"github.com/BuzzLyutic/kanban-api/pkg/respond"
)

type BoardHandler struct {
	service   *service.BoardService
	hub       *notify.Hub
	heartbeat time.Duration
	logger    *zap.Logger
}

func NewBoardHandler(srv *service.BoardService, hub *notify.Hub, heartbeat time.Duration, logger *zap.Logger) *BoardHandler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &BoardHandler{
		service:   srv,
		hub:       hub,
		heartbeat: heartbeat,
		logger:    logger,
	}
}

func (h *BoardHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.service.ListBoards(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, boards)
}

func (h *BoardHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var req createBoardRequest
	if err := decode(r, &req); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	view, err := h.service.CreateBoard(r.Context(), in)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/boards/%s", view.ID))
	respond.JSON(w, r, http.StatusCreated, view)
}

func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetBoard(r.Context(), chi.URLParam(r, "boardID"))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, view)
}

func (h *BoardHandler) ExportTasks(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ExportTasks(r.Context(), chi.URLParam(r, "boardID"))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, rows)
}

type exportReceipt struct {
	ID         string    `json:"id"`
	BoardID    string    `json:"boardId"`
	ExportedAt time.Time `json:"exportedAt"`
	Tasks      int       `json:"tasks"`
}

func (h *BoardHandler) SendExport(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.ExportBoard(r.Context(), chi.URLParam(r, "boardID"))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusAccepted, exportReceipt{
		ID:         p.ID,
		BoardID:    p.BoardID,
		ExportedAt: p.ExportedAt,
		Tasks:      len(p.Tasks),
	})
}

func (h *BoardHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errValidation), errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrInvalidOperation):
		respond.Error(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, repo.ErrorConflict):
		respond.Error(w, r, http.StatusConflict, "conflict")
	case errors.Is(err, export.ErrNotConfigured):
		respond.Error(w, r, http.StatusServiceUnavailable, "export is not configured")
	case errors.Is(err, export.ErrDelivery):
		h.logger.Warn("export delivery failed", zap.Error(err))
		respond.Error(w, r, http.StatusBadGateway, "export delivery failed")
	default:
		h.logger.Error("internal error", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
