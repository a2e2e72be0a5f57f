package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BuzzLyutic/kanban-api/pkg/respond"
)

func (h *BoardHandler) CreateColumn(w http.ResponseWriter, r *http.Request) {
	var req createColumnRequest
	if err := decode(r, &req); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	col, err := h.service.CreateColumn(r.Context(), chi.URLParam(r, "boardID"), in)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, col)
}

func (h *BoardHandler) DeleteColumn(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteColumn(r.Context(), chi.URLParam(r, "columnID")); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoardHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decode(r, &req); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	task, err := h.service.CreateTask(r.Context(), chi.URLParam(r, "columnID"), in)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/boards/tasks/%s", task.ID))
	respond.JSON(w, r, http.StatusCreated, task)
}

func (h *BoardHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := decode(r, &req); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	task, err := h.service.UpdateTask(r.Context(), chi.URLParam(r, "taskID"), in)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *BoardHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	var req moveTaskRequest
	if err := decode(r, &req); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	task, err := h.service.MoveTask(r.Context(), chi.URLParam(r, "taskID"), in)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *BoardHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTask(r.Context(), chi.URLParam(r, "taskID")); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
