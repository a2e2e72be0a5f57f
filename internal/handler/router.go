package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *BoardHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	r.Route("/api/boards", func(r chi.Router) {
		r.Get("/", h.ListBoards)
		r.Post("/", h.CreateBoard)

		r.Delete("/columns/{columnID}", h.DeleteColumn)
		r.Post("/columns/{columnID}/tasks", h.CreateTask)

		r.Patch("/tasks/{taskID}", h.UpdateTask)
		r.Post("/tasks/{taskID}/move", h.MoveTask)
		r.Delete("/tasks/{taskID}", h.DeleteTask)

		r.Route("/{boardID}", func(r chi.Router) {
			r.Get("/", h.GetBoard)
			r.Get("/events", h.Events)
			r.Get("/export", h.ExportTasks)
			r.Post("/export", h.SendExport)
			r.Post("/columns", h.CreateColumn)
		})
	})

	return r
}
