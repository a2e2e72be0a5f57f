package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-api/internal/export"
	"github.com/BuzzLyutic/kanban-api/internal/model"
	"github.com/BuzzLyutic/kanban-api/internal/notify"
	"github.com/BuzzLyutic/kanban-api/internal/repo/memory"
	"github.com/BuzzLyutic/kanban-api/internal/service"
)

func setupHandler(t *testing.T, opts ...service.Option) *BoardHandler {
	t.Helper()
	logger := zap.NewNop()
	hub := notify.NewHub(logger, 16)
	svc := service.NewBoardService(memory.New(), hub, logger, opts...)
	return NewBoardHandler(svc, hub, 20*time.Millisecond, logger)
}

// newRequest builds a request with the given chi URL params already routed.
func newRequest(t *testing.T, method, target string, body interface{}, params map[string]string) *http.Request {
	t.Helper()
	var buf []byte
	if body != nil {
		var err error
		buf, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func createBoard(t *testing.T, h *BoardHandler, title string) model.BoardView {
	t.Helper()
	w := httptest.NewRecorder()
	h.CreateBoard(w, newRequest(t, http.MethodPost, "/api/boards", map[string]string{"title": title}, nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var view model.BoardView
	require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
	return view
}

func TestBoardHandler_CreateBoard(t *testing.T) {
	h := setupHandler(t)

	tests := []struct {
		name          string
		body          interface{}
		wantCode      int
		checkResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:     "successful creation",
			body:     map[string]string{"title": "Sprint", "description": "two weeks"},
			wantCode: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var view model.BoardView
				require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
				assert.NotEmpty(t, view.ID)
				assert.Equal(t, "Sprint", view.Title)
				require.Len(t, view.Columns, 2)
				assert.Equal(t, "To Do", view.Columns[0].Title)
				assert.Equal(t, "Done", view.Columns[1].Title)
				assert.Equal(t, 999, view.Columns[1].Position)
				assert.Contains(t, w.Header().Get("Location"), "/api/boards/"+view.ID)
			},
		},
		{name: "empty body", body: nil, wantCode: http.StatusBadRequest},
		{name: "blank title", body: map[string]string{"title": "   "}, wantCode: http.StatusBadRequest},
		{name: "malformed json", body: "not an object", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.CreateBoard(w, newRequest(t, http.MethodPost, "/api/boards", tt.body, nil))

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}
}

func TestBoardHandler_GetBoard(t *testing.T) {
	h := setupHandler(t)
	view := createBoard(t, h, "Sprint")

	t.Run("existing board", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.GetBoard(w, newRequest(t, http.MethodGet, "/api/boards/"+view.ID, nil, map[string]string{"boardID": view.ID}))

		assert.Equal(t, http.StatusOK, w.Code)
		var got model.BoardView
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, view.ID, got.ID)
		assert.Len(t, got.Columns, 2)
	})

	t.Run("missing board", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.GetBoard(w, newRequest(t, http.MethodGet, "/api/boards/nope", nil, map[string]string{"boardID": "nope"}))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBoardHandler_ListBoards(t *testing.T) {
	h := setupHandler(t)

	w := httptest.NewRecorder()
	h.ListBoards(w, newRequest(t, http.MethodGet, "/api/boards", nil, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	createBoard(t, h, "one")
	createBoard(t, h, "two")

	w = httptest.NewRecorder()
	h.ListBoards(w, newRequest(t, http.MethodGet, "/api/boards", nil, nil))
	var boards []model.Board
	require.NoError(t, json.NewDecoder(w.Body).Decode(&boards))
	require.Len(t, boards, 2)
	assert.Equal(t, "one", boards[0].Title)
}

func TestBoardHandler_Export(t *testing.T) {
	var received export.Payload
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer hook.Close()

	sender := export.NewWebhookSender(hook.URL, time.Second, 0, zap.NewNop())
	h := setupHandler(t, service.WithExporter(sender))
	view := createBoard(t, h, "Sprint")
	params := map[string]string{"boardID": view.ID}

	w := httptest.NewRecorder()
	h.CreateTask(w, newRequest(t, http.MethodPost, "/", map[string]any{"title": "Ship"}, map[string]string{"columnID": view.Columns[0].ID}))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	h.ExportTasks(w, newRequest(t, http.MethodGet, "/", nil, params))
	require.Equal(t, http.StatusOK, w.Code)
	var rows []model.ExportRow
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "To Do", rows[0].ColumnTitle)

	w = httptest.NewRecorder()
	h.SendExport(w, newRequest(t, http.MethodPost, "/", nil, params))
	require.Equal(t, http.StatusAccepted, w.Code)
	var receipt exportReceipt
	require.NoError(t, json.NewDecoder(w.Body).Decode(&receipt))
	assert.Equal(t, 1, receipt.Tasks)
	assert.Equal(t, receipt.ID, received.ID)
	assert.Equal(t, view.ID, received.BoardID)
}

func TestBoardHandler_ExportErrors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer failing.Close()

	tests := []struct {
		name     string
		opts     []service.Option
		wantCode int
	}{
		{name: "no target configured", wantCode: http.StatusServiceUnavailable},
		{
			name:     "target rejects",
			opts:     []service.Option{service.WithExporter(export.NewWebhookSender(failing.URL, time.Second, 0, zap.NewNop()))},
			wantCode: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupHandler(t, tt.opts...)
			view := createBoard(t, h, "Sprint")

			w := httptest.NewRecorder()
			h.SendExport(w, newRequest(t, http.MethodPost, "/", nil, map[string]string{"boardID": view.ID}))
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
