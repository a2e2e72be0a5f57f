package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

var ErrStreamUnsupported = errors.New("streaming unsupported")

func JSON(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

// Error writes {"error": message}, plus the request id when the RequestID
// middleware assigned one.
func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	body := map[string]string{"error": message}
	if id := middleware.GetReqID(r.Context()); id != "" {
		body["requestId"] = id
	}
	JSON(w, r, code, body)
}

// Stream writes a text/event-stream response.
type Stream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewStream sends the event-stream headers. The server write deadline is
// lifted for the lifetime of the stream where the writer allows it. When the
// writer cannot flush the status line is already out, so callers only log.
func NewStream(w http.ResponseWriter) (*Stream, error) {
	rc := http.NewResponseController(w)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := rc.Flush(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStreamUnsupported, err)
	}
	_ = rc.SetWriteDeadline(time.Time{})
	return &Stream{w: w, rc: rc}, nil
}

// Event writes one named event. data must not contain newlines.
func (s *Stream) Event(name string, data []byte) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Comment writes a comment line, which clients ignore.
func (s *Stream) Comment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	return s.rc.Flush()
}
