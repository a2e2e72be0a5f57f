// Package notify turns committed board mutations into typed events and fans
// them out to every observer of the affected board.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BuzzLyutic/kanban-api/internal/model"
)

type Type string

const (
	TypeBoardCreated  Type = "board:created"
	TypeColumnCreated Type = "column:created"
	TypeColumnDeleted Type = "column:deleted"
	TypeTaskCreated   Type = "task:created"
	TypeTaskUpdated   Type = "task:updated"
	TypeTaskMoved     Type = "task:moved"
	TypeTaskDeleted   Type = "task:deleted"
)

var ErrUnknownType = errors.New("unknown event type")

// Event is one of the concrete event structs of this package. The set is
// closed: a type switch over the seven cases below is exhaustive.
type Event interface {
	Type() Type
	// Board is the id of the board the event belongs to.
	Board() string
	event()
}

// BoardCreated carries the new board together with its fixed columns.
type BoardCreated struct {
	View model.BoardView `json:"board"`
}

// ColumnCreated carries the new column at its final position. If another
// column sat at that position before, it and every column after it moved up
// by one.
type ColumnCreated struct {
	BoardID string       `json:"boardId"`
	Column  model.Column `json:"column"`
}

type ColumnDeleted struct {
	BoardID  string `json:"boardId"`
	ColumnID string `json:"columnId"`
}

type TaskCreated struct {
	BoardID  string     `json:"boardId"`
	ColumnID string     `json:"columnId"`
	Task     model.Task `json:"task"`
}

type TaskUpdated struct {
	BoardID string     `json:"boardId"`
	Task    model.Task `json:"task"`
}

// TaskMoved carries the task after the move, so its ColumnID and Position
// are the new ones. Siblings shift implicitly: receivers re-derive them with
// Apply, or re-fetch the board.
type TaskMoved struct {
	BoardID      string     `json:"boardId"`
	FromColumnID string     `json:"fromColumnId"`
	FromPosition int        `json:"fromPosition"`
	Task         model.Task `json:"task"`
}

type TaskDeleted struct {
	BoardID  string `json:"boardId"`
	ColumnID string `json:"columnId"`
	TaskID   string `json:"taskId"`
	Position int    `json:"position"`
}

func (BoardCreated) Type() Type  { return TypeBoardCreated }
func (ColumnCreated) Type() Type { return TypeColumnCreated }
func (ColumnDeleted) Type() Type { return TypeColumnDeleted }
func (TaskCreated) Type() Type   { return TypeTaskCreated }
func (TaskUpdated) Type() Type   { return TypeTaskUpdated }
func (TaskMoved) Type() Type     { return TypeTaskMoved }
func (TaskDeleted) Type() Type   { return TypeTaskDeleted }

func (e BoardCreated) Board() string  { return e.View.ID }
func (e ColumnCreated) Board() string { return e.BoardID }
func (e ColumnDeleted) Board() string { return e.BoardID }
func (e TaskCreated) Board() string   { return e.BoardID }
func (e TaskUpdated) Board() string   { return e.BoardID }
func (e TaskMoved) Board() string     { return e.BoardID }
func (e TaskDeleted) Board() string   { return e.BoardID }

func (BoardCreated) event()  {}
func (ColumnCreated) event() {}
func (ColumnDeleted) event() {}
func (TaskCreated) event()   {}
func (TaskUpdated) event()   {}
func (TaskMoved) event()     {}
func (TaskDeleted) event()   {}

// Envelope is the wire form of an event.
type Envelope struct {
	Type    Type            `json:"type"`
	BoardID string          `json:"boardId"`
	Data    json.RawMessage `json:"data"`
}

func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", ev.Type(), err)
	}
	return json.Marshal(Envelope{Type: ev.Type(), BoardID: ev.Board(), Data: data})
}

func Decode(b []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	var ev Event
	var err error
	switch env.Type {
	case TypeBoardCreated:
		ev, err = decodeInto[BoardCreated](env.Data)
	case TypeColumnCreated:
		ev, err = decodeInto[ColumnCreated](env.Data)
	case TypeColumnDeleted:
		ev, err = decodeInto[ColumnDeleted](env.Data)
	case TypeTaskCreated:
		ev, err = decodeInto[TaskCreated](env.Data)
	case TypeTaskUpdated:
		ev, err = decodeInto[TaskUpdated](env.Data)
	case TypeTaskMoved:
		ev, err = decodeInto[TaskMoved](env.Data)
	case TypeTaskDeleted:
		ev, err = decodeInto[TaskDeleted](env.Data)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
	}
	return ev, nil
}

func decodeInto[T Event](data json.RawMessage) (Event, error) {
	var ev T
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}
