package repo

import (
	"context"
	"errors"

	"github.com/BuzzLyutic/kanban-api/internal/ledger"
	"github.com/BuzzLyutic/kanban-api/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

// Reader is the read side shared by snapshots and write transactions.
type Reader interface {
	GetBoard(ctx context.Context, id string) (model.Board, error)
	ListBoards(ctx context.Context) ([]model.Board, error)
	GetColumn(ctx context.Context, id string) (model.Column, error)
	// ListColumns returns the columns of a board ascending by position.
	ListColumns(ctx context.Context, boardID string) ([]model.Column, error)
	GetTask(ctx context.Context, id string) (model.Task, error)
	// ListTasks returns the tasks of the given columns ascending by position.
	ListTasks(ctx context.Context, columnIDs []string) ([]model.Task, error)
	CountTasks(ctx context.Context, columnID string) (int, error)
}

// Tx is a write transaction. Nothing it does is visible to other readers
// until the function passed to Store.InTx returns nil.
type Tx interface {
	Reader
	ledger.Store

	// LockBoard blocks other transactions that lock the same board until
	// this one finishes.
	LockBoard(ctx context.Context, boardID string) error

	CreateBoard(ctx context.Context, b model.Board) (model.Board, error)
	CreateColumn(ctx context.Context, c model.Column) (model.Column, error)
	DeleteColumn(ctx context.Context, id string) error
	CreateTask(ctx context.Context, t model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, t model.Task) (model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	DeleteTasksInColumn(ctx context.Context, columnID string) (int64, error)
}

type Store interface {
	// View runs fn against a consistent read-only snapshot.
	View(ctx context.Context, fn func(r Reader) error) error
	// InTx runs fn in a transaction, committing only when fn returns nil.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
