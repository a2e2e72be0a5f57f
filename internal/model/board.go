package model

import "time"

type Board struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Column struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"boardId"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	IsFixed   bool      `json:"isFixed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ColumnView is a column with its tasks nested in position order.
type ColumnView struct {
	Column
	Tasks []Task `json:"tasks"`
}

// BoardView is the full read model of a board: columns ascending by
// position, each carrying its tasks ascending by position.
type BoardView struct {
	Board
	Columns []ColumnView `json:"columns"`
}

// ExportRow is one task of a board flattened for delivery to an external
// pipeline, decorated with the title of the column it sits in.
type ExportRow struct {
	TaskID      string     `json:"taskId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ColumnID    string     `json:"columnId"`
	ColumnTitle string     `json:"columnTitle"`
	Position    int        `json:"position"`
	Priority    Priority   `json:"priority,omitempty"`
	Progress    *int       `json:"progress,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

type CreateBoardInput struct {
	Title       string
	Description string
}

type CreateColumnInput struct {
	Title    string
	Position *int
}
