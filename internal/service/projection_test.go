package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-api/internal/export"
	"github.com/BuzzLyutic/kanban-api/internal/model"
	"github.com/BuzzLyutic/kanban-api/internal/repo"
	"github.com/BuzzLyutic/kanban-api/internal/repo/memory"
)

// MockSender - мок отправителя экспорта
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, p export.Payload) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func TestBoardService_GetBoard_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	f := newFixture(t, svc)
	addTasks(t, svc, f.todo.ID, "A", "B")
	addTasks(t, svc, f.doing.ID, "C")

	first, err := svc.GetBoard(context.Background(), f.board.ID)
	require.NoError(t, err)
	second, err := svc.GetBoard(context.Background(), f.board.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first.Columns, 3)
	assert.Equal(t, []string{"To Do", "Doing", "Done"},
		[]string{first.Columns[0].Title, first.Columns[1].Title, first.Columns[2].Title})
	assert.NotNil(t, first.Columns[2].Tasks, "empty columns carry an empty list")
	assert.Empty(t, first.Columns[2].Tasks)
}

func TestBoardService_GetBoard_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetBoard(context.Background(), "missing")
	assert.ErrorIs(t, err, repo.ErrorNotFound)
}

func TestBoardService_ListBoards(t *testing.T) {
	svc, _ := newTestService(t)

	boards, err := svc.ListBoards(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, boards)
	assert.Empty(t, boards)

	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.CreateBoard(context.Background(), model.CreateBoardInput{Title: title})
		require.NoError(t, err)
	}
	boards, err = svc.ListBoards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 3)
	assert.Equal(t, "one", boards[0].Title)
	assert.Equal(t, "three", boards[2].Title)
}

func TestBoardService_ExportTasks(t *testing.T) {
	svc, _ := newTestService(t)
	f := newFixture(t, svc)
	addTasks(t, svc, f.done.ID, "shipped")
	addTasks(t, svc, f.todo.ID, "A", "B")
	addTasks(t, svc, f.doing.ID, "C")

	rows, err := svc.ExportTasks(context.Background(), f.board.ID)
	require.NoError(t, err)

	got := make([][2]string, 0, len(rows))
	for _, r := range rows {
		got = append(got, [2]string{r.ColumnTitle, r.Title})
	}
	assert.Equal(t, [][2]string{
		{"To Do", "A"}, {"To Do", "B"}, {"Doing", "C"}, {"Done", "shipped"},
	}, got)
	assert.Equal(t, f.doing.ID, rows[2].ColumnID)
	assert.Equal(t, 1, rows[1].Position)
}

func TestBoardService_ExportBoard(t *testing.T) {
	sender := new(MockSender)
	svc := NewBoardService(memory.New(), nil, zap.NewNop(), WithExporter(sender))
	f := newFixture(t, svc)
	addTasks(t, svc, f.todo.ID, "A")

	sender.On("Send", mock.Anything, mock.MatchedBy(func(p export.Payload) bool {
		return p.BoardID == f.board.ID && len(p.Tasks) == 1 && p.ID != ""
	})).Return(nil).Once()

	p, err := svc.ExportBoard(context.Background(), f.board.ID)
	require.NoError(t, err)
	assert.Equal(t, f.board.ID, p.BoardID)
	sender.AssertExpectations(t)
}

func TestBoardService_ExportBoard_Failures(t *testing.T) {
	sender := new(MockSender)
	svc := NewBoardService(memory.New(), nil, zap.NewNop(), WithExporter(sender))
	f := newFixture(t, svc)
	addTasks(t, svc, f.todo.ID, "A")
	before, err := svc.GetBoard(context.Background(), f.board.ID)
	require.NoError(t, err)

	sender.On("Send", mock.Anything, mock.Anything).Return(errors.Join(export.ErrDelivery, errors.New("503"))).Once()

	_, err = svc.ExportBoard(context.Background(), f.board.ID)
	assert.ErrorIs(t, err, export.ErrDelivery)

	after, err := svc.GetBoard(context.Background(), f.board.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = svc.ExportBoard(context.Background(), "missing")
	assert.ErrorIs(t, err, repo.ErrorNotFound)

	unconfigured, _ := newTestService(t)
	_, err = unconfigured.ExportBoard(context.Background(), f.board.ID)
	assert.ErrorIs(t, err, export.ErrNotConfigured)
}

// TestBoardService_RandomOpsKeepColumnsDense runs a long random sequence of
// creates, moves and deletes and checks every column after each step.
func TestBoardService_RandomOpsKeepColumnsDense(t *testing.T) {
	svc, _ := newTestService(t)
	f := newFixture(t, svc)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	columns := []string{f.todo.ID, f.doing.ID, f.done.ID}
	var live []string

	for step := 0; step < 300; step++ {
		switch op := rng.Intn(10); {
		case op < 4 || len(live) == 0:
			in := model.CreateTaskInput{Title: "t"}
			if rng.Intn(2) == 0 {
				p := rng.Intn(6)
				in.Position = &p
			}
			task, err := svc.CreateTask(ctx, columns[rng.Intn(len(columns))], in)
			require.NoError(t, err)
			live = append(live, task.ID)
		case op < 8:
			id := live[rng.Intn(len(live))]
			_, err := svc.MoveTask(ctx, id, model.MoveTaskInput{
				ColumnID: columns[rng.Intn(len(columns))],
				Position: rng.Intn(12),
			})
			require.NoError(t, err)
		default:
			i := rng.Intn(len(live))
			require.NoError(t, svc.DeleteTask(ctx, live[i]))
			live = append(live[:i], live[i+1:]...)
		}

		view, err := svc.GetBoard(ctx, f.board.ID)
		require.NoError(t, err)
		total := 0
		for _, c := range view.Columns {
			for i, task := range c.Tasks {
				require.Equal(t, i, task.Position, "step %d: column %s not dense", step, c.Title)
				require.Equal(t, c.ID, task.ColumnID)
			}
			total += len(c.Tasks)
		}
		require.Equal(t, len(live), total, "step %d", step)
	}
}
