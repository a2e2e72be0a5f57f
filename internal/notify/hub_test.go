package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-api/internal/model"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func assertEmpty(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %s", ev.Type())
	default:
	}
}

func TestHub_FiltersByBoard(t *testing.T) {
	hub := NewHub(zap.NewNop(), 8)
	ctx := context.Background()

	b1 := hub.Subscribe("b1")
	defer b1.Close()
	b2 := hub.Subscribe("b2")
	defer b2.Close()
	all := hub.Subscribe("")
	defer all.Close()

	hub.Publish(ctx, ColumnDeleted{BoardID: "b1", ColumnID: "c1"})

	assert.Equal(t, ColumnDeleted{BoardID: "b1", ColumnID: "c1"}, receive(t, b1))
	assert.Equal(t, ColumnDeleted{BoardID: "b1", ColumnID: "c1"}, receive(t, all))
	assertEmpty(t, b2)
}

func TestHub_BoardCreatedReachesEveryone(t *testing.T) {
	hub := NewHub(zap.NewNop(), 8)

	b1 := hub.Subscribe("b1")
	defer b1.Close()

	created := BoardCreated{View: model.BoardView{Board: model.Board{ID: "b7", Title: "New"}}}
	hub.Publish(context.Background(), created)

	assert.Equal(t, created, receive(t, b1))
}

func TestHub_SlowObserverDropsWithoutBlocking(t *testing.T) {
	hub := NewHub(zap.NewNop(), 1)

	slow := hub.Subscribe("b1")
	defer slow.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			hub.Publish(context.Background(), TaskDeleted{BoardID: "b1", TaskID: "t", Position: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full observer")
	}

	assert.Equal(t, TaskDeleted{BoardID: "b1", TaskID: "t", Position: 0}, receive(t, slow))
	assertEmpty(t, slow)
	assert.Equal(t, uint64(4), hub.Dropped())
}

func TestSubscription_Close(t *testing.T) {
	hub := NewHub(zap.NewNop(), 4)

	sub := hub.Subscribe("b1")
	require.Equal(t, 1, hub.Len())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Len())

	_, ok := <-sub.Events()
	assert.False(t, ok, "channel should be closed")

	// Publishing after close must not panic.
	hub.Publish(context.Background(), ColumnDeleted{BoardID: "b1"})
}

func TestMultiPublisher(t *testing.T) {
	var got []string
	p := MultiPublisher{
		PublisherFunc(func(_ context.Context, ev Event) { got = append(got, "a:"+string(ev.Type())) }),
		NopPublisher{},
		PublisherFunc(func(_ context.Context, ev Event) { got = append(got, "b:"+string(ev.Type())) }),
	}

	p.Publish(context.Background(), TaskUpdated{BoardID: "b1"})

	assert.Equal(t, []string{"a:task:updated", "b:task:updated"}, got)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(zap.NewNop(), 4)
	a := hub.Subscribe("b1")
	b := hub.Subscribe("")

	hub.Close()

	for _, sub := range []*Subscription{a, b} {
		_, ok := <-sub.Events()
		assert.False(t, ok)
	}
	assert.Equal(t, 0, hub.Len())

	late := hub.Subscribe("b1")
	_, ok := <-late.Events()
	assert.False(t, ok, "subscriptions after close are closed")
	late.Close()
}
