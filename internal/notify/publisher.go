package notify

import "context"

// Publisher delivers an event after its mutation has committed. Delivery is
// fire-and-forget: failures are logged by the implementation and never
// reported back to the mutation.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

type PublisherFunc func(ctx context.Context, ev Event)

func (f PublisherFunc) Publish(ctx context.Context, ev Event) { f(ctx, ev) }

// MultiPublisher hands every event to each of its publishers in order.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, ev Event) {
	for _, p := range m {
		p.Publish(ctx, ev)
	}
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
