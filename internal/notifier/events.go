package notifier

import "github.com/Irehund/JobTrack/internal/model"

var (
	_ model.Notifier = (*ChannelNotifier)(nil)
	_ model.Notifier = Multi(nil)
)

// Event is one engine signal. Exactly one of Retry or Completed is set.
type Event struct {
	Retry     *model.RetryEvent
	Completed *model.AggregatedResult
}

// ChannelNotifier forwards signals to a buffered channel. When the
// consumer falls behind, signals are dropped rather than blocking the engine.
type ChannelNotifier struct {
	events chan Event
}

// NewChannelNotifier returns a notifier with the given buffer size.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	return &ChannelNotifier{events: make(chan Event, buffer)}
}

// Events is the receive side for the consumer.
func (c *ChannelNotifier) Events() <-chan Event {
	return c.events
}

func (c *ChannelNotifier) RetryScheduled(ev model.RetryEvent) {
	c.send(Event{Retry: &ev})
}

func (c *ChannelNotifier) SearchCompleted(res model.AggregatedResult) {
	c.send(Event{Completed: &res})
}

func (c *ChannelNotifier) send(ev Event) {
	select {
	case c.events <- ev:
	default:
	}
}

// Multi fans each signal out to every notifier in order.
type Multi []model.Notifier

func (m Multi) RetryScheduled(ev model.RetryEvent) {
	for _, n := range m {
		n.RetryScheduled(ev)
	}
}

func (m Multi) SearchCompleted(res model.AggregatedResult) {
	for _, n := range m {
		n.SearchCompleted(res)
	}
}
