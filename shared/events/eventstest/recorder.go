// Package eventstest provides a recording events.Publisher for tests.
package eventstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/events"
)

type Published struct {
	Topic string
	Event events.MutationEvent
}

// Recorder acknowledges every publish and remembers it. Setting Err makes
// every publish fail with a publish error instead.
type Recorder struct {
	mu     sync.Mutex
	Err    error
	events []Published
}

func (r *Recorder) Publish(ctx context.Context, topic string, event events.MutationEvent) (events.Ack, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return events.Ack{}, errs.Wrap(errs.ErrPublish, "", r.Err)
	}
	r.events = append(r.events, Published{Topic: topic, Event: event})
	return events.Ack{Topic: topic, MessageID: fmt.Sprintf("%d-0", len(r.events))}, nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}

var _ events.Publisher = (*Recorder)(nil)
