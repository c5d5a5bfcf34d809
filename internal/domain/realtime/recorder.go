package realtime

import (
	"context"
	"sync"
)

// Delivery is one event handed to a connected recipient.
type Delivery struct {
	RecipientID int64
	Event       any
}

// Recorder is an in-memory Broadcaster for tests. Recipients marked with
// Connect receive deliveries; events for everyone else are dropped, the
// same way the Hub drops events for users without a live connection.
type Recorder struct {
	mu        sync.Mutex
	online    map[int64]int
	delivered []Delivery
	dropped   []Delivery
	err       error
}

func NewRecorder() *Recorder {
	return &Recorder{online: make(map[int64]int)}
}

func (r *Recorder) Connect(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online[userID]++
}

func (r *Recorder) Disconnect(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.online[userID] > 0 {
		r.online[userID]--
	}
}

// FailWith makes every following Publish return err. Pass nil to reset.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) Publish(ctx context.Context, recipientID int64, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}

	d := Delivery{RecipientID: recipientID, Event: event}
	if r.online[recipientID] == 0 {
		r.dropped = append(r.dropped, d)
		return nil
	}
	// One delivery per live connection.
	for i := 0; i < r.online[recipientID]; i++ {
		r.delivered = append(r.delivered, d)
	}
	return nil
}

// Delivered returns deliveries, optionally filtered to one recipient.
func (r *Recorder) Delivered(recipientID ...int64) []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return filterDeliveries(r.delivered, recipientID)
}

// Dropped returns events published while the recipient was offline.
func (r *Recorder) Dropped(recipientID ...int64) []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return filterDeliveries(r.dropped, recipientID)
}

func filterDeliveries(in []Delivery, recipientID []int64) []Delivery {
	out := make([]Delivery, 0, len(in))
	for _, d := range in {
		if len(recipientID) == 0 || d.RecipientID == recipientID[0] {
			out = append(out, d)
		}
	}
	return out
}
