package realtime

import (
	"context"
	"sync"

	"github.com/noah-isme/upstander-api/internal/dto"
)

// LocalBroker delivers messages within this process only.
type LocalBroker struct {
	mu   sync.RWMutex
	subs map[string]map[chan dto.MessageResponse]struct{}
}

// NewLocalBroker constructs an in-process broker.
func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[string]map[chan dto.MessageResponse]struct{})}
}

// Publish delivers msg to current subscribers, skipping any whose buffer is full.
func (b *LocalBroker) Publish(_ context.Context, reportID string, msg dto.MessageResponse) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[reportID] {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx ends or Close is called.
func (b *LocalBroker) Subscribe(ctx context.Context, reportID string) (*Subscription, error) {
	ch := make(chan dto.MessageResponse, subscriberBuffer)

	b.mu.Lock()
	if b.subs[reportID] == nil {
		b.subs[reportID] = make(map[chan dto.MessageResponse]struct{})
	}
	b.subs[reportID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[reportID], ch)
			if len(b.subs[reportID]) == 0 {
				delete(b.subs, reportID)
			}
			close(ch)
			b.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		release()
	}()

	return &Subscription{C: ch, close: release}, nil
}

func (b *LocalBroker) subscribers(reportID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[reportID])
}
