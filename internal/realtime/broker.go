// Package realtime fans conversation appends out to live subscribers.
package realtime

import (
	"context"

	"github.com/noah-isme/upstander-api/internal/dto"
)

const subscriberBuffer = 32

// Broker publishes conversation messages to subscribers of a report.
// Delivery is at-most-once per subscriber; clients de-duplicate by message id
// and fall back to the short-poll endpoint after reconnecting.
type Broker interface {
	Publish(ctx context.Context, reportID string, msg dto.MessageResponse) error
	Subscribe(ctx context.Context, reportID string) (*Subscription, error)
}

// Subscription is a live feed for one report. Close releases it; C is closed afterwards.
type Subscription struct {
	C     <-chan dto.MessageResponse
	close func()
}

// Close stops delivery. Safe to call more than once.
func (s *Subscription) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// Channel is the pub/sub channel name for a report's conversation.
func Channel(reportID string) string {
	return "conversation:" + reportID
}
