package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/upstander-api/internal/dto"
)

func TestLocalBrokerDeliversToReportSubscribers(t *testing.T) {
	b := NewLocalBroker()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "r1")
	require.NoError(t, err)
	defer sub.Close()
	other, err := b.Subscribe(ctx, "r2")
	require.NoError(t, err)
	defer other.Close()

	require.NoError(t, b.Publish(ctx, "r1", dto.MessageResponse{ID: "m1", Text: "hello"}))

	select {
	case msg := <-sub.C:
		assert.Equal(t, "m1", msg.ID)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
	select {
	case msg := <-other.C:
		t.Fatalf("unexpected delivery to other report: %v", msg)
	default:
	}
}

func TestLocalBrokerReleasesOnContextCancel(t *testing.T) {
	b := NewLocalBroker()
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := b.Subscribe(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, b.subscribers("r1"))

	cancel()
	_, open := <-sub.C
	assert.False(t, open)
	assert.Equal(t, 0, b.subscribers("r1"))
	sub.Close()
}

func TestLocalBrokerSkipsSlowSubscriber(t *testing.T) {
	b := NewLocalBroker()
	sub, err := b.Subscribe(context.Background(), "r1")
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < subscriberBuffer+5; i++ {
		require.NoError(t, b.Publish(context.Background(), "r1", dto.MessageResponse{ID: "m"}))
	}
	assert.Len(t, sub.C, subscriberBuffer)
}
