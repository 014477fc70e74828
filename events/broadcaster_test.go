package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())

	_, ch1 := b.Subscribe()
	_, ch2 := b.Subscribe()
	require.Equal(t, 2, b.ListenerCount())

	delivered := b.Publish(NewEvent(TypeInfo, "hello"))
	assert.Equal(t, 2, delivered)

	for _, ch := range []<-chan Event{ch1, ch2} {
		event := <-ch
		assert.Equal(t, TypeInfo, event.Type)
		assert.Equal(t, "hello", event.Message)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())

	id, _ := b.Subscribe()
	b.Unsubscribe(id)

	assert.Equal(t, 0, b.ListenerCount())
	assert.Equal(t, 0, b.Publish(NewEvent(TypeInfo, "nobody home")))
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())

	_, ch := b.Subscribe()
	for i := 0; i < cap(ch)+5; i++ {
		b.Publish(NewEvent(TypeCart, "spam"))
	}

	// The slow client lost the overflow but the broadcaster never blocked.
	assert.Len(t, ch, cap(ch))
}

func TestEventEncode(t *testing.T) {
	event := NewEvent(TypeSuccess, "Cupom aplicado! 10% de desconto")
	encoded := event.Encode()

	assert.Contains(t, encoded, `"type":"success"`)
	assert.Contains(t, encoded, "Cupom aplicado")
}
