package events

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHandleStreamWritesEvents(t *testing.T) {
	bus := NewBroadcaster(zap.NewNop())
	handler := NewHandler(bus)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/eventos", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.HandleStream().ServeHTTP(rec, req)
		close(done)
	}()

	// Wait for the subscription before publishing.
	assert.Eventually(t, func() bool { return bus.ListenerCount() == 1 }, time.Second, 5*time.Millisecond)

	bus.Publish(NewEvent(TypeCart, "Mochila adicionada ao carrinho"))

	// Give the stream a moment to drain the channel, then end the request.
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, ": connected")
	assert.Contains(t, body, "event: cart")
	assert.Contains(t, body, "Mochila adicionada ao carrinho")

	// The client was unsubscribed on exit.
	assert.Equal(t, 0, bus.ListenerCount())
}
