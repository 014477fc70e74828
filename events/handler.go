package events

import (
	"fmt"
	"net/http"
	"time"
)

// Handler streams the announcement feed to a client as Server-Sent Events.
type Handler struct {
	broadcaster *Broadcaster
}

// NewHandler creates a Handler on top of the given broadcaster.
func NewHandler(broadcaster *Broadcaster) *Handler {
	return &Handler{broadcaster: broadcaster}
}

// HandleStream godoc
// @Summary Announcement event stream
// @Description Streams storefront announcements (cart, auth, theme, orders) as Server-Sent Events.
// @Tags Events
// @Produce text/event-stream
// @Router /eventos [get]
func (h *Handler) HandleStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		// Long-lived stream; the server's write timeout must not apply.
		rc := http.NewResponseController(w)
		_ = rc.SetWriteDeadline(time.Time{})

		id, ch := h.broadcaster.Subscribe()
		defer h.broadcaster.Unsubscribe(id)

		// Initial comment line so proxies and clients see the stream is live.
		fmt.Fprintf(w, ": connected %s\n\n", id)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case event, open := <-ch:
				if !open {
					return
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Encode())
				flusher.Flush()
			}
		}
	}
}
