package events

import "encoding/json"

// Type classifies an announcement, mirroring the toast levels of the original
// storefront plus the structured state-change notifications.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeCart    Type = "cart"
	TypeAuth    Type = "auth"
	TypeTheme   Type = "theme"
	TypeOrder   Type = "order"
)

// Event is one announcement on the stream.
type Event struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
	// Data optionally carries a structured payload (auth snapshot, totals).
	Data interface{} `json:"data,omitempty"`
}

// NewEvent creates an event with just a message, the common case.
func NewEvent(t Type, message string) Event {
	return Event{Type: t, Message: message}
}

// Encode renders the event payload as JSON for the SSE data field.
// Encoding an event can only fail if Data holds an unmarshalable value, which
// would be a programming error; the message alone is returned in that case.
func (e Event) Encode() string {
	raw, err := json.Marshal(e)
	if err != nil {
		return `{"type":"` + string(e.Type) + `"}`
	}
	return string(raw)
}
