// Package realtime is the live notification channel: a registry of connected
// users and a websocket transport. Delivery is best effort; REST remains the
// authoritative source of state.
package realtime

import (
	"encoding/json"
	"fmt"
)

// Event names pushed to clients.
const (
	EventRegistered          = "registered"
	EventMessage             = "message"
	EventTyping              = "typing"
	EventAnnouncement        = "announcement"
	EventAnnouncementUpdated = "announcement_updated"
	EventAnnouncementDeleted = "announcement_deleted"
	EventNotification        = "notification"
	EventError               = "error"
)

// Event is a server to client frame. It serializes as a flat object
// {"event": name, ...fields of Data}.
type Event struct {
	Name string
	Data any
}

func (e Event) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}
	if e.Data != nil {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			// Not an object: nest it.
			out = map[string]json.RawMessage{"data": raw}
		}
	}
	name, err := json.Marshal(e.Name)
	if err != nil {
		return nil, err
	}
	out["event"] = name
	return json.Marshal(out)
}

// inbound is a client to server frame.
type inbound struct {
	Event      string `json:"event"`
	UserID     string `json:"user_id,omitempty"`
	ReceiverID string `json:"receiver_id,omitempty"`
	IsTyping   bool   `json:"is_typing,omitempty"`
}

func errorEvent(format string, args ...any) Event {
	return Event{Name: EventError, Data: map[string]string{"message": fmt.Sprintf(format, args...)}}
}
