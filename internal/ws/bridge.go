package ws

import (
	"encoding/json"
	"log"

	"github.com/zentrais/zentrais-api/internal/emitter"
)

// BridgeEmitter forwards every bus event to connected WebSocket clients as a
// {"type", "threadId", "data"} frame. Returns the subscriptions so a caller
// can detach the bridge again.
func BridgeEmitter(e *emitter.Emitter, hub *Hub) []*emitter.Subscription {
	events := []string{
		emitter.EventNewPost,
		emitter.EventVoteUpdate,
		emitter.EventSubscribe,
		emitter.EventUnsubscribe,
	}
	subs := make([]*emitter.Subscription, 0, len(events))
	for _, name := range events {
		subs = append(subs, e.On(name, func(ev emitter.Event) {
			frame, err := json.Marshal(ev)
			if err != nil {
				log.Printf("ws: marshalling %s event: %v", ev.Name, err)
				return
			}
			hub.Broadcast <- frame
		}))
	}
	return subs
}
