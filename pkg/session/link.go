package session

import (
	"context"

	"github.com/looplab/fsm"
)

// Link lifecycle states.
const (
	LinkDisconnected = "disconnected"
	LinkConnecting   = "connecting"
	LinkDiscovering  = "discovering"
	LinkReady        = "ready"
)

// Link lifecycle events.
const (
	linkConnect    = "connect"
	linkConnected  = "connected"
	linkDiscovered = "discovered"
	linkRediscover = "rediscover"
	linkDrop       = "drop"
)

// newLink builds the link lifecycle machine. onChange is called after every
// transition.
func newLink(onChange func(from, to, event string)) *fsm.FSM {
	return fsm.NewFSM(
		LinkDisconnected,
		fsm.Events{
			{Name: linkConnect, Src: []string{LinkDisconnected}, Dst: LinkConnecting},
			{Name: linkConnected, Src: []string{LinkConnecting}, Dst: LinkDiscovering},
			{Name: linkDiscovered, Src: []string{LinkDiscovering}, Dst: LinkReady},
			{Name: linkRediscover, Src: []string{LinkReady}, Dst: LinkDiscovering},
			{Name: linkDrop, Src: []string{LinkConnecting, LinkDiscovering, LinkReady}, Dst: LinkDisconnected},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				if onChange != nil {
					onChange(e.Src, e.Dst, e.Event)
				}
			},
		},
	)
}

// fire applies event if the current state allows it.
func fire(link *fsm.FSM, event string) {
	if !link.Can(event) {
		return
	}
	_ = link.Event(context.Background(), event)
}
