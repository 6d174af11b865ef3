package coordinator

import (
	"LocalBoard/internal/protocol"
	"LocalBoard/internal/state"
)

// Conn is the coordinator's handle on one client connection.
// Send queues the event for delivery and must not block.
type Conn interface {
	Send(ev protocol.ServerEvent)
}

// connections is the registry of active connection handles, kept in connect order
// so fan-out is deterministic.
type connections struct {
	handles map[state.UserID]Conn
	order   []state.UserID
}

func newConnections() *connections {
	return &connections{handles: make(map[state.UserID]Conn)}
}

func (cm *connections) add(id state.UserID, conn Conn) {
	if _, exists := cm.handles[id]; !exists {
		cm.order = append(cm.order, id)
	}
	cm.handles[id] = conn
}

func (cm *connections) remove(id state.UserID) bool {
	if _, exists := cm.handles[id]; !exists {
		return false
	}
	delete(cm.handles, id)
	for i, existing := range cm.order {
		if existing == id {
			cm.order = append(cm.order[:i], cm.order[i+1:]...)
			break
		}
	}
	return true
}

func (cm *connections) get(id state.UserID) (Conn, bool) {
	conn, ok := cm.handles[id]
	return conn, ok
}

func (cm *connections) len() int {
	return len(cm.handles)
}

// broadcast sends ev to every active connection except exclude. An empty exclude reaches everyone.
func (cm *connections) broadcast(ev protocol.ServerEvent, exclude state.UserID) int {
	sent := 0
	for _, id := range cm.order {
		if id == exclude {
			continue
		}
		cm.handles[id].Send(ev)
		sent++
	}
	return sent
}
