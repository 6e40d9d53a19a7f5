package websocket

import (
	"encoding/json"
	"sync"
)

// TransactionUpdate is pushed to dashboards after a state transition commits.
// It always carries the authoritative post-state so clients never guess.
type TransactionUpdate struct {
	TransactionID string `json:"transaction_id"`
	Reference     string `json:"reference"`
	Type          int    `json:"type"`
	Status        int    `json:"status"`
	StatusLabel   string `json:"status_label"`
	Amount        string `json:"amount"`
	FromAccountID string `json:"from_account_id,omitempty"`
	ToAccountID   string `json:"to_account_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Hub fans transaction updates out to subscribed clients. Subscription keys
// are either a user ID or a branch channel ("branch:<id>") used by manager
// dashboards.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func BranchChannel(branchID string) string {
	return "branch:" + branchID
}

func (h *Hub) Register(key string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[key] == nil {
		h.clients[key] = make(map[*Client]struct{})
	}
	h.clients[key][client] = struct{}{}
}

func (h *Hub) Unregister(key string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[key] == nil {
		return
	}
	delete(h.clients[key], client)
	if len(h.clients[key]) == 0 {
		delete(h.clients, key)
	}
}

func (h *Hub) BroadcastTransaction(keys []string, update TransactionUpdate) {
	payload, _ := json.Marshal(update)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, key := range keys {
		for client := range h.clients[key] {
			select {
			case client.send <- payload:
			default:
			}
		}
	}
}
