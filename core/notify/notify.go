package notify

import (
	"log"
	"sync"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
)

// NotificationType represents the kind of notification to send
type NotificationType string

const (
	NotifyAdmin NotificationType = "admin"
	NotifyUser  NotificationType = "user"
)

// Notification is an operator alert, e.g. a failed integrity check.
type Notification struct {
	Subject   string
	Reason    string
	Type      NotificationType
	Recipient string
}

// Notify logs an operator alert.
func Notify(n Notification) {
	log.Printf("[NOTIFY] To: %s | Type: %s | Subject: %s | Reason: %s", n.Recipient, n.Type, n.Subject, n.Reason)
}

// Hub fans appended blocks out to subscribers. A subscriber that is not
// keeping up misses blocks instead of stalling the ledger.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan block.Block
	nextID int
	buffer int
}

// NewHub creates a hub whose subscriber channels hold buffer blocks.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: map[int]chan block.Block{}, buffer: buffer}
}

// Subscribe returns a channel of appended blocks and a func that ends the
// subscription and closes the channel.
func (h *Hub) Subscribe() (<-chan block.Block, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan block.Block, h.buffer)
	h.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers b to every subscriber without blocking.
func (h *Hub) Publish(b block.Block) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- b:
		default:
			log.Printf("[NOTIFY] subscriber %d lagging, dropped block %d", id, b.Index)
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
