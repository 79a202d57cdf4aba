package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// Event é um evento de UI empurrado por SSE (qr, ready, disconnected,
// message, lead-updated...).
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type subscriber struct {
	tenantID string
	ch       chan Event
}

// Hub distribui eventos por tenant para os assinantes SSE conectados.
// Emissão nunca bloqueia: assinante lento perde eventos (a UI sempre
// reconsulta o estado via REST de qualquer forma).
type Hub struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Subscribe registra um assinante para os eventos de um tenant. O cancel
// devolvido remove o assinante e fecha o canal; chamar exatamente uma vez.
func (h *Hub) Subscribe(tenantID string) (<-chan Event, func()) {
	s := &subscriber{tenantID: tenantID, ch: make(chan Event, 16)}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[s]; ok {
			delete(h.subs, s)
			close(s.ch)
		}
		h.mu.Unlock()
	}
	return s.ch, cancel
}

// EmitToTenant entrega o evento a todos os assinantes do tenant, descartando
// para quem está com o buffer cheio.
func (h *Hub) EmitToTenant(tenantID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs {
		if s.tenantID != tenantID {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			zap.L().Debug("dropping realtime event, slow subscriber",
				zap.String("tenant", tenantID),
				zap.String("type", ev.Type))
		}
	}
}

// SubscriberCount é usado em testes e no endpoint de status.
func (h *Hub) SubscriberCount(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for s := range h.subs {
		if s.tenantID == tenantID {
			n++
		}
	}
	return n
}
