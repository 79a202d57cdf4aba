package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// BridgeTransport fala com o gateway whatsapp-web (processo node separado)
// por HTTP: cria o cliente, envia mensagens e puxa eventos por long-poll.
// Protocolo:
//
//	POST   {base}/clients/{id}            inicia a sessão
//	GET    {base}/clients/{id}/events     long-poll, devolve lista de eventos
//	POST   {base}/clients/{id}/messages   {"to": ..., "body": ...}
//	DELETE {base}/clients/{id}            derruba a sessão
type BridgeTransport struct {
	baseURL  string
	tenantID string
	http     *http.Client

	events   chan Event
	stop     chan struct{}
	stopOnce sync.Once
}

// NewBridgeFactory devolve a Factory usada pelo registry em produção.
func NewBridgeFactory(baseURL string) Factory {
	return func(tenantID string) (Transport, error) {
		return &BridgeTransport{
			baseURL:  baseURL,
			tenantID: tenantID,
			http:     &http.Client{Timeout: 40 * time.Second},
			events:   make(chan Event, 32),
			stop:     make(chan struct{}),
		}, nil
	}
}

func (b *BridgeTransport) clientURL(suffix string) string {
	return fmt.Sprintf("%s/clients/%s%s", b.baseURL, b.tenantID, suffix)
}

func (b *BridgeTransport) Connect(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.clientURL(""), nil)
	if err != nil {
		return err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "whatsapp gateway unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return eris.Errorf("whatsapp gateway refused client: %d %s", resp.StatusCode, string(body))
	}

	go b.poll()
	return nil
}

// poll puxa eventos do gateway em loop. O long-poll do gateway segura a
// resposta por até ~30s quando não há nada.
func (b *BridgeTransport) poll() {
	defer close(b.events)

	for {
		select {
		case <-b.stop:
			return
		default:
		}

		resp, err := b.http.Get(b.clientURL("/events"))
		if err != nil {
			zap.L().Warn("event poll failed",
				zap.String("tenant", b.tenantID), zap.Error(err))
			select {
			case <-b.stop:
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		var raw []struct {
			Type   string    `json:"type"`
			QR     string    `json:"qr"`
			SelfID string    `json:"self_id"`
			Msg    *Envelope `json:"message"`
		}
		err = json.NewDecoder(resp.Body).Decode(&raw)
		resp.Body.Close()
		if err != nil {
			zap.L().Warn("bad event payload from gateway",
				zap.String("tenant", b.tenantID), zap.Error(err))
			continue
		}

		for _, ev := range raw {
			out, ok := b.translate(ev.Type, ev.QR, ev.SelfID, ev.Msg)
			if !ok {
				continue
			}
			select {
			case b.events <- out:
			case <-b.stop:
				return
			}
			// sessão morreu: para de puxar
			if out.Kind == EVENT_DISCONNECTED || out.Kind == EVENT_AUTH_FAILURE {
				return
			}
		}
	}
}

func (b *BridgeTransport) translate(typ, qr, selfID string, msg *Envelope) (Event, bool) {
	switch typ {
	case "qr":
		return Event{Kind: EVENT_QR, QR: qr}, true
	case "ready":
		return Event{Kind: EVENT_READY, SelfID: selfID}, true
	case "disconnected":
		return Event{Kind: EVENT_DISCONNECTED}, true
	case "auth_failure":
		return Event{Kind: EVENT_AUTH_FAILURE}, true
	case "message":
		if msg == nil {
			return Event{}, false
		}
		return Event{Kind: EVENT_MESSAGE, Message: msg}, true
	}
	return Event{}, false
}

func (b *BridgeTransport) SendMessage(ctx context.Context, destID string, text string) error {
	payload, _ := json.Marshal(map[string]string{"to": destID, "body": text})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.clientURL("/messages"), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "failed to reach whatsapp gateway")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return eris.Errorf("send rejected by gateway: %d %s", resp.StatusCode, string(body))
	}
	return nil
}

func (b *BridgeTransport) Events() <-chan Event {
	return b.events
}

func (b *BridgeTransport) Close() error {
	b.stopOnce.Do(func() { close(b.stop) })

	req, err := http.NewRequest(http.MethodDelete, b.clientURL(""), nil)
	if err != nil {
		return err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "failed to tear down gateway client")
	}
	resp.Body.Close()
	return nil
}
