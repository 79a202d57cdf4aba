package whatsapp

import "context"

/************************************************
/**** MARK: TRANSPORT EVENTS ****/
/************************************************/
type EventKind int

const (
	EVENT_QR EventKind = iota
	EVENT_READY
	EVENT_DISCONNECTED
	EVENT_AUTH_FAILURE
	EVENT_MESSAGE
)

// Envelope é uma mensagem recebida pelo transporte. Anexos não são baixados
// aqui; só a flag chega ao roteador.
type Envelope struct {
	From     string `json:"from"`
	Body     string `json:"body"`
	HasMedia bool   `json:"has_media"`
}

// Event é um evento de ciclo de vida ou mensagem vindo do transporte.
type Event struct {
	Kind    EventKind
	QR      string
	SelfID  string
	Message *Envelope
}

// Transport abstrai o cliente WhatsApp de um tenant. Uma instância por
// tenant; os eventos chegam por um único canal que o registry consome em um
// único goroutine por conexão.
type Transport interface {
	// Connect inicia a sessão (reusa credenciais em disco quando existem).
	Connect(ctx context.Context) error
	// SendMessage envia texto para um ID do transporte (ver tools.ToWhatsAppID).
	SendMessage(ctx context.Context, destID string, text string) error
	// Events entrega QR, ready, disconnected, auth failure e mensagens.
	// O canal é fechado quando o transporte morre.
	Events() <-chan Event
	Close() error
}

// Factory constrói o transporte de um tenant. Falha de construção (ex:
// gateway fora do ar) volta pro caller de Ensure; não há retry automático.
type Factory func(tenantID string) (Transport, error)

// Sender é o que o roteador de mensagens precisa de uma conexão viva.
type Sender interface {
	Send(ctx context.Context, destID string, text string) error
	SelfID() string
}

// MessageHandler recebe cada mensagem de um tenant, já com a conexão
// resolvida. Registrado exatamente uma vez por conexão, pelo registry.
type MessageHandler interface {
	HandleIncoming(ctx context.Context, tenantID string, sender Sender, env Envelope)
}
