package whatsapp

import (
	"context"
	"sync"
)

/************************************************
/**** MARK: CONNECTION STATES ****/
/************************************************/
type State int

const (
	STATE_INITIALIZING State = iota
	STATE_QR_PENDING
	STATE_READY
	STATE_DESTROYED
)

func (s State) String() string {
	switch s {
	case STATE_INITIALIZING:
		return "initializing"
	case STATE_QR_PENDING:
		return "qr_pending"
	case STATE_READY:
		return "ready"
	case STATE_DESTROYED:
		return "destroyed"
	}
	return "unknown"
}

/************************************************
/**** MARK: CHALLENGE RESULTS ****/
/************************************************/
const CHALLENGE_ALREADY_CONNECTED = "already_connected"
const CHALLENGE_QR = "qr"
const CHALLENGE_TIMEOUT = "timeout"

// ChallengeResult é a resposta de RequestChallenge: ou já conectado, ou um
// QR para escanear, ou timeout.
type ChallengeResult struct {
	Status string `json:"status"`
	QR     string `json:"qr,omitempty"`
}

// Conn é a conexão viva de um tenant. O estado só é mutado pelo run-loop do
// registry; leitores usam Snapshot.
type Conn struct {
	tenantID string
	tr       Transport

	mu      sync.Mutex
	state   State
	lastQR  string
	selfID  string
	waiters []chan ChallengeResult

	stop     chan struct{}
	stopOnce sync.Once
}

func newConn(tenantID string, tr Transport) *Conn {
	return &Conn{
		tenantID: tenantID,
		tr:       tr,
		state:    STATE_INITIALIZING,
		stop:     make(chan struct{}),
	}
}

func (c *Conn) TenantID() string { return c.tenantID }

// Snapshot devolve estado e último QR de forma consistente.
func (c *Conn) Snapshot() (State, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.lastQR
}

// Ready indica se a conexão pode enviar mensagens agora.
func (c *Conn) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == STATE_READY
}

// SelfID é o ID do próprio número conectado (vazio até o ready).
func (c *Conn) SelfID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selfID
}

// Send envia pelo transporte subjacente.
func (c *Conn) Send(ctx context.Context, destID string, text string) error {
	return c.tr.SendMessage(ctx, destID, text)
}

// addWaiter registra interesse no próximo QR ou ready. O canal recebe no
// máximo um resultado.
func (c *Conn) addWaiter() chan ChallengeResult {
	ch := make(chan ChallengeResult, 1)
	c.mu.Lock()
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()
	return ch
}

// notifyWaiters entrega o resultado a todos os waiters pendentes e limpa a
// lista. Canais são buffered, nunca bloqueia.
func (c *Conn) notifyWaiters(res ChallengeResult) {
	c.mu.Lock()
	ws := c.waiters
	c.waiters = nil
	c.mu.Unlock()
	for _, w := range ws {
		w <- res
	}
}

func (c *Conn) setQR(qr string) {
	c.mu.Lock()
	c.state = STATE_QR_PENDING
	c.lastQR = qr
	c.mu.Unlock()
}

func (c *Conn) setReady(selfID string) {
	c.mu.Lock()
	c.state = STATE_READY
	c.lastQR = ""
	c.selfID = selfID
	c.mu.Unlock()
}

func (c *Conn) destroy() {
	c.mu.Lock()
	c.state = STATE_DESTROYED
	c.lastQR = ""
	c.mu.Unlock()
	c.stopOnce.Do(func() { close(c.stop) })
}
