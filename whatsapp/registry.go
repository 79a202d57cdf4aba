package whatsapp

import (
	"context"
	"sync"
	"time"

	"autoresponder/models"
	"autoresponder/realtime"

	"github.com/jinzhu/gorm"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// qrRebroadcastInterval: um QR parado é re-emitido pro frontend nesse
// intervalo até alguém escanear.
const qrRebroadcastInterval = 30 * time.Second

// destroyGracePeriod: tempo dado ao transporte pra soltar os arquivos de
// sessão antes da remoção forçada.
const destroyGracePeriod = 2 * time.Second

// Registry mantém no máximo uma conexão viva por tenant. Toda mutação do
// mapa passa por aqui; o run-loop (um goroutine por conexão) é o único lugar
// que consome eventos do transporte, então o handler de mensagem é anexado
// exatamente uma vez por conexão por construção.
type Registry struct {
	db         *gorm.DB
	hub        *realtime.Hub
	factory    Factory
	sessionDir string

	handler MessageHandler

	mu    sync.RWMutex
	conns map[string]*Conn

	init singleflight.Group
}

func NewRegistry(db *gorm.DB, hub *realtime.Hub, factory Factory, sessionDir string) *Registry {
	return &Registry{
		db:         db,
		hub:        hub,
		factory:    factory,
		sessionDir: sessionDir,
		conns:      make(map[string]*Conn),
	}
}

// SetMessageHandler registra o destino das mensagens recebidas. Chamar antes
// de qualquer Ensure.
func (r *Registry) SetMessageHandler(h MessageHandler) {
	r.handler = h
}

// Get devolve a conexão do tenant, se existir.
func (r *Registry) Get(tenantID string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[tenantID]
	return c, ok
}

// Ensure é idempotente: devolve a conexão existente ou cria uma nova e inicia
// seu run-loop. Chamadas concorrentes pro mesmo tenant colapsam em uma única
// inicialização (singleflight por tenant, sem lock global segurado durante o
// connect). Falha de construção deixa o tenant sem entrada; retry é do caller.
func (r *Registry) Ensure(tenantID string) (*Conn, error) {
	if c, ok := r.Get(tenantID); ok {
		return c, nil
	}

	v, err, _ := r.init.Do(tenantID, func() (interface{}, error) {
		if c, ok := r.Get(tenantID); ok {
			return c, nil
		}

		tr, err := r.factory(tenantID)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to build transport for tenant %s", tenantID)
		}

		conn := newConn(tenantID, tr)
		if err := tr.Connect(context.Background()); err != nil {
			tr.Close()
			return nil, eris.Wrapf(err, "failed to connect tenant %s", tenantID)
		}

		r.mu.Lock()
		r.conns[tenantID] = conn
		r.mu.Unlock()

		go r.run(conn)

		zap.L().Info("whatsapp connection started", zap.String("tenant", tenantID))
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Conn), nil
}

// EnsureAll sobe as conexões de todos os tenants ativos no boot. Falha de um
// tenant não derruba os outros.
func (r *Registry) EnsureAll() {
	var tenants []models.Tenant
	if err := r.db.Where("is_active = ?", true).Find(&tenants).Error; err != nil {
		zap.L().Error("failed to list active tenants", zap.Error(err))
		return
	}
	for _, t := range tenants {
		if _, err := r.Ensure(t.TenantID); err != nil {
			zap.L().Error("failed to initialize tenant connection",
				zap.String("tenant", t.TenantID), zap.Error(err))
		}
	}
}

// RequestChallenge devolve "already_connected" se pronto, o QR corrente se
// já existe um pendente, ou espera o próximo QR/ready até o timeout.
func (r *Registry) RequestChallenge(ctx context.Context, tenantID string, timeout time.Duration) (ChallengeResult, error) {
	conn, err := r.Ensure(tenantID)
	if err != nil {
		return ChallengeResult{}, err
	}

	state, qr := conn.Snapshot()
	switch state {
	case STATE_READY:
		return ChallengeResult{Status: CHALLENGE_ALREADY_CONNECTED}, nil
	case STATE_QR_PENDING:
		if qr != "" {
			return ChallengeResult{Status: CHALLENGE_QR, QR: qr}, nil
		}
	}

	ch := conn.addWaiter()
	select {
	case res := <-ch:
		return res, nil
	case <-time.After(timeout):
		return ChallengeResult{Status: CHALLENGE_TIMEOUT}, nil
	case <-ctx.Done():
		return ChallengeResult{}, ctx.Err()
	}
}

// Destroy derruba a conexão do tenant e apaga a sessão em disco. No-op se
// não há conexão (mas a sessão órfã ainda é removida).
func (r *Registry) Destroy(tenantID string) {
	r.mu.Lock()
	conn, ok := r.conns[tenantID]
	if ok {
		delete(r.conns, tenantID)
	}
	r.mu.Unlock()

	if ok {
		conn.destroy()
		if err := conn.tr.Close(); err != nil {
			zap.L().Warn("transport close failed",
				zap.String("tenant", tenantID), zap.Error(err))
		}
		// dá tempo do transporte soltar os arquivos antes do rm
		time.Sleep(destroyGracePeriod)
	}

	ClearSession(r.sessionDir, tenantID)
	r.setWhatsappReady(tenantID, false)
	zap.L().Info("whatsapp connection destroyed", zap.String("tenant", tenantID))
}

// run é o único consumidor de eventos de uma conexão.
func (r *Registry) run(conn *Conn) {
	log := zap.L().With(zap.String("tenant", conn.tenantID))

	rebroadcast := time.NewTicker(qrRebroadcastInterval)
	defer rebroadcast.Stop()

	for {
		select {
		case <-conn.stop:
			return

		case <-rebroadcast.C:
			if state, qr := conn.Snapshot(); state == STATE_QR_PENDING && qr != "" {
				log.Debug("re-emitting qr challenge")
				r.hub.EmitToTenant(conn.tenantID, realtime.Event{Type: "qr", Data: qr})
			}

		case ev, ok := <-conn.tr.Events():
			if !ok {
				return
			}
			switch ev.Kind {
			case EVENT_QR:
				conn.setQR(ev.QR)
				conn.notifyWaiters(ChallengeResult{Status: CHALLENGE_QR, QR: ev.QR})
				r.hub.EmitToTenant(conn.tenantID, realtime.Event{Type: "qr", Data: ev.QR})
				log.Info("qr challenge received, waiting for scan")

			case EVENT_READY:
				conn.setReady(ev.SelfID)
				conn.notifyWaiters(ChallengeResult{Status: CHALLENGE_ALREADY_CONNECTED})
				r.setWhatsappReady(conn.tenantID, true)
				r.hub.EmitToTenant(conn.tenantID, realtime.Event{Type: "whatsapp-ready"})
				log.Info("whatsapp ready", zap.String("self", ev.SelfID))

			case EVENT_DISCONNECTED, EVENT_AUTH_FAILURE:
				if ev.Kind == EVENT_AUTH_FAILURE {
					log.Warn("whatsapp auth failure")
				} else {
					log.Info("whatsapp disconnected")
				}
				r.setWhatsappReady(conn.tenantID, false)
				r.hub.EmitToTenant(conn.tenantID, realtime.Event{Type: "whatsapp-disconnected"})

				r.mu.Lock()
				if r.conns[conn.tenantID] == conn {
					delete(r.conns, conn.tenantID)
				}
				r.mu.Unlock()

				conn.destroy()
				conn.tr.Close()
				ClearSession(r.sessionDir, conn.tenantID)
				return

			case EVENT_MESSAGE:
				if r.handler == nil || ev.Message == nil {
					continue
				}
				// processamento sequencial por tenant, de propósito: o
				// check-then-consume de cota nunca corre consigo mesmo
				r.handler.HandleIncoming(context.Background(), conn.tenantID, conn, *ev.Message)
			}
		}
	}
}

func (r *Registry) setWhatsappReady(tenantID string, ready bool) {
	err := r.db.Model(&models.Tenant{}).
		Where("tenant_id = ?", tenantID).
		Update("whatsapp_ready", ready).Error
	if err != nil {
		zap.L().Error("failed to persist whatsapp_ready",
			zap.String("tenant", tenantID), zap.Error(err))
	}
}
