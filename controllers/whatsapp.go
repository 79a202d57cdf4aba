package controllers

import (
	"io"
	"net/http"
	"time"

	dbpkg "autoresponder/db"
	"autoresponder/models"
	"autoresponder/whatsapp"

	"github.com/gin-gonic/gin"
)

const qrWaitTimeout = 30 * time.Second

// GetWhatsappQR sobe a conexão se preciso e devolve o QR pra escanear, ou
// "already_connected". Sem QR em 30s responde 408 e o front tenta de novo.
func GetWhatsappQR(c *gin.Context) {
	if registry == nil {
		RespondError(c, "registry não configurado", http.StatusInternalServerError)
		return
	}

	res, err := registry.RequestChallenge(c.Request.Context(), c.Param("tenantId"), qrWaitTimeout)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	switch res.Status {
	case whatsapp.CHALLENGE_ALREADY_CONNECTED:
		RespondSuccess(c, gin.H{"status": "ready", "message": "WhatsApp já conectado"})
	case whatsapp.CHALLENGE_QR:
		RespondSuccess(c, gin.H{"status": "qr", "qr": res.QR, "message": "Escaneie o QR no WhatsApp"})
	default:
		RespondError(c, "timeout aguardando QR", http.StatusRequestTimeout)
	}
}

// GetWhatsappStatus é o endpoint de polling do frontend.
func GetWhatsappStatus(c *gin.Context) {
	db := dbpkg.DBInstance(c)

	var tenant models.Tenant
	if err := db.Where("tenant_id = ?", c.Param("tenantId")).First(&tenant).Error; err != nil {
		RespondError(c, "tenant não encontrado", http.StatusNotFound)
		return
	}

	status := "not_ready"
	state := ""
	if conn, ok := registry.Get(tenant.TenantID); ok {
		s, _ := conn.Snapshot()
		state = s.String()
		if conn.Ready() {
			status = "ready"
		}
	} else if tenant.WhatsappReady {
		// flag persistida desatualizada (ex: processo reiniciou)
		status = "not_ready"
	}

	RespondSuccess(c, gin.H{"status": status, "state": state})
}

// StreamEvents entrega os eventos do tenant por SSE (qr, whatsapp-ready,
// lead-updated...). Fecha quando o cliente desconecta.
func StreamEvents(c *gin.Context) {
	if hub == nil {
		RespondError(c, "hub não configurado", http.StatusInternalServerError)
		return
	}

	events, cancel := hub.Subscribe(c.Param("tenantId"))
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// keepalive evita proxies derrubarem a conexão parada
	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev.Data)
			return true
		case <-keepalive.C:
			c.SSEvent("ping", nil)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
