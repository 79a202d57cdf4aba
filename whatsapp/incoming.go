package whatsapp

import (
	"context"
	"time"

	"autoresponder/funnel"
	"autoresponder/leads"
	"autoresponder/models"
	"autoresponder/quota"
	"autoresponder/realtime"
	"autoresponder/tools"

	"github.com/jinzhu/gorm"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Completer gera a resposta automática (ver tools.GroqClient). Uma chamada,
// sem retry: falha significa "sem resposta".
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userText string) (string, error)
}

// Dispatcher processa cada mensagem recebida de um tenant: reconcilia o
// lead, classifica o estágio, responde via IA dentro da cota e emite o
// evento de UI. Cada passo falha isolado: erro em um não impede os outros.
type Dispatcher struct {
	DB        *gorm.DB
	Hub       *realtime.Hub
	Gate      *quota.Gate
	Completer Completer
}

func NewDispatcher(db *gorm.DB, hub *realtime.Hub, gate *quota.Gate, completer Completer) *Dispatcher {
	return &Dispatcher{DB: db, Hub: hub, Gate: gate, Completer: completer}
}

// HandleIncoming implementa o pipeline de mensagem recebida. Chamado pelo
// run-loop da conexão, um evento por vez.
func (d *Dispatcher) HandleIncoming(ctx context.Context, tenantID string, sender Sender, env Envelope) {
	log := zap.L().With(
		zap.String("tenant", tenantID),
		zap.String("from", env.From))

	// mensagem do próprio número conectado não é lead
	if sender.SelfID() != "" && env.From == sender.SelfID() {
		return
	}

	var tenant models.Tenant
	if err := d.DB.Where("tenant_id = ?", tenantID).First(&tenant).Error; err != nil {
		log.Info("dropping message, tenant not found")
		return
	}
	if !tenant.IsActive || !tenant.IsApproved {
		log.Info("dropping message, tenant inactive or unapproved")
		return
	}

	plan, err := d.Gate.Plan(&tenant)
	if err != nil || !plan.IsActive {
		log.Info("dropping message, plan missing or inactive")
		return
	}

	phone := tools.FromWhatsAppID(env.From)

	lead, err := leads.TouchIncoming(d.DB, tenantID, phone)
	if err != nil {
		log.Error("failed to reconcile incoming lead", zap.Error(err))
		// segue: classificação e resposta não dependem do lead persistido
	}

	var settings models.Settings
	hasSettings := d.DB.Where("tenant_id = ?", tenantID).First(&settings).Error == nil

	if lead != nil {
		stage := funnel.Classify(env.Body, settings.LeadStages)
		if stage != "" {
			lead.DetectedStage = stage
			if err := d.DB.Model(&models.Lead{}).
				Where("id = ?", lead.ID).
				Update("detected_stage", stage).Error; err != nil {
				log.Error("failed to persist detected stage", zap.Error(err))
			} else {
				log.Info("lead stage detected", zap.String("stage", stage))
			}
		}
	}

	d.maybeReply(ctx, log, &tenant, sender, env, settings, hasSettings)

	if lead != nil {
		d.Hub.EmitToTenant(tenantID, realtime.Event{Type: "lead-updated", Data: lead})
	}
}

// maybeReply responde com IA se há knowledgebase e saldo de conversa. Cota
// esgotada não é erro: só não responde.
func (d *Dispatcher) maybeReply(ctx context.Context, log *zap.Logger, tenant *models.Tenant, sender Sender, env Envelope, settings models.Settings, hasSettings bool) {
	var kb models.Knowledgebase
	err := d.DB.Where("tenant_id = ?", tenant.TenantID).First(&kb).Error
	if err != nil || kb.Content == "" {
		log.Debug("no knowledgebase, skipping reply")
		return
	}

	if err := d.Gate.Allow(tenant, quota.KIND_CONVERSATION, time.Now()); err != nil {
		if eris.Is(err, quota.ErrLimitReached) {
			log.Info("conversation limit reached, skipping reply")
		} else {
			log.Error("failed to check conversation quota", zap.Error(err))
		}
		return
	}

	systemPrompt := ""
	if hasSettings {
		systemPrompt = settings.SystemPrompt
	}
	if systemPrompt == "" {
		systemPrompt = "You are a helpful customer service representative. Use this knowledge base to answer questions: " + kb.Content
	}

	reply, err := d.Completer.Complete(ctx, systemPrompt, env.Body)
	if err != nil || reply == "" {
		log.Warn("completion failed, no reply sent", zap.Error(err))
		return
	}

	if err := sender.Send(ctx, env.From, reply); err != nil {
		log.Error("failed to send reply", zap.Error(err))
		return
	}

	if err := d.Gate.Consume(tenant, quota.KIND_CONVERSATION); err != nil {
		log.Error("failed to consume conversation quota", zap.Error(err))
	}
	log.Info("sent ai reply")
}
