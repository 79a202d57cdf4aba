package workers

import (
	"context"
	"strings"
	"time"

	"autoresponder/leads"
	"autoresponder/models"
	"autoresponder/quota"
	"autoresponder/tools"

	"github.com/jinzhu/gorm"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FollowupSweeper percorre os leads de um tenant e envia os passos de
// follow-up vencidos, respeitando a escadinha de skips (ver skipLead e
// stepDue). Um passo que falha fica marcado como failed e volta a ser
// tentado no próximo sweep; cota só é consumida em envio confirmado.
type FollowupSweeper struct {
	DB      *gorm.DB
	Gate    *quota.Gate
	Senders SenderProvider
}

func (fs *FollowupSweeper) Sweep(ctx context.Context, tenant *models.Tenant) error {
	log := zap.L().With(zap.String("tenant", tenant.TenantID))

	var settings models.Settings
	if err := fs.DB.Where("tenant_id = ?", tenant.TenantID).First(&settings).Error; err != nil {
		log.Info("no settings, skipping followup sweep")
		return nil
	}

	plan, err := fs.Gate.Plan(tenant)
	if err != nil {
		log.Info("no plan, skipping followup sweep")
		return nil
	}

	sender, ok := fs.Senders(tenant.TenantID)
	if !ok {
		log.Info("whatsapp not ready, skipping followup sweep")
		return nil
	}

	templates := settings.FollowupMessages
	delays := settings.FollowupDelaysMs
	limit := int(plan.FollowupLimit)
	if limit <= 0 {
		limit = 3
	}
	if len(templates) < limit {
		log.Warn("fewer followup templates than plan allows",
			zap.Int("templates", len(templates)), zap.Int("limit", limit))
	}
	stepCount := limit
	if len(templates) < stepCount {
		stepCount = len(templates)
	}

	var all []models.Lead
	err = fs.DB.
		Where("tenant_id = ? AND initial_message_sent = ?", tenant.TenantID, true).
		Order("timestamp desc").
		Find(&all).Error
	if err != nil {
		return eris.Wrap(err, "failed to list leads for followup sweep")
	}

	for i := range all {
		lead := &all[i]

		if skipLead(lead, &settings) {
			continue
		}

		leads.ReconcileStatuses(lead, limit)

		for idx := 0; idx < stepCount; idx++ {
			if !stepDue(lead, idx, templates[idx], delayAt(delays, idx), time.Now()) {
				continue
			}

			if err := fs.Gate.Allow(tenant, quota.KIND_FOLLOWUP, time.Now()); err != nil {
				if eris.Is(err, quota.ErrLimitReached) {
					log.Info("followup limit reached, ending sweep")
					return nil
				}
				return err
			}

			waID := tools.ToWhatsAppID(lead.Phone)
			if sender.SelfID() != "" && waID == sender.SelfID() {
				continue
			}

			text := RenderTemplate(templates[idx], lead.Name)
			sentAt := time.Now()

			if err := sender.Send(ctx, waID, text); err != nil {
				lead.FollowupStatuses[idx] = models.FollowupStatus{
					Sent: false, Timestamp: &sentAt, Failed: true, Error: err.Error(),
				}
				fs.persistStatuses(lead, log)
				log.Error("followup send failed",
					zap.String("phone", lead.Phone), zap.Int("step", idx+1), zap.Error(err))
				continue
			}

			lead.FollowupStatuses[idx] = models.FollowupStatus{
				Sent: true, Timestamp: &sentAt, Failed: false,
			}
			fs.persistStatuses(lead, log)
			if err := fs.Gate.Consume(tenant, quota.KIND_FOLLOWUP); err != nil {
				log.Error("failed to consume followup quota", zap.Error(err))
			}
			log.Info("sent followup",
				zap.String("phone", lead.Phone), zap.Int("step", idx+1))
		}
	}
	return nil
}

func (fs *FollowupSweeper) persistStatuses(lead *models.Lead, log *zap.Logger) {
	err := fs.DB.Model(&models.Lead{}).
		Where("id = ?", lead.ID).
		Update("followup_statuses", lead.FollowupStatuses).Error
	if err != nil {
		log.Error("failed to persist followup statuses", zap.Error(err))
	}
}

// skipLead aplica as condições que cortam o lead inteiro do sweep, na ordem:
// respondeu depois da inicial (corte permanente), respondeu depois do último
// follow-up enviado, lead de incoming com o toggle desligado, follow-up não
// habilitado nem no lead nem globalmente.
func skipLead(lead *models.Lead, settings *models.Settings) bool {
	if lead.RespondedAfterInitial() {
		return true
	}

	lastSent := lead.InitialMessageTimestamp
	if lastSent == nil {
		lastSent = lead.Timestamp
	}
	for _, st := range lead.FollowupStatuses {
		if st.Sent && st.Timestamp != nil && (lastSent == nil || st.Timestamp.After(*lastSent)) {
			lastSent = st.Timestamp
		}
	}
	if lead.LastRespondedAt != nil && lastSent != nil && lead.LastRespondedAt.After(*lastSent) {
		return true
	}

	if lead.IsIncoming() && !settings.AutoFollowupForIncoming {
		return true
	}
	if !lead.AutoFollowupEnabled && !settings.GlobalAutoFollowupEnabled {
		return true
	}
	return false
}

// stepDue decide se o passo idx vence agora. Template em branco nunca envia
// (e trava a base dos passos seguintes, de propósito); passo anterior não
// enviado não tem base computável.
func stepDue(lead *models.Lead, idx int, template string, delayMs int64, now time.Time) bool {
	if strings.TrimSpace(template) == "" {
		return false
	}
	if idx < len(lead.FollowupStatuses) && lead.FollowupStatuses[idx].Sent {
		return false
	}

	base := lead.InitialMessageTimestamp
	if idx > 0 {
		prev := lead.FollowupStatuses[idx-1]
		if !prev.Sent || prev.Timestamp == nil {
			return false
		}
		base = prev.Timestamp
	}
	if base == nil {
		return false
	}

	due := base.Add(time.Duration(delayMs) * time.Millisecond)
	return !now.Before(due)
}

func delayAt(delays models.Int64List, idx int) int64 {
	if idx < len(delays) {
		return delays[idx]
	}
	return 0
}
