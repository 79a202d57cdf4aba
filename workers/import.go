package workers

import (
	"context"
	"strings"
	"time"

	"autoresponder/leads"
	"autoresponder/models"
	"autoresponder/quota"
	"autoresponder/tools"
	"autoresponder/whatsapp"

	"github.com/jinzhu/gorm"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// SenderProvider resolve a conexão pronta de um tenant, ou nada quando não
// dá pra enviar agora. Em produção é um adapter sobre o registry.
type SenderProvider func(tenantID string) (whatsapp.Sender, bool)

// Importer roda o pipeline de import-e-envio de um tenant: lê a planilha,
// upserta os leads e dispara a mensagem inicial pro batch que a cota ainda
// permite, sequencialmente e com delay entre envios.
type Importer struct {
	DB        *gorm.DB
	Gate      *quota.Gate
	Senders   SenderProvider
	ImportDir string
}

func (im *Importer) Run(ctx context.Context, tenant *models.Tenant) error {
	log := zap.L().With(zap.String("tenant", tenant.TenantID))
	now := time.Now()

	if err := im.Gate.Allow(tenant, quota.KIND_INITIAL, now); err != nil {
		if eris.Is(err, quota.ErrLimitReached) {
			log.Info("initial message limit reached, skipping import batch")
			return nil
		}
		return err
	}

	var settings models.Settings
	if err := im.DB.Where("tenant_id = ?", tenant.TenantID).First(&settings).Error; err != nil {
		s := models.NewSettings(tenant.TenantID)
		settings = *s
	}

	if tenant.SheetPath != "" {
		if err := im.importSheet(tenant, log); err != nil {
			// planilha quebrada não impede o envio do que já está na base
			log.Error("lead sheet import failed", zap.Error(err))
		}
	}

	remaining, err := im.Gate.Remaining(tenant, quota.KIND_INITIAL, now)
	if err != nil {
		return err
	}
	batch := int64(settings.BatchSize)
	if batch < 1 {
		batch = 1
	}
	if batch > remaining {
		batch = remaining
	}
	if batch == 0 {
		return nil
	}

	sender, ok := im.Senders(tenant.TenantID)
	if !ok {
		log.Info("whatsapp not ready, skipping initial sends")
		return nil
	}

	// leads de contato espontâneo e quem já respondeu nunca recebem a
	// mensagem fria de abertura
	var pending []models.Lead
	err = im.DB.
		Where("tenant_id = ? AND initial_message_sent = ?", tenant.TenantID, false).
		Where("source <> ?", models.LEAD_SOURCE_INCOMING).
		Where("last_responded_at IS NULL").
		Order("timestamp desc").
		Limit(batch).
		Find(&pending).Error
	if err != nil {
		return eris.Wrap(err, "failed to list pending leads")
	}

	delay := time.Duration(settings.MessageDelayMs) * time.Millisecond
	template := settings.Template()

	for i := range pending {
		lead := &pending[i]

		if err := im.Gate.Allow(tenant, quota.KIND_INITIAL, time.Now()); err != nil {
			break
		}

		waID := tools.ToWhatsAppID(lead.Phone)
		if sender.SelfID() != "" && waID == sender.SelfID() {
			continue
		}

		text := RenderTemplate(template, lead.Name)
		if err := sender.Send(ctx, waID, text); err != nil {
			log.Error("failed to send initial message",
				zap.String("phone", lead.Phone), zap.Error(err))
			continue
		}

		sentAt := time.Now()
		err = im.DB.Model(&models.Lead{}).
			Where("id = ?", lead.ID).
			Updates(map[string]interface{}{
				"initial_message_sent":      true,
				"initial_message_timestamp": sentAt,
			}).Error
		if err != nil {
			log.Error("failed to mark initial send", zap.Error(err))
		}
		if err := im.Gate.Consume(tenant, quota.KIND_INITIAL); err != nil {
			log.Error("failed to consume initial quota", zap.Error(err))
		}
		log.Info("sent initial message", zap.String("phone", lead.Phone))

		if i < len(pending)-1 && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (im *Importer) importSheet(tenant *models.Tenant, log *zap.Logger) error {
	rows, err := ReadLeadSheet(im.ImportDir, tenant.SheetPath)
	if err != nil {
		return err
	}
	created := 0
	for _, row := range rows {
		_, isNew, err := leads.UpsertImported(im.DB, tenant.TenantID, row)
		if err != nil {
			log.Warn("skipping bad sheet row",
				zap.String("phone", row.Phone), zap.Error(err))
			continue
		}
		if isNew {
			created++
		}
	}
	if created > 0 {
		log.Info("imported leads from sheet", zap.Int("created", created))
	}
	return nil
}

// RenderTemplate substitui {name} no template, com fallback "there".
func RenderTemplate(template, name string) string {
	if name == "" {
		name = "there"
	}
	return strings.ReplaceAll(template, "{name}", name)
}
