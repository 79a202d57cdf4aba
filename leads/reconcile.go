// Package leads concentra as regras de escrita sobre leads: upsert de
// import, toque por mensagem recebida e deduplicação. Todo caminho chaveia
// por telefone normalizado dentro do tenant.
package leads

import (
	"time"

	"autoresponder/models"
	"autoresponder/tools"

	"github.com/jinzhu/gorm"
	"github.com/rotisserie/eris"
)

// UpsertImported grava um lead vindo de planilha. Se já existe lead com o
// mesmo telefone, os dados cadastrais (nome, email, status, timestamp) são
// atualizados com o que veio na linha; source "Incoming Message",
// lastRespondedAt e o histórico de envio nunca são sobrescritos por import.
func UpsertImported(db *gorm.DB, tenantID string, in models.Lead) (*models.Lead, bool, error) {
	phone := tools.CleanPhoneNumber(in.Phone)
	if phone == "" {
		return nil, false, eris.New("lead has no phone")
	}

	var existing models.Lead
	err := db.Where("tenant_id = ? AND phone = ?", tenantID, phone).First(&existing).Error
	if err != nil && !gorm.IsRecordNotFoundError(err) {
		return nil, false, eris.Wrap(err, "failed to look up lead")
	}

	if gorm.IsRecordNotFoundError(err) {
		in.TenantID = tenantID
		in.Phone = phone
		if in.Status == "" {
			in.Status = models.LEAD_STATUS_NEW
		}
		if in.Timestamp == nil {
			now := time.Now()
			in.Timestamp = &now
		}
		if err := db.Create(&in).Error; err != nil {
			return nil, false, eris.Wrap(err, "failed to create lead")
		}
		return &in, true, nil
	}

	changed := false
	if in.Name != "" && existing.Name != in.Name {
		existing.Name = in.Name
		changed = true
	}
	if in.Email != "" && existing.Email != in.Email {
		existing.Email = in.Email
		changed = true
	}
	if in.Status != "" && existing.Status != in.Status {
		existing.Status = in.Status
		changed = true
	}
	if in.Timestamp != nil && (existing.Timestamp == nil || !existing.Timestamp.Equal(*in.Timestamp)) {
		existing.Timestamp = in.Timestamp
		changed = true
	}
	if !existing.IsIncoming() && in.Source != "" && existing.Source != in.Source {
		existing.Source = in.Source
		changed = true
	}
	if changed {
		if err := db.Save(&existing).Error; err != nil {
			return nil, false, eris.Wrap(err, "failed to update lead")
		}
	}
	return &existing, false, nil
}

// TouchIncoming acha ou cria o lead de uma mensagem recebida. Sempre carimba
// lastRespondedAt; o source só sobe para "Incoming Message", nunca desce.
func TouchIncoming(db *gorm.DB, tenantID, phone string) (*models.Lead, error) {
	phone = tools.CleanPhoneNumber(phone)
	now := time.Now()

	var lead models.Lead
	err := db.Where("tenant_id = ? AND phone = ?", tenantID, phone).First(&lead).Error
	if err != nil && !gorm.IsRecordNotFoundError(err) {
		return nil, eris.Wrap(err, "failed to look up lead")
	}

	if gorm.IsRecordNotFoundError(err) {
		lead = models.Lead{
			TenantID:        tenantID,
			Name:            "WhatsApp User",
			Phone:           phone,
			Status:          models.LEAD_STATUS_NEW,
			Source:          models.LEAD_SOURCE_INCOMING,
			Timestamp:       &now,
			LastRespondedAt: &now,
		}
		if err := db.Create(&lead).Error; err != nil {
			return nil, eris.Wrap(err, "failed to create incoming lead")
		}
		return &lead, nil
	}

	lead.Source = models.LEAD_SOURCE_INCOMING
	lead.LastRespondedAt = &now
	if err := db.Save(&lead).Error; err != nil {
		return nil, eris.Wrap(err, "failed to touch lead")
	}
	return &lead, nil
}

// ReconcileStatuses ajusta o tamanho de followupStatuses ao limite do plano:
// corta excesso, completa faltantes com entradas vazias. Mudança de plano
// nunca dessincroniza o array.
func ReconcileStatuses(lead *models.Lead, followupLimit int) {
	if followupLimit < 0 {
		followupLimit = 0
	}
	statuses := lead.FollowupStatuses
	if len(statuses) > followupLimit {
		statuses = statuses[:followupLimit]
	}
	for len(statuses) < followupLimit {
		statuses = append(statuses, models.FollowupStatus{})
	}
	lead.FollowupStatuses = statuses
}
