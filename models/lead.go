package models

import (
	"time"

	"autoresponder/tools"
)

/************************************************
/**** MARK: LEAD STATUS ****/
/************************************************/
const LEAD_STATUS_NEW = "New"
const LEAD_STATUS_COLD = "Cold"
const LEAD_STATUS_WARM = "Warm"
const LEAD_STATUS_HOT = "Hot"
const LEAD_STATUS_CONVERTED = "Converted"

// LEAD_SOURCE_INCOMING marca leads criados (ou promovidos) por contato
// espontâneo no WhatsApp. Nunca é rebaixado de volta para source de import.
const LEAD_SOURCE_INCOMING = "Incoming Message"

// Lead representa um contato de um tenant, chaveado logicamente por telefone
// normalizado (único por tenant).
type Lead struct {
	ID       int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TenantID string `gorm:"not null;index" json:"tenant_id"`

	Name   string `gorm:"not null" json:"name" form:"name"`
	Phone  string `gorm:"not null;index" json:"phone" form:"phone"`
	Email  string `gorm:"default:''" json:"email" form:"email"`
	Status string `gorm:"not null;default:'New'" json:"status" form:"status"`
	Source string `gorm:"default:''" json:"source" form:"source"`

	Timestamp *time.Time `json:"timestamp"`

	InitialMessageSent      bool       `gorm:"not null;default:false" json:"initial_message_sent"`
	InitialMessageTimestamp *time.Time `json:"initial_message_timestamp"`

	FollowupStatuses FollowupStatusList `gorm:"type:text" json:"followup_statuses"`

	Notes               string     `gorm:"type:text" json:"notes" form:"notes"`
	AutoFollowupEnabled bool       `gorm:"not null;default:false" json:"auto_followup_enabled"`
	DetectedStage       string     `gorm:"default:''" json:"detected_stage"`
	LastRespondedAt     *time.Time `json:"last_responded_at"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// BeforeSave normaliza o telefone antes de persistir (mesma regra em todos
// os caminhos de escrita).
func (l *Lead) BeforeSave() error {
	if l.Phone != "" {
		l.Phone = tools.CleanPhoneNumber(l.Phone)
	}
	return nil
}

// IsIncoming indica lead originado por mensagem recebida.
func (l *Lead) IsIncoming() bool {
	return l.Source == LEAD_SOURCE_INCOMING
}

// RespondedAfterInitial: lead respondeu depois da mensagem inicial; corta
// todos os follow-ups restantes.
func (l *Lead) RespondedAfterInitial() bool {
	return l.LastRespondedAt != nil &&
		l.InitialMessageTimestamp != nil &&
		l.LastRespondedAt.After(*l.InitialMessageTimestamp)
}
