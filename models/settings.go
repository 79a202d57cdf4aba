package models

import "time"

const DEFAULT_MESSAGE_TEMPLATE = "Hi {name}, Thanks for filling the form. We will contact you soon."

// Settings guarda a configuração de mensageria de um tenant (1 por tenant).
type Settings struct {
	ID       int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TenantID string `gorm:"not null;unique_index" json:"tenant_id"`

	MessageTemplate string `gorm:"type:text" json:"message_template" form:"message_template"`
	BatchSize       int    `gorm:"not null;default:1" json:"batch_size" form:"batch_size"`
	MessageDelayMs  int64  `gorm:"not null;default:3000" json:"message_delay" form:"message_delay"`

	CompanyProfile string `gorm:"type:text" json:"company_profile" form:"company_profile"`
	SystemPrompt   string `gorm:"type:text" json:"system_prompt" form:"system_prompt"`

	// Follow-ups: template e delay (ms) por índice, pareados.
	FollowupMessages StringList `gorm:"type:text" json:"followup_messages"`
	FollowupDelaysMs Int64List  `gorm:"type:text" json:"followup_delays"`

	FetchIntervalMinutes      float64 `gorm:"not null;default:3" json:"fetch_interval_minutes" form:"fetch_interval_minutes"`
	GlobalAutoFollowupEnabled bool    `gorm:"not null;default:false" json:"global_auto_followup_enabled"`
	AutoFollowupForIncoming   bool    `gorm:"not null;default:false" json:"auto_followup_for_incoming"`

	LeadStages StageList `gorm:"type:text" json:"lead_stages"`

	UpdatedAt *time.Time `json:"updated_at"`
}

// NewSettings cria settings com os mesmos defaults aplicados na criação lazy
// via API.
func NewSettings(tenantID string) *Settings {
	return &Settings{
		TenantID:         tenantID,
		MessageTemplate:  DEFAULT_MESSAGE_TEMPLATE,
		BatchSize:        1,
		MessageDelayMs:   3000,
		FollowupMessages: StringList{"", "", ""},
		// 1, 2 e 3 dias
		FollowupDelaysMs:     Int64List{86400000, 172800000, 259200000},
		FetchIntervalMinutes: 3,
	}
}

// Template devolve o template de mensagem inicial, com fallback.
func (s *Settings) Template() string {
	if s == nil || s.MessageTemplate == "" {
		return DEFAULT_MESSAGE_TEMPLATE
	}
	return s.MessageTemplate
}
