package models

import "time"

/************************************************
/**** MARK: PLAN REQUEST STATUS ****/
/************************************************/
const PLAN_REQUEST_PENDING = "pending"
const PLAN_REQUEST_APPROVED = "approved"
const PLAN_REQUEST_REJECTED = "rejected"

// Tenant representa uma conta de negócio isolada (1 conexão WhatsApp,
// leads e settings próprios).
type Tenant struct {
	ID           int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TenantID     string `gorm:"not null;unique_index" json:"tenant_id"`
	BusinessName string `gorm:"not null" json:"business_name" form:"business_name"`
	OwnerName    string `gorm:"not null" json:"owner_name" form:"owner_name"`
	Email        string `gorm:"not null;unique" json:"email" form:"email"`
	Password     string `gorm:"not null" json:"-" form:"password"`

	// SheetPath aponta a planilha de leads importada pelo pipeline.
	SheetPath string `gorm:"default:''" json:"sheet_path" form:"sheet_path"`

	IsActive      bool `gorm:"not null;default:true" json:"is_active"`
	IsApproved    bool `gorm:"not null;default:false" json:"is_approved"`
	WhatsappReady bool `gorm:"not null;default:false" json:"whatsapp_ready"`

	SubscriptionPlan      string     `gorm:"not null;default:'silver'" json:"subscription_plan"`
	SubscriptionStartDate *time.Time `json:"subscription_start_date"`
	SubscriptionEndDate   *time.Time `json:"subscription_end_date"`

	// Uso mensal: zerado na virada do mês calendário (ver pacote quota).
	UsageInitialSent    int64      `gorm:"not null;default:0" json:"usage_initial_sent"`
	UsageAIConversation int64      `gorm:"not null;default:0" json:"usage_ai_conversations"`
	UsageFollowupsSent  int64      `gorm:"not null;default:0" json:"usage_followups_sent"`
	UsageResetAt        *time.Time `json:"usage_reset_at"`

	PendingPlanID          string     `gorm:"default:''" json:"pending_plan_id"`
	PendingPlanRequestedAt *time.Time `json:"pending_plan_requested_at"`
	PendingPlanStatus      string     `gorm:"default:''" json:"pending_plan_status"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (t Tenant) MissingFields() string {
	if t.BusinessName == "" {
		return "business_name"
	} else if t.OwnerName == "" {
		return "owner_name"
	} else if t.Email == "" {
		return "email"
	} else if t.Password == "" {
		return "password"
	}
	return ""
}

// HasPendingPlanRequest indica se há troca de plano aguardando o admin.
func (t Tenant) HasPendingPlanRequest() bool {
	return t.PendingPlanID != "" && t.PendingPlanStatus == PLAN_REQUEST_PENDING
}
