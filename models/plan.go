package models

import "time"

// SubscriptionPlan representa um tier comercial com limites mensais rígidos
// por categoria de envio.
type SubscriptionPlan struct {
	ID       int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	PlanID   string `gorm:"not null;unique_index" json:"plan_id" form:"plan_id"` // gold, silver, platinum
	PlanName string `gorm:"not null" json:"plan_name" form:"plan_name"`
	Price    int64  `gorm:"not null;default:0" json:"price" form:"price"`

	InitialMessageLimit int64 `gorm:"not null;default:0" json:"initial_message_limit" form:"initial_message_limit"`
	ConversationLimit   int64 `gorm:"not null;default:0" json:"conversation_limit" form:"conversation_limit"`
	FollowupLimit       int64 `gorm:"not null;default:0" json:"followup_limit" form:"followup_limit"`

	Features StringList `gorm:"type:text" json:"features" form:"features"`
	IsActive bool       `gorm:"not null;default:true" json:"is_active" form:"is_active"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
