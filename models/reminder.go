package models

import "time"

// Reminder é um lembrete manual associado a um lead.
type Reminder struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	LeadID    int64      `gorm:"not null;index" json:"lead_id" form:"lead_id"`
	Note      string     `gorm:"not null" json:"note" form:"note"`
	RemindAt  *time.Time `json:"remind_at" form:"remind_at"`
	Completed bool       `gorm:"not null;default:false" json:"completed" form:"completed"`
}
