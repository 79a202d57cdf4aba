package models

import "time"

// Message é o histórico de conversa de um lead.
type Message struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	LeadID    int64      `gorm:"not null;index" json:"lead_id" form:"lead_id"`
	Sender    string     `gorm:"not null" json:"sender" form:"sender"`
	Body      string     `gorm:"type:text;not null" json:"body" form:"body"`
	Timestamp *time.Time `json:"timestamp"`
}
