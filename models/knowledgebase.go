package models

import "time"

// Knowledgebase é o contexto de negócio usado no prompt das respostas de IA.
// Sem knowledgebase o tenant não recebe respostas automáticas.
type Knowledgebase struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TenantID  string     `gorm:"not null;unique_index" json:"tenant_id"`
	Content   string     `gorm:"type:text;not null" json:"content" form:"content"`
	UpdatedAt *time.Time `json:"updated_at"`
}
