package leads

import (
	"time"

	"autoresponder/models"

	"github.com/jinzhu/gorm"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Deduplicate agrupa os leads do tenant por telefone normalizado e, em cada
// grupo, mantém o registro mais recente (lastRespondedAt > initial > import
// timestamp), propagando o source "Incoming Message" pro sobrevivente.
// Idempotente: sem duplicata, não mexe em nada. Devolve quantos removeu.
func Deduplicate(db *gorm.DB, tenantID string) (int, error) {
	var all []models.Lead
	if err := db.Where("tenant_id = ?", tenantID).Find(&all).Error; err != nil {
		return 0, eris.Wrap(err, "failed to list leads")
	}

	survivors := make(map[string]*models.Lead)
	removed := 0

	for i := range all {
		lead := &all[i]
		existing, seen := survivors[lead.Phone]
		if !seen {
			survivors[lead.Phone] = lead
			continue
		}

		keep, drop := existing, lead
		if recency(lead).After(recency(existing)) {
			keep, drop = lead, existing
		}

		if drop.IsIncoming() && !keep.IsIncoming() {
			keep.Source = models.LEAD_SOURCE_INCOMING
			if err := db.Save(keep).Error; err != nil {
				return removed, eris.Wrap(err, "failed to merge lead source")
			}
		}
		if err := db.Delete(drop).Error; err != nil {
			return removed, eris.Wrap(err, "failed to delete duplicate lead")
		}
		survivors[lead.Phone] = keep
		removed++
	}

	if removed > 0 {
		zap.L().Info("deduplicated leads",
			zap.String("tenant", tenantID), zap.Int("removed", removed))
	}
	return removed, nil
}

// recency: o "mais recente" de um lead pra fins de dedup.
func recency(l *models.Lead) time.Time {
	if l.LastRespondedAt != nil {
		return *l.LastRespondedAt
	}
	if l.InitialMessageTimestamp != nil {
		return *l.InitialMessageTimestamp
	}
	if l.Timestamp != nil {
		return *l.Timestamp
	}
	return time.Time{}
}
