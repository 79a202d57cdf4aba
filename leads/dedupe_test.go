package leads

import (
	"testing"
	"time"

	"autoresponder/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.AutoMigrate(&models.Lead{})
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDeduplicateKeepsMostRecentAndMergesSource(t *testing.T) {
	db := testDB(t)

	t1 := time.Now().Add(-2 * time.Hour)
	t2 := time.Now().Add(-1 * time.Hour)

	older := models.Lead{
		TenantID: "t1", Name: "Import", Phone: "919999900001",
		Source: "Sheet", Timestamp: &t1,
	}
	newer := models.Lead{
		TenantID: "t1", Name: "WhatsApp User", Phone: "919999900001",
		Source: models.LEAD_SOURCE_INCOMING, Timestamp: &t2, LastRespondedAt: &t2,
	}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Create(&newer).Error)

	removed, err := Deduplicate(db, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	var left []models.Lead
	require.NoError(t, db.Where("tenant_id = ?", "t1").Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, models.LEAD_SOURCE_INCOMING, left[0].Source)
	assert.NotNil(t, left[0].LastRespondedAt)
}

func TestDeduplicateMergesIncomingOntoOlderSurvivor(t *testing.T) {
	db := testDB(t)

	t1 := time.Now().Add(-1 * time.Hour)
	t2 := time.Now().Add(-2 * time.Hour)

	survivor := models.Lead{
		TenantID: "t1", Name: "Keeper", Phone: "919999900002",
		Source: "Sheet", Timestamp: &t1, LastRespondedAt: &t1,
	}
	dup := models.Lead{
		TenantID: "t1", Name: "Dup", Phone: "919999900002",
		Source: models.LEAD_SOURCE_INCOMING, Timestamp: &t2,
	}
	require.NoError(t, db.Create(&survivor).Error)
	require.NoError(t, db.Create(&dup).Error)

	removed, err := Deduplicate(db, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	var left models.Lead
	require.NoError(t, db.Where("tenant_id = ?", "t1").First(&left).Error)
	assert.Equal(t, "Keeper", left.Name)
	// tag de incoming sobe pro sobrevivente
	assert.Equal(t, models.LEAD_SOURCE_INCOMING, left.Source)
}

func TestDeduplicateIdempotent(t *testing.T) {
	db := testDB(t)

	now := time.Now()
	require.NoError(t, db.Create(&models.Lead{
		TenantID: "t1", Name: "Solo", Phone: "919999900003", Timestamp: &now,
	}).Error)

	removed, err := Deduplicate(db, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	removed, err = Deduplicate(db, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestTouchIncomingCreatesAndUpgrades(t *testing.T) {
	db := testDB(t)

	lead, err := TouchIncoming(db, "t1", "9999900004@c.us")
	require.NoError(t, err)
	assert.Equal(t, models.LEAD_SOURCE_INCOMING, lead.Source)
	assert.Equal(t, "WhatsApp User", lead.Name)
	assert.NotNil(t, lead.LastRespondedAt)

	// lead importado é promovido pra incoming no primeiro contato
	imported := models.Lead{TenantID: "t1", Name: "Imp", Phone: "919999900005", Source: "Sheet"}
	require.NoError(t, db.Create(&imported).Error)

	touched, err := TouchIncoming(db, "t1", "919999900005")
	require.NoError(t, err)
	assert.Equal(t, models.LEAD_SOURCE_INCOMING, touched.Source)
	assert.Equal(t, "Imp", touched.Name)
}

func TestUpsertImportedProtectsIncoming(t *testing.T) {
	db := testDB(t)

	now := time.Now()
	incoming := models.Lead{
		TenantID: "t1", Name: "WhatsApp User", Phone: "919999900006",
		Source: models.LEAD_SOURCE_INCOMING, LastRespondedAt: &now,
	}
	require.NoError(t, db.Create(&incoming).Error)

	lead, created, err := UpsertImported(db, "t1", models.Lead{
		Name: "From Sheet", Phone: "9999900006", Source: "Sheet", Status: models.LEAD_STATUS_WARM,
	})
	require.NoError(t, err)
	assert.False(t, created)
	// cadastro atualiza, mas source incoming e lastRespondedAt ficam
	assert.Equal(t, models.LEAD_SOURCE_INCOMING, lead.Source)
	assert.Equal(t, "From Sheet", lead.Name)
	assert.Equal(t, models.LEAD_STATUS_WARM, lead.Status)
	assert.NotNil(t, lead.LastRespondedAt)
}

func TestUpsertImportedRefreshesSheetEdits(t *testing.T) {
	db := testDB(t)

	first := time.Now().Add(-24 * time.Hour)
	_, created, err := UpsertImported(db, "t1", models.Lead{
		Name: "Lia", Phone: "919999900007", Email: "lia@old.test",
		Source: "Sheet", Timestamp: &first,
	})
	require.NoError(t, err)
	assert.True(t, created)

	edited := time.Now()
	lead, created, err := UpsertImported(db, "t1", models.Lead{
		Name: "Lia Souza", Phone: "919999900007", Email: "lia@new.test",
		Status: models.LEAD_STATUS_HOT, Source: "Sheet", Timestamp: &edited,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Lia Souza", lead.Name)
	assert.Equal(t, "lia@new.test", lead.Email)
	assert.Equal(t, models.LEAD_STATUS_HOT, lead.Status)
	require.NotNil(t, lead.Timestamp)
	assert.WithinDuration(t, edited, *lead.Timestamp, time.Second)

	var fresh models.Lead
	require.NoError(t, db.Where("tenant_id = ? AND phone = ?", "t1", "919999900007").First(&fresh).Error)
	assert.Equal(t, "Lia Souza", fresh.Name)
}

func TestReconcileStatuses(t *testing.T) {
	lead := &models.Lead{FollowupStatuses: models.FollowupStatusList{{Sent: true}}}

	ReconcileStatuses(lead, 3)
	require.Len(t, lead.FollowupStatuses, 3)
	assert.True(t, lead.FollowupStatuses[0].Sent)
	assert.False(t, lead.FollowupStatuses[1].Sent)

	ReconcileStatuses(lead, 1)
	require.Len(t, lead.FollowupStatuses, 1)
	assert.True(t, lead.FollowupStatuses[0].Sent)
}
