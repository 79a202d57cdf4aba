package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"autoresponder/models"
	"autoresponder/quota"
	"autoresponder/whatsapp"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	fail bool
	self string
}

func (f *fakeSender) Send(ctx context.Context, destID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return eris.New("gateway down")
	}
	f.sent = append(f.sent, destID+"|"+text)
	return nil
}

func (f *fakeSender) SelfID() string { return f.self }

func (f *fakeSender) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func testDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.AutoMigrate(&models.Tenant{}, &models.SubscriptionPlan{},
		&models.Settings{}, &models.Lead{})
	t.Cleanup(func() { db.Close() })
	return db
}

type fixture struct {
	db      *gorm.DB
	tenant  *models.Tenant
	sender  *fakeSender
	sweeper *FollowupSweeper
}

func newFixture(t *testing.T, followupsUsed int64) *fixture {
	db := testDB(t)
	now := time.Now()

	require.NoError(t, db.Create(&models.SubscriptionPlan{
		PlanID: "silver", PlanName: "Silver",
		InitialMessageLimit: 100, ConversationLimit: 100, FollowupLimit: 3,
		IsActive: true,
	}).Error)

	tenant := &models.Tenant{
		TenantID: "t1", BusinessName: "Acme", OwnerName: "Ana",
		Email: "ana@acme.test", Password: "x",
		IsActive: true, IsApproved: true,
		SubscriptionPlan:   "silver",
		UsageFollowupsSent: followupsUsed,
		UsageResetAt:       &now,
	}
	require.NoError(t, db.Create(tenant).Error)

	settings := models.NewSettings("t1")
	settings.GlobalAutoFollowupEnabled = true
	settings.FollowupMessages = models.StringList{"Followup A {name}", "", "Followup C"}
	settings.FollowupDelaysMs = models.Int64List{1000, 1000, 1000}
	require.NoError(t, db.Create(settings).Error)

	sender := &fakeSender{self: "915550000000@c.us"}
	sweeper := &FollowupSweeper{
		DB:   db,
		Gate: quota.NewGate(db),
		Senders: func(tenantID string) (whatsapp.Sender, bool) {
			return sender, true
		},
	}
	return &fixture{db: db, tenant: tenant, sender: sender, sweeper: sweeper}
}

func (f *fixture) createLead(t *testing.T, phone string, initialAt time.Time) *models.Lead {
	lead := &models.Lead{
		TenantID: "t1", Name: "Lia", Phone: phone,
		InitialMessageSent: true, InitialMessageTimestamp: &initialAt,
		Timestamp: &initialAt,
	}
	require.NoError(t, f.db.Create(lead).Error)
	return lead
}

func (f *fixture) reload(t *testing.T, id int64) *models.Lead {
	var lead models.Lead
	require.NoError(t, f.db.First(&lead, id).Error)
	return &lead
}

// Template do meio em branco: passo 1 nunca envia e, por não enviar, o passo
// 2 nunca ganha base de tempo. Comportamento desenhado assim, coberto aqui.
func TestSweepBlankInteriorTemplateBlocksLaterSteps(t *testing.T) {
	f := newFixture(t, 0)
	lead := f.createLead(t, "919999900020", time.Now().Add(-time.Hour))

	for pass := 0; pass < 5; pass++ {
		require.NoError(t, f.sweeper.Sweep(context.Background(), f.tenant))
	}

	msgs := f.sender.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Followup A Lia")

	fresh := f.reload(t, lead.ID)
	require.Len(t, fresh.FollowupStatuses, 3)
	assert.True(t, fresh.FollowupStatuses[0].Sent)
	assert.False(t, fresh.FollowupStatuses[1].Sent)
	// passo 2 nunca dispara: base depende do passo 1
	assert.False(t, fresh.FollowupStatuses[2].Sent)
}

func TestSweepRespondedAfterInitialNeverFollowsUp(t *testing.T) {
	f := newFixture(t, 0)
	initialAt := time.Now().Add(-time.Hour)
	lead := f.createLead(t, "919999900021", initialAt)

	respondedAt := initialAt.Add(time.Minute)
	require.NoError(t, f.db.Model(lead).Update("last_responded_at", respondedAt).Error)

	for pass := 0; pass < 3; pass++ {
		require.NoError(t, f.sweeper.Sweep(context.Background(), f.tenant))
	}
	assert.Empty(t, f.sender.messages())
}

func TestSweepRespondedAfterLastFollowupStops(t *testing.T) {
	f := newFixture(t, 0)

	// sem template em branco nesse cenário: o corte tem que vir da resposta
	require.NoError(t, f.db.Model(&models.Settings{}).
		Where("tenant_id = ?", "t1").
		Update("followup_messages", models.StringList{"A", "B", "C"}).Error)

	initialAt := time.Now().Add(-2 * time.Hour)
	lead := f.createLead(t, "919999900022", initialAt)

	// passos 0 e 1 enviados há tempo suficiente pro passo 2 estar vencido
	fu0At := initialAt.Add(10 * time.Minute)
	fu1At := initialAt.Add(30 * time.Minute)
	lead.FollowupStatuses = models.FollowupStatusList{
		{Sent: true, Timestamp: &fu0At},
		{Sent: true, Timestamp: &fu1At},
		{},
	}
	require.NoError(t, f.db.Model(lead).Update("followup_statuses", lead.FollowupStatuses).Error)

	// respondeu depois do último follow-up: corta o resto, mesmo com o
	// passo 2 vencido
	respondedAfter := fu1At.Add(time.Minute)
	require.NoError(t, f.db.Model(lead).Update("last_responded_at", respondedAfter).Error)
	require.NoError(t, f.sweeper.Sweep(context.Background(), f.tenant))
	assert.Empty(t, f.sender.messages())

	// sem a resposta, o mesmo estado enviaria o passo 2
	require.NoError(t, f.db.Model(lead).Update("last_responded_at", nil).Error)
	require.NoError(t, f.sweeper.Sweep(context.Background(), f.tenant))
	require.Len(t, f.sender.messages(), 1)
	assert.Contains(t, f.sender.messages()[0], "C")
}

func TestSweepIncomingLeadRespectsToggle(t *testing.T) {
	f := newFixture(t, 0)
	lead := f.createLead(t, "919999900023", time.Now().Add(-time.Hour))
	require.NoError(t, f.db.Model(lead).Update("source", models.LEAD_SOURCE_INCOMING).Error)

	require.NoError(t, f.sweeper.Sweep(context.Background(), f.tenant))
	assert.Empty(t, f.sender.messages())

	require.NoError(t, f.db.Model(&models.Settings{}).
		Where("tenant_id = ?", "t1").
		Update("auto_followup_for_incoming", true).Error)

	require.NoError(t, f.sweeper.Sweep(context.Background(), f.tenant))
	assert.Len(t, f.sender.messages(), 1)
}

func TestSweepOptOutSkipsLead(t *testing.T) {
	f := newFixture(t, 0)
	f.createLead(t, "919999900024", time.Now().Add(-time.Hour))

	require.NoError(t, f.db.Model(&models.Settings{}).
		Where("tenant_id = ?", "t1").
		Update("global_auto_followup_enabled", false).Error)

	require.NoError(t, f.sweeper.Sweep(context.Background(), f.tenant))
	assert.Empty(t, f.sender.messages())
}

func TestSweepNotDueYet(t *testing.T) {
	f := newFixture(t, 0)
	// inicial agora: delay de 1s ainda não venceu
	f.createLead(t, "919999900025", time.Now())

	require.NoError(t, f.sweeper.Sweep(context.Background(), f.tenant))
	assert.Empty(t, f.sender.messages())
}

func TestSweepFailedSendKeepsQuotaAndRetries(t *testing.T) {
	f := newFixture(t, 0)
	lead := f.createLead(t, "919999900026", time.Now().Add(-time.Hour))

	f.sender.fail = true
	require.NoError(t, f.sweeper.Sweep(context.Background(), f.tenant))

	fresh := f.reload(t, lead.ID)
	require.Len(t, fresh.FollowupStatuses, 3)
	assert.False(t, fresh.FollowupStatuses[0].Sent)
	assert.True(t, fresh.FollowupStatuses[0].Failed)
	assert.NotEmpty(t, fresh.FollowupStatuses[0].Error)

	var tenant models.Tenant
	require.NoError(t, f.db.Where("tenant_id = ?", "t1").First(&tenant).Error)
	assert.EqualValues(t, 0, tenant.UsageFollowupsSent)

	// próximo sweep tenta de novo e consome
	f.sender.fail = false
	require.NoError(t, f.sweeper.Sweep(context.Background(), f.tenant))

	fresh = f.reload(t, lead.ID)
	assert.True(t, fresh.FollowupStatuses[0].Sent)
	require.NoError(t, f.db.Where("tenant_id = ?", "t1").First(&tenant).Error)
	assert.EqualValues(t, 1, tenant.UsageFollowupsSent)
}

func TestSweepStopsAtMonthlyLimit(t *testing.T) {
	f := newFixture(t, 3) // limite do plano já consumido
	f.createLead(t, "919999900027", time.Now().Add(-time.Hour))

	require.NoError(t, f.sweeper.Sweep(context.Background(), f.tenant))
	assert.Empty(t, f.sender.messages())
}

func TestStepDueChaining(t *testing.T) {
	initial := time.Now().Add(-10 * time.Second)
	fu0At := time.Now().Add(-5 * time.Second)
	lead := &models.Lead{
		InitialMessageTimestamp: &initial,
		FollowupStatuses: models.FollowupStatusList{
			{Sent: true, Timestamp: &fu0At}, {}, {},
		},
	}

	now := time.Now()
	// passo 1: base é o envio do passo 0
	assert.True(t, stepDue(lead, 1, "B", 1000, now))
	assert.False(t, stepDue(lead, 1, "B", 60000, now))
	// passo 2: passo 1 não enviado, sem base
	assert.False(t, stepDue(lead, 2, "C", 0, now))
	// passo 0 já enviado
	assert.False(t, stepDue(lead, 0, "A", 1000, now))
}
