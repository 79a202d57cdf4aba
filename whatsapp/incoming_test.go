package whatsapp

import (
	"context"
	"sync"
	"testing"
	"time"

	"autoresponder/models"
	"autoresponder/quota"
	"autoresponder/realtime"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	self string
}

func (f *fakeSender) Send(ctx context.Context, destID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, destID+"|"+text)
	return nil
}

func (f *fakeSender) SelfID() string { return f.self }

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func seedIncomingFixtures(t *testing.T, db *gorm.DB, conversationsUsed int64) {
	now := time.Now()
	require.NoError(t, db.Create(&models.SubscriptionPlan{
		PlanID: "silver", PlanName: "Silver",
		InitialMessageLimit: 100, ConversationLimit: 5, FollowupLimit: 3,
		IsActive: true,
	}).Error)
	require.NoError(t, db.Create(&models.Tenant{
		TenantID: "t1", BusinessName: "Acme", OwnerName: "Ana",
		Email: "ana@acme.test", Password: "x",
		IsActive: true, IsApproved: true,
		SubscriptionPlan:    "silver",
		UsageAIConversation: conversationsUsed,
		UsageResetAt:        &now,
	}).Error)
	require.NoError(t, db.Create(&models.Knowledgebase{
		TenantID: "t1", Content: "We build websites and mobile apps.",
	}).Error)

	settings := models.NewSettings("t1")
	require.NoError(t, db.Create(settings).Error)
}

func TestHandleIncomingCreatesLeadAndReplies(t *testing.T) {
	db := testDB(t)
	seedIncomingFixtures(t, db, 0)

	hub := realtime.NewHub()
	events, cancel := hub.Subscribe("t1")
	defer cancel()

	completer := &fakeCompleter{reply: "We can help with that!"}
	d := NewDispatcher(db, hub, quota.NewGate(db), completer)
	sender := &fakeSender{self: "915550000000@c.us"}

	d.HandleIncoming(context.Background(), "t1", sender,
		Envelope{From: "919999900010@c.us", Body: "how much does a website cost?"})

	var lead models.Lead
	require.NoError(t, db.Where("tenant_id = ? AND phone = ?", "t1", "919999900010").First(&lead).Error)
	assert.Equal(t, models.LEAD_SOURCE_INCOMING, lead.Source)
	assert.NotNil(t, lead.LastRespondedAt)
	assert.Equal(t, "Service Inquiry", lead.DetectedStage)

	require.Equal(t, 1, sender.count())
	assert.Equal(t, 1, completer.calls)

	var fresh models.Tenant
	require.NoError(t, db.Where("tenant_id = ?", "t1").First(&fresh).Error)
	assert.EqualValues(t, 1, fresh.UsageAIConversation)

	select {
	case ev := <-events:
		assert.Equal(t, "lead-updated", ev.Type)
	default:
		t.Fatal("expected lead-updated event")
	}
}

func TestHandleIncomingQuotaExhaustedSkipsReplySilently(t *testing.T) {
	db := testDB(t)
	seedIncomingFixtures(t, db, 5) // limite do plano

	completer := &fakeCompleter{reply: "hello"}
	d := NewDispatcher(db, realtime.NewHub(), quota.NewGate(db), completer)
	sender := &fakeSender{}

	d.HandleIncoming(context.Background(), "t1", sender,
		Envelope{From: "919999900011@c.us", Body: "hi"})

	assert.Equal(t, 0, sender.count())
	assert.Equal(t, 0, completer.calls)

	// lead ainda é criado e carimbado
	var lead models.Lead
	require.NoError(t, db.Where("tenant_id = ? AND phone = ?", "t1", "919999900011").First(&lead).Error)
	assert.NotNil(t, lead.LastRespondedAt)
}

func TestHandleIncomingNoKnowledgebaseNoReply(t *testing.T) {
	db := testDB(t)
	seedIncomingFixtures(t, db, 0)
	require.NoError(t, db.Where("tenant_id = ?", "t1").Delete(&models.Knowledgebase{}).Error)

	completer := &fakeCompleter{reply: "hello"}
	d := NewDispatcher(db, realtime.NewHub(), quota.NewGate(db), completer)
	sender := &fakeSender{}

	d.HandleIncoming(context.Background(), "t1", sender,
		Envelope{From: "919999900012@c.us", Body: "hi"})

	assert.Equal(t, 0, sender.count())

	var lead models.Lead
	require.NoError(t, db.Where("tenant_id = ? AND phone = ?", "t1", "919999900012").First(&lead).Error)
	assert.Equal(t, models.LEAD_SOURCE_INCOMING, lead.Source)
}

func TestHandleIncomingUnapprovedTenantDropsEvent(t *testing.T) {
	db := testDB(t)
	seedIncomingFixtures(t, db, 0)
	require.NoError(t, db.Model(&models.Tenant{}).
		Where("tenant_id = ?", "t1").Update("is_approved", false).Error)

	d := NewDispatcher(db, realtime.NewHub(), quota.NewGate(db), &fakeCompleter{reply: "x"})
	sender := &fakeSender{}

	d.HandleIncoming(context.Background(), "t1", sender,
		Envelope{From: "919999900013@c.us", Body: "hi"})

	assert.Equal(t, 0, sender.count())
	var count int
	db.Model(&models.Lead{}).Where("tenant_id = ?", "t1").Count(&count)
	assert.Equal(t, 0, count)
}

func TestHandleIncomingUpgradesImportedLeadSource(t *testing.T) {
	db := testDB(t)
	seedIncomingFixtures(t, db, 0)

	now := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&models.Lead{
		TenantID: "t1", Name: "Imported", Phone: "919999900014",
		Source: "Sheet", InitialMessageSent: true, InitialMessageTimestamp: &now,
	}).Error)

	d := NewDispatcher(db, realtime.NewHub(), quota.NewGate(db), &fakeCompleter{reply: "x"})
	sender := &fakeSender{}

	d.HandleIncoming(context.Background(), "t1", sender,
		Envelope{From: "919999900014@c.us", Body: "tell me more"})

	var lead models.Lead
	require.NoError(t, db.Where("tenant_id = ? AND phone = ?", "t1", "919999900014").First(&lead).Error)
	assert.Equal(t, models.LEAD_SOURCE_INCOMING, lead.Source)
	assert.Equal(t, "Imported", lead.Name)
	require.NotNil(t, lead.LastRespondedAt)
	assert.True(t, lead.RespondedAfterInitial())
}
