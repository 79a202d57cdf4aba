package whatsapp

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"autoresponder/models"
	"autoresponder/realtime"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu     sync.Mutex
	events chan Event
	sent   []string
	closed bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan Event, 16)}
}

func (f *fakeTransport) Connect(ctx context.Context) error { return nil }

func (f *fakeTransport) SendMessage(ctx context.Context, destID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, destID+"|"+text)
	return nil
}

func (f *fakeTransport) Events() <-chan Event { return f.events }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) emit(ev Event) { f.events <- ev }

func testDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.AutoMigrate(&models.Tenant{}, &models.SubscriptionPlan{}, &models.Settings{},
		&models.Lead{}, &models.Knowledgebase{})
	t.Cleanup(func() { db.Close() })
	return db
}

func seedTenant(t *testing.T, db *gorm.DB, tenantID string) {
	require.NoError(t, db.Create(&models.Tenant{
		TenantID: tenantID, BusinessName: "Acme", OwnerName: "Ana",
		Email: tenantID + "@acme.test", Password: "x",
		IsActive: true, IsApproved: true,
		SubscriptionPlan: "silver",
	}).Error)
}

func newTestRegistry(t *testing.T, db *gorm.DB, ft *fakeTransport) (*Registry, *int32) {
	var builds int32
	factory := func(tenantID string) (Transport, error) {
		atomic.AddInt32(&builds, 1)
		return ft, nil
	}
	return NewRegistry(db, realtime.NewHub(), factory, t.TempDir()), &builds
}

func TestEnsureConcurrentSingleWorker(t *testing.T) {
	db := testDB(t)
	seedTenant(t, db, "t1")
	ft := newFakeTransport()
	reg, builds := newTestRegistry(t, db, ft)

	const callers = 10
	conns := make([]*Conn, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := reg.Ensure("t1")
			assert.NoError(t, err)
			conns[i] = c
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(builds))
	for i := 1; i < callers; i++ {
		assert.Same(t, conns[0], conns[i])
	}
}

func TestRequestChallengeAlreadyConnected(t *testing.T) {
	db := testDB(t)
	seedTenant(t, db, "t1")
	ft := newFakeTransport()
	reg, _ := newTestRegistry(t, db, ft)

	conn, err := reg.Ensure("t1")
	require.NoError(t, err)

	ft.emit(Event{Kind: EVENT_READY, SelfID: "915550000000@c.us"})
	require.Eventually(t, conn.Ready, 2*time.Second, 10*time.Millisecond)

	res, err := reg.RequestChallenge(context.Background(), "t1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, CHALLENGE_ALREADY_CONNECTED, res.Status)
	assert.Empty(t, res.QR)
}

func TestRequestChallengeDeliversQR(t *testing.T) {
	db := testDB(t)
	seedTenant(t, db, "t1")
	ft := newFakeTransport()
	reg, _ := newTestRegistry(t, db, ft)

	_, err := reg.Ensure("t1")
	require.NoError(t, err)

	type outcome struct {
		res ChallengeResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := reg.RequestChallenge(context.Background(), "t1", 3*time.Second)
		done <- outcome{res, err}
	}()

	time.Sleep(50 * time.Millisecond)
	ft.emit(Event{Kind: EVENT_QR, QR: "qr-payload-1"})

	out := <-done
	require.NoError(t, out.err)
	assert.Equal(t, CHALLENGE_QR, out.res.Status)
	assert.Equal(t, "qr-payload-1", out.res.QR)

	// QR pendente é devolvido direto na próxima chamada
	res, err := reg.RequestChallenge(context.Background(), "t1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, CHALLENGE_QR, res.Status)
	assert.Equal(t, "qr-payload-1", res.QR)
}

func TestRequestChallengeTimeout(t *testing.T) {
	db := testDB(t)
	seedTenant(t, db, "t1")
	ft := newFakeTransport()
	reg, _ := newTestRegistry(t, db, ft)

	res, err := reg.RequestChallenge(context.Background(), "t1", 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, CHALLENGE_TIMEOUT, res.Status)
}

func TestDisconnectRemovesEntryAndClearsReadyFlag(t *testing.T) {
	db := testDB(t)
	seedTenant(t, db, "t1")
	ft := newFakeTransport()
	reg, _ := newTestRegistry(t, db, ft)

	_, err := reg.Ensure("t1")
	require.NoError(t, err)

	ft.emit(Event{Kind: EVENT_READY, SelfID: "915550000000@c.us"})
	require.Eventually(t, func() bool {
		var fresh models.Tenant
		db.Where("tenant_id = ?", "t1").First(&fresh)
		return fresh.WhatsappReady
	}, 2*time.Second, 10*time.Millisecond)

	ft.emit(Event{Kind: EVENT_DISCONNECTED})
	require.Eventually(t, func() bool {
		_, ok := reg.Get("t1")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	var fresh models.Tenant
	require.NoError(t, db.Where("tenant_id = ?", "t1").First(&fresh).Error)
	assert.False(t, fresh.WhatsappReady)

	ft.mu.Lock()
	assert.True(t, ft.closed)
	ft.mu.Unlock()
}

func TestDestroyWithoutConnectionIsNoop(t *testing.T) {
	db := testDB(t)
	ft := newFakeTransport()
	reg, _ := newTestRegistry(t, db, ft)

	assert.NotPanics(t, func() { reg.Destroy("ghost") })
}
