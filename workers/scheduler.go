package workers

import (
	"context"
	"sync"
	"time"

	"autoresponder/models"
	"autoresponder/quota"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

const tickInterval = time.Minute
const defaultFetchIntervalMinutes = 3.0

// Scheduler é o relógio compartilhado: a cada minuto decide, por tenant
// ativo e aprovado, se o intervalo configurado daquele tenant já passou e,
// nesse caso, roda import-e-envio seguido do sweep de follow-ups.
type Scheduler struct {
	DB       *gorm.DB
	Importer *Importer
	Sweeper  *FollowupSweeper

	mu       sync.Mutex
	lastRuns map[string]time.Time
}

func NewScheduler(db *gorm.DB, gate *quota.Gate, senders SenderProvider, importDir string) *Scheduler {
	return &Scheduler{
		DB:       db,
		Importer: &Importer{DB: db, Gate: gate, Senders: senders, ImportDir: importDir},
		Sweeper:  &FollowupSweeper{DB: db, Gate: gate, Senders: senders},
		lastRuns: make(map[string]time.Time),
	}
}

// Start roda o loop até o contexto morrer.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

func (s *Scheduler) tick(ctx context.Context) {
	var tenants []models.Tenant
	err := s.DB.Where("is_active = ? AND is_approved = ?", true, true).Find(&tenants).Error
	if err != nil {
		zap.L().Error("scheduler failed to list tenants", zap.Error(err))
		return
	}

	now := time.Now()
	for i := range tenants {
		tenant := &tenants[i]
		if !s.due(tenant.TenantID, now) {
			continue
		}
		s.runTenant(ctx, tenant)
		s.markRun(tenant.TenantID, now)
	}
}

// due compara o intervalo configurado do tenant com o último run. Primeiro
// tick sempre roda.
func (s *Scheduler) due(tenantID string, now time.Time) bool {
	interval := s.fetchInterval(tenantID)

	s.mu.Lock()
	last, ok := s.lastRuns[tenantID]
	s.mu.Unlock()

	return !ok || now.Sub(last) >= interval
}

func (s *Scheduler) markRun(tenantID string, now time.Time) {
	s.mu.Lock()
	s.lastRuns[tenantID] = now
	s.mu.Unlock()
}

func (s *Scheduler) fetchInterval(tenantID string) time.Duration {
	minutes := defaultFetchIntervalMinutes

	var settings models.Settings
	if err := s.DB.Where("tenant_id = ?", tenantID).First(&settings).Error; err == nil {
		if settings.FetchIntervalMinutes > 0 {
			minutes = settings.FetchIntervalMinutes
		}
	}
	if minutes < 1 {
		minutes = 1
	}
	return time.Duration(minutes * float64(time.Minute))
}

// runTenant isola pânicos e erros de um tenant pra não derrubar o loop.
func (s *Scheduler) runTenant(ctx context.Context, tenant *models.Tenant) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("scheduler panic recovered",
				zap.String("tenant", tenant.TenantID), zap.Any("panic", r))
		}
	}()

	if err := s.Importer.Run(ctx, tenant); err != nil {
		zap.L().Error("import pipeline failed",
			zap.String("tenant", tenant.TenantID), zap.Error(err))
	}
	if err := s.Sweeper.Sweep(ctx, tenant); err != nil {
		zap.L().Error("followup sweep failed",
			zap.String("tenant", tenant.TenantID), zap.Error(err))
	}
}
