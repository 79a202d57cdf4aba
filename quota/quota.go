package quota

import (
	"time"

	"autoresponder/models"

	"github.com/jinzhu/gorm"
	"github.com/rotisserie/eris"
)

/************************************************
/**** MARK: USAGE KINDS ****/
/************************************************/
const KIND_INITIAL = "initial"
const KIND_CONVERSATION = "conversation"
const KIND_FOLLOWUP = "followup"

// ErrLimitReached indica que o contador mensal do tenant atingiu o limite do
// plano. Não é falha de sistema: o caller só pula o envio.
var ErrLimitReached = eris.New("monthly limit reached")

// Gate aplica os limites mensais do plano de assinatura. Regra: reset na
// virada do mês calendário (mês OU ano diferente do último reset), checagem
// antes do envio, consumo só depois de envio confirmado.
type Gate struct {
	DB *gorm.DB
}

func NewGate(db *gorm.DB) *Gate {
	return &Gate{DB: db}
}

// NeedsReset compara o período do último reset com o agora. Primeiro uso
// (resetAt nulo) também conta como período novo.
func NeedsReset(resetAt *time.Time, now time.Time) bool {
	if resetAt == nil {
		return true
	}
	return resetAt.Month() != now.Month() || resetAt.Year() != now.Year()
}

// CheckAndReset zera os contadores do tenant se entramos em mês novo,
// persistindo o tenant. Idempotente dentro do mesmo mês.
func (g *Gate) CheckAndReset(tenant *models.Tenant, now time.Time) error {
	if !NeedsReset(tenant.UsageResetAt, now) {
		return nil
	}
	tenant.UsageInitialSent = 0
	tenant.UsageAIConversation = 0
	tenant.UsageFollowupsSent = 0
	tenant.UsageResetAt = &now

	err := g.DB.Model(&models.Tenant{}).
		Where("tenant_id = ?", tenant.TenantID).
		Updates(map[string]interface{}{
			"usage_initial_sent":    0,
			"usage_ai_conversation": 0,
			"usage_followups_sent":  0,
			"usage_reset_at":        now,
		}).Error
	if err != nil {
		return eris.Wrap(err, "failed to reset monthly usage")
	}
	return nil
}

// Allow verifica se o tenant ainda tem saldo para a categoria. Faz o reset
// mensal antes de comparar. Plano inexistente nega tudo.
func (g *Gate) Allow(tenant *models.Tenant, kind string, now time.Time) error {
	plan, err := g.planFor(tenant)
	if err != nil {
		return err
	}
	if err := g.CheckAndReset(tenant, now); err != nil {
		return err
	}

	var used, limit int64
	switch kind {
	case KIND_INITIAL:
		used, limit = tenant.UsageInitialSent, plan.InitialMessageLimit
	case KIND_CONVERSATION:
		used, limit = tenant.UsageAIConversation, plan.ConversationLimit
	case KIND_FOLLOWUP:
		used, limit = tenant.UsageFollowupsSent, plan.FollowupLimit
	default:
		return eris.Errorf("unknown usage kind %q", kind)
	}

	if used >= limit {
		return ErrLimitReached
	}
	return nil
}

// Remaining devolve o saldo da categoria (nunca negativo). Usado para
// encolher o batch de envio inicial ao que o plano ainda permite.
func (g *Gate) Remaining(tenant *models.Tenant, kind string, now time.Time) (int64, error) {
	if err := g.Allow(tenant, kind, now); err != nil {
		if eris.Is(err, ErrLimitReached) {
			return 0, nil
		}
		return 0, err
	}
	plan, err := g.planFor(tenant)
	if err != nil {
		return 0, err
	}
	var rem int64
	switch kind {
	case KIND_INITIAL:
		rem = plan.InitialMessageLimit - tenant.UsageInitialSent
	case KIND_CONVERSATION:
		rem = plan.ConversationLimit - tenant.UsageAIConversation
	case KIND_FOLLOWUP:
		rem = plan.FollowupLimit - tenant.UsageFollowupsSent
	}
	if rem < 0 {
		rem = 0
	}
	return rem, nil
}

// Consume incrementa o contador da categoria. Chamar SÓ depois do envio
// confirmado; envio que falhou não consome cota.
func (g *Gate) Consume(tenant *models.Tenant, kind string) error {
	var column string
	switch kind {
	case KIND_INITIAL:
		tenant.UsageInitialSent++
		column = "usage_initial_sent"
	case KIND_CONVERSATION:
		tenant.UsageAIConversation++
		column = "usage_ai_conversation"
	case KIND_FOLLOWUP:
		tenant.UsageFollowupsSent++
		column = "usage_followups_sent"
	default:
		return eris.Errorf("unknown usage kind %q", kind)
	}

	err := g.DB.Model(&models.Tenant{}).
		Where("tenant_id = ?", tenant.TenantID).
		Update(column, gorm.Expr(column+" + 1")).Error
	if err != nil {
		return eris.Wrapf(err, "failed to consume %s usage", kind)
	}
	return nil
}

// Plan devolve o plano ativo do tenant.
func (g *Gate) Plan(tenant *models.Tenant) (*models.SubscriptionPlan, error) {
	return g.planFor(tenant)
}

func (g *Gate) planFor(tenant *models.Tenant) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := g.DB.Where("plan_id = ?", tenant.SubscriptionPlan).First(&plan).Error
	if err != nil {
		return nil, eris.Wrapf(err, "plan %s not found", tenant.SubscriptionPlan)
	}
	return &plan, nil
}
