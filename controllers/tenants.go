package controllers

import (
	"net/http"
	"time"

	dbpkg "autoresponder/db"
	"autoresponder/leads"
	"autoresponder/models"

	"github.com/gin-gonic/gin"
)

func GetTenants(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	var tenants []models.Tenant
	if err := db.Order("created_at desc").Find(&tenants).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, tenants)
}

func findTenant(c *gin.Context) (*models.Tenant, bool) {
	db := dbpkg.DBInstance(c)
	var tenant models.Tenant
	if err := db.Where("tenant_id = ?", c.Param("tenantId")).First(&tenant).Error; err != nil {
		RespondError(c, "tenant não encontrado", http.StatusNotFound)
		return nil, false
	}
	return &tenant, true
}

// ApproveTenant libera a conta e já sobe a conexão WhatsApp dela.
func ApproveTenant(c *gin.Context) {
	tenant, ok := findTenant(c)
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)
	err := db.Model(tenant).Updates(map[string]interface{}{
		"is_approved": true,
		"is_active":   true,
	}).Error
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	if registry != nil {
		go registry.Ensure(tenant.TenantID)
	}
	RespondSuccess(c, gin.H{"message": "tenant aprovado"})
}

func BlockTenant(c *gin.Context) {
	tenant, ok := findTenant(c)
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)
	if err := db.Model(tenant).Update("is_active", false).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"message": "tenant bloqueado"})
}

func UnblockTenant(c *gin.Context) {
	tenant, ok := findTenant(c)
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)
	if err := db.Model(tenant).Update("is_active", true).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"message": "tenant desbloqueado"})
}

// DeleteTenant derruba a conexão, apaga a sessão em disco e remove o tenant
// com tudo que é dele.
func DeleteTenant(c *gin.Context) {
	tenant, ok := findTenant(c)
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)
	tenantID := tenant.TenantID

	if registry != nil {
		registry.Destroy(tenantID)
	}

	db.Where("tenant_id = ?", tenantID).Delete(&models.Lead{})
	db.Where("tenant_id = ?", tenantID).Delete(&models.Settings{})
	db.Where("tenant_id = ?", tenantID).Delete(&models.Knowledgebase{})
	if err := db.Delete(tenant).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"message": "tenant e sessão WhatsApp removidos"})
}

func GetTenantStats(c *gin.Context) {
	tenant, ok := findTenant(c)
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)

	var plan models.SubscriptionPlan
	db.Where("plan_id = ?", tenant.SubscriptionPlan).First(&plan)

	var leadCount int
	db.Model(&models.Lead{}).Where("tenant_id = ?", tenant.TenantID).Count(&leadCount)

	RespondSuccess(c, gin.H{
		"tenant":     tenant,
		"plan":       plan,
		"lead_count": leadCount,
		"usage": gin.H{
			"initial_sent":     tenant.UsageInitialSent,
			"ai_conversations": tenant.UsageAIConversation,
			"followups_sent":   tenant.UsageFollowupsSent,
			"reset_at":         tenant.UsageResetAt,
		},
	})
}

// ResetTenantUsage zera os contadores do mês e o histórico de envio de todos
// os leads do tenant (volta tudo pro estado "nunca enviado").
func ResetTenantUsage(c *gin.Context) {
	tenant, ok := findTenant(c)
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)
	now := time.Now()

	err := db.Model(tenant).Updates(map[string]interface{}{
		"usage_initial_sent":    0,
		"usage_ai_conversation": 0,
		"usage_followups_sent":  0,
		"usage_reset_at":        now,
	}).Error
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	res := db.Model(&models.Lead{}).
		Where("tenant_id = ?", tenant.TenantID).
		Updates(map[string]interface{}{
			"initial_message_sent":      false,
			"initial_message_timestamp": nil,
			"followup_statuses":         models.FollowupStatusList{{}, {}, {}},
			"last_responded_at":         nil,
		})
	if res.Error != nil {
		RespondError(c, res.Error.Error(), http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, gin.H{
		"message":     "uso do tenant zerado",
		"leads_reset": res.RowsAffected,
	})
}

// GetPlanRequests lista as trocas de plano aguardando decisão.
func GetPlanRequests(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	var tenants []models.Tenant
	err := db.Where("pending_plan_status = ?", models.PLAN_REQUEST_PENDING).Find(&tenants).Error
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]gin.H, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, gin.H{
			"tenant_id":      t.TenantID,
			"business_name":  t.BusinessName,
			"owner_name":     t.OwnerName,
			"email":          t.Email,
			"current_plan":   t.SubscriptionPlan,
			"requested_plan": t.PendingPlanID,
			"requested_at":   t.PendingPlanRequestedAt,
		})
	}
	RespondSuccess(c, out)
}

type PlanRequestDecision struct {
	Approve bool `json:"approve" form:"approve"`
}

// ResolvePlanRequest aprova ou rejeita a troca pendente. Aprovação troca o
// plano e abre um ciclo de 30 dias.
func ResolvePlanRequest(c *gin.Context) {
	tenant, ok := findTenant(c)
	if !ok {
		return
	}
	if !tenant.HasPendingPlanRequest() {
		RespondError(c, "nenhuma troca de plano pendente", http.StatusBadRequest)
		return
	}

	var req PlanRequestDecision
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if req.Approve {
		now := time.Now()
		end := now.AddDate(0, 0, 30)
		err := db.Model(tenant).Updates(map[string]interface{}{
			"subscription_plan":         tenant.PendingPlanID,
			"subscription_start_date":   now,
			"subscription_end_date":     end,
			"pending_plan_id":           "",
			"pending_plan_status":       "",
			"pending_plan_requested_at": nil,
		}).Error
		if err != nil {
			RespondError(c, err.Error(), http.StatusInternalServerError)
			return
		}
		RespondSuccess(c, gin.H{"message": "troca de plano aprovada"})
		return
	}

	err := db.Model(tenant).Update("pending_plan_status", models.PLAN_REQUEST_REJECTED).Error
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"message": "troca de plano rejeitada"})
}

// DeduplicateTenantLeads roda a dedup por telefone do tenant.
func DeduplicateTenantLeads(c *gin.Context) {
	tenant, ok := findTenant(c)
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)

	removed, err := leads.Deduplicate(db, tenant.TenantID)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"message": "deduplicação concluída", "removed": removed})
}
