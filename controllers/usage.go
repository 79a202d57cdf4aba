package controllers

import (
	"net/http"
	"time"

	dbpkg "autoresponder/db"
	"autoresponder/models"
	"autoresponder/quota"

	"github.com/gin-gonic/gin"
)

// GetUsage devolve plano, contadores do mês (já com o reset de virada
// aplicado) e a troca de plano pendente, se houver.
func GetUsage(c *gin.Context) {
	db := dbpkg.DBInstance(c)

	var tenant models.Tenant
	if err := db.Where("tenant_id = ?", c.Param("tenantId")).First(&tenant).Error; err != nil {
		RespondError(c, "tenant não encontrado", http.StatusNotFound)
		return
	}

	gate := quota.NewGate(db)
	if err := gate.CheckAndReset(&tenant, time.Now()); err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	var plan models.SubscriptionPlan
	db.Where("plan_id = ?", tenant.SubscriptionPlan).First(&plan)

	var pending interface{}
	if tenant.HasPendingPlanRequest() {
		pending = gin.H{
			"plan_id":      tenant.PendingPlanID,
			"requested_at": tenant.PendingPlanRequestedAt,
			"status":       tenant.PendingPlanStatus,
		}
	}

	RespondSuccess(c, gin.H{
		"tenant": gin.H{
			"subscription_plan":       tenant.SubscriptionPlan,
			"subscription_start_date": tenant.SubscriptionStartDate,
			"subscription_end_date":   tenant.SubscriptionEndDate,
			"sheet_path":              tenant.SheetPath,
			"pending_plan_request":    pending,
		},
		"plan": plan,
		"usage": gin.H{
			"initial_sent":     tenant.UsageInitialSent,
			"ai_conversations": tenant.UsageAIConversation,
			"followups_sent":   tenant.UsageFollowupsSent,
			"reset_at":         tenant.UsageResetAt,
		},
	})
}

type SubscriptionRequest struct {
	SubscriptionPlan string `json:"subscription_plan" form:"subscription_plan"`
}

// UpdateSubscription troca o plano do tenant na hora, abrindo um ciclo novo
// de 30 dias com os contadores zerados. A troca mediada pelo admin fica em
// RequestPlanChange.
func UpdateSubscription(c *gin.Context) {
	db := dbpkg.DBInstance(c)

	var tenant models.Tenant
	if err := db.Where("tenant_id = ?", c.Param("tenantId")).First(&tenant).Error; err != nil {
		RespondError(c, "tenant não encontrado", http.StatusNotFound)
		return
	}

	var req SubscriptionRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var count int
	db.Model(&models.SubscriptionPlan{}).
		Where("plan_id = ?", req.SubscriptionPlan).Count(&count)
	if count == 0 {
		RespondError(c, "plano inválido", http.StatusBadRequest)
		return
	}

	now := time.Now()
	end := now.AddDate(0, 0, 30)
	err := db.Model(&tenant).Updates(map[string]interface{}{
		"subscription_plan":       req.SubscriptionPlan,
		"subscription_start_date": now,
		"subscription_end_date":   end,
		"usage_initial_sent":      0,
		"usage_ai_conversation":   0,
		"usage_followups_sent":    0,
		"usage_reset_at":          now,
	}).Error
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"message": "plano de assinatura atualizado"})
}

type PlanChangeRequest struct {
	PlanID string `json:"plan_id" form:"plan_id"`
}

// RequestPlanChange abre um pedido de troca pro admin decidir.
func RequestPlanChange(c *gin.Context) {
	db := dbpkg.DBInstance(c)

	var tenant models.Tenant
	if err := db.Where("tenant_id = ?", c.Param("tenantId")).First(&tenant).Error; err != nil {
		RespondError(c, "tenant não encontrado", http.StatusNotFound)
		return
	}

	var req PlanChangeRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.PlanID == "" {
		RespondError(c, "plan_id é obrigatório", http.StatusBadRequest)
		return
	}
	if tenant.SubscriptionPlan == req.PlanID {
		RespondError(c, "tenant já está nesse plano", http.StatusBadRequest)
		return
	}

	var count int
	db.Model(&models.SubscriptionPlan{}).
		Where("plan_id = ? AND is_active = ?", req.PlanID, true).Count(&count)
	if count == 0 {
		RespondError(c, "plano inexistente", http.StatusBadRequest)
		return
	}

	now := time.Now()
	err := db.Model(&tenant).Updates(map[string]interface{}{
		"pending_plan_id":           req.PlanID,
		"pending_plan_requested_at": now,
		"pending_plan_status":       models.PLAN_REQUEST_PENDING,
	}).Error
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"message": "troca de plano solicitada, aguardando aprovação"})
}

type ImportConfigRequest struct {
	SheetPath string `json:"sheet_path" form:"sheet_path"`
}

// UpdateImportConfig aponta a planilha de leads do tenant.
func UpdateImportConfig(c *gin.Context) {
	db := dbpkg.DBInstance(c)

	var req ImportConfigRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.SheetPath == "" {
		RespondError(c, "sheet_path é obrigatório", http.StatusBadRequest)
		return
	}

	err := db.Model(&models.Tenant{}).
		Where("tenant_id = ?", c.Param("tenantId")).
		Update("sheet_path", req.SheetPath).Error
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"message": "configuração de import atualizada"})
}
