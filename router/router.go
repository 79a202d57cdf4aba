package router

import (
	"autoresponder/config"
	"autoresponder/controllers"
	"autoresponder/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Initialize amarra todas as rotas: públicas, admin (chave de plataforma) e
// as do tenant (token + dono da rota).
func Initialize(r *gin.Engine, cfg config.Configuration) {
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")

	// Públicas: registradas fora do grupo admin de propósito, register e
	// login não exigem a chave de operador
	api.POST("/admin/register", Logger(), controllers.RegisterTenant)
	api.POST("/admin/login", Logger(), controllers.Login)
	api.GET("/plans", Logger(), controllers.GetPlans)
	api.GET("/plans/:planId", Logger(), controllers.GetPlanByID)

	// Admin (operador da plataforma)
	admin := api.Group("/admin")
	admin.Use(Adminizer(cfg.Security.AdminKey))

	admin.GET("/plans", Logger(), controllers.GetPlans)
	admin.POST("/plans", Logger(), controllers.CreatePlan)
	admin.PUT("/plans/:planId", Logger(), controllers.UpdatePlan)
	admin.DELETE("/plans/:planId", Logger(), controllers.DeletePlan)

	admin.GET("/tenants", Logger(), controllers.GetTenants)
	admin.GET("/tenants/:tenantId/stats", Logger(), controllers.GetTenantStats)
	admin.POST("/tenants/:tenantId/approve", Logger(), controllers.ApproveTenant)
	admin.POST("/tenants/:tenantId/block", Logger(), controllers.BlockTenant)
	admin.POST("/tenants/:tenantId/unblock", Logger(), controllers.UnblockTenant)
	admin.DELETE("/tenants/:tenantId", Logger(), controllers.DeleteTenant)
	admin.POST("/tenants/:tenantId/reset-usage", Logger(), controllers.ResetTenantUsage)
	admin.POST("/tenants/:tenantId/plan-request", Logger(), controllers.ResolvePlanRequest)
	admin.GET("/plan-requests", Logger(), controllers.GetPlanRequests)
	admin.POST("/deduplicate-leads/:tenantId", Logger(), controllers.DeduplicateTenantLeads)

	// Tenant-scoped (token + dono da rota + conta liberada)
	tenant := api.Group("/:tenantId")
	tenant.Use(controllers.AuthRequired())
	tenant.Use(Authorizer())

	tenant.GET("/leads", Logger(), controllers.GetLeads)
	tenant.POST("/leads", Logger(), controllers.CreateLead)
	tenant.PUT("/leads/:id", Logger(), controllers.UpdateLead)
	tenant.DELETE("/leads/:id", Logger(), controllers.DeleteLead)
	tenant.GET("/leads/:id/messages", Logger(), controllers.GetLeadMessages)
	tenant.POST("/leads/:id/messages", Logger(), controllers.CreateLeadMessage)
	tenant.GET("/leads/:id/reminders", Logger(), controllers.GetLeadReminders)
	tenant.POST("/leads/:id/reminders", Logger(), controllers.CreateLeadReminder)
	tenant.POST("/leads/:id/reminders/:reminderId/complete", Logger(), controllers.CompleteLeadReminder)

	tenant.GET("/settings", Logger(), controllers.GetSettings)
	tenant.POST("/settings", Logger(), controllers.UpdateSettings)

	tenant.GET("/knowledgebase", Logger(), controllers.GetKnowledgebase)
	tenant.POST("/knowledgebase", Logger(), controllers.UpdateKnowledgebase)

	tenant.GET("/usage", Logger(), controllers.GetUsage)
	tenant.POST("/subscription", Logger(), controllers.UpdateSubscription)
	tenant.POST("/request-plan-change", Logger(), controllers.RequestPlanChange)
	tenant.POST("/import-config", Logger(), controllers.UpdateImportConfig)

	tenant.GET("/whatsapp/qr", Logger(), controllers.GetWhatsappQR)
	tenant.GET("/whatsapp/status", Logger(), controllers.GetWhatsappStatus)
	tenant.GET("/events", controllers.StreamEvents)

	zap.L().Info("routes initialized")
}
