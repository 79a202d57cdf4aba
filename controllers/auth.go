package controllers

import (
	"net/http"
	"strings"
	"time"

	dbpkg "autoresponder/db"
	"autoresponder/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	BusinessName     string `json:"business_name" form:"business_name"`
	OwnerName        string `json:"owner_name" form:"owner_name"`
	Email            string `json:"email" form:"email"`
	Password         string `json:"password" form:"password"`
	SubscriptionPlan string `json:"subscription_plan" form:"subscription_plan"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type LoginResponse struct {
	Token  string        `json:"token"`
	Tenant models.Tenant `json:"tenant"`
}

// RegisterTenant cria a conta desativada e desaprovada; o admin libera
// depois. Settings default já nascem junto.
func RegisterTenant(c *gin.Context) {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	tenant := models.Tenant{
		TenantID:     uuid.NewString(),
		BusinessName: strings.TrimSpace(req.BusinessName),
		OwnerName:    strings.TrimSpace(req.OwnerName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Password:     req.Password,
		IsActive:     false,
		IsApproved:   false,
	}
	if missing := tenant.MissingFields(); missing != "" {
		RespondError(c, missing+" é obrigatório", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var count int
	db.Model(&models.Tenant{}).Where("email = ?", tenant.Email).Count(&count)
	if count > 0 {
		RespondError(c, "email já cadastrado", http.StatusConflict)
		return
	}

	if req.SubscriptionPlan != "" {
		var plans int
		db.Model(&models.SubscriptionPlan{}).
			Where("plan_id = ?", req.SubscriptionPlan).Count(&plans)
		if plans == 0 {
			RespondError(c, "plano inválido", http.StatusBadRequest)
			return
		}
		tenant.SubscriptionPlan = req.SubscriptionPlan
	} else {
		tenant.SubscriptionPlan = "silver"
	}
	now := time.Now()
	end := now.AddDate(0, 0, 30)
	tenant.SubscriptionStartDate = &now
	tenant.SubscriptionEndDate = &end

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		RespondError(c, "erro ao processar senha", http.StatusInternalServerError)
		return
	}
	tenant.Password = string(hash)

	if err := db.Create(&tenant).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := db.Create(models.NewSettings(tenant.TenantID)).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	tenant.Password = ""
	c.JSON(http.StatusCreated, tenant)
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		RespondError(c, "email e password são obrigatórios", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var tenant models.Tenant
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := db.Where("email = ?", email).First(&tenant).Error; err != nil {
		RespondError(c, "email ou senha inválidos", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(tenant.Password), []byte(req.Password)); err != nil {
		RespondError(c, "email ou senha inválidos", http.StatusUnauthorized)
		return
	}

	if !tenant.IsApproved {
		RespondError(c, "conta aguardando aprovação", http.StatusForbidden)
		return
	}
	if !tenant.IsActive {
		RespondError(c, "conta bloqueada", http.StatusForbidden)
		return
	}

	signed, err := signTenantToken(tenant.TenantID, tenant.Email)
	if err != nil {
		RespondError(c, "erro ao assinar token", http.StatusInternalServerError)
		return
	}

	tenant.Password = ""
	RespondSuccess(c, LoginResponse{Token: signed, Tenant: tenant})
}
