package controllers

import (
	"net/http"

	dbpkg "autoresponder/db"
	"autoresponder/models"

	"github.com/gin-gonic/gin"
)

func GetPlans(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	var plans []models.SubscriptionPlan
	if err := db.Where("is_active = ?", true).Order("price asc").Find(&plans).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, plans)
}

func GetPlanByID(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	var plan models.SubscriptionPlan
	if err := db.Where("plan_id = ?", c.Param("planId")).First(&plan).Error; err != nil {
		RespondError(c, "plano não encontrado", http.StatusNotFound)
		return
	}
	RespondSuccess(c, plan)
}

func CreatePlan(c *gin.Context) {
	db := dbpkg.DBInstance(c)

	var plan models.SubscriptionPlan
	if err := c.Bind(&plan); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if plan.PlanID == "" || plan.PlanName == "" {
		RespondError(c, "plan_id e plan_name são obrigatórios", http.StatusBadRequest)
		return
	}

	var count int
	db.Model(&models.SubscriptionPlan{}).Where("plan_id = ?", plan.PlanID).Count(&count)
	if count > 0 {
		RespondError(c, "plan_id já existe", http.StatusConflict)
		return
	}

	plan.ID = 0
	plan.IsActive = true
	if err := db.Create(&plan).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

func UpdatePlan(c *gin.Context) {
	db := dbpkg.DBInstance(c)

	var plan models.SubscriptionPlan
	if err := db.Where("plan_id = ?", c.Param("planId")).First(&plan).Error; err != nil {
		RespondError(c, "plano não encontrado", http.StatusNotFound)
		return
	}

	var in models.SubscriptionPlan
	if err := c.Bind(&in); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	// plan_id é imutável; o resto segue o que veio
	plan.PlanName = pick(in.PlanName, plan.PlanName)
	if in.Price > 0 {
		plan.Price = in.Price
	}
	if in.InitialMessageLimit > 0 {
		plan.InitialMessageLimit = in.InitialMessageLimit
	}
	if in.ConversationLimit > 0 {
		plan.ConversationLimit = in.ConversationLimit
	}
	if in.FollowupLimit > 0 {
		plan.FollowupLimit = in.FollowupLimit
	}
	if in.Features != nil {
		plan.Features = in.Features
	}

	if err := db.Save(&plan).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, plan)
}

// DeletePlan desativa (soft): tenants no plano continuam referenciando ele.
func DeletePlan(c *gin.Context) {
	db := dbpkg.DBInstance(c)

	var plan models.SubscriptionPlan
	if err := db.Where("plan_id = ?", c.Param("planId")).First(&plan).Error; err != nil {
		RespondError(c, "plano não encontrado", http.StatusNotFound)
		return
	}
	if err := db.Model(&plan).Update("is_active", false).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"message": "plano desativado"})
}

func pick(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
