package controllers

import (
	"net/http"
	"strconv"

	dbpkg "autoresponder/db"
	"autoresponder/models"

	"github.com/gin-gonic/gin"
)

func leadForTenant(c *gin.Context) (*models.Lead, bool) {
	db := dbpkg.DBInstance(c)

	leadID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, "id inválido", http.StatusBadRequest)
		return nil, false
	}

	var lead models.Lead
	err = db.Where("id = ? AND tenant_id = ?", leadID, c.Param("tenantId")).First(&lead).Error
	if err != nil {
		RespondError(c, "lead não encontrado", http.StatusNotFound)
		return nil, false
	}
	return &lead, true
}

func GetLeadReminders(c *gin.Context) {
	lead, ok := leadForTenant(c)
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)

	var reminders []models.Reminder
	err := db.Where("lead_id = ?", lead.ID).Order("remind_at asc").Find(&reminders).Error
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, reminders)
}

func CreateLeadReminder(c *gin.Context) {
	lead, ok := leadForTenant(c)
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)

	var reminder models.Reminder
	if err := c.Bind(&reminder); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if reminder.Note == "" {
		RespondError(c, "note é obrigatório", http.StatusBadRequest)
		return
	}

	reminder.ID = 0
	reminder.LeadID = lead.ID
	if err := db.Create(&reminder).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusCreated, reminder)
}

func CompleteLeadReminder(c *gin.Context) {
	lead, ok := leadForTenant(c)
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)

	reminderID, err := strconv.ParseInt(c.Param("reminderId"), 10, 64)
	if err != nil {
		RespondError(c, "reminderId inválido", http.StatusBadRequest)
		return
	}

	res := db.Model(&models.Reminder{}).
		Where("id = ? AND lead_id = ?", reminderID, lead.ID).
		Update("completed", true)
	if res.Error != nil {
		RespondError(c, res.Error.Error(), http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		RespondError(c, "lembrete não encontrado", http.StatusNotFound)
		return
	}
	RespondSuccess(c, gin.H{"message": "lembrete concluído"})
}
