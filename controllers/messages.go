package controllers

import (
	"net/http"
	"strconv"
	"time"

	dbpkg "autoresponder/db"
	"autoresponder/models"

	"github.com/gin-gonic/gin"
)

// GetLeadMessages lista o histórico de conversa de um lead.
func GetLeadMessages(c *gin.Context) {
	db := dbpkg.DBInstance(c)

	leadID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, "id inválido", http.StatusBadRequest)
		return
	}

	var lead models.Lead
	err = db.Where("id = ? AND tenant_id = ?", leadID, c.Param("tenantId")).First(&lead).Error
	if err != nil {
		RespondError(c, "lead não encontrado", http.StatusNotFound)
		return
	}

	var msgs []models.Message
	if err := db.Where("lead_id = ?", leadID).Order("timestamp asc").Find(&msgs).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, msgs)
}

type MessageRequest struct {
	Sender string `json:"sender" form:"sender"`
	Body   string `json:"body" form:"body"`
}

// CreateLeadMessage anota uma mensagem no histórico (ex: registro manual de
// uma conversa por fora).
func CreateLeadMessage(c *gin.Context) {
	db := dbpkg.DBInstance(c)

	leadID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, "id inválido", http.StatusBadRequest)
		return
	}

	var lead models.Lead
	err = db.Where("id = ? AND tenant_id = ?", leadID, c.Param("tenantId")).First(&lead).Error
	if err != nil {
		RespondError(c, "lead não encontrado", http.StatusNotFound)
		return
	}

	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Body == "" {
		RespondError(c, "body é obrigatório", http.StatusBadRequest)
		return
	}
	if req.Sender == "" {
		req.Sender = "agent"
	}

	now := time.Now()
	msg := models.Message{LeadID: leadID, Sender: req.Sender, Body: req.Body, Timestamp: &now}
	if err := db.Create(&msg).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
