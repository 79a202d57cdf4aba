package controllers

import (
	"net/http"
	"strconv"

	dbpkg "autoresponder/db"
	leadspkg "autoresponder/leads"
	"autoresponder/models"

	"github.com/gin-gonic/gin"
)

func GetLeads(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	var all []models.Lead
	err := db.Where("tenant_id = ?", c.Param("tenantId")).
		Order("timestamp desc").
		Find(&all).Error
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, all)
}

// CreateLead cadastra um lead manual (fora do fluxo de planilha).
func CreateLead(c *gin.Context) {
	db := dbpkg.DBInstance(c)

	var in models.Lead
	if err := c.Bind(&in); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if in.Phone == "" {
		RespondError(c, "phone é obrigatório", http.StatusBadRequest)
		return
	}
	if in.Source == "" {
		in.Source = "Manual"
	}

	lead, created, err := leadspkg.UpsertImported(db, c.Param("tenantId"), in)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, lead)
}

type LeadUpdateRequest struct {
	Notes               *string `json:"notes"`
	AutoFollowupEnabled *bool   `json:"auto_followup_enabled"`
	DetectedStage       *string `json:"detected_stage"`
	Status              *string `json:"status"`
}

// UpdateLead só aceita os campos editáveis pela UI; o resto pertence ao
// pipeline de envio.
func UpdateLead(c *gin.Context) {
	db := dbpkg.DBInstance(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, "id inválido", http.StatusBadRequest)
		return
	}

	var lead models.Lead
	err = db.Where("id = ? AND tenant_id = ?", id, c.Param("tenantId")).First(&lead).Error
	if err != nil {
		RespondError(c, "lead não encontrado", http.StatusNotFound)
		return
	}

	var req LeadUpdateRequest
	if err := c.BindJSON(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	updates := map[string]interface{}{}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.AutoFollowupEnabled != nil {
		updates["auto_followup_enabled"] = *req.AutoFollowupEnabled
	}
	if req.DetectedStage != nil {
		updates["detected_stage"] = *req.DetectedStage
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if len(updates) > 0 {
		if err := db.Model(&lead).Updates(updates).Error; err != nil {
			RespondError(c, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	RespondSuccess(c, lead)
}

func DeleteLead(c *gin.Context) {
	db := dbpkg.DBInstance(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, "id inválido", http.StatusBadRequest)
		return
	}

	res := db.Where("id = ? AND tenant_id = ?", id, c.Param("tenantId")).Delete(&models.Lead{})
	if res.Error != nil {
		RespondError(c, res.Error.Error(), http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		RespondError(c, "lead não encontrado", http.StatusNotFound)
		return
	}
	RespondSuccess(c, gin.H{"message": "lead removido"})
}
