package controllers

import (
	"net/http"

	dbpkg "autoresponder/db"
	"autoresponder/funnel"
	"autoresponder/models"

	"github.com/gin-gonic/gin"
)

// GetSettings devolve as settings do tenant, criando com defaults se não
// existirem. Estágios vazios voltam preenchidos com o funil padrão, mas o
// padrão nunca é persistido.
func GetSettings(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	tenantID := c.Param("tenantId")

	var settings models.Settings
	if err := db.Where("tenant_id = ?", tenantID).First(&settings).Error; err != nil {
		settings = *models.NewSettings(tenantID)
		if err := db.Create(&settings).Error; err != nil {
			RespondError(c, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	out := settings
	if len(out.LeadStages) == 0 {
		out.LeadStages = funnel.DefaultStages()
	}
	RespondSuccess(c, out)
}

type SettingsUpdateRequest struct {
	MessageTemplate           *string            `json:"message_template"`
	BatchSize                 *int               `json:"batch_size"`
	MessageDelayMs            *int64             `json:"message_delay"`
	CompanyProfile            *string            `json:"company_profile"`
	SystemPrompt              *string            `json:"system_prompt"`
	FollowupMessages          *models.StringList `json:"followup_messages"`
	FollowupDelaysMs          *models.Int64List  `json:"followup_delays"`
	FetchIntervalMinutes      *float64           `json:"fetch_interval_minutes"`
	GlobalAutoFollowupEnabled *bool              `json:"global_auto_followup_enabled"`
	AutoFollowupForIncoming   *bool              `json:"auto_followup_for_incoming"`
	LeadStages                *models.StageList  `json:"lead_stages"`
}

// UpdateSettings aplica só os campos presentes no body.
func UpdateSettings(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	tenantID := c.Param("tenantId")

	var settings models.Settings
	if err := db.Where("tenant_id = ?", tenantID).First(&settings).Error; err != nil {
		settings = *models.NewSettings(tenantID)
		if err := db.Create(&settings).Error; err != nil {
			RespondError(c, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	var req SettingsUpdateRequest
	if err := c.BindJSON(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	if req.MessageTemplate != nil {
		settings.MessageTemplate = *req.MessageTemplate
	}
	if req.BatchSize != nil {
		settings.BatchSize = *req.BatchSize
	}
	if req.MessageDelayMs != nil {
		settings.MessageDelayMs = *req.MessageDelayMs
	}
	if req.CompanyProfile != nil {
		settings.CompanyProfile = *req.CompanyProfile
	}
	if req.SystemPrompt != nil {
		settings.SystemPrompt = *req.SystemPrompt
	}
	if req.FollowupMessages != nil {
		settings.FollowupMessages = *req.FollowupMessages
	}
	if req.FollowupDelaysMs != nil {
		settings.FollowupDelaysMs = *req.FollowupDelaysMs
	}
	if req.FetchIntervalMinutes != nil {
		settings.FetchIntervalMinutes = *req.FetchIntervalMinutes
	}
	if req.GlobalAutoFollowupEnabled != nil {
		settings.GlobalAutoFollowupEnabled = *req.GlobalAutoFollowupEnabled
	}
	if req.AutoFollowupForIncoming != nil {
		settings.AutoFollowupForIncoming = *req.AutoFollowupForIncoming
	}
	if req.LeadStages != nil {
		settings.LeadStages = *req.LeadStages
	}

	if err := db.Save(&settings).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusCreated, settings)
}
