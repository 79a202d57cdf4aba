package controllers

import (
	"net/http"
	"time"

	dbpkg "autoresponder/db"
	"autoresponder/models"

	"github.com/gin-gonic/gin"
)

func GetKnowledgebase(c *gin.Context) {
	db := dbpkg.DBInstance(c)

	var kb models.Knowledgebase
	if err := db.Where("tenant_id = ?", c.Param("tenantId")).First(&kb).Error; err != nil {
		RespondSuccess(c, gin.H{"content": ""})
		return
	}
	RespondSuccess(c, kb)
}

type KnowledgebaseRequest struct {
	Content string `json:"content" form:"content"`
}

// UpdateKnowledgebase faz upsert do contexto de IA do tenant.
func UpdateKnowledgebase(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	tenantID := c.Param("tenantId")

	var req KnowledgebaseRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now()
	var kb models.Knowledgebase
	if err := db.Where("tenant_id = ?", tenantID).First(&kb).Error; err != nil {
		kb = models.Knowledgebase{TenantID: tenantID, Content: req.Content, UpdatedAt: &now}
		if err := db.Create(&kb).Error; err != nil {
			RespondError(c, err.Error(), http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusCreated, kb)
		return
	}

	kb.Content = req.Content
	kb.UpdatedAt = &now
	if err := db.Save(&kb).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusCreated, kb)
}
