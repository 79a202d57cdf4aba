package controllers

import (
	"net/http"
	"strings"

	dbpkg "autoresponder/db"
	"autoresponder/models"

	"github.com/gin-gonic/gin"
)

const ctxTenantKey = "auth_tenant"

// AuthRequired valida o Bearer token e carrega o tenant no contexto.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			RespondError(c, "token ausente", http.StatusUnauthorized)
			c.Abort()
			return
		}
		raw := strings.TrimSpace(h[len("Bearer "):])
		claims, ok := parseTenantToken(raw)
		if !ok {
			RespondError(c, "token inválido", http.StatusUnauthorized)
			c.Abort()
			return
		}

		db := dbpkg.DBInstance(c)
		if db == nil {
			RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
			c.Abort()
			return
		}
		var tenant models.Tenant
		if err := db.Where("tenant_id = ?", claims.TenantID).First(&tenant).Error; err != nil {
			RespondError(c, "tenant não encontrado", http.StatusUnauthorized)
			c.Abort()
			return
		}

		c.Set(ctxTenantKey, tenant)
		c.Next()
	}
}

// GetTenantLogged devolve o tenant carregado pelo AuthRequired.
func GetTenantLogged(c *gin.Context) (models.Tenant, bool) {
	v, ok := c.Get(ctxTenantKey)
	if !ok {
		return models.Tenant{}, false
	}
	tenant, ok := v.(models.Tenant)
	return tenant, ok
}
