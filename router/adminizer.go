package router

import (
	"crypto/subtle"
	"net/http"

	"autoresponder/controllers"

	"github.com/gin-gonic/gin"
)

// Adminizer protege as rotas administrativas com a chave do operador da
// plataforma (header X-Admin-Key).
func Adminizer(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Admin-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) != 1 {
			controllers.RespondError(c, "admin key inválida", http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
