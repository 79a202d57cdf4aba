package router

import (
	"net/http"

	"autoresponder/controllers"

	"github.com/gin-gonic/gin"
)

// Authorizer garante que o token pertence ao :tenantId da rota e que a conta
// está liberada. Roda depois do AuthRequired.
func Authorizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := controllers.GetTenantLogged(c)
		if !ok {
			controllers.RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}

		if tenant.TenantID != c.Param("tenantId") {
			controllers.RespondError(c, "sem acesso a esse tenant", http.StatusForbidden)
			c.Abort()
			return
		}
		if !tenant.IsApproved {
			controllers.RespondError(c, "conta aguardando aprovação", http.StatusForbidden)
			c.Abort()
			return
		}
		if !tenant.IsActive {
			controllers.RespondError(c, "conta bloqueada", http.StatusForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
