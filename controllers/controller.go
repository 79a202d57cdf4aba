package controllers

import (
	"os"

	"autoresponder/realtime"
	"autoresponder/whatsapp"

	"github.com/gin-gonic/gin"
)

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"error": msg})
}

func RespondSuccess(c *gin.Context, payload any) {
	c.JSON(200, payload)
}

// Dependências de runtime que não dão pra injetar via contexto do gin como o
// DB: o registry de conexões, o hub de eventos e o segredo dos tokens. Setup
// roda uma vez no main.
var registry *whatsapp.Registry
var hub *realtime.Hub
var jwtSecret string

func Setup(reg *whatsapp.Registry, h *realtime.Hub, secret string) {
	registry = reg
	hub = h
	jwtSecret = secret
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
