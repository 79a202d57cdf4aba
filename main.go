package main

import (
	"context"
	"log"
	"os"

	"autoresponder/config"
	"autoresponder/controllers"
	dbpkg "autoresponder/db"
	"autoresponder/quota"
	"autoresponder/realtime"
	"autoresponder/router"
	"autoresponder/tools"
	"autoresponder/whatsapp"
	"autoresponder/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Variáveis de ambiente (complementam o config.json):
//
//	CONFIG_PATH    caminho do arquivo de configuração (default config.json)
//	JWT_SECRET     segredo dos tokens de login
//	ADMIN_KEY      chave do operador da plataforma (header X-Admin-Key)
//	GROQ_API_KEY   chave da API de completions (sem ela o bot não responde)
//	GROQ_MODEL     modelo de completions (default llama3-8b-8192)
//	AUTOMIGRATE    "1" roda o automigrate no boot (dev)
func main() {
	_ = godotenv.Load()

	cfg := config.Get(getenv("CONFIG_PATH", "config.json"))

	logger := buildLogger(cfg.Debug)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	dbpkg.SetConfigurations(cfg)
	database, err := dbpkg.Connect()
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	gate := quota.NewGate(database)
	hub := realtime.NewHub()

	registry := whatsapp.NewRegistry(database, hub, whatsapp.NewBridgeFactory(cfg.BridgeURL), cfg.SessionDir)
	dispatcher := whatsapp.NewDispatcher(database, hub, gate, tools.NewGroqClient())
	registry.SetMessageHandler(dispatcher)
	controllers.Setup(registry, hub, cfg.Security.JwtSecret)

	// Reconecta os tenants ativos que já tinham sessão.
	go registry.EnsureAll()

	senders := func(tenantID string) (whatsapp.Sender, bool) {
		conn, ok := registry.Get(tenantID)
		if !ok || !conn.Ready() {
			return nil, false
		}
		return conn, true
	}
	scheduler := workers.NewScheduler(database, gate, senders, cfg.ImportDir)
	scheduler.Start(context.Background())

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(dbpkg.SetDBtoContext(database))
	router.Initialize(r, cfg)

	zap.L().Info("server started", zap.String("port", cfg.ApiPort))
	log.Fatal(r.Run(":" + cfg.ApiPort))
}

func buildLogger(debug bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatal(err)
	}
	return logger
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
