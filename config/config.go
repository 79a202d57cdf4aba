package config

import (
	"encoding/json"
	"log"
	"os"
)

type Configuration struct {
	ApiPort string `json:"api_port"`
	Debug   bool   `json:"debug"`

	Database string `json:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`

	// SessionDir holds one WhatsApp session folder per tenant
	// (session-<tenantId>).
	SessionDir string `json:"session_dir"`
	// BridgeURL points at the whatsapp-web gateway this backend drives.
	BridgeURL string `json:"bridge_url"`
	// ImportDir is where tenant lead spreadsheets are dropped.
	ImportDir string `json:"import_dir"`

	Security struct {
		JwtSecret string `json:"jwt_secret"`
		AdminKey  string `json:"admin_key"`
	} `json:"security"`
}

func Get(path string) Configuration {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	var c Configuration
	if err := json.Unmarshal(b, &c); err != nil {
		log.Fatal(err)
	}

	// defaults (pra evitar nil/zero chato)
	if c.ApiPort == "" {
		c.ApiPort = "5000"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.SessionDir == "" {
		c.SessionDir = ".wwebjs_auth"
	}
	if c.BridgeURL == "" {
		c.BridgeURL = "http://localhost:3001"
	}
	if c.ImportDir == "" {
		c.ImportDir = "imports"
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = getenv("JWT_SECRET", "CHANGE_ME")
	}
	if c.Security.AdminKey == "" {
		c.Security.AdminKey = getenv("ADMIN_KEY", "CHANGE_ME")
	}

	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
