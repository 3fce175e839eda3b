package config

import (
	"os"
	"strings"

	"github.com/mind-engage/paperdesk/internal/compliance"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	BlobBasePath string

	AuthSecret    string
	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	// Policy tables; empty means the embedded defaults only.
	TablesPath string

	HintsRequired        bool
	ExplanationsRequired bool
	SubjectRules         []string // e.g. "units"
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:                 mode,
		HTTPAddr:             envOr("HTTP_ADDR", ":8080"),
		DBDriver:             envOr("DB_DRIVER", "sqlite"),
		DBDSN:                envOr("DB_DSN", ""),
		BlobBasePath:         envOr("BLOB_BASE_PATH", "./data"),
		AuthSecret:           envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:            envOr("ADMIN_USER", "admin"),
		AdminPassHash:        envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		CORSOriginsOnline:    csvOr("CORS_ORIGINS_ONLINE", "https://admin.paperdesk.app"),
		CORSOriginsOffline:   csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),
		TablesPath:           os.Getenv("TABLES_PATH"),
		HintsRequired:        envBool("HINTS_REQUIRED", false),
		ExplanationsRequired: envBool("EXPLANATIONS_REQUIRED", false),
		SubjectRules:         csvOr("SUBJECT_RULES", ""),
	}
}

// CORSOrigins picks the origin list for the running mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

// ComplianceSettings turns the editor toggles into engine settings.
func (c Config) ComplianceSettings() compliance.Settings {
	s := compliance.Settings{
		HintsRequired:        c.HintsRequired,
		ExplanationsRequired: c.ExplanationsRequired,
		SubjectRules:         map[string]bool{},
	}
	for _, r := range c.SubjectRules {
		s.SubjectRules[strings.ToLower(r)] = true
	}
	return s
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
