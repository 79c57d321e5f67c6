package config

import (
	"log"
	"os"
)

type Config struct {
	Port string

	// Remote recognizer service. Empty URL switches the client to local
	// PDF-only mode.
	APIURL      string
	ClientToken string

	TelegramBotToken string
	AuditChatID      string
	WebhookURL       string

	// Optional recognition cache / audit log.
	DatabaseURL string

	// Direct engines.
	YCOAuthToken string
	YCFolderID   string
	GeminiAPIKey string
	GeminiModel  string

	DefaultEngine string
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads the bot configuration. Only the Telegram token is strictly
// required; every engine degrades to unavailable without its credentials.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8000"),

		APIURL:      getEnv("RECEIPT_RECOGNIZER_API_URL", ""),
		ClientToken: getEnv("RECEIPT_RECOGNIZER_CLIENT_TOKEN", ""),

		TelegramBotToken: mustEnv("TELEGRAM_BOT_TOKEN"),
		AuditChatID:      getEnv("TELEGRAM_AUDIT_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		YCOAuthToken: getEnv("YC_OAUTH_TOKEN", ""),
		YCFolderID:   getEnv("YC_FOLDER_ID", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		DefaultEngine: getEnv("RECEIPT_RECOGNIZER_ENGINE", "api"),
	}
}
