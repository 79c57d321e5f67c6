package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"receipt-recognizer/internal/config"
	"receipt-recognizer/internal/httpserver"
	"receipt-recognizer/internal/recognize"
	"receipt-recognizer/internal/recognize/api"
	"receipt-recognizer/internal/recognize/gemini"
	"receipt-recognizer/internal/recognize/yandex"
	"receipt-recognizer/internal/store"
	"receipt-recognizer/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Load()

	// --- Postgres (optional) ---
	var db *sql.DB
	var repo *store.RecognitionRepo
	if dsn := resolveDSN(cfg.DatabaseURL); dsn != "" {
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatal("sql.Open", zap.Error(err))
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(ctx); err != nil {
			cancel()
			log.Fatal("db ping", zap.Error(err))
		}
		cancel()

		repo = store.NewRecognitionRepo(db)
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		if err := repo.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatal("db schema", zap.Error(err))
		}
		cancel()
		log.Info("db connected", zap.String("dsn", safeDSNSummary(dsn)))
	} else {
		log.Info("no database configured, recognition cache disabled")
	}

	// --- Engines ---
	engines := map[string]recognize.Engine{}
	apiClient, err := api.New(cfg.APIURL, cfg.ClientToken, log)
	if err != nil {
		log.Fatal("recognizer api client", zap.Error(err))
	}
	engines[apiClient.Name()] = apiClient
	if cfg.YCOAuthToken != "" && cfg.YCFolderID != "" {
		e := yandex.New(cfg.YCOAuthToken, cfg.YCFolderID)
		engines[e.Name()] = e
	}
	if cfg.GeminiAPIKey != "" {
		e := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
		engines[e.Name()] = e
	}

	def, ok := engines[cfg.DefaultEngine]
	if !ok {
		log.Fatal("default engine not configured", zap.String("engine", cfg.DefaultEngine))
	}

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal("telegram", zap.Error(err))
	}
	bot.Debug = false

	auditChatID, err := parseChatID(cfg.AuditChatID)
	if err != nil {
		log.Fatal("audit chat id", zap.Error(err))
	}

	router := &telegram.Router{
		Bot:         bot,
		Manager:     recognize.NewManager(def),
		Engines:     engines,
		Repo:        repo,
		AuditChatID: auditChatID,
		Log:         log,
	}

	httpserver.Register(db)
	addr := "0.0.0.0:" + cfg.Port

	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		startWebhookMode(log, addr, bot, router, webhookURL)
	} else {
		startPollingMode(log, addr, bot, router)
	}
}

// ---------------- Modes -----------------

func startWebhookMode(log *zap.Logger, addr string, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string) {
	// секретный путь вебхука
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.Fatal("webhook", zap.Error(err))
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.Fatal("webhook register", zap.Error(err))
	}

	// ListenForWebhook registers its handler on the default mux
	updates := bot.ListenForWebhook(path)

	go func() {
		for upd := range updates {
			r.HandleUpdate(upd)
		}
		log.Info("webhook updates channel closed")
	}()

	log.Info("webhook listening", zap.String("addr", addr), zap.String("path", path))
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal("http", zap.Error(err))
	}
}

func startPollingMode(log *zap.Logger, addr string, bot *tgbotapi.BotAPI, r *telegram.Router) {
	go func() {
		log.Info("health server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Fatal("http", zap.Error(err))
		}
	}()

	runPolling(context.Background(), log, bot, r.HandleUpdate)
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 от Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, log *zap.Logger, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Info("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := retryDelayFromError(err)
			if d < baseDelay {
				d = baseDelay
			}
			if d > maxDelay {
				d = maxDelay
			}
			log.Warn("polling error", zap.Error(err), zap.Duration("retry_in", d))
			time.Sleep(d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			time.Sleep(200 * time.Millisecond)
		}
	}
}

// ---------------- Helpers -----------------

func parseChatID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func resolveDSN(databaseURL string) string {
	if v := strings.TrimSpace(databaseURL); v != "" {
		return v
	}
	// Build DSN from POSTGRES_* / PG* pieces, if a host is configured at all.
	host := strings.TrimSpace(os.Getenv("PGHOST"))
	if host == "" {
		return ""
	}
	user := getenvDefault("POSTGRES_USER", "receipts")
	pass := os.Getenv("POSTGRES_PASSWORD")
	port := getenvDefault("PGPORT", "5432")
	name := getenvDefault("POSTGRES_DB", "receipts")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func shortHash(s string) string {
	// лёгкий хэш для пути вебхука (не крипто, но стабильно для токена)
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%016x", h.Sum64())
}

func safeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	name := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, name, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, name, user)
}
