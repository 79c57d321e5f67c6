package telegram

import (
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"receipt-recognizer/internal/recognize"
	"receipt-recognizer/internal/store"
)

const usageText = "Send a receipt photo (or PDF document) for recognition.\n" +
	"The result will be forwarded to the audit chat.\n" +
	"Commands: /health, /engine"

type Router struct {
	Bot     *tgbotapi.BotAPI
	Manager *recognize.Manager
	// Engines available for /engine switching, by name.
	Engines map[string]recognize.Engine
	// Repo is the optional recognition cache, nil without a database.
	Repo        *store.RecognitionRepo
	AuditChatID int64
	Log         *zap.Logger
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	cid := msg.Chat.ID

	switch {
	case msg.IsCommand():
		r.handleCommand(msg)
	case len(msg.Photo) > 0:
		r.acceptPhoto(msg)
	case msg.Document != nil:
		r.acceptDocument(msg)
	default:
		r.send(cid, usageText)
	}
}

func (r *Router) handleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, usageText)
	case "health":
		r.send(cid, "✅ OK")
	case "engine":
		r.send(cid, r.switchEngine(cid, msg.CommandArguments()))
	default:
		r.send(cid, "Unknown command")
	}
}

// switchEngine handles the /engine command: no argument reports the current
// selection, "default" clears the per-chat choice, a known name switches to it.
func (r *Router) switchEngine(cid int64, args string) string {
	name := strings.ToLower(strings.TrimSpace(args))
	switch {
	case name == "":
		return "Current engine: " + r.Manager.Get(cid).Name() +
			"\nUsage: /engine <" + strings.Join(append(r.engineNames(), "default"), "|") + ">"
	case name == "default":
		r.Manager.Reset(cid)
		return "Switched to default engine: " + r.Manager.Get(cid).Name()
	}
	e, ok := r.Engines[name]
	if !ok {
		return "Unknown engine. Available: " + strings.Join(r.engineNames(), " | ")
	}
	r.Manager.Set(cid, e)
	return "Switched to engine: " + name
}

func (r *Router) engineNames() []string {
	names := make([]string, 0, len(r.Engines))
	for name := range r.Engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Router) send(chatID int64, text string) {
	if _, err := r.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.Log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
