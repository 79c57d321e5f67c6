package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"receipt-recognizer/internal/receipt"
	"receipt-recognizer/internal/util"
)

// cacheMaxAge: how long a stored recognition of the same image stays valid.
const cacheMaxAge = 24 * time.Hour

func (r *Router) acceptPhoto(msg *tgbotapi.Message) {
	ph := msg.Photo[len(msg.Photo)-1] // largest size last
	data, err := r.downloadFile(ph.FileID)
	if err != nil {
		r.send(msg.Chat.ID, FormatError(err))
		return
	}
	r.process(msg, data, util.SniffMime(data))
}

func (r *Router) acceptDocument(msg *tgbotapi.Message) {
	doc := msg.Document
	mime := doc.MimeType
	if !strings.HasPrefix(mime, "image/") && mime != "application/pdf" {
		r.send(msg.Chat.ID, "❌ File is not an image or PDF")
		return
	}
	data, err := r.downloadFile(doc.FileID)
	if err != nil {
		r.send(msg.Chat.ID, FormatError(err))
		return
	}
	r.process(msg, data, mime)
}

func (r *Router) process(msg *tgbotapi.Message, data []byte, contentType string) {
	cid := msg.Chat.ID
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	progress, _ := r.Bot.Send(tgbotapi.NewMessage(cid, "⏳ Processing receipt..."))

	engine := r.Manager.Get(cid)
	hash := util.SHA256Hex(data)

	fields, cached := r.cached(ctx, hash, engine.Name())
	if !cached {
		raw, err := engine.Recognize(ctx, data, contentType)
		if err != nil {
			r.Log.Error("recognition failed",
				zap.Int64("chat_id", cid), zap.String("engine", engine.Name()), zap.Error(err))
			r.edit(cid, progress.MessageID, FormatError(err))
			return
		}
		fields = receipt.Normalize(raw)
		r.remember(ctx, cid, hash, engine.Name(), fields)
	}

	text := FormatResult(fields)
	r.edit(cid, progress.MessageID, text)
	r.forwardToAudit(msg, text)
}

// cached looks the image up in the recognition log, if one is configured.
func (r *Router) cached(ctx context.Context, hash, engine string) (receipt.Fields, bool) {
	if r.Repo == nil {
		return nil, false
	}
	row, err := r.Repo.FindByHash(ctx, hash, engine, cacheMaxAge)
	if err != nil {
		return nil, false
	}
	return row.Fields, true
}

func (r *Router) remember(ctx context.Context, chatID int64, hash, engine string, fields receipt.Fields) {
	if r.Repo == nil {
		return
	}
	if err := r.Repo.Upsert(ctx, chatID, hash, engine, fields, receipt.Valid(fields)); err != nil {
		r.Log.Warn("storing recognition failed", zap.Error(err))
	}
}

// forwardToAudit sends the original file and the recognition result to the
// audit chat. Failures are logged, the user already has their answer.
func (r *Router) forwardToAudit(msg *tgbotapi.Message, resultText string) {
	if r.AuditChatID == 0 {
		return
	}
	header := AuditHeader(msg)

	var err error
	switch {
	case len(msg.Photo) > 0:
		fwd := tgbotapi.NewPhoto(r.AuditChatID, tgbotapi.FileID(msg.Photo[len(msg.Photo)-1].FileID))
		fwd.Caption = header
		_, err = r.Bot.Send(fwd)
	case msg.Document != nil:
		fwd := tgbotapi.NewDocument(r.AuditChatID, tgbotapi.FileID(msg.Document.FileID))
		fwd.Caption = header
		_, err = r.Bot.Send(fwd)
	}
	if err != nil {
		r.Log.Error("forwarding original to audit failed", zap.Error(err))
	}

	if _, err := r.Bot.Send(tgbotapi.NewMessage(r.AuditChatID, "Recognition result:\n\n"+resultText)); err != nil {
		r.Log.Error("forwarding result to audit failed", zap.Error(err))
	}
}

func (r *Router) edit(chatID int64, messageID int, text string) {
	if messageID == 0 {
		r.send(chatID, text)
		return
	}
	if _, err := r.Bot.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		r.send(chatID, text)
	}
}

func (r *Router) downloadFile(fileID string) ([]byte, error) {
	file, err := r.Bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", r.Bot.Token, file.FilePath)
	return download(url)
}

func download(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
