package telegram

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"receipt-recognizer/internal/patterns"
	"receipt-recognizer/internal/receipt"
)

func TestFormatResultValid(t *testing.T) {
	text := FormatResult(receipt.Fields{
		"source":      "MIR ****1723",
		"destination": "****2853",
		"amount":      "8700.00",
		"date":        "2020-03-31T11:44:30",
	})

	assert.Contains(t, text, "✅ Receipt recognized")
	assert.Contains(t, text, "👤 Sender: MIR ****1723")
	assert.Contains(t, text, "👥 Recipient: ****2853")
	assert.Contains(t, text, "💰 Amount: 8700.00 RUB")
	assert.Contains(t, text, "📅 Date: 2020-03-31T11:44:30")
	assert.NotContains(t, text, "Fee", "absent fee is not rendered")
}

func TestFormatResultPartial(t *testing.T) {
	text := FormatResult(receipt.Fields{
		"source": "a",
		"amount": "100,00",
	})

	assert.Contains(t, text, "⚠️ Receipt recognized partially")
	assert.Contains(t, text, "Missing: destination, date")
	assert.Contains(t, text, "💰 Amount: 100.00 RUB")
}

func TestFormatResultExtras(t *testing.T) {
	text := FormatResult(receipt.Fields{
		"source":       "a",
		"destination":  "b",
		"amount":       "1.00",
		"fee":          "0.50",
		"date":         "2020-03-31",
		"bank":         "Сбербанк",
		"operation_id": "5014320",
	})

	assert.Contains(t, text, "📊 Fee: 0.50 RUB")
	assert.Contains(t, text, "🏦 Bank: Сбербанк")
	assert.Contains(t, text, "📄 Doc number: 5014320")
}

// Extracted fields must survive normalization on the way to the chat message,
// auxiliary ones included.
func TestFormatResultAfterNormalize(t *testing.T) {
	raw := patterns.Extract("СБЕРБАНК\nОперация № 5014320\n31.03.2020 11:44:30\n" +
		"с карты **** 1723\nна карту **** 2853\nСумма 8700.00 руб.\n")
	text := FormatResult(receipt.Normalize(raw))

	assert.Contains(t, text, "✅ Receipt recognized")
	assert.Contains(t, text, "👤 Sender: **** 1723")
	assert.Contains(t, text, "👥 Recipient: **** 2853")
	assert.Contains(t, text, "💰 Amount: 8700.00 RUB")
	assert.Contains(t, text, "📅 Date: 2020-03-31T11:44:30")
	assert.Contains(t, text, "🏦 Bank: Сбербанк")
	assert.Contains(t, text, "📄 Doc number: 5014320")
}

func TestAuditHeader(t *testing.T) {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 42, UserName: "alice"},
		Date: int(time.Date(2020, 3, 31, 11, 44, 30, 0, time.UTC).Unix()),
	}

	header := AuditHeader(msg)
	assert.Contains(t, header, "@alice")
	assert.Contains(t, header, "ID: 42")
	assert.Contains(t, header, msg.Time().Format("2006-01-02 15:04:05"))
}

func TestAuditHeaderFallsBackToFirstName(t *testing.T) {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 7, FirstName: "Bob"},
		Date: int(time.Now().Unix()),
	}
	assert.Contains(t, AuditHeader(msg), "@Bob")
}
