package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"receipt-recognizer/internal/receipt"
)

// fieldLabels defines the display order and icons of the result message.
var fieldLabels = []struct{ key, label string }{
	{receipt.Source, "👤 Sender"},
	{receipt.Destination, "👥 Recipient"},
	{receipt.Amount, "💰 Amount"},
	{receipt.Fee, "📊 Fee"},
	{receipt.Date, "📅 Date"},
	{receipt.Bank, "🏦 Bank"},
	{receipt.OperationID, "📄 Doc number"},
}

// FormatResult renders normalized fields for a chat message. Amounts get the
// typed decimal formatting when the mapping is valid enough to build one.
func FormatResult(fields receipt.Fields) string {
	var lines []string
	if receipt.Valid(fields) {
		lines = append(lines, "✅ Receipt recognized", "")
	} else {
		missing := receipt.Missing(fields)
		lines = append(lines,
			"⚠️ Receipt recognized partially",
			"Missing: "+strings.Join(missing, ", "), "")
	}

	for _, fl := range fieldLabels {
		v := strings.TrimSpace(fields[fl.key])
		if v == "" {
			continue
		}
		if fl.key == receipt.Amount || fl.key == receipt.Fee {
			if d, err := receipt.ParseAmount(v); err == nil {
				v = d.StringFixed(2) + " RUB"
			}
		}
		lines = append(lines, fmt.Sprintf("%s: %s", fl.label, v))
	}
	return strings.Join(lines, "\n")
}

// FormatError renders a recognition failure for the user.
func FormatError(err error) string {
	return "❌ Error: " + err.Error()
}

// AuditHeader captions the original photo when forwarded to the audit chat.
func AuditHeader(msg *tgbotapi.Message) string {
	user := msg.From
	name := ""
	if user != nil {
		name = user.UserName
		if name == "" {
			name = user.FirstName
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 Receipt from @%s\n", name)
	if user != nil {
		fmt.Fprintf(&b, "ID: %d\n", user.ID)
	}
	fmt.Fprintf(&b, "Time: %s\n", msg.Time().Format("2006-01-02 15:04:05"))
	return b.String()
}
