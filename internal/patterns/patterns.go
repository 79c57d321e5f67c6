// Package patterns extracts receipt fields from plain text, for inputs where
// recognition already happened elsewhere: searchable PDFs and raw OCR output.
package patterns

import (
	"regexp"
	"strings"

	"receipt-recognizer/internal/receipt"
)

var (
	reAmount      = regexp.MustCompile(`(?i)(\d+[.,]\d{2})\s*(?:руб|RUB|₽|р\.)`)
	reCard        = regexp.MustCompile(`\*\*\*\*\s*\d{4}`)
	reDate        = regexp.MustCompile(`\d{1,2}[-./]\d{1,2}[-./]\d{2,4}`)
	reTime        = regexp.MustCompile(`\d{1,2}:\d{2}(?::\d{2})?`)
	reOperationID = regexp.MustCompile(`(?i)(?:№|#|номер)[\s:]*(\d+)`)
	reCommission  = regexp.MustCompile(`(?i)комисс(?:ия)?[\s:]*(\d+[.,]\d{2})`)
)

// banks maps lowercase markers to a display name. First marker found wins.
var banks = []struct{ marker, name string }{
	{"сбер", "Сбербанк"},
	{"sber", "Сбербанк"},
	{"тинькофф", "Тинькофф"},
	{"tinkoff", "Тинькофф"},
	{"альфа", "Альфа-банк"},
	{"alfa", "Альфа-банк"},
	{"втб", "ВТБ"},
}

// Extract pulls whatever receipt fields the text shows. Keys follow the
// canonical schema where the mapping is unambiguous; masked card numbers are
// taken in reading order as source then destination. Fields the text does not
// show are simply absent.
func Extract(text string) receipt.Fields {
	f := receipt.Fields{}

	if m := reAmount.FindStringSubmatch(text); m != nil {
		f[receipt.Amount] = m[1]
	}
	if m := reCommission.FindStringSubmatch(text); m != nil {
		f[receipt.Fee] = m[1]
	}

	date := reDate.FindString(text)
	clock := reTime.FindString(text)
	if combined := receipt.CombineDateTime(date, clock); combined != "" {
		f[receipt.Date] = combined
	}

	cards := reCard.FindAllString(text, 2)
	if len(cards) > 0 {
		f[receipt.Source] = cards[0]
	}
	if len(cards) > 1 {
		f[receipt.Destination] = cards[1]
	}

	if m := reOperationID.FindStringSubmatch(text); m != nil {
		f[receipt.OperationID] = m[1]
	}
	if bank := DetectBank(text); bank != "" {
		f[receipt.Bank] = bank
	}
	return f
}

// DetectBank guesses the issuing bank from markers in the text.
func DetectBank(text string) string {
	lower := strings.ToLower(text)
	for _, b := range banks {
		if strings.Contains(lower, b.marker) {
			return b.name
		}
	}
	return ""
}
