package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is the typed, immutable result of one recognition call.
type Receipt struct {
	Source      string           `json:"source"`
	Destination string           `json:"destination"`
	Amount      decimal.Decimal  `json:"amount"`
	Fee         *decimal.Decimal `json:"fee,omitempty"`
	Date        string           `json:"date"` // ISO-8601
}

// dateLayouts covers what banks actually print, most specific first. The T
// variants come from joining separately extracted date and time values.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006T15:04:05",
	"02.01.2006T15:04",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"02/01/2006T15:04:05",
	"02/01/2006T15:04",
	"02/01/2006 15:04:05",
	"02/01/2006",
	"02-01-2006T15:04:05",
	"02-01-2006",
	"02.01.06T15:04:05",
	"02.01.06T15:04",
	"02.01.06 15:04:05",
	"02.01.06 15:04",
	"02.01.06",
	"02/01/06",
	"02-01-06",
}

// FromFields builds a Receipt from a normalized mapping. The mapping must be
// Valid; amount, fee and date must parse.
func FromFields(f Fields) (Receipt, error) {
	if missing := Missing(f); len(missing) > 0 {
		return Receipt{}, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	amount, err := ParseAmount(f[Amount])
	if err != nil {
		return Receipt{}, fmt.Errorf("amount: %w", err)
	}

	var fee *decimal.Decimal
	if v := strings.TrimSpace(f[Fee]); v != "" {
		d, err := ParseAmount(v)
		if err != nil {
			return Receipt{}, fmt.Errorf("fee: %w", err)
		}
		fee = &d
	}

	date, err := ParseDate(f[Date])
	if err != nil {
		return Receipt{}, fmt.Errorf("date: %w", err)
	}

	return Receipt{
		Source:      strings.TrimSpace(f[Source]),
		Destination: strings.TrimSpace(f[Destination]),
		Amount:      amount,
		Fee:         fee,
		Date:        date,
	}, nil
}

// ParseAmount parses a currency value the way receipts print it: optional
// thousands spaces, comma or dot decimal separator, optional currency marker.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	for _, suffix := range []string{"руб.", "руб", "RUB", "₽", "р."} {
		s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}

// ParseDate accepts ISO-8601 and common printed layouts, returning ISO-8601.
// Date-only inputs stay date-only.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if strings.ContainsAny(layout, ":") {
			return t.Format("2006-01-02T15:04:05"), nil
		}
		return t.Format("2006-01-02"), nil
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}

// CombineDateTime joins separately extracted date and time values into one
// timestamp string. Time without a date is useless and dropped.
func CombineDateTime(date, clock string) string {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		return ""
	}
	if clock == "" {
		return date
	}
	return date + "T" + clock
}
