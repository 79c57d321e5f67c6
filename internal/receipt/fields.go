package receipt

import "strings"

// Canonical field keys. Every recognizer output is renamed onto this set.
const (
	Source      = "source"
	Destination = "destination"
	Amount      = "amount"
	Fee         = "fee"
	Date        = "date"
)

// Auxiliary keys some engines extract alongside the canonical set. They never
// affect validity but are kept for display and auditing.
const (
	Bank        = "bank"
	OperationID = "operation_id"
)

// BaseFields lists all canonical keys, Required the subset a result must carry.
// Fee is optional: not every receipt shows a commission line.
var (
	BaseFields = []string{Source, Destination, Amount, Fee, Date}
	Required   = []string{Source, Destination, Amount, Date}
	Extras     = []string{Bank, OperationID}
)

// Descriptions are used in CLI help and bot messages.
var Descriptions = map[string]string{
	Source:      "Source account/card (sender)",
	Destination: "Destination account/card (recipient)",
	Amount:      "Transaction amount",
	Fee:         "Transaction fee/commission",
	Date:        "Transaction date and time",
}

// Fields is the raw mapping an engine returns before typing.
type Fields map[string]string

// synonyms maps each canonical key to the key names engines are known to use
// for it. First present, non-empty synonym wins. Canonical names come first so
// normalizing an already-canonical mapping is a no-op.
var synonyms = map[string][]string{
	Source:      {Source, "sender", "sender_card", "from", "payer"},
	Destination: {Destination, "receiver", "receiver_card", "to", "payee"},
	Amount:      {Amount, "total", "sum"},
	Fee:         {Fee, "commission"},
	Date:        {Date, "datetime", "time"},
}

// Normalize renames known synonym keys onto the canonical set. Auxiliary keys
// from Extras are carried through unchanged, unknown keys are dropped, missing
// optional fields stay absent. A parseable date is rewritten to ISO-8601.
// Never fails, and normalizing an already-normalized mapping is a no-op.
func Normalize(raw Fields) Fields {
	out := make(Fields, len(BaseFields)+len(Extras))
	for _, canon := range BaseFields {
		for _, key := range synonyms[canon] {
			if v, ok := raw[key]; ok && strings.TrimSpace(v) != "" {
				out[canon] = v
				break
			}
		}
	}
	for _, key := range Extras {
		if v, ok := raw[key]; ok && strings.TrimSpace(v) != "" {
			out[key] = v
		}
	}
	if iso, err := ParseDate(out[Date]); err == nil {
		out[Date] = iso
	}
	return out
}

// Valid reports whether all required keys are present and non-empty.
// Pure predicate, never errors.
func Valid(f Fields) bool {
	for _, k := range Required {
		if strings.TrimSpace(f[k]) == "" {
			return false
		}
	}
	return true
}

// Missing lists the required keys absent or empty in f, for error messages.
func Missing(f Fields) []string {
	var out []string
	for _, k := range Required {
		if strings.TrimSpace(f[k]) == "" {
			out = append(out, k)
		}
	}
	return out
}
