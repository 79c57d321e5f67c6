package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"receipt-recognizer/internal/receipt"
)

const sberText = `СБЕРБАНК
Чек по операции
31.03.2020 11:44:30
Перевод с карты MIR **** 1723
Получатель **** 2853
Сумма 8700.00 руб.
Комиссия: 87.00
Номер документа № 5014320
`

func TestExtract(t *testing.T) {
	f := Extract(sberText)

	assert.Equal(t, "8700.00", f[receipt.Amount])
	assert.Equal(t, "87.00", f[receipt.Fee])
	assert.Equal(t, "31.03.2020T11:44:30", f[receipt.Date])
	assert.Equal(t, "**** 1723", f[receipt.Source])
	assert.Equal(t, "**** 2853", f[receipt.Destination])
	assert.Equal(t, "5014320", f["operation_id"])
	assert.Equal(t, "Сбербанк", f["bank"])

	norm := receipt.Normalize(f)
	assert.True(t, receipt.Valid(norm))
}

func TestExtractPartial(t *testing.T) {
	f := Extract("итого 120,50 RUB за 01/04/2021")

	assert.Equal(t, "120,50", f[receipt.Amount])
	assert.Equal(t, "01/04/2021", f[receipt.Date])
	_, hasSource := f[receipt.Source]
	assert.False(t, hasSource)
	assert.False(t, receipt.Valid(receipt.Normalize(f)))
}

func TestExtractEmpty(t *testing.T) {
	f := Extract("nothing that looks like a receipt")
	assert.Empty(t, f[receipt.Amount])
	assert.False(t, receipt.Valid(f))
}

func TestDetectBank(t *testing.T) {
	tests := []struct{ text, want string }{
		{"Tinkoff Bank receipt", "Тинькофф"},
		{"перевод альфа-банк", "Альфа-банк"},
		{"Банк ВТБ (ПАО)", "ВТБ"},
		{"no bank here", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectBank(tt.text), tt.text)
	}
}
