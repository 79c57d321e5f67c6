package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receipt-recognizer/internal/receipt"
)

func TestFieldsFromJSON(t *testing.T) {
	fields, err := fieldsFromJSON(`{
		"source": "MIR ****1723",
		"destination": "****2853",
		"amount": "8700.00",
		"date": "2020-03-31T11:44:30"
	}`)
	require.NoError(t, err)

	assert.Equal(t, "MIR ****1723", fields[receipt.Source])
	assert.True(t, receipt.Valid(receipt.Normalize(fields)))
	_, hasFee := fields[receipt.Fee]
	assert.False(t, hasFee)
}

func TestFieldsFromJSONCodeFences(t *testing.T) {
	fields, err := fieldsFromJSON("```json\n{\"amount\": \"100.00\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "100.00", fields[receipt.Amount])
}

func TestFieldsFromJSONNumericValues(t *testing.T) {
	fields, err := fieldsFromJSON(`{"amount": 8700, "fee": 87.5}`)
	require.NoError(t, err)
	assert.Equal(t, "8700.00", fields[receipt.Amount])
	assert.Equal(t, "87.50", fields[receipt.Fee])
}

func TestFieldsFromJSONEmptyValuesDropped(t *testing.T) {
	fields, err := fieldsFromJSON(`{"source": "", "amount": "1.00"}`)
	require.NoError(t, err)
	_, hasSource := fields[receipt.Source]
	assert.False(t, hasSource)
}

func TestFieldsFromJSONGarbage(t *testing.T) {
	_, err := fieldsFromJSON("sorry, I cannot read this image")
	assert.Error(t, err)
}
