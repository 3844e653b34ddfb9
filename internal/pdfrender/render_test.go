package pdfrender_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/esign/internal/pdfrender"
)

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"clientFullName": "Client Full Name",
		"retainer_fee":   "Retainer Fee",
		"date":           "Date",
		"caseID":         "Case ID",
		"":               "",
	}

	for in, want := range tests {
		assert.Equal(t, want, pdfrender.Label(in), in)
	}
}

func TestRender(t *testing.T) {
	data, err := pdfrender.Render("Retainer Agreement", map[string]string{
		"clientName": "Jane Roe",
		"fee":        "1500 USD",
	})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Greater(t, len(data), 500)
}

func TestRender_ManyFieldsSpansPages(t *testing.T) {
	fields := make(map[string]string)
	for i := 0; i < 80; i++ {
		fields[string(rune('a'+i%26))+string(rune('a'+i/26))] = "value"
	}

	data, err := pdfrender.New().Render("Long Agreement", fields)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
