package formatter

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/pvcheck/internal/models"
)

func TestCSVFormatter(t *testing.T) {
	var buf bytes.Buffer
	runSample(t, NewCSVFormatter(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"TEST", "CODE", "SUM", "PRODUCT", "EXTRA"},
		{"sum", "0", "100.00", "", ""},
		{"product", "0", "", "50.00", "MISS"},
		{"TOTAL", "", "100.00", "50.00", "0.00"},
	}, records)
}

func TestCSVFormatterExecutionErrors(t *testing.T) {
	suite := "[.TEST]\nslow\n[A]\n1\n[.TEST]\nfast\n[A]\n1\n"
	results := []*models.ExecutionResult{
		{Kind: models.KindTimeout, ExitStatus: -9},
		{Kind: models.KindOk, Stdout: "[A]\n1\n"},
	}
	var buf bytes.Buffer
	require.NoError(t, runSession(t, NewCSVFormatter(&buf), suite, results))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"TEST", "CODE", "A"},
		{"slow", "1", "0"},
		{"fast", "0", "100.00"},
		{"TOTAL", "", "50.00"},
	}, records)
}

func TestCSVFormatterQuotesTitles(t *testing.T) {
	var buf bytes.Buffer
	suite := "[.TEST]\na, b\n[A]\n1\n"
	require.NoError(t, runSession(t, NewCSVFormatter(&buf), suite, []*models.ExecutionResult{{Kind: models.KindOk, Stdout: "[A]\n1\n"}}))
	assert.Contains(t, buf.String(), "\"a, b\",0,100.00\n")
}
